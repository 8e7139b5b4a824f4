package feature

import (
	"context"
	"fmt"

	"github.com/rushteam/scenekit/core"
)

// FeatureExtractor 是特征抽取器的统一接口，采用策略模式。
//
// 为请求上下文中的每个候选片段生成一条 Record，顺序与 candidates 一致。
// 自定义实现可以替换派生逻辑（例如离线回放、A/B 实验）。
type FeatureExtractor interface {
	Extract(ctx context.Context, rctx *core.RecommendContext, candidates []*core.Candidate) ([]Record, error)

	// Name 返回抽取器名称（用于日志/监控）
	Name() string
}

// InferenceExtractor 是默认的推理特征抽取器，对每个候选调用 DeriveInference。
type InferenceExtractor struct {
	Options DeriveOptions
}

// NewInferenceExtractor 创建推理特征抽取器
func NewInferenceExtractor(opts ...InferenceExtractorOption) *InferenceExtractor {
	e := &InferenceExtractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InferenceExtractorOption 抽取器配置选项
type InferenceExtractorOption func(*InferenceExtractor)

// WithSymmetricPacingDiff 推理路径使用与训练一致的对称节奏差
func WithSymmetricPacingDiff(symmetric bool) InferenceExtractorOption {
	return func(e *InferenceExtractor) {
		e.Options.SymmetricPacingDiff = symmetric
	}
}

func (e *InferenceExtractor) Name() string {
	return "inference"
}

func (e *InferenceExtractor) Extract(ctx context.Context, rctx *core.RecommendContext, candidates []*core.Candidate) ([]Record, error) {
	if rctx == nil || rctx.User == nil || rctx.Movie == nil {
		return nil, core.Invalidf(core.ModuleFeature, "feature extraction requires user and movie")
	}
	records := make([]Record, len(candidates))
	for i, c := range candidates {
		r, err := DeriveInference(rctx.User, rctx.Movie, c.Segment, rctx.Viewing, e.Options)
		if err != nil {
			return nil, fmt.Errorf("derive variant %d: %w", c.Segment.Variant.VariantID, err)
		}
		records[i] = r
	}
	return records, nil
}

// CustomExtractor 使用函数实现 FeatureExtractor
type CustomExtractor struct {
	name string
	fn   func(ctx context.Context, rctx *core.RecommendContext, candidates []*core.Candidate) ([]Record, error)
}

// NewCustomExtractor 创建自定义抽取器
func NewCustomExtractor(name string, fn func(ctx context.Context, rctx *core.RecommendContext, candidates []*core.Candidate) ([]Record, error)) *CustomExtractor {
	return &CustomExtractor{name: name, fn: fn}
}

func (e *CustomExtractor) Name() string { return e.name }

func (e *CustomExtractor) Extract(ctx context.Context, rctx *core.RecommendContext, candidates []*core.Candidate) ([]Record, error) {
	return e.fn(ctx, rctx, candidates)
}
