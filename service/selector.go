// Package service 提供个性化片段序列选择：整片最优序列与单场景候选版本。
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/feature"
	"github.com/rushteam/scenekit/filter"
	"github.com/rushteam/scenekit/model"
	"github.com/rushteam/scenekit/pipeline"
	"github.com/rushteam/scenekit/pkg/logger"
	"github.com/rushteam/scenekit/pkg/metrics"
	"github.com/rushteam/scenekit/rank"
	"github.com/rushteam/scenekit/rerank"
)

// Selector 基于已加载的产物选择片段序列。构造后只读，可并发使用。
type Selector struct {
	source       core.SegmentSource
	bundle       *model.Bundle
	sequence     *pipeline.Pipeline
	alternatives *pipeline.Pipeline
	cache        core.Store
	cfg          core.SelectorConfig
	log          *logger.Logger
	now          func() time.Time
}

// Option 选择器配置选项
type Option func(*Selector)

// WithCache 使用 store 缓存序列结果，缓存失败不影响请求
func WithCache(store core.Store) Option {
	return func(s *Selector) { s.cache = store }
}

// WithConfig 设置默认 topN、设备类型与缓存时间
func WithConfig(cfg core.SelectorConfig) Option {
	return func(s *Selector) { s.cfg = cfg }
}

// WithPipelines 替换内置的序列 / 候选 Pipeline，nil 表示保留内置
func WithPipelines(sequence, alternatives *pipeline.Pipeline) Option {
	return func(s *Selector) {
		if sequence != nil {
			s.sequence = sequence
		}
		if alternatives != nil {
			s.alternatives = alternatives
		}
	}
}

// WithLogger 设置日志
func WithLogger(log *logger.Logger) Option {
	return func(s *Selector) { s.log = log }
}

// WithClock 设置时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(s *Selector) { s.now = now }
}

// DefaultPipelines 返回内置 Pipeline：
//   - sequence：rank.classifier -> rerank.scene_best
//   - alternatives：filter.scene -> rank.classifier -> rerank.topn
func DefaultPipelines(bundle *model.Bundle, extractor feature.FeatureExtractor, topN int) (sequence, alternatives *pipeline.Pipeline) {
	classifier := rank.NewClassifierNode(bundle, extractor)
	sequence = &pipeline.Pipeline{
		Name:  "sequence",
		Nodes: []pipeline.Node{classifier, &rerank.SceneBestNode{}},
	}
	alternatives = &pipeline.Pipeline{
		Name:  "alternatives",
		Nodes: []pipeline.Node{&filter.SceneNode{}, classifier, &rerank.TopNNode{N: topN}},
	}
	return sequence, alternatives
}

// NewSelector 创建选择器
func NewSelector(source core.SegmentSource, bundle *model.Bundle, opts ...Option) *Selector {
	s := &Selector{
		source: source,
		bundle: bundle,
		cfg:    &core.DefaultSelectorConfig{},
		log:    logger.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sequence == nil || s.alternatives == nil {
		seq, alt := DefaultPipelines(bundle, nil, s.cfg.DefaultTopN())
		if s.sequence == nil {
			s.sequence = seq
		}
		if s.alternatives == nil {
			s.alternatives = alt
		}
	}
	s.log = s.log.With("component", "selector", "model_version", bundle.Version())
	return s
}

// ModelVersion 返回当前产物版本
func (s *Selector) ModelVersion() string { return s.bundle.Version() }

func (s *Selector) viewingContext(vctx core.ViewingContext) core.ViewingContext {
	if vctx.Now.IsZero() {
		vctx.Now = s.now()
	}
	if vctx.DeviceType == "" {
		vctx.DeviceType = s.cfg.DefaultDeviceType()
	}
	return vctx
}

// load 读取用户与影片片段并构造请求上下文
func (s *Selector) load(ctx context.Context, userID, movieID int64, vctx core.ViewingContext) (*core.RecommendContext, []core.Segment, error) {
	user, err := s.source.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	segs, err := s.source.GetMovieSegments(ctx, movieID)
	if err != nil {
		return nil, nil, err
	}
	if segs.Movie.SceneCount <= 0 {
		return nil, nil, core.Invalidf(core.ModuleService, "movie %d declares scene_count %d", movieID, segs.Movie.SceneCount)
	}
	rctx := &core.RecommendContext{
		User:    user,
		Movie:   &segs.Movie,
		Viewing: vctx,
		Params:  make(map[string]any),
	}
	return rctx, segs.Segments, nil
}

// PredictSegmentSequence 为每个场景选出参与度最高的版本，按 scene_index 升序返回。
func (s *Selector) PredictSegmentSequence(ctx context.Context, userID, movieID int64, vctx core.ViewingContext) (*SequenceResult, error) {
	vctx = s.viewingContext(vctx)

	key := s.cacheKey(userID, movieID, vctx)
	if cached := s.cacheGet(ctx, key); cached != nil {
		return cached, nil
	}

	rctx, segments, err := s.load(ctx, userID, movieID, vctx)
	if err != nil {
		return nil, err
	}
	selected, err := s.sequence.Run(ctx, rctx, core.CandidatesFrom(segments))
	if err != nil {
		return nil, err
	}

	res := newResult(rctx.User, rctx.Movie, vctx, s.bundle.Version(), selected, s.now().UTC())
	s.log.Debug("sequence selected",
		"user_id", userID, "movie_id", movieID, "scenes", len(res.Sequence),
		"avg_engagement", res.AvgEngagement, "labels", rctx.Labels)

	s.cacheSet(ctx, key, res)
	return res, nil
}

// DefaultTopN 作为 topN 传入时使用配置的默认值
const DefaultTopN = -1

// GetAlternativeVariants 返回某场景按参与度降序的前 topN 个版本。
// topN < 0（DefaultTopN）时使用默认值，topN == 0 时返回空列表；场景不存在时返回空列表。
func (s *Selector) GetAlternativeVariants(ctx context.Context, userID, movieID int64, sceneIndex, topN int, vctx core.ViewingContext) ([]Alternative, error) {
	vctx = s.viewingContext(vctx)
	if topN < 0 {
		topN = s.cfg.DefaultTopN()
	}

	rctx, segments, err := s.load(ctx, userID, movieID, vctx)
	if err != nil {
		return nil, err
	}
	rctx.Params[core.ParamSceneIndex] = sceneIndex
	rctx.Params[core.ParamTopN] = topN

	out, err := s.alternatives.Run(ctx, rctx, core.CandidatesFrom(segments))
	if err != nil {
		return nil, err
	}
	return newAlternatives(out), nil
}

// cacheKey 覆盖所有影响特征的上下文：设备、小时、周末、年份（年龄）与模型版本
func (s *Selector) cacheKey(userID, movieID int64, vctx core.ViewingContext) string {
	return fmt.Sprintf("seq:%d:%d:%s:%d:%t:%d:%s",
		userID, movieID, vctx.DeviceType, vctx.Now.Hour(), feature.IsWeekend(vctx.Now), vctx.Now.Year(), s.bundle.Version())
}

func (s *Selector) cacheGet(ctx context.Context, key string) *SequenceResult {
	if s.cache == nil || s.cfg.CacheTTLSeconds() <= 0 {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			metrics.RecordCacheMiss()
		} else {
			metrics.RecordCacheError()
			s.log.Warn("cache get failed", "key", key, "store", s.cache.Name(), "error", err)
		}
		return nil
	}
	var res SequenceResult
	if err := json.Unmarshal(data, &res); err != nil {
		metrics.RecordCacheError()
		s.log.Warn("cache decode failed", "key", key, "error", err)
		return nil
	}
	metrics.RecordCacheHit()
	res.Cached = true
	return &res
}

func (s *Selector) cacheSet(ctx context.Context, key string, res *SequenceResult) {
	ttl := s.cfg.CacheTTLSeconds()
	if s.cache == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		s.log.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		metrics.RecordCacheError()
		s.log.Warn("cache set failed", "key", key, "store", s.cache.Name(), "error", err)
	}
}
