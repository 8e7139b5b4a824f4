package rank

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/feature"
	"github.com/rushteam/scenekit/model"
	"github.com/rushteam/scenekit/pipeline"
	"github.com/rushteam/scenekit/pkg/metrics"
	"github.com/rushteam/scenekit/pkg/utils"
)

// ClassifierNode 对每个候选派生特征、预处理并预测掉线概率。
//   - 写入 DropoutProbability，EngagementScore = 1 - DropoutProbability
//   - 写入 labels：rank_model
//   - 按参与度降序稳定排序（同分保持输入顺序）
type ClassifierNode struct {
	Classifier model.Classifier
	Adapter    *feature.Adapter
	Extractor  feature.FeatureExtractor
	// Monitor 可选，记录推理矩阵的列分布
	Monitor *feature.Monitor
}

// NewClassifierNode 使用训练产物构建打分节点，extractor 为 nil 时使用默认推理抽取器。
func NewClassifierNode(bundle *model.Bundle, extractor feature.FeatureExtractor) *ClassifierNode {
	if extractor == nil {
		extractor = feature.NewInferenceExtractor()
	}
	return &ClassifierNode{
		Classifier: bundle.Classifier,
		Adapter:    bundle.Adapter(),
		Extractor:  extractor,
	}
}

func (n *ClassifierNode) Name() string        { return "rank.classifier" }
func (n *ClassifierNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ClassifierNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}
	if n.Classifier == nil || n.Adapter == nil || n.Extractor == nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeUnavailable, "classifier node is not configured")
	}

	records, err := n.Extractor.Extract(ctx, rctx, candidates)
	if err != nil {
		return nil, err
	}
	m, stats := n.Adapter.Transform(records)
	metrics.RecordUnseen(stats.Unseen)
	n.Monitor.Observe(m, stats)
	if total := stats.UnseenTotal(); total > 0 && rctx != nil {
		rctx.PutLabel("unseen_categories", utils.Label{Value: strconv.Itoa(total), Source: "rank"})
	}

	proba, err := n.Classifier.PredictProba(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", n.Classifier.Name(), err)
	}
	if len(proba) != len(candidates) {
		return nil, core.Internal(core.ModuleModel,
			fmt.Sprintf("classifier returned %d scores for %d candidates", len(proba), len(candidates)), nil)
	}
	metrics.CandidatesScoredTotal.Add(float64(len(candidates)))

	for i, c := range candidates {
		c.SetDropout(proba[i])
		c.PutLabel("rank_model", utils.Label{Value: n.Classifier.Name(), Source: "rank"})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].EngagementScore > candidates[j].EngagementScore
	})
	return candidates, nil
}
