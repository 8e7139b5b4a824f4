package rerank

import (
	"context"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/pipeline"
	"github.com/rushteam/scenekit/pkg/conv"
)

// TopNNode 是一个 Top-N 截断节点，用于在打分后截取前 N 个候选版本。
// 通常在打分（Rank）节点之后使用，候选应已按参与度降序排列。
//
// 请求参数 top_n（rctx.Params）优先于节点配置的 N；显式的 0 返回空列表，负数被忽略。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.ClassifierNode{...},  // 打分
//	        &rerank.TopNNode{N: 3},     // 截取 Top 3
//	    },
//	}
type TopNNode struct {
	// N 要保留的候选数量（Top N）
	// 如果 N <= 0，则返回所有候选（不截断）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	limit := n.N
	if limit <= 0 {
		limit = len(candidates)
	}
	if rctx != nil {
		if v, ok := conv.ToInt(rctx.Params[core.ParamTopN]); ok && v >= 0 {
			limit = v
		}
	}

	if len(candidates) <= limit {
		return candidates, nil
	}
	return candidates[:limit], nil
}
