package pipeline

import (
	"context"

	"github.com/rushteam/scenekit/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindFilter      Kind = "filter"      // 过滤阶段：剔除不符合约束的版本
	KindRank        Kind = "rank"        // 打分阶段：预测掉线概率并写入参与度
	KindReRank      Kind = "rerank"      // 选择阶段：按场景取最优或截断候选列表
	KindPostProcess Kind = "postprocess" // 后处理阶段：结果修饰
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 candidates -> 输出 candidates”的形态。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		candidates []*core.Candidate,
	) ([]*core.Candidate, error)
}

// NodeBuilder 根据节点配置构建 Node。
type NodeBuilder func(config map[string]interface{}) (Node, error)
