package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/pkg/metrics"
)

// Pipeline 把一次选择拆成可组合的 Node 链：过滤 -> 打分 -> 选择。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Run 依次执行各节点，任一节点出错即返回。每个节点的耗时计入监控。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	cur := candidates
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		metrics.RecordNode(node.Name(), time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// NodeNames 返回节点名称列表（日志用）
func (p *Pipeline) NodeNames() []string {
	names := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		names[i] = n.Name()
	}
	return names
}
