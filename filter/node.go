package filter

import (
	"context"
	"sort"
	"strconv"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/pipeline"
	"github.com/rushteam/scenekit/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该版本就会被过滤掉。
//
// 场景不会被过滤为空：某场景的全部版本都被过滤时，恢复该场景的原始版本，
// 并在请求上记录 filter_relaxed 标签。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Filters) == 0 || len(candidates) == 0 {
		return candidates, nil
	}

	removed := make([]bool, len(candidates))
	keptPerScene := make(map[int]int)
	for i, c := range candidates {
		if c == nil {
			removed[i] = true
			continue
		}
		keptPerScene[c.SceneIndex()] += 0

		reason := n.firstMatch(ctx, rctx, c)
		if reason != "" {
			removed[i] = true
			c.PutLabel("filtered", utils.Label{Value: "true", Source: reason})
			continue
		}
		keptPerScene[c.SceneIndex()]++
	}

	relaxed := make(map[int]bool)
	for scene, kept := range keptPerScene {
		if kept == 0 {
			relaxed[scene] = true
		}
	}

	out := make([]*core.Candidate, 0, len(candidates))
	for i, c := range candidates {
		if c == nil {
			continue
		}
		if removed[i] && !relaxed[c.SceneIndex()] {
			continue
		}
		if relaxed[c.SceneIndex()] {
			c.PutLabel("filter_relaxed", utils.Label{Value: "true", Source: "filter"})
		}
		out = append(out, c)
	}

	if rctx != nil {
		for _, scene := range sortedKeys(relaxed) {
			rctx.PutLabel("filter_relaxed", utils.Label{Value: strconv.Itoa(scene), Source: "filter"})
		}
	}
	return out, nil
}

// firstMatch 返回第一个命中的过滤器名称，未命中返回空串。
// 过滤器出错时视为未命中，不中断流程。
func (n *FilterNode) firstMatch(ctx context.Context, rctx *core.RecommendContext, c *core.Candidate) string {
	for _, f := range n.Filters {
		ok, err := f.ShouldFilter(ctx, rctx, c)
		if err != nil {
			c.PutLabel("filter_error", utils.Label{Value: f.Name(), Source: "filter"})
			continue
		}
		if ok {
			return f.Name()
		}
	}
	return ""
}

func sortedKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
