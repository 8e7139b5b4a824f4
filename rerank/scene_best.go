package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/pipeline"
	"github.com/rushteam/scenekit/pkg/utils"
)

// SceneBestNode 按场景分组，每个场景只保留参与度最高的版本，
// 输出按 scene_index 升序。同分时保留先出现的版本。
type SceneBestNode struct{}

func (n *SceneBestNode) Name() string {
	return "rerank.scene_best"
}

func (n *SceneBestNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *SceneBestNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	best := make(map[int]*core.Candidate, 16)
	for _, c := range candidates {
		if c == nil {
			continue
		}
		cur, ok := best[c.SceneIndex()]
		if !ok || c.EngagementScore > cur.EngagementScore {
			best[c.SceneIndex()] = c
		}
	}

	out := make([]*core.Candidate, 0, len(best))
	for _, c := range best {
		c.PutLabel("selected", utils.Label{Value: "scene_best", Source: "rerank"})
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SceneIndex() < out[j].SceneIndex()
	})
	return out, nil
}
