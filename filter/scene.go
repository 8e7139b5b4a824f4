package filter

import (
	"context"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/pipeline"
	"github.com/rushteam/scenekit/pkg/conv"
)

// SceneNode 只保留请求参数 scene_index 指定场景的候选，未指定时原样返回。
type SceneNode struct{}

func (n *SceneNode) Name() string {
	return "filter.scene"
}

func (n *SceneNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *SceneNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if rctx == nil {
		return candidates, nil
	}
	raw, ok := rctx.Params[core.ParamSceneIndex]
	if !ok {
		return candidates, nil
	}
	scene, ok := conv.ToInt(raw)
	if !ok {
		return nil, core.Invalidf(core.ModuleService, "scene_index must be a number, got %T", raw)
	}
	out := make([]*core.Candidate, 0, 4)
	for _, c := range candidates {
		if c != nil && c.SceneIndex() == scene {
			out = append(out, c)
		}
	}
	return out, nil
}
