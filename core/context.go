package core

import (
	"time"

	"github.com/rushteam/scenekit/pkg/utils"
)

// ViewingContext 是一次推理请求的观看上下文。
type ViewingContext struct {
	Now        time.Time
	DeviceType string
}

// NewViewingContext 创建观看上下文，device 为空时使用 desktop。
func NewViewingContext(now time.Time, device string) ViewingContext {
	if device == "" {
		device = DefaultDeviceType
	}
	return ViewingContext{Now: now, DeviceType: device}
}

// RecommendContext 承载用户/影片/观看上下文，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	User    *UserProfile
	Movie   *Movie
	Viewing ViewingContext

	// Labels 是请求级标签，记录 Pipeline 的决策过程（例如过滤被放宽的场景）
	Labels map[string]utils.Label

	// Params 请求级参数，例如 scene_index、top_n
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// 请求级参数 key
const (
	ParamTopN       = "top_n"
	ParamSceneIndex = "scene_index"
)
