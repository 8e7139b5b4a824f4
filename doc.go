// Package scenekit 为影片的每个场景挑选最能留住观众的片段版本。
//
// 设计要点：
// - Pipeline-first: 选择逻辑通过 Node 串联（Filter → Rank → ReRank）
// - Labels-first: labels 全链路透传，记录过滤、放宽、打分模型等决策
// - 训练与推理共用同一套特征派生，推理列顺序由训练产物冻结
package scenekit

import (
	"github.com/rushteam/scenekit/pipeline"
	"github.com/rushteam/scenekit/service"
)

// 轻量 facade：便于直接 import "scenekit" 使用核心抽象。
type (
	Pipeline       = pipeline.Pipeline
	Node           = pipeline.Node
	Kind           = pipeline.Kind
	Selector       = service.Selector
	SequenceResult = service.SequenceResult
	Alternative    = service.Alternative
)

const (
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// NewSelector 同 service.NewSelector
var NewSelector = service.NewSelector
