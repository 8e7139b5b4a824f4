package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/scenekit/feature"
	"github.com/rushteam/scenekit/filter"
	"github.com/rushteam/scenekit/model"
	"github.com/rushteam/scenekit/pipeline"
)

// 使用配置驱动时，需在 main 或入口处 import _ "github.com/rushteam/scenekit/config/builders"
// 以触发内置 Node（filter.eligibility、rank.classifier、rerank.scene_best 等）的 init 注册。

// Dependencies 是节点构建时需要、但无法写进 YAML 的运行期依赖。
type Dependencies struct {
	// Bundle 训练产物，rank.classifier 必需
	Bundle *model.Bundle
	// Extractor 特征抽取器，为 nil 时使用默认推理抽取器
	Extractor feature.FeatureExtractor
	// Blacklist 黑名单存储，filter.blacklist 可选
	Blacklist filter.BlacklistStore
	// Monitor 特征分布监控，可选
	Monitor *feature.Monitor
}

// NodeBuilder 根据节点配置与运行期依赖构建 Node。
// 各组件在 init 中调用 Register(typeName, builder) 即可被配置驱动。
type NodeBuilder func(cfg map[string]interface{}, deps Dependencies) (pipeline.Node, error)

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑，供 DefaultFactory 与配置驱动使用。
// 建议在各组件的 init 中调用，例如：func init() { config.Register("rerank.topn", BuildTopNNode) }
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回绑定了 deps 的 NodeFactory，包含所有通过 Register 注册的 Node 类型。
func DefaultFactory(deps Dependencies) *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, func(cfg map[string]interface{}) (pipeline.Node, error) {
			return builder(cfg, deps)
		})
	}
	return f
}

// ValidatePipelineConfig 校验 pipeline 配置中所有 node 类型均已注册；若有未支持类型则返回包含已支持列表的错误。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return fmt.Errorf("pipeline config is nil")
	}
	supported := SupportedTypes()
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	for _, nc := range cfg.Pipeline.Nodes {
		if _, ok := defaultBuilders[nc.Type]; !ok {
			return fmt.Errorf("unsupported node type %q (supported: %v)", nc.Type, supported)
		}
	}
	return nil
}
