package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rushteam/scenekit/pipeline"
)

// 内置的两条 Pipeline：整片序列选择与单场景候选版本。
const (
	sequencePipelineYAML = `
pipeline:
  name: sequence
  nodes:
    - type: rank.classifier
    - type: rerank.scene_best
`
	alternativesPipelineYAML = `
pipeline:
  name: alternatives
  nodes:
    - type: filter.scene
    - type: rank.classifier
    - type: rerank.topn
      config:
        n: 3
`
)

// DefaultSequenceConfig 返回内置的序列选择 Pipeline 配置
func DefaultSequenceConfig() *pipeline.Config {
	cfg, err := pipeline.ParseYAML([]byte(sequencePipelineYAML))
	if err != nil {
		panic(err)
	}
	return cfg
}

// DefaultAlternativesConfig 返回内置的候选版本 Pipeline 配置
func DefaultAlternativesConfig() *pipeline.Config {
	cfg, err := pipeline.ParseYAML([]byte(alternativesPipelineYAML))
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadPipelineConfig 按扩展名加载 YAML 或 JSON 配置，path 为空时返回 fallback。
func LoadPipelineConfig(path string, fallback *pipeline.Config) (*pipeline.Config, error) {
	if path == "" {
		return fallback, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return pipeline.LoadFromJSON(path)
	case ".yaml", ".yml":
		return pipeline.LoadFromYAML(path)
	default:
		return nil, fmt.Errorf("unsupported pipeline config format: %s", path)
	}
}

// BuildPipeline 校验并构建 Pipeline
func BuildPipeline(cfg *pipeline.Config, deps Dependencies) (*pipeline.Pipeline, error) {
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	return cfg.BuildPipeline(DefaultFactory(deps))
}

// PrependEligibility 返回在最前面插入 filter.eligibility 节点的配置副本，rules 为空时原样返回。
func PrependEligibility(cfg *pipeline.Config, rules []string) *pipeline.Config {
	if len(rules) == 0 {
		return cfg
	}
	anyRules := make([]interface{}, len(rules))
	for i, r := range rules {
		anyRules[i] = r
	}
	out := *cfg
	out.Pipeline.Nodes = append([]pipeline.NodeConfig{{
		Type:   "filter.eligibility",
		Config: map[string]interface{}{"rules": anyRules},
	}}, cfg.Pipeline.Nodes...)
	return &out
}
