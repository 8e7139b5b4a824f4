package builders

import (
	"fmt"

	"github.com/rushteam/scenekit/config"
	"github.com/rushteam/scenekit/feature"
	"github.com/rushteam/scenekit/filter"
	"github.com/rushteam/scenekit/pipeline"
	"github.com/rushteam/scenekit/pkg/conv"
	"github.com/rushteam/scenekit/rank"
	"github.com/rushteam/scenekit/rerank"
)

func init() {
	config.Register("filter.eligibility", BuildEligibilityNode)
	config.Register("filter.blacklist", BuildBlacklistNode)
	config.Register("filter.scene", BuildSceneNode)
	config.Register("rank.classifier", BuildClassifierNode)
	config.Register("rerank.scene_best", BuildSceneBestNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildEligibilityNode 配置：rules（CEL 表达式列表）或 rule（单条表达式）
func BuildEligibilityNode(cfg map[string]interface{}, _ config.Dependencies) (pipeline.Node, error) {
	rules := conv.ConvertSlice(conv.ConfigGet[[]interface{}](cfg, "rules", nil), func(v interface{}) (string, bool) {
		s, ok := v.(string)
		return s, ok && s != ""
	})
	if r := conv.ConfigGet(cfg, "rule", ""); r != "" {
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("filter.eligibility requires rule or rules")
	}
	filters := make([]filter.Filter, 0, len(rules))
	for _, r := range rules {
		f, err := filter.NewEligibilityFilter(r)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return &filter.FilterNode{Filters: filters}, nil
}

// BuildBlacklistNode 配置：variant_ids、key、user_key_prefix
func BuildBlacklistNode(cfg map[string]interface{}, deps config.Dependencies) (pipeline.Node, error) {
	f := &filter.BlacklistFilter{
		VariantIDs:    conv.SliceAnyToInt64(cfg["variant_ids"]),
		Store:         deps.Blacklist,
		Key:           conv.ConfigGet(cfg, "key", ""),
		UserKeyPrefix: conv.ConfigGet(cfg, "user_key_prefix", ""),
	}
	if f.Store == nil && (f.Key != "" || f.UserKeyPrefix != "") {
		return nil, fmt.Errorf("filter.blacklist: key configured but no blacklist store")
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

func BuildSceneNode(map[string]interface{}, config.Dependencies) (pipeline.Node, error) {
	return &filter.SceneNode{}, nil
}

// BuildClassifierNode 配置：symmetric_pacing_diff（仅在未注入 Extractor 时生效）
func BuildClassifierNode(cfg map[string]interface{}, deps config.Dependencies) (pipeline.Node, error) {
	if deps.Bundle == nil {
		return nil, fmt.Errorf("rank.classifier requires a loaded model bundle")
	}
	extractor := deps.Extractor
	if extractor == nil {
		extractor = feature.NewInferenceExtractor(
			feature.WithSymmetricPacingDiff(conv.ConfigGet(cfg, "symmetric_pacing_diff", false)),
		)
	}
	node := rank.NewClassifierNode(deps.Bundle, extractor)
	node.Monitor = deps.Monitor
	return node, nil
}

func BuildSceneBestNode(map[string]interface{}, config.Dependencies) (pipeline.Node, error) {
	return &rerank.SceneBestNode{}, nil
}

// BuildTopNNode 配置：n（默认 3）
func BuildTopNNode(cfg map[string]interface{}, _ config.Dependencies) (pipeline.Node, error) {
	n := conv.ConfigGetInt(cfg, "n", 3)
	if n < 0 {
		return nil, fmt.Errorf("rerank.topn: n must not be negative")
	}
	return &rerank.TopNNode{N: n}, nil
}
