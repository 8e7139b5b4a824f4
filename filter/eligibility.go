package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/pkg/dsl"
)

// EligibilityFilter 使用 CEL 规则排除不适合当前观众或上下文的版本，
// 表达式为 true 的候选会被过滤。
//
// 示例：
//   - `user.age < 18 && variant.intensity_score > 8.0`
//   - `viewing.device_type == "mobile" && variant.duration > 100`
type EligibilityFilter struct {
	program *dsl.Program
}

// NewEligibilityFilter 编译规则表达式
func NewEligibilityFilter(expr string) (*EligibilityFilter, error) {
	if expr == "" {
		return nil, fmt.Errorf("eligibility rule is empty")
	}
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("eligibility rule %q: %w", expr, err)
	}
	return &EligibilityFilter{program: p}, nil
}

func (f *EligibilityFilter) Name() string {
	return "filter.eligibility"
}

// Rule 返回原始表达式
func (f *EligibilityFilter) Rule() string {
	return f.program.String()
}

func (f *EligibilityFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	if c == nil {
		return true, nil
	}
	return f.program.Evaluate(rctx, c)
}
