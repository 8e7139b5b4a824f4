package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/feature"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("user", cel.DynType),
		cel.Variable("movie", cel.DynType),
		cel.Variable("scene", cel.DynType),
		cel.Variable("variant", cel.DynType),
		cel.Variable("viewing", cel.DynType),
		cel.Variable("label", cel.DynType),
		// user.age 是 double，允许与整数字面量直接比较
		cel.CrossTypeNumericComparisons(true),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译后的规则表达式，使用 CEL (Common Expression Language) 实现。
// 编译一次，可并发多次求值。
//
// 可用变量：
//   - user：age / sex / neuroticism / extraversion / preferred_pacing / favourite_genres
//   - movie：movie_id / title / rating / genres / scene_count
//   - scene：scene_id / scene_index
//   - variant：variant_id / name / pacing_score / intensity_score / action_level /
//     dialogue_density / character_focus / emotional_tone / duration
//   - viewing：hour / weekend / device_type
//   - label：候选 Label 的 value
//
// 示例：
//   - `user.age < 18 && variant.intensity_score > 8`
//   - `viewing.device_type == "mobile" && variant.duration > 100`
//   - `movie.rating == "R" && variant.name == "intense"`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。空表达式返回 nil，表示不启用规则。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return boolean, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式
func (p *Program) String() string { return p.expr }

// Evaluate 对单个候选求值，返回布尔结果。
func (p *Program) Evaluate(rctx *core.RecommendContext, c *core.Candidate) (bool, error) {
	out, _, err := p.prg.Eval(BuildInput(rctx, c))
	if err != nil {
		// 访问不存在的 key 会报错，可使用 has(label.key) 检查存在性
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// BuildInput 构建 CEL 表达式的输入数据
func BuildInput(rctx *core.RecommendContext, c *core.Candidate) map[string]interface{} {
	input := map[string]interface{}{
		"user":    map[string]interface{}{},
		"movie":   map[string]interface{}{},
		"viewing": map[string]interface{}{},
	}

	if rctx != nil {
		now := rctx.Viewing.Now
		if u := rctx.User; u != nil {
			up := u.WithDefaults()
			input["user"] = map[string]interface{}{
				"user_id":            up.UserID,
				"age":                feature.Age(up, now),
				"sex":                up.Sex,
				"openness":           core.Float(up.Openness, core.DefaultTrait),
				"conscientiousness":  core.Float(up.Conscientiousness, core.DefaultTrait),
				"extraversion":       core.Float(up.Extraversion, core.DefaultTrait),
				"agreeableness":      core.Float(up.Agreeableness, core.DefaultTrait),
				"neuroticism":        core.Float(up.Neuroticism, core.DefaultTrait),
				"preferred_pacing":   core.Float(up.PreferredPacing, core.DefaultPacing),
				"favourite_genres":   up.FavouriteGenres,
				"avg_session_length": core.Float(up.AvgSessionLength, core.DefaultAvgSessionLength),
			}
		}
		if m := rctx.Movie; m != nil {
			input["movie"] = map[string]interface{}{
				"movie_id":     m.MovieID,
				"title":        m.Title,
				"rating":       m.Rating,
				"genres":       m.Genres,
				"release_year": m.ReleaseYear,
				"scene_count":  m.SceneCount,
			}
		}
		input["viewing"] = map[string]interface{}{
			"hour":        now.Hour(),
			"weekend":     feature.IsWeekend(now),
			"device_type": rctx.Viewing.DeviceType,
		}
	}

	labels := make(map[string]interface{})
	if c != nil {
		v := c.Segment.Variant
		input["scene"] = map[string]interface{}{
			"scene_id":    c.Segment.Scene.SceneID,
			"scene_index": c.Segment.Scene.SceneIndex,
		}
		input["variant"] = map[string]interface{}{
			"variant_id":       v.VariantID,
			"name":             v.Name,
			"pacing_score":     v.PacingScore,
			"intensity_score":  v.IntensityScore,
			"dialogue_density": v.DialogueDensity,
			"action_level":     v.ActionLevel,
			"character_focus":  v.CharacterFocus,
			"emotional_tone":   v.EmotionalTone,
			"duration":         v.Duration,
		}
		for k, lbl := range c.Labels {
			labels[k] = lbl.Value
		}
	} else {
		input["scene"] = map[string]interface{}{}
		input["variant"] = map[string]interface{}{}
	}
	input["label"] = labels
	return input
}
