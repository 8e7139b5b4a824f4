package core

import (
	"strings"
	"time"
)

// 推理路径上的中性默认值（与库中 COALESCE 规则一致）。
const (
	DefaultTrait            = 5.0
	DefaultPacing           = 5.0
	DefaultSex              = "Other"
	DefaultFavouriteGenres  = "drama"
	DefaultAvgSessionLength = 60.0
	DefaultAge              = 25
)

// UserProfile 是用户画像。
//
// 人格特质与节奏偏好在库中可以为空：训练路径保留缺失（后续按中位数填充），
// 推理路径通过 WithDefaults 替换为中性默认值。
type UserProfile struct {
	UserID   int64
	Username string

	// 人格特质（大五模型），合成数据中取值 [0,1]
	Openness          *float64
	Conscientiousness *float64
	Extraversion      *float64
	Agreeableness     *float64
	Neuroticism       *float64

	// 偏好节奏 [0,10]
	PreferredPacing *float64

	// 行为统计
	TotalWatchTime   *float64
	AvgSessionLength *float64
	FavouriteGenres  []string

	// 静态属性
	DOB              string // 出生日期 YYYY-MM-DD，可能为空或无法解析
	Sex              string
	RegistrationDate time.Time
}

// Traits 是五个人格特质的值类型，用于合成启发式。
type Traits struct {
	Openness          float64
	Conscientiousness float64
	Extraversion      float64
	Agreeableness     float64
	Neuroticism       float64
}

// Float 返回指针指向的值；nil 时返回 def。
func Float(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// F 返回 v 的指针，便于构造可空字段。
func F(v float64) *float64 { return &v }

// BirthYear 解析出生年份，无法解析时返回 false。
func (p *UserProfile) BirthYear() (int, bool) {
	dob := strings.TrimSpace(p.DOB)
	if dob == "" {
		return 0, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "2006"} {
		if t, err := time.Parse(layout, dob); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

// TraitValues 返回人格特质（缺失按 0 处理，与库默认值一致）。
func (p *UserProfile) TraitValues() Traits {
	return Traits{
		Openness:          Float(p.Openness, 0),
		Conscientiousness: Float(p.Conscientiousness, 0),
		Extraversion:      Float(p.Extraversion, 0),
		Agreeableness:     Float(p.Agreeableness, 0),
		Neuroticism:       Float(p.Neuroticism, 0),
	}
}

// WithDefaults 返回一份填充了推理默认值的拷贝，原对象不变。
func (p *UserProfile) WithDefaults() *UserProfile {
	out := *p
	fill := func(v *float64, def float64) *float64 {
		if v == nil {
			return F(def)
		}
		return v
	}
	out.Openness = fill(p.Openness, DefaultTrait)
	out.Conscientiousness = fill(p.Conscientiousness, DefaultTrait)
	out.Extraversion = fill(p.Extraversion, DefaultTrait)
	out.Agreeableness = fill(p.Agreeableness, DefaultTrait)
	out.Neuroticism = fill(p.Neuroticism, DefaultTrait)
	out.PreferredPacing = fill(p.PreferredPacing, DefaultPacing)
	out.TotalWatchTime = fill(p.TotalWatchTime, 0)
	out.AvgSessionLength = fill(p.AvgSessionLength, DefaultAvgSessionLength)
	if out.Sex == "" {
		out.Sex = DefaultSex
	}
	if len(out.FavouriteGenres) == 0 {
		out.FavouriteGenres = []string{DefaultFavouriteGenres}
	}
	return &out
}
