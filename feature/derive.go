package feature

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rushteam/scenekit/core"
)

// DeriveOptions 控制推理路径的派生细节。
type DeriveOptions struct {
	// SymmetricPacingDiff 为 true 时推理路径使用 |preferred - pacing|，
	// 与训练路径一致；默认保持线上行为 |preferred| - pacing。
	SymmetricPacingDiff bool
}

// CanonicalGenres 规范化类型集合：去空白、去重、排序后以逗号连接。
func CanonicalGenres(genres []string) string {
	if len(genres) == 0 {
		return ""
	}
	seen := make(map[string]struct{}, len(genres))
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

// Age 计算 at 时刻的年龄，出生日期缺失或无法解析时为 25。
func Age(user *core.UserProfile, at time.Time) float64 {
	year, ok := user.BirthYear()
	if !ok {
		return core.DefaultAge
	}
	return float64(at.Year() - year)
}

// IsWeekend 判断是否为周末（周六、周日）。
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func movieProgress(scene core.Scene, movie *core.Movie) (float64, error) {
	if movie.SceneCount <= 0 {
		return 0, core.Invalidf(core.ModuleFeature,
			"movie %d declares scene_count=%d", movie.MovieID, movie.SceneCount)
	}
	return float64(scene.SceneIndex) / float64(movie.SceneCount), nil
}

func optional(p *float64) float64 {
	if p == nil {
		return Missing()
	}
	return *p
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// deriveCommon 填充两条路径共享的内容/上下文字段。
func deriveCommon(r *Record, movie *core.Movie, seg core.Segment, at time.Time, device string) error {
	progress, err := movieProgress(seg.Scene, movie)
	if err != nil {
		return err
	}
	v := seg.Variant
	r.PacingScore = v.PacingScore
	r.IntensityScore = v.IntensityScore
	r.DialogueDensity = v.DialogueDensity
	r.ActionLevel = v.ActionLevel
	r.CharacterFocus = v.CharacterFocus
	r.EmotionalTone = v.EmotionalTone
	r.SegmentDuration = float64(v.Duration)

	r.ReleaseYear = float64(movie.ReleaseYear)
	r.MovieDuration = float64(movie.Duration)
	r.SceneCount = float64(movie.SceneCount)

	r.SceneIndex = float64(seg.Scene.SceneIndex)
	r.MovieProgress = progress
	r.SegmentPosition = SegmentPosition(progress)
	r.ViewingHour = float64(at.Hour())
	r.IsWeekend = boolFloat(IsWeekend(at))
	r.DeviceType = device
	return nil
}

// DeriveTraining 从一行历史观看记录派生特征。
// 缺失的可空列保持缺失（NaN / 空串），交给 Imputer 处理。
func DeriveTraining(row core.TrainingRow) (Record, error) {
	var r Record
	seg := core.Segment{Scene: row.Scene, Variant: row.Variant}
	if err := deriveCommon(&r, &row.Movie, seg, row.StartTime, row.DeviceType); err != nil {
		return Record{}, err
	}
	u := &row.User
	r.Age = Age(u, row.StartTime)
	r.Openness = optional(u.Openness)
	r.Conscientiousness = optional(u.Conscientiousness)
	r.Extraversion = optional(u.Extraversion)
	r.Agreeableness = optional(u.Agreeableness)
	r.Neuroticism = optional(u.Neuroticism)
	r.PreferredPacing = optional(u.PreferredPacing)
	r.TotalWatchTime = optional(u.TotalWatchTime)
	r.AvgSessionLength = optional(u.AvgSessionLength)
	r.Sex = u.Sex
	r.FavouriteGenres = CanonicalGenres(u.FavouriteGenres)

	r.IMDBRating = optional(row.Movie.IMDBRating)
	r.MovieRating = row.Movie.Rating
	r.Genres = CanonicalGenres(row.Movie.Genres)
	r.VariantName = row.Variant.Name

	// 时长为 0 时比例缺失
	if row.Variant.Duration > 0 {
		r.CompletionRatio = float64(row.WatchDuration) / float64(row.Variant.Duration)
	} else {
		r.CompletionRatio = Missing()
	}
	r.CompletionCategory = CompletionCategory(r.CompletionRatio)
	r.UserExperience = UserExperience(r.TotalWatchTime)

	r.PacingPreferenceDiff = math.Abs(r.PreferredPacing - r.PacingScore)
	r.IntensityExtraversionMatch = r.IntensityScore * r.Extraversion / 10
	return r, nil
}

// DeriveInference 为一个候选片段派生推理特征。
// user 缺失的字段使用中性默认值；观看相关的字段取固定值（尚未观看）。
func DeriveInference(user *core.UserProfile, movie *core.Movie, seg core.Segment, vctx core.ViewingContext, opts DeriveOptions) (Record, error) {
	var r Record
	device := vctx.DeviceType
	if device == "" {
		device = core.DefaultDeviceType
	}
	if err := deriveCommon(&r, movie, seg, vctx.Now, device); err != nil {
		return Record{}, err
	}
	u := user.WithDefaults()
	r.Age = Age(u, vctx.Now)
	r.Openness = *u.Openness
	r.Conscientiousness = *u.Conscientiousness
	r.Extraversion = *u.Extraversion
	r.Agreeableness = *u.Agreeableness
	r.Neuroticism = *u.Neuroticism
	r.PreferredPacing = *u.PreferredPacing
	r.TotalWatchTime = *u.TotalWatchTime
	r.AvgSessionLength = *u.AvgSessionLength
	r.Sex = u.Sex
	r.FavouriteGenres = CanonicalGenres(u.FavouriteGenres)

	r.IMDBRating = core.Float(movie.IMDBRating, core.DefaultIMDBRating)
	r.MovieRating = movie.Rating
	if r.MovieRating == "" {
		r.MovieRating = core.DefaultMovieRating
	}
	r.Genres = CanonicalGenres(movie.Genres)
	if r.Genres == "" {
		r.Genres = core.DefaultMovieGenres
	}
	r.VariantName = seg.Variant.Name
	if r.VariantName == "" {
		r.VariantName = core.DefaultVariantName
	}

	r.CompletionRatio = InferenceCompletionRatio
	r.CompletionCategory = InferenceCompletionCategory
	r.UserExperience = InferenceUserExperience

	if opts.SymmetricPacingDiff {
		r.PacingPreferenceDiff = math.Abs(r.PreferredPacing - r.PacingScore)
	} else {
		r.PacingPreferenceDiff = math.Abs(r.PreferredPacing) - r.PacingScore
	}
	r.IntensityExtraversionMatch = r.IntensityScore * r.Extraversion / 10
	return r, nil
}
