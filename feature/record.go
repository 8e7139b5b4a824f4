package feature

import "math"

// 数值特征列名
const (
	ColAge                        = "age"
	ColOpenness                   = "openness"
	ColConscientiousness          = "conscientiousness"
	ColExtraversion               = "extraversion"
	ColAgreeableness              = "agreeableness"
	ColNeuroticism                = "neuroticism"
	ColPreferredPacing            = "preferred_pacing"
	ColTotalWatchTime             = "total_watch_time"
	ColAvgSessionLength           = "avg_session_length"
	ColPacingScore                = "pacing_score"
	ColIntensityScore             = "intensity_score"
	ColDialogueDensity            = "dialogue_density"
	ColActionLevel                = "action_level"
	ColCharacterFocus             = "character_focus"
	ColEmotionalTone              = "emotional_tone"
	ColSegmentDuration            = "segment_duration"
	ColReleaseYear                = "release_year"
	ColMovieDuration              = "movie_duration"
	ColIMDBRating                 = "imdb_rating"
	ColSceneCount                 = "scene_count"
	ColSceneIndex                 = "scene_index"
	ColMovieProgress              = "movie_progress"
	ColViewingHour                = "viewing_hour"
	ColCompletionRatio            = "completion_ratio"
	ColPacingPreferenceDiff       = "pacing_preference_diff"
	ColIntensityExtraversionMatch = "intensity_extraversion_match"
	ColIsWeekend                  = "is_weekend_int"
)

// 类别特征列名
const (
	ColSex                = "sex"
	ColVariantName        = "variant_name"
	ColMovieRating        = "movie_rating"
	ColDeviceType         = "device_type"
	ColUserExperience     = "user_experience"
	ColSegmentPosition    = "segment_position"
	ColGenres             = "genres"
	ColFavouriteGenres    = "favourite_genres"
	ColCompletionCategory = "completion_category"
)

// EncodedSuffix 是类别特征编码后的列名后缀
const EncodedSuffix = "_encoded"

// NumericColumns 数值特征的固定顺序
var NumericColumns = []string{
	// 用户
	ColAge, ColOpenness, ColConscientiousness, ColExtraversion,
	ColAgreeableness, ColNeuroticism, ColPreferredPacing, ColTotalWatchTime, ColAvgSessionLength,
	// 内容
	ColPacingScore, ColIntensityScore, ColDialogueDensity,
	ColActionLevel, ColCharacterFocus, ColEmotionalTone, ColSegmentDuration,
	ColReleaseYear, ColMovieDuration, ColIMDBRating, ColSceneCount,
	// 上下文
	ColSceneIndex, ColMovieProgress, ColViewingHour,
	// 派生
	ColCompletionRatio, ColPacingPreferenceDiff, ColIntensityExtraversionMatch,
}

// CategoricalColumns 类别特征的固定顺序
var CategoricalColumns = []string{
	ColSex, ColVariantName, ColMovieRating,
	ColDeviceType, ColUserExperience, ColSegmentPosition, ColGenres,
	ColFavouriteGenres, ColCompletionCategory,
}

// Columns 返回训练时使用的完整列顺序：数值列、编码后的类别列、is_weekend_int。
func Columns() []string {
	cols := make([]string, 0, len(NumericColumns)+len(CategoricalColumns)+1)
	cols = append(cols, NumericColumns...)
	for _, c := range CategoricalColumns {
		cols = append(cols, c+EncodedSuffix)
	}
	return append(cols, ColIsWeekend)
}

// Record 是一条 (用户, 候选版本, 上下文) 的特征记录。
// 训练抽取与推理抽取共用同一结构，缺失的数值为 NaN，缺失的类别为空串。
type Record struct {
	Age               float64
	Openness          float64
	Conscientiousness float64
	Extraversion      float64
	Agreeableness     float64
	Neuroticism       float64
	PreferredPacing   float64
	TotalWatchTime    float64
	AvgSessionLength  float64

	PacingScore     float64
	IntensityScore  float64
	DialogueDensity float64
	ActionLevel     float64
	CharacterFocus  float64
	EmotionalTone   float64
	SegmentDuration float64
	ReleaseYear     float64
	MovieDuration   float64
	IMDBRating      float64
	SceneCount      float64

	SceneIndex    float64
	MovieProgress float64
	ViewingHour   float64
	IsWeekend     float64

	CompletionRatio            float64
	PacingPreferenceDiff       float64
	IntensityExtraversionMatch float64

	Sex                string
	VariantName        string
	MovieRating        string
	DeviceType         string
	UserExperience     string
	SegmentPosition    string
	Genres             string
	FavouriteGenres    string
	CompletionCategory string
}

var numericFields = map[string]func(r *Record) *float64{
	ColAge:                        func(r *Record) *float64 { return &r.Age },
	ColOpenness:                   func(r *Record) *float64 { return &r.Openness },
	ColConscientiousness:          func(r *Record) *float64 { return &r.Conscientiousness },
	ColExtraversion:               func(r *Record) *float64 { return &r.Extraversion },
	ColAgreeableness:              func(r *Record) *float64 { return &r.Agreeableness },
	ColNeuroticism:                func(r *Record) *float64 { return &r.Neuroticism },
	ColPreferredPacing:            func(r *Record) *float64 { return &r.PreferredPacing },
	ColTotalWatchTime:             func(r *Record) *float64 { return &r.TotalWatchTime },
	ColAvgSessionLength:           func(r *Record) *float64 { return &r.AvgSessionLength },
	ColPacingScore:                func(r *Record) *float64 { return &r.PacingScore },
	ColIntensityScore:             func(r *Record) *float64 { return &r.IntensityScore },
	ColDialogueDensity:            func(r *Record) *float64 { return &r.DialogueDensity },
	ColActionLevel:                func(r *Record) *float64 { return &r.ActionLevel },
	ColCharacterFocus:             func(r *Record) *float64 { return &r.CharacterFocus },
	ColEmotionalTone:              func(r *Record) *float64 { return &r.EmotionalTone },
	ColSegmentDuration:            func(r *Record) *float64 { return &r.SegmentDuration },
	ColReleaseYear:                func(r *Record) *float64 { return &r.ReleaseYear },
	ColMovieDuration:              func(r *Record) *float64 { return &r.MovieDuration },
	ColIMDBRating:                 func(r *Record) *float64 { return &r.IMDBRating },
	ColSceneCount:                 func(r *Record) *float64 { return &r.SceneCount },
	ColSceneIndex:                 func(r *Record) *float64 { return &r.SceneIndex },
	ColMovieProgress:              func(r *Record) *float64 { return &r.MovieProgress },
	ColViewingHour:                func(r *Record) *float64 { return &r.ViewingHour },
	ColCompletionRatio:            func(r *Record) *float64 { return &r.CompletionRatio },
	ColPacingPreferenceDiff:       func(r *Record) *float64 { return &r.PacingPreferenceDiff },
	ColIntensityExtraversionMatch: func(r *Record) *float64 { return &r.IntensityExtraversionMatch },
	ColIsWeekend:                  func(r *Record) *float64 { return &r.IsWeekend },
}

var categoricalFields = map[string]func(r *Record) *string{
	ColSex:                func(r *Record) *string { return &r.Sex },
	ColVariantName:        func(r *Record) *string { return &r.VariantName },
	ColMovieRating:        func(r *Record) *string { return &r.MovieRating },
	ColDeviceType:         func(r *Record) *string { return &r.DeviceType },
	ColUserExperience:     func(r *Record) *string { return &r.UserExperience },
	ColSegmentPosition:    func(r *Record) *string { return &r.SegmentPosition },
	ColGenres:             func(r *Record) *string { return &r.Genres },
	ColFavouriteGenres:    func(r *Record) *string { return &r.FavouriteGenres },
	ColCompletionCategory: func(r *Record) *string { return &r.CompletionCategory },
}

// Numeric 按列名读取数值特征（包括 is_weekend_int）。
func (r *Record) Numeric(name string) (float64, bool) {
	f, ok := numericFields[name]
	if !ok {
		return 0, false
	}
	return *f(r), true
}

// Categorical 按列名读取类别特征的原始字符串。
func (r *Record) Categorical(name string) (string, bool) {
	f, ok := categoricalFields[name]
	if !ok {
		return "", false
	}
	return *f(r), true
}

// SetNumeric 按列名写入数值特征，未知列返回 false。
func (r *Record) SetNumeric(name string, v float64) bool {
	f, ok := numericFields[name]
	if !ok {
		return false
	}
	*f(r) = v
	return true
}

// SetCategorical 按列名写入类别特征，未知列返回 false。
func (r *Record) SetCategorical(name string, v string) bool {
	f, ok := categoricalFields[name]
	if !ok {
		return false
	}
	*f(r) = v
	return true
}

// Missing 表示缺失的数值
func Missing() float64 { return math.NaN() }

// IsMissing 检查数值是否缺失
func IsMissing(v float64) bool { return math.IsNaN(v) }

// numericNames 返回所有可写的数值列（NumericColumns + is_weekend_int）。
func numericNames() []string {
	return append(append([]string{}, NumericColumns...), ColIsWeekend)
}
