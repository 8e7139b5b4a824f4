package store

import (
	"time"

	"github.com/rushteam/scenekit/core"
)

// PlaceholderPasswordHash 合成用户的占位密码哈希
const PlaceholderPasswordHash = "hashed_pw"

// UserRow 对应 User 表。可空列使用指针。
type UserRow struct {
	UserID            int64     `gorm:"column:user_id;primaryKey"`
	Username          string    `gorm:"column:username;not null;uniqueIndex"`
	PasswordHash      string    `gorm:"column:password_hash;not null"`
	DOB               string    `gorm:"column:dob;not null"`
	Sex               string    `gorm:"column:sex;not null"`
	Openness          *float64  `gorm:"column:openness"`
	Conscientiousness *float64  `gorm:"column:conscientiousness"`
	Extraversion      *float64  `gorm:"column:extraversion"`
	Agreeableness     *float64  `gorm:"column:agreeableness"`
	Neuroticism       *float64  `gorm:"column:neuroticism"`
	TotalWatchTime    *float64  `gorm:"column:total_watch_time"`
	PreferredPacing   *float64  `gorm:"column:preferred_pacing"`
	FavouriteGenres   []string  `gorm:"column:favourite_genres;serializer:json"`
	AvgSessionLength  *float64  `gorm:"column:avg_session_length"`
	RegistrationDate  time.Time `gorm:"column:registration_date"`
}

func (UserRow) TableName() string { return "User" }

// MovieRow 对应 Movie 表
type MovieRow struct {
	MovieID     int64    `gorm:"column:movie_id;primaryKey"`
	Title       string   `gorm:"column:title;not null"`
	ReleaseYear int      `gorm:"column:release_year"`
	Duration    int      `gorm:"column:duration"`
	Genres      []string `gorm:"column:genres;serializer:json"`
	Rating      string   `gorm:"column:rating"`
	IMDBRating  *float64 `gorm:"column:imdb_rating"`
	SceneCount  int      `gorm:"column:scene_count;not null"`
}

func (MovieRow) TableName() string { return "Movie" }

// SceneRow 对应 Scene 表
type SceneRow struct {
	SceneID    int64 `gorm:"column:scene_id;primaryKey"`
	MovieID    int64 `gorm:"column:movie_id;not null;index"`
	SceneIndex int   `gorm:"column:scene_index;not null"`
}

func (SceneRow) TableName() string { return "Scene" }

// SceneVariantRow 对应 SceneVariant 表
type SceneVariantRow struct {
	VariantID       int64   `gorm:"column:variant_id;primaryKey"`
	SceneID         int64   `gorm:"column:scene_id;not null;index"`
	VariantName     string  `gorm:"column:variant_name"`
	FilePath        string  `gorm:"column:file_path;not null"`
	PacingScore     float64 `gorm:"column:pacing_score"`
	IntensityScore  float64 `gorm:"column:intensity_score"`
	DialogueDensity float64 `gorm:"column:dialogue_density"`
	ActionLevel     float64 `gorm:"column:action_level"`
	CharacterFocus  float64 `gorm:"column:character_focus"`
	EmotionalTone   float64 `gorm:"column:emotional_tone"`
	Duration        int     `gorm:"column:duration;not null"`
}

func (SceneVariantRow) TableName() string { return "SceneVariant" }

// ViewingSessionRow 对应 ViewingSession 表
type ViewingSessionRow struct {
	SessionID  int64     `gorm:"column:session_id;primaryKey"`
	UserID     int64     `gorm:"column:user_id;not null;index"`
	MovieID    int64     `gorm:"column:movie_id;not null"`
	StartTime  time.Time `gorm:"column:start_time;not null"`
	EndTime    time.Time `gorm:"column:end_time"`
	DeviceType string    `gorm:"column:device_type"`
	Completed  bool      `gorm:"column:completed"`
}

func (ViewingSessionRow) TableName() string { return "ViewingSession" }

// SceneViewingRow 对应 SceneViewing 表，dropped_off 是训练标签
type SceneViewingRow struct {
	ViewingID     int64     `gorm:"column:viewing_id;primaryKey"`
	SessionID     int64     `gorm:"column:session_id;not null;index"`
	VariantID     int64     `gorm:"column:variant_id;not null"`
	WatchDuration int       `gorm:"column:watch_duration;not null"`
	DroppedOff    bool      `gorm:"column:dropped_off"`
	Timestamp     time.Time `gorm:"column:timestamp;not null"`
}

func (SceneViewingRow) TableName() string { return "SceneViewing" }

// AllModels 返回全部表模型，按外键依赖顺序排列
func AllModels() []any {
	return []any{
		&UserRow{}, &MovieRow{}, &SceneRow{}, &SceneVariantRow{},
		&ViewingSessionRow{}, &SceneViewingRow{},
	}
}

func (r *UserRow) toProfile() *core.UserProfile {
	return &core.UserProfile{
		UserID:            r.UserID,
		Username:          r.Username,
		Openness:          r.Openness,
		Conscientiousness: r.Conscientiousness,
		Extraversion:      r.Extraversion,
		Agreeableness:     r.Agreeableness,
		Neuroticism:       r.Neuroticism,
		PreferredPacing:   r.PreferredPacing,
		TotalWatchTime:    r.TotalWatchTime,
		AvgSessionLength:  r.AvgSessionLength,
		FavouriteGenres:   r.FavouriteGenres,
		DOB:               r.DOB,
		Sex:               r.Sex,
		RegistrationDate:  r.RegistrationDate,
	}
}

func userRowFrom(u *core.UserProfile) UserRow {
	return UserRow{
		UserID:            u.UserID,
		Username:          u.Username,
		PasswordHash:      PlaceholderPasswordHash,
		DOB:               u.DOB,
		Sex:               u.Sex,
		Openness:          u.Openness,
		Conscientiousness: u.Conscientiousness,
		Extraversion:      u.Extraversion,
		Agreeableness:     u.Agreeableness,
		Neuroticism:       u.Neuroticism,
		TotalWatchTime:    u.TotalWatchTime,
		PreferredPacing:   u.PreferredPacing,
		FavouriteGenres:   u.FavouriteGenres,
		AvgSessionLength:  u.AvgSessionLength,
		RegistrationDate:  u.RegistrationDate,
	}
}

func (r *MovieRow) toMovie() core.Movie {
	return core.Movie{
		MovieID:     r.MovieID,
		Title:       r.Title,
		ReleaseYear: r.ReleaseYear,
		Duration:    r.Duration,
		Genres:      r.Genres,
		Rating:      r.Rating,
		IMDBRating:  r.IMDBRating,
		SceneCount:  r.SceneCount,
	}
}

func movieRowFrom(m *core.Movie) MovieRow {
	return MovieRow{
		MovieID:     m.MovieID,
		Title:       m.Title,
		ReleaseYear: m.ReleaseYear,
		Duration:    m.Duration,
		Genres:      m.Genres,
		Rating:      m.Rating,
		IMDBRating:  m.IMDBRating,
		SceneCount:  m.SceneCount,
	}
}

func variantRowFrom(v *core.SceneVariant) SceneVariantRow {
	return SceneVariantRow{
		VariantID:       v.VariantID,
		SceneID:         v.SceneID,
		VariantName:     v.Name,
		FilePath:        v.FilePath,
		PacingScore:     v.PacingScore,
		IntensityScore:  v.IntensityScore,
		DialogueDensity: v.DialogueDensity,
		ActionLevel:     v.ActionLevel,
		CharacterFocus:  v.CharacterFocus,
		EmotionalTone:   v.EmotionalTone,
		Duration:        v.Duration,
	}
}
