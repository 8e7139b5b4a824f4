package core

import "time"

// 影片内容的默认值（推理路径缺失时使用）。
const (
	DefaultVariantName = "standard"
	DefaultMovieRating = "PG-13"
	DefaultMovieGenres = "drama"
	DefaultIMDBRating  = 7.0
	DefaultDeviceType  = "desktop"
)

// 固定枚举
var (
	Genres      = []string{"action", "drama", "comedy", "thriller", "sci-fi", "romance"}
	Sexes       = []string{"Male", "Female", "Non-binary", "Prefer not to say"}
	AgeRatings  = []string{"G", "PG", "PG-13", "R"}
	DeviceTypes = []string{"mobile", "desktop", "tv"}
)

// Movie 是影片。SceneCount 是声明的场景数，必须等于 Scene 子记录数。
type Movie struct {
	MovieID     int64
	Title       string
	ReleaseYear int
	Duration    int // 分钟
	Genres      []string
	Rating      string // G / PG / PG-13 / R
	IMDBRating  *float64
	SceneCount  int
}

// Scene 是影片中的一个场景，SceneIndex 从 0 开始，在影片内唯一。
type Scene struct {
	SceneID    int64
	MovieID    int64
	SceneIndex int
}

// SceneVariant 是某个场景的一个可互换版本。
type SceneVariant struct {
	VariantID       int64
	SceneID         int64
	Name            string
	FilePath        string  // 不透明的内容定位符
	PacingScore     float64 // [0,10]
	IntensityScore  float64 // [0,10]
	DialogueDensity float64 // [0,10]
	ActionLevel     float64 // [0,10]
	CharacterFocus  float64 // [0,10]
	EmotionalTone   float64 // [-5,5]
	Duration        int     // 秒
}

// ViewingSession 是一次观看会话。
type ViewingSession struct {
	SessionID  int64
	UserID     int64
	MovieID    int64
	StartTime  time.Time
	EndTime    time.Time
	DeviceType string
	Completed  bool
}

// SceneViewing 是会话内某个场景版本的观看记录，DroppedOff 为训练标签。
type SceneViewing struct {
	ViewingID     int64
	SessionID     int64
	VariantID     int64
	WatchDuration int // 秒
	DroppedOff    bool
	Timestamp     time.Time
}

// Segment 是影片 × 场景 × 版本的一行，推理路径按 (scene_index, variant_id) 排序读取。
type Segment struct {
	Scene   Scene
	Variant SceneVariant
}

// MovieSegments 是一部影片及其全部候选片段。
type MovieSegments struct {
	Movie    Movie
	Segments []Segment
}

// SceneIndexes 返回去重后的场景序号（保持出现顺序）。
func (m *MovieSegments) SceneIndexes() []int {
	seen := make(map[int]struct{}, len(m.Segments))
	out := make([]int, 0, len(m.Segments))
	for _, s := range m.Segments {
		if _, ok := seen[s.Scene.SceneIndex]; ok {
			continue
		}
		seen[s.Scene.SceneIndex] = struct{}{}
		out = append(out, s.Scene.SceneIndex)
	}
	return out
}

// TrainingRow 是训练抽取时的一行联表结果（观看记录 + 用户 + 影片 + 场景 + 版本 + 会话）。
type TrainingRow struct {
	User       UserProfile
	Movie      Movie
	Scene      Scene
	Variant    SceneVariant
	DeviceType string
	StartTime  time.Time

	WatchDuration int
	DroppedOff    bool
}

// World 是一次合成生成的全部实体，ID 由生成器预先分配。
type World struct {
	Users    []UserProfile
	Movies   []MovieSegments
	Sessions []ViewingSession
	Viewings []SceneViewing
}
