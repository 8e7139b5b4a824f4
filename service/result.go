package service

import (
	"time"

	"github.com/rushteam/scenekit/core"
)

// SequenceEntry 是序列中某个场景被选中的版本
type SequenceEntry struct {
	SceneIndex         int     `json:"scene_index"`
	SceneID            int64   `json:"scene_id"`
	VariantID          int64   `json:"variant_id"`
	VariantName        string  `json:"variant_name"`
	FilePath           string  `json:"file_path"`
	EngagementScore    float64 `json:"engagement_score"`
	DropoutProbability float64 `json:"dropout_probability"`
	SegmentDuration    int     `json:"segment_duration"`
}

// SequenceResult 是一次整片序列选择的结果
type SequenceResult struct {
	UserID        int64           `json:"user_id"`
	MovieID       int64           `json:"movie_id"`
	MovieTitle    string          `json:"movie_title"`
	DeviceType    string          `json:"device_type"`
	ModelVersion  string          `json:"model_version"`
	Sequence      []SequenceEntry `json:"sequence"`
	AvgEngagement float64         `json:"avg_engagement"`
	TotalDuration int             `json:"total_duration"`
	GeneratedAt   time.Time       `json:"generated_at"`
	// Cached 结果来自缓存，不写入响应体，由 HTTP 层输出 X-Cache 头
	Cached bool `json:"-"`
}

// VariantIDs 按场景顺序返回选中的版本 ID
func (r *SequenceResult) VariantIDs() []int64 {
	ids := make([]int64, len(r.Sequence))
	for i, e := range r.Sequence {
		ids[i] = e.VariantID
	}
	return ids
}

// Alternative 是某个场景的候选版本
type Alternative struct {
	VariantID          int64   `json:"variant_id"`
	VariantName        string  `json:"variant_name"`
	EngagementScore    float64 `json:"engagement_score"`
	DropoutProbability float64 `json:"dropout_probability"`
	FilePath           string  `json:"file_path"`
	PacingScore        float64 `json:"pacing_score"`
	IntensityScore     float64 `json:"intensity_score"`
	ActionLevel        float64 `json:"action_level"`
}

func newResult(user *core.UserProfile, movie *core.Movie, vctx core.ViewingContext, version string, selected []*core.Candidate, at time.Time) *SequenceResult {
	res := &SequenceResult{
		UserID:       user.UserID,
		MovieID:      movie.MovieID,
		MovieTitle:   movie.Title,
		DeviceType:   vctx.DeviceType,
		ModelVersion: version,
		Sequence:     make([]SequenceEntry, 0, len(selected)),
		GeneratedAt:  at,
	}
	total := 0.0
	for _, c := range selected {
		v := c.Segment.Variant
		res.Sequence = append(res.Sequence, SequenceEntry{
			SceneIndex:         c.SceneIndex(),
			SceneID:            c.Segment.Scene.SceneID,
			VariantID:          v.VariantID,
			VariantName:        v.Name,
			FilePath:           v.FilePath,
			EngagementScore:    c.EngagementScore,
			DropoutProbability: c.DropoutProbability,
			SegmentDuration:    v.Duration,
		})
		total += c.EngagementScore
		res.TotalDuration += v.Duration
	}
	if len(selected) > 0 {
		res.AvgEngagement = total / float64(len(selected))
	}
	return res
}

func newAlternatives(candidates []*core.Candidate) []Alternative {
	out := make([]Alternative, 0, len(candidates))
	for _, c := range candidates {
		v := c.Segment.Variant
		out = append(out, Alternative{
			VariantID:          v.VariantID,
			VariantName:        v.Name,
			EngagementScore:    c.EngagementScore,
			DropoutProbability: c.DropoutProbability,
			FilePath:           v.FilePath,
			PacingScore:        v.PacingScore,
			IntensityScore:     v.IntensityScore,
			ActionLevel:        v.ActionLevel,
		})
	}
	return out
}
