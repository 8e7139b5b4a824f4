package feature

import "math"

// IntervalBinner 区间分桶：边界升序，第 i 个桶为 (Edges[i], Edges[i+1]]，
// 左开右闭，落在所有区间之外的值视为缺失。
type IntervalBinner struct {
	Edges  []float64
	Labels []string
}

// NewIntervalBinner 创建区间分桶器，len(labels) 必须等于 len(edges)-1。
func NewIntervalBinner(edges []float64, labels []string) *IntervalBinner {
	if len(edges) != len(labels)+1 {
		panic("feature: interval binner needs len(edges) == len(labels)+1")
	}
	return &IntervalBinner{Edges: edges, Labels: labels}
}

// Bin 返回 value 所在桶的标签，不在任何桶内（含 NaN）返回空串。
func (b *IntervalBinner) Bin(value float64) string {
	if math.IsNaN(value) {
		return ""
	}
	for i := 0; i < len(b.Labels); i++ {
		if value > b.Edges[i] && value <= b.Edges[i+1] {
			return b.Labels[i]
		}
	}
	return ""
}

var (
	completionBinner = NewIntervalBinner(
		[]float64{0, 0.1, 0.5, 0.9, 1.0},
		[]string{"barely_watched", "partial", "mostly", "complete"},
	)
	experienceBinner = NewIntervalBinner(
		[]float64{0, 100, 500, 2000, math.Inf(1)},
		[]string{"new", "casual", "regular", "heavy"},
	)
)

// 推理路径上固定的分桶取值
const (
	InferenceUserExperience     = "new"
	InferenceCompletionCategory = "complete"
	InferenceCompletionRatio    = 1.0
)

// CompletionCategory 按观看比例分桶。
func CompletionCategory(ratio float64) string { return completionBinner.Bin(ratio) }

// UserExperience 按累计观看时长分桶。
func UserExperience(totalWatchTime float64) string { return experienceBinner.Bin(totalWatchTime) }

// SegmentPosition 按影片进度划分片段位置，边界值归入较早的位置。
func SegmentPosition(progress float64) string {
	switch {
	case progress <= 0.25:
		return "beginning"
	case progress <= 0.5:
		return "early"
	case progress <= 0.75:
		return "middle"
	default:
		return "end"
	}
}
