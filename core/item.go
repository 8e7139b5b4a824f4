package core

import "github.com/rushteam/scenekit/pkg/utils"

// Candidate 是 Pipeline 中的统一承载结构：一个 (场景, 版本) 候选及其打分结果。
// Labels 用于解释与策略驱动；EngagementScore 用于选择决策。
type Candidate struct {
	Segment Segment

	DropoutProbability float64
	EngagementScore    float64

	Labels map[string]utils.Label
}

func NewCandidate(seg Segment) *Candidate {
	return &Candidate{
		Segment: seg,
		Labels:  make(map[string]utils.Label),
	}
}

// SceneIndex 返回候选所属场景序号。
func (c *Candidate) SceneIndex() int { return c.Segment.Scene.SceneIndex }

// SetDropout 写入掉线概率，并同步 engagement = 1 - dropout。
func (c *Candidate) SetDropout(p float64) {
	c.DropoutProbability = p
	c.EngagementScore = 1 - p
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// CandidatesFrom 按片段顺序构造候选列表。
func CandidatesFrom(segments []Segment) []*Candidate {
	out := make([]*Candidate, 0, len(segments))
	for _, seg := range segments {
		out = append(out, NewCandidate(seg))
	}
	return out
}
