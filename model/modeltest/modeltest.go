// Package modeltest 提供测试用的确定性分类器与产物。
package modeltest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rushteam/scenekit/feature"
	"github.com/rushteam/scenekit/model"
)

// PacingClassifier 的掉线概率等于 pacing_score / 10，用于断言选择结果。
type PacingClassifier struct {
	// Err 非空时 PredictProba 直接返回该错误
	Err error
	// Short 为 true 时少返回一个分数
	Short bool

	calls atomic.Int64
}

func (p *PacingClassifier) Name() string { return "pacing" }

// Calls 返回 PredictProba 被调用的次数
func (p *PacingClassifier) Calls() int64 { return p.calls.Load() }

func (p *PacingClassifier) PredictProba(_ context.Context, m *feature.Matrix) ([]float64, error) {
	p.calls.Add(1)
	if p.Err != nil {
		return nil, p.Err
	}
	col := -1
	for j, name := range m.Columns {
		if name == feature.ColPacingScore {
			col = j
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("pacing classifier: column %s missing", feature.ColPacingScore)
	}
	out := make([]float64, len(m.Rows))
	for i, row := range m.Rows {
		out[i] = row[col] / 10
	}
	if p.Short && len(out) > 0 {
		return out[:len(out)-1], nil
	}
	return out, nil
}

// Bundle 用给定分类器构造产物：冻结列为全部特征列，设备类型编码器只认识 desktop 与 mobile。
func Bundle(clf model.Classifier) *model.Bundle {
	return &model.Bundle{
		Classifier: clf,
		Encoders: feature.EncoderSet{
			feature.ColDeviceType: feature.FitLabelEncoder([]string{"desktop", "mobile"}),
		},
		Metadata: feature.NewFeatureMetadata(feature.Columns(), "test-v1", "2024-06-15T20:00:00Z"),
	}
}
