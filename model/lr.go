package model

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/goccy/go-json"

	"github.com/rushteam/scenekit/feature"
)

// LogisticModel 实现了逻辑回归 (Logistic Regression) 掉线预测模型。
//
// 预测原理：
// 1. 标准化: x' = (x - Mean) / Std（Scaler 中的参数）
// 2. 线性加权求和: z = Bias + sum(Weight_i * x'_i)
// 3. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 输出 P 代表掉线概率，范围在 (0, 1) 之间。
// 权重按列名保存，Columns 记录训练时的列顺序。
type LogisticModel struct {
	Bias    float64               // 偏置项
	Weights map[string]float64    // 特征权重（标准化空间）
	Scaler  feature.FeatureScaler // 标准化参数
	Columns []string              // 训练列顺序
	Version string
}

type logisticFile struct {
	Type    string                `json:"type"`
	Version string                `json:"version"`
	Bias    float64               `json:"bias"`
	Columns []string              `json:"columns"`
	Weights map[string]float64    `json:"weights"`
	Scaler  feature.FeatureScaler `json:"scaler"`
}

func (m *LogisticModel) Name() string { return TypeLogistic }

// PredictProba 计算每行的掉线概率。矩阵列必须与 Columns 一致。
func (m *LogisticModel) PredictProba(ctx context.Context, x *feature.Matrix) ([]float64, error) {
	if x == nil || len(x.Rows) == 0 {
		return []float64{}, nil
	}
	if err := m.checkColumns(x.Columns); err != nil {
		return nil, err
	}
	w := make([]float64, len(x.Columns))
	for j, col := range x.Columns {
		w[j] = m.Weights[col]
	}
	out := make([]float64, len(x.Rows))
	for i, row := range x.Rows {
		z := m.Bias
		for j, v := range row {
			z += w[j] * m.Scaler.NormalizeValue(x.Columns[j], v)
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

func (m *LogisticModel) checkColumns(cols []string) error {
	if len(m.Columns) == 0 {
		return nil
	}
	if len(cols) != len(m.Columns) {
		return fmt.Errorf("logistic model: expected %d columns, got %d", len(m.Columns), len(cols))
	}
	for i := range cols {
		if cols[i] != m.Columns[i] {
			return fmt.Errorf("logistic model: column %d is %q, expected %q", i, cols[i], m.Columns[i])
		}
	}
	return nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Save 写入 model.json
func (m *LogisticModel) Save(path string) error {
	data, err := json.MarshalIndent(logisticFile{
		Type:    TypeLogistic,
		Version: m.Version,
		Bias:    m.Bias,
		Columns: m.Columns,
		Weights: m.Weights,
		Scaler:  m.Scaler,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadLogisticModel 从 model.json 加载逻辑回归模型
func LoadLogisticModel(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeLogistic(data)
}

func decodeLogistic(data []byte) (*LogisticModel, error) {
	var raw logisticFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw.Weights == nil {
		return nil, fmt.Errorf("logistic model: no weights")
	}
	return &LogisticModel{
		Bias:    raw.Bias,
		Weights: raw.Weights,
		Scaler:  raw.Scaler,
		Columns: raw.Columns,
		Version: raw.Version,
	}, nil
}
