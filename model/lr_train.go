package model

import (
	"context"
	"fmt"

	"github.com/rushteam/scenekit/feature"
)

// TrainOptions 逻辑回归训练参数
type TrainOptions struct {
	Epochs       int     `mapstructure:"epochs"`
	LearningRate float64 `mapstructure:"learning_rate"`
	L2           float64 `mapstructure:"l2"`
	// PositiveWeight 正样本（掉线）权重，<= 0 时按 负样本数/正样本数 计算
	PositiveWeight float64 `mapstructure:"positive_weight"`
	Version        string  `mapstructure:"version"`
}

// DefaultTrainOptions 默认训练参数
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Epochs: 300, LearningRate: 0.1, L2: 1e-4}
}

// PositiveClassWeight 返回 负样本数/正样本数，没有正样本时为 1。
func PositiveClassWeight(y []int) float64 {
	pos, neg := 0, 0
	for _, v := range y {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 {
		return 1
	}
	return float64(neg) / float64(pos)
}

// TrainLogistic 使用带样本权重的批量梯度下降训练逻辑回归。
// 特征先按训练集的均值/标准差标准化，训练过程是确定性的。
func TrainLogistic(ctx context.Context, x *feature.Matrix, y []int, opts TrainOptions) (*LogisticModel, error) {
	if x.NumRows() == 0 {
		return nil, fmt.Errorf("train logistic: no rows")
	}
	if len(y) != x.NumRows() {
		return nil, fmt.Errorf("train logistic: %d rows but %d labels", x.NumRows(), len(y))
	}
	if opts.Epochs <= 0 {
		opts.Epochs = DefaultTrainOptions().Epochs
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultTrainOptions().LearningRate
	}
	posWeight := opts.PositiveWeight
	if posWeight <= 0 {
		posWeight = PositiveClassWeight(y)
	}

	scaler := feature.FitScaler(x)
	n, d := x.NumRows(), len(x.Columns)
	z := make([][]float64, n)
	for i, row := range x.Rows {
		z[i] = make([]float64, d)
		for j, v := range row {
			z[i][j] = scaler.NormalizeValue(x.Columns[j], v)
		}
	}
	sw := make([]float64, n)
	total := 0.0
	for i := range y {
		sw[i] = 1
		if y[i] == 1 {
			sw[i] = posWeight
		}
		total += sw[i]
	}

	w := make([]float64, d)
	bias := 0.0
	grad := make([]float64, d)
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := range grad {
			grad[j] = 0
		}
		gb := 0.0
		for i := 0; i < n; i++ {
			s := bias
			for j := 0; j < d; j++ {
				s += w[j] * z[i][j]
			}
			e := sw[i] * (sigmoid(s) - float64(y[i]))
			gb += e
			for j := 0; j < d; j++ {
				grad[j] += e * z[i][j]
			}
		}
		bias -= opts.LearningRate * gb / total
		for j := 0; j < d; j++ {
			w[j] -= opts.LearningRate * (grad[j]/total + opts.L2*w[j])
		}
	}

	weights := make(map[string]float64, d)
	for j, col := range x.Columns {
		weights[col] = w[j]
	}
	return &LogisticModel{
		Bias:    bias,
		Weights: weights,
		Scaler:  scaler,
		Columns: append([]string(nil), x.Columns...),
		Version: opts.Version,
	}, nil
}
