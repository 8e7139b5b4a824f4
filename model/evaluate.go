package model

import (
	"math"
	"sort"
)

// Accuracy 以 0.5 为阈值计算准确率
func Accuracy(y []int, proba []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	correct := 0
	for i := range y {
		pred := 0
		if proba[i] >= 0.5 {
			pred = 1
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

// AUC 计算 ROC 曲线下面积（秩和公式，并列取平均秩）。
// 只有一个类别时返回 NaN。
func AUC(y []int, proba []float64) float64 {
	n := len(y)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return proba[idx[a]] < proba[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && proba[idx[j+1]] == proba[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}

	pos, neg := 0, 0
	sum := 0.0
	for i, v := range y {
		if v == 1 {
			pos++
			sum += ranks[i]
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return math.NaN()
	}
	return (sum - float64(pos*(pos+1))/2) / float64(pos*neg)
}

// Importance 是一个特征的重要度
type Importance struct {
	Feature string
	Score   float64
}

// FeatureImportance 按标准化空间权重的绝对值降序排列
func FeatureImportance(m *LogisticModel) []Importance {
	out := make([]Importance, 0, len(m.Columns))
	for _, col := range m.Columns {
		out = append(out, Importance{Feature: col, Score: math.Abs(m.Weights[col])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
