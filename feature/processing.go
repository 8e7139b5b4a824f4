package feature

import (
	"math"
	"sort"
	"strings"
)

// Matrix 是按冻结列顺序排列的数值矩阵。
type Matrix struct {
	Columns []string
	Rows    [][]float64
}

// NumRows 返回行数
func (m *Matrix) NumRows() int {
	if m == nil {
		return 0
	}
	return len(m.Rows)
}

// Subset 按行下标取子矩阵（共享行数据）。
func (m *Matrix) Subset(idx []int) *Matrix {
	out := &Matrix{Columns: m.Columns, Rows: make([][]float64, len(idx))}
	for i, j := range idx {
		out.Rows[i] = m.Rows[j]
	}
	return out
}

// TransformStats 记录一次推理转换中的降级情况。
type TransformStats struct {
	// Unseen 每个类别字段中未见过的取值次数
	Unseen map[string]int
	// MissingColumns 冻结列表中记录无法提供、以 0 填充的列
	MissingColumns []string
}

// UnseenTotal 返回未见类别的总次数
func (s TransformStats) UnseenTotal() int {
	n := 0
	for _, c := range s.Unseen {
		n += c
	}
	return n
}

// Adapter 推理路径的预处理：编码类别、按名称对齐到冻结列、缺失补 0。
// 训练后构造一次，之后只读，可并发使用。
type Adapter struct {
	Encoders EncoderSet
	Columns  []string
}

// NewAdapter 创建推理预处理器
func NewAdapter(encoders EncoderSet, columns []string) *Adapter {
	return &Adapter{Encoders: encoders, Columns: columns}
}

// Transform 将记录转为矩阵，列顺序与 Columns 完全一致。
// 未见过的类别编码为 UnseenCode 并计入统计，从不返回错误。
func (a *Adapter) Transform(records []Record) (*Matrix, TransformStats) {
	stats := TransformStats{Unseen: make(map[string]int)}
	getters := make([]func(r *Record) float64, len(a.Columns))
	for j, col := range a.Columns {
		getters[j] = a.columnGetter(col, &stats)
	}

	m := &Matrix{Columns: append([]string(nil), a.Columns...), Rows: make([][]float64, len(records))}
	for i := range records {
		row := make([]float64, len(a.Columns))
		for j, get := range getters {
			v := get(&records[i])
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			row[j] = v
		}
		m.Rows[i] = row
	}
	return m, stats
}

func (a *Adapter) columnGetter(col string, stats *TransformStats) func(r *Record) float64 {
	if f, ok := numericFields[col]; ok {
		return func(r *Record) float64 { return *f(r) }
	}
	if base, ok := strings.CutSuffix(col, EncodedSuffix); ok {
		f, isCat := categoricalFields[base]
		enc, hasEnc := a.Encoders[base]
		if isCat && hasEnc {
			return func(r *Record) float64 {
				code, seen := enc.Encode(*f(r))
				if !seen {
					stats.Unseen[base]++
				}
				return float64(code)
			}
		}
	}
	stats.MissingColumns = append(stats.MissingColumns, col)
	return func(*Record) float64 { return 0 }
}

// UnknownCategory 某类别列全部缺失时的填充值
const UnknownCategory = "unknown"

// Imputer 训练路径的缺失值处理：数值列填中位数，类别列填众数。
type Imputer struct {
	Medians map[string]float64
	Modes   map[string]string
}

// FitImputer 在训练记录上计算每列的中位数与众数。
func FitImputer(records []Record) *Imputer {
	imp := &Imputer{
		Medians: make(map[string]float64, len(numericFields)),
		Modes:   make(map[string]string, len(categoricalFields)),
	}
	for _, col := range numericNames() {
		values := make([]float64, 0, len(records))
		for i := range records {
			v, _ := records[i].Numeric(col)
			if !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			imp.Medians[col] = 0
			continue
		}
		imp.Medians[col] = ComputeStatistics(values).Median
	}
	for _, col := range CategoricalColumns {
		imp.Modes[col] = mode(records, col)
	}
	return imp
}

// mode 出现次数最多的非空取值，并列时取字典序最小者。
func mode(records []Record, col string) string {
	counts := make(map[string]int)
	for i := range records {
		if v, _ := records[i].Categorical(col); v != "" {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return UnknownCategory
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

// Apply 原地填充缺失值
func (imp *Imputer) Apply(records []Record) {
	for i := range records {
		r := &records[i]
		for col, median := range imp.Medians {
			if v, _ := r.Numeric(col); math.IsNaN(v) {
				r.SetNumeric(col, median)
			}
		}
		for col, m := range imp.Modes {
			if v, _ := r.Categorical(col); v == "" {
				r.SetCategorical(col, m)
			}
		}
	}
}

// FeatureStatistics 特征统计信息
type FeatureStatistics struct {
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
	Median float64
}

// ComputeStatistics 计算特征统计信息
func ComputeStatistics(values []float64) *FeatureStatistics {
	if len(values) == 0 {
		return &FeatureStatistics{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	stats := &FeatureStatistics{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	stats.Mean = sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - stats.Mean) * (v - stats.Mean)
	}
	stats.Std = math.Sqrt(variance / float64(len(values)))
	stats.Median = computePercentile(sorted, 0.5)
	return stats
}

// computePercentile 线性插值分位数
func computePercentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// TrainingMatrix 将已填充、已编码的训练记录转为矩阵，未知类别按 UnseenCode 处理。
func TrainingMatrix(records []Record, encoders EncoderSet) *Matrix {
	m, _ := NewAdapter(encoders, Columns()).Transform(records)
	return m
}
