package feature

import (
	"sort"
	"sync"
	"time"
)

// Monitor 记录推理矩阵每列的取值分布与降级次数，用于观察线上特征相对训练分布的偏移。
// 每列只保留最近 maxSamples 个样本（环形缓冲），统计在读取时计算。
type Monitor struct {
	mu         sync.RWMutex
	maxSamples int
	columns    map[string]*columnSamples
	now        func() time.Time
}

type columnSamples struct {
	values    []float64
	next      int
	count     int64
	unseen    int64
	missing   int64
	updatedAt time.Time
}

// ColumnStats 单列统计快照
type ColumnStats struct {
	Column    string    `json:"column"`
	Count     int64     `json:"count"`
	Unseen    int64     `json:"unseen"`
	Missing   int64     `json:"missing"`
	Mean      float64   `json:"mean"`
	Std       float64   `json:"std"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	P50       float64   `json:"p50"`
	P95       float64   `json:"p95"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMonitor 创建特征监控，maxSamples <= 0 时取 1000
func NewMonitor(maxSamples int) *Monitor {
	if maxSamples <= 0 {
		maxSamples = 1000
	}
	return &Monitor{
		maxSamples: maxSamples,
		columns:    make(map[string]*columnSamples),
		now:        time.Now,
	}
}

// Observe 记录一次 Transform 的输出
func (m *Monitor) Observe(matrix *Matrix, stats TransformStats) {
	if m == nil || matrix == nil {
		return
	}
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	for j, col := range matrix.Columns {
		s := m.column(col)
		for _, row := range matrix.Rows {
			s.add(row[j], m.maxSamples)
		}
		s.updatedAt = now
	}
	for base, n := range stats.Unseen {
		m.column(base + EncodedSuffix).unseen += int64(n)
	}
	rows := int64(matrix.NumRows())
	for _, col := range stats.MissingColumns {
		m.column(col).missing += rows
	}
}

func (m *Monitor) column(name string) *columnSamples {
	s := m.columns[name]
	if s == nil {
		s = &columnSamples{}
		m.columns[name] = s
	}
	return s
}

func (s *columnSamples) add(v float64, limit int) {
	s.count++
	if len(s.values) < limit {
		s.values = append(s.values, v)
		return
	}
	s.values[s.next] = v
	s.next = (s.next + 1) % limit
}

// Stats 返回单列统计，未观察过的列返回 false
func (m *Monitor) Stats(column string) (ColumnStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.columns[column]
	if !ok {
		return ColumnStats{}, false
	}
	return s.snapshot(column), true
}

// Snapshot 返回全部列的统计，按列名排序
func (m *Monitor) Snapshot() []ColumnStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ColumnStats, 0, len(m.columns))
	for name, s := range m.columns {
		out = append(out, s.snapshot(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Column < out[j].Column })
	return out
}

func (s *columnSamples) snapshot(name string) ColumnStats {
	cs := ColumnStats{
		Column:    name,
		Count:     s.count,
		Unseen:    s.unseen,
		Missing:   s.missing,
		UpdatedAt: s.updatedAt,
	}
	if len(s.values) == 0 {
		return cs
	}
	stats := ComputeStatistics(s.values)
	sorted := append([]float64(nil), s.values...)
	sort.Float64s(sorted)
	cs.Mean, cs.Std = stats.Mean, stats.Std
	cs.Min, cs.Max = stats.Min, stats.Max
	cs.P50 = stats.Median
	cs.P95 = computePercentile(sorted, 0.95)
	return cs
}
