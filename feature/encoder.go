package feature

import (
	"fmt"
	"sort"
)

// UnseenCode 未见过的类别统一编码为 0。
// 0 同时也是排序后第一个类别的编码，两者不可区分。
const UnseenCode = 0

// LabelEncoder Label 编码（标签编码）
// 类别按字典序排序，编码为其位置（0, 1, 2, ...）。
type LabelEncoder struct {
	Classes []string
	index   map[string]int
}

// FitLabelEncoder 用观测到的取值拟合编码器，重复值只保留一个。
func FitLabelEncoder(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return NewLabelEncoder(classes)
}

// NewLabelEncoder 按给定顺序构造编码器（classes 须已排序）。
func NewLabelEncoder(classes []string) *LabelEncoder {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelEncoder{Classes: classes, index: index}
}

// Encode 返回类别编码，未见过的类别返回 (UnseenCode, false)。
func (e *LabelEncoder) Encode(value string) (int, bool) {
	code, ok := e.index[value]
	if !ok {
		return UnseenCode, false
	}
	return code, true
}

// Mapping 返回 类别 → 编码 的映射。
func (e *LabelEncoder) Mapping() map[string]int {
	out := make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		out[c] = i
	}
	return out
}

// EncoderSet 每个类别字段一个 LabelEncoder，训练时拟合一次后冻结。
type EncoderSet map[string]*LabelEncoder

// FitEncoders 在（已填充缺失值的）记录上为 fields 中的每个类别字段拟合编码器。
func FitEncoders(records []Record, fields []string) EncoderSet {
	set := make(EncoderSet, len(fields))
	for _, field := range fields {
		values := make([]string, 0, len(records))
		for i := range records {
			v, ok := records[i].Categorical(field)
			if !ok {
				continue
			}
			values = append(values, v)
		}
		set[field] = FitLabelEncoder(values)
	}
	return set
}

// Mappings 导出为 字段 → {类别 → 编码}，用于持久化。
func (s EncoderSet) Mappings() map[string]map[string]int {
	out := make(map[string]map[string]int, len(s))
	for field, enc := range s {
		out[field] = enc.Mapping()
	}
	return out
}

// EncoderSetFromMappings 从持久化的映射恢复编码器，编码必须是 0..n-1 的排列。
func EncoderSetFromMappings(m map[string]map[string]int) (EncoderSet, error) {
	set := make(EncoderSet, len(m))
	for field, mapping := range m {
		classes := make([]string, len(mapping))
		filled := make([]bool, len(mapping))
		for class, code := range mapping {
			if code < 0 || code >= len(mapping) || filled[code] {
				return nil, fmt.Errorf("encoder %q: invalid code %d for class %q", field, code, class)
			}
			classes[code] = class
			filled[code] = true
		}
		set[field] = NewLabelEncoder(classes)
	}
	return set, nil
}
