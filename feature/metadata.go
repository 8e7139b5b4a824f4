package feature

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// LabelColumn 训练标签列
const LabelColumn = "dropped_off"

// FeatureMetadata 特征元数据，对应 features.json
type FeatureMetadata struct {
	// FeatureColumns 特征列名列表（按顺序，推理时的冻结列表）
	FeatureColumns []string `json:"feature_columns"`
	// FeatureCount 特征数量
	FeatureCount int `json:"feature_count"`
	// LabelColumn 标签列名
	LabelColumn string `json:"label_column"`
	// ModelVersion 模型版本
	ModelVersion string `json:"model_version"`
	// CreatedAt 创建时间
	CreatedAt string `json:"created_at"`
}

// NewFeatureMetadata 为给定列创建元数据
func NewFeatureMetadata(columns []string, version, createdAt string) *FeatureMetadata {
	return &FeatureMetadata{
		FeatureColumns: columns,
		FeatureCount:   len(columns),
		LabelColumn:    LabelColumn,
		ModelVersion:   version,
		CreatedAt:      createdAt,
	}
}

// FeatureScaler 特征标准化器，每个特征对应一个 ScalerParams
type FeatureScaler map[string]ScalerParams

// ScalerParams 标准化参数
type ScalerParams struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// FitScaler 计算矩阵每列的均值与标准差
func FitScaler(m *Matrix) FeatureScaler {
	scaler := make(FeatureScaler, len(m.Columns))
	col := make([]float64, len(m.Rows))
	for j, name := range m.Columns {
		for i, row := range m.Rows {
			col[i] = row[j]
		}
		stats := ComputeStatistics(col)
		scaler[name] = ScalerParams{Mean: stats.Mean, Std: stats.Std}
	}
	return scaler
}

// NormalizeValue 对单个特征值进行标准化，std <= 0 或特征不存在时返回原值
func (s FeatureScaler) NormalizeValue(featureName string, value float64) float64 {
	if params, ok := s[featureName]; ok {
		if params.Std > 0 {
			return (value - params.Mean) / params.Std
		}
	}
	return value
}

// MetadataLoader 特征元数据加载器接口
type MetadataLoader interface {
	// Load 加载特征元数据，source 是数据源标识（文件路径等）
	Load(ctx context.Context, source string) (*FeatureMetadata, error)
}

// FileMetadataLoader 本地文件特征元数据加载器
type FileMetadataLoader struct{}

// NewFileMetadataLoader 创建本地文件特征元数据加载器
func NewFileMetadataLoader() *FileMetadataLoader {
	return &FileMetadataLoader{}
}

// Load 从本地文件加载特征元数据
func (l *FileMetadataLoader) Load(ctx context.Context, filePath string) (*FeatureMetadata, error) {
	return LoadFeatureMetadata(filePath)
}

// LoadFeatureMetadata 从文件加载特征元数据。
// 兼容两种格式：元数据对象，或仅包含列名的 JSON 数组。
func LoadFeatureMetadata(path string) (*FeatureMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature metadata: %w", err)
	}
	data = bytes.TrimSpace(data)

	var meta FeatureMetadata
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &meta.FeatureColumns); err != nil {
			return nil, fmt.Errorf("parse feature columns: %w", err)
		}
		meta.FeatureCount = len(meta.FeatureColumns)
		meta.LabelColumn = LabelColumn
	} else if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse feature metadata: %w", err)
	}
	if len(meta.FeatureColumns) == 0 {
		return nil, fmt.Errorf("feature metadata %s: no feature columns", path)
	}
	return &meta, nil
}

// SaveFeatureMetadata 写入特征元数据
func SaveFeatureMetadata(path string, meta *FeatureMetadata) error {
	return writeJSON(path, meta)
}

// LoadEncoders 从文件加载类别编码器，格式为 字段 → {类别 → 编码}
func LoadEncoders(path string) (EncoderSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read encoders: %w", err)
	}
	var m map[string]map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse encoders: %w", err)
	}
	return EncoderSetFromMappings(m)
}

// SaveEncoders 写入类别编码器
func SaveEncoders(path string, set EncoderSet) error {
	return writeJSON(path, set.Mappings())
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
