package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/rushteam/scenekit/feature"
)

// 产物文件名
const (
	ModelFile    = "model.json"
	EncodersFile = "encoders.json"
	FeaturesFile = "features.json"
)

// Bundle 是训练产物：分类器 + 类别编码器 + 冻结的特征列。
// 加载后只读，服务期间不会变化。
type Bundle struct {
	Classifier Classifier
	Encoders   feature.EncoderSet
	Metadata   *feature.FeatureMetadata
}

// Columns 返回冻结的特征列
func (b *Bundle) Columns() []string { return b.Metadata.FeatureColumns }

// Version 返回模型版本（用于缓存 key）
func (b *Bundle) Version() string {
	if b.Metadata.ModelVersion != "" {
		return b.Metadata.ModelVersion
	}
	return "unversioned"
}

// Adapter 返回与产物匹配的推理预处理器
func (b *Bundle) Adapter() *feature.Adapter {
	return feature.NewAdapter(b.Encoders, b.Columns())
}

// LoadBundle 从目录加载三个产物文件，任何一个缺失都返回错误。
func LoadBundle(dir string) (*Bundle, error) {
	for _, name := range []string{ModelFile, EncodersFile, FeaturesFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("artifact %s: %w", name, err)
		}
	}
	clf, err := LoadClassifier(filepath.Join(dir, ModelFile))
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	encoders, err := feature.LoadEncoders(filepath.Join(dir, EncodersFile))
	if err != nil {
		return nil, err
	}
	meta, err := feature.LoadFeatureMetadata(filepath.Join(dir, FeaturesFile))
	if err != nil {
		return nil, err
	}
	return &Bundle{Classifier: clf, Encoders: encoders, Metadata: meta}, nil
}

// LoadClassifier 按 model.json 中的 type 字段加载分类器，缺省为 logistic。
func LoadClassifier(path string) (Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case "", TypeLogistic:
		return decodeLogistic(data)
	case TypeRPC:
		return decodeRPC(data)
	default:
		return nil, fmt.Errorf("unknown model type %q", head.Type)
	}
}

// SaveBundle 将逻辑回归模型、编码器与特征元数据写入目录
func SaveBundle(dir string, m *LogisticModel, encoders feature.EncoderSet, meta *feature.FeatureMetadata) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := m.Save(filepath.Join(dir, ModelFile)); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	if err := feature.SaveEncoders(filepath.Join(dir, EncodersFile), encoders); err != nil {
		return fmt.Errorf("save encoders: %w", err)
	}
	if err := feature.SaveFeatureMetadata(filepath.Join(dir, FeaturesFile), meta); err != nil {
		return fmt.Errorf("save features: %w", err)
	}
	return nil
}
