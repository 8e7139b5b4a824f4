// Package train 从观看记录训练掉线分类器并写出推理所需的三个产物。
package train

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/feature"
	"github.com/rushteam/scenekit/model"
	"github.com/rushteam/scenekit/pkg/logger"
)

// RowSource 提供训练用的联表记录
type RowSource interface {
	TrainingRows(ctx context.Context) ([]core.TrainingRow, error)
}

// Options 训练参数
type Options struct {
	TestRatio float64            `mapstructure:"test_ratio"`
	Seed      uint64             `mapstructure:"seed"`
	Folds     int                `mapstructure:"folds"`   // 交叉验证折数，< 2 时跳过
	Workers   int                `mapstructure:"workers"` // 并发训练的折数上限
	Model     model.TrainOptions `mapstructure:"model"`
}

// DefaultOptions 80/20 切分、种子 42、5 折交叉验证
func DefaultOptions() Options {
	return Options{
		TestRatio: 0.2,
		Seed:      42,
		Folds:     5,
		Workers:   4,
		Model:     model.DefaultTrainOptions(),
	}
}

// Report 训练评估结果
type Report struct {
	Version    string
	Rows       int
	Skipped    int
	TrainRows  int
	TestRows   int
	Positives  int
	Accuracy   float64
	AUC        float64
	FoldAUC    []float64
	CVAUC      float64
	Importance []model.Importance
}

// Result 训练产物与评估报告
type Result struct {
	Model    *model.LogisticModel
	Encoders feature.EncoderSet
	Metadata *feature.FeatureMetadata
	Report   Report
}

// Trainer 训练流水线：抽取 -> 派生 -> 填充 -> 编码 -> 切分 -> 训练 -> 评估
type Trainer struct {
	source RowSource
	log    *logger.Logger
	opts   Options
	now    func() time.Time
}

// NewTrainer 创建训练器
func NewTrainer(source RowSource, log *logger.Logger, opts Options) *Trainer {
	return &Trainer{source: source, log: log.With("component", "trainer"), opts: opts, now: time.Now}
}

// Fit 训练并评估，不写文件
func (t *Trainer) Fit(ctx context.Context) (*Result, error) {
	rows, err := t.source.TrainingRows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.Invalidf(core.ModuleModel, "no training rows with watch_duration > 0")
	}

	records := make([]feature.Record, 0, len(rows))
	y := make([]int, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		r, err := feature.DeriveTraining(row)
		if err != nil {
			skipped++
			t.log.Warn("skip training row", "movie_id", row.Movie.MovieID, "variant_id", row.Variant.VariantID, "error", err)
			continue
		}
		records = append(records, r)
		label := 0
		if row.DroppedOff {
			label = 1
		}
		y = append(y, label)
	}
	if len(records) == 0 {
		return nil, core.Invalidf(core.ModuleModel, "all %d training rows were invalid", len(rows))
	}

	feature.FitImputer(records).Apply(records)
	encoders := feature.FitEncoders(records, feature.CategoricalColumns)
	x := feature.TrainingMatrix(records, encoders)

	now := t.now().UTC()
	opts := t.opts.Model
	if opts.Version == "" {
		opts.Version = "lr-" + now.Format("20060102150405")
	}

	trainIdx, testIdx := StratifiedSplit(y, t.opts.TestRatio, t.opts.Seed)
	m, err := model.TrainLogistic(ctx, x.Subset(trainIdx), pick(y, trainIdx), opts)
	if err != nil {
		return nil, err
	}

	report := Report{
		Version:   opts.Version,
		Rows:      len(rows),
		Skipped:   skipped,
		TrainRows: len(trainIdx),
		TestRows:  len(testIdx),
		Positives: sum(y),
		Accuracy:  math.NaN(),
		AUC:       math.NaN(),
		CVAUC:     math.NaN(),
	}
	if len(testIdx) > 0 {
		proba, err := m.PredictProba(ctx, x.Subset(testIdx))
		if err != nil {
			return nil, err
		}
		yTest := pick(y, testIdx)
		report.Accuracy = model.Accuracy(yTest, proba)
		report.AUC = model.AUC(yTest, proba)
	}

	if report.FoldAUC, err = t.crossValidate(ctx, x, y, opts); err != nil {
		return nil, err
	}
	report.CVAUC = meanIgnoringNaN(report.FoldAUC)
	report.Importance = model.FeatureImportance(m)

	t.log.Info("training finished",
		"version", report.Version, "rows", report.Rows, "skipped", report.Skipped,
		"accuracy", report.Accuracy, "auc", report.AUC, "cv_auc", report.CVAUC)

	return &Result{
		Model:    m,
		Encoders: encoders,
		Metadata: feature.NewFeatureMetadata(x.Columns, opts.Version, now.Format(time.RFC3339)),
		Report:   report,
	}, nil
}

// crossValidate 分层 k 折交叉验证，各折并发训练，返回每折的 AUC。
func (t *Trainer) crossValidate(ctx context.Context, x *feature.Matrix, y []int, opts model.TrainOptions) ([]float64, error) {
	k := t.opts.Folds
	if k < 2 || len(y) < k {
		return nil, nil
	}
	folds := StratifiedFolds(y, k, t.opts.Seed)
	scores := make([]float64, k)

	g, gctx := errgroup.WithContext(ctx)
	if t.opts.Workers > 0 {
		g.SetLimit(t.opts.Workers)
	}
	for i, held := range folds {
		g.Go(func() error {
			trainIdx := complement(len(y), held)
			m, err := model.TrainLogistic(gctx, x.Subset(trainIdx), pick(y, trainIdx), opts)
			if err != nil {
				return fmt.Errorf("fold %d: %w", i, err)
			}
			proba, err := m.PredictProba(gctx, x.Subset(held))
			if err != nil {
				return fmt.Errorf("fold %d: %w", i, err)
			}
			scores[i] = model.AUC(pick(y, held), proba)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// Run 训练并将 model.json / encoders.json / features.json 写入 dir
func (t *Trainer) Run(ctx context.Context, dir string) (*Report, error) {
	res, err := t.Fit(ctx)
	if err != nil {
		return nil, err
	}
	if err := model.SaveBundle(dir, res.Model, res.Encoders, res.Metadata); err != nil {
		return nil, err
	}
	t.log.Info("artifacts saved", "dir", dir, "version", res.Report.Version)
	return &res.Report, nil
}

func sum(y []int) int {
	n := 0
	for _, v := range y {
		n += v
	}
	return n
}

func meanIgnoringNaN(values []float64) float64 {
	total, n := 0.0, 0
	for _, v := range values {
		if !math.IsNaN(v) {
			total += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return total / float64(n)
}
