package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rushteam/scenekit/config"
	"github.com/rushteam/scenekit/pkg/logger"
	"github.com/rushteam/scenekit/store"
	"github.com/rushteam/scenekit/train"
)

func main() {
	var configPath, outDir string
	flag.StringVar(&configPath, "config", "", "path to scenekit.yaml (default: ./configs/scenekit.yaml)")
	flag.StringVar(&outDir, "out", "", "artifact directory (default: model.dir)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if outDir == "" {
		outDir = cfg.Model.Dir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.OpenDB(cfg.Database, log)
	if err != nil {
		log.Fatal("open database", "error", err)
	}
	repo := store.NewRepository(db, log)

	report, err := train.NewTrainer(repo, log, cfg.Train).Run(ctx, outDir)
	if err != nil {
		log.Fatal("training failed", "error", err)
	}

	log.Info("evaluation",
		"version", report.Version, "train_rows", report.TrainRows, "test_rows", report.TestRows,
		"positives", report.Positives, "accuracy", report.Accuracy, "auc", report.AUC,
		"fold_auc", report.FoldAUC, "cv_auc", report.CVAUC)
	for i, imp := range report.Importance {
		if i == 10 {
			break
		}
		log.Info("feature importance", "rank", i+1, "feature", imp.Feature, "score", imp.Score)
	}
}
