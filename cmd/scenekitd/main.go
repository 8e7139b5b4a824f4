package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/scenekit/config"
	_ "github.com/rushteam/scenekit/config/builders"
	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/feature"
	"github.com/rushteam/scenekit/filter"
	"github.com/rushteam/scenekit/model"
	"github.com/rushteam/scenekit/pipeline"
	"github.com/rushteam/scenekit/pkg/logger"
	"github.com/rushteam/scenekit/server"
	"github.com/rushteam/scenekit/service"
	"github.com/rushteam/scenekit/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to scenekit.yaml (default: ./configs/scenekit.yaml)")
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

	// 产物缺失直接退出
	bundle, err := model.LoadBundle(cfg.Model.Dir)
	if err != nil {
		log.Fatal("load model artifacts", "dir", cfg.Model.Dir, "error", err)
	}
	log.Info("model loaded", "dir", cfg.Model.Dir, "version", bundle.Version(),
		"classifier", bundle.Classifier.Name(), "features", len(bundle.Columns()))

	db, err := store.OpenDB(cfg.Database, log)
	if err != nil {
		log.Fatal("open database", "error", err)
	}
	repo := store.NewRepository(db, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := newCache(ctx, cfg.Cache, log)
	defer cache.Close()

	var monitor *feature.Monitor
	if cfg.Selector.MonitorSamples > 0 {
		monitor = feature.NewMonitor(cfg.Selector.MonitorSamples)
	}

	sequence, alternatives, err := buildPipelines(cfg, bundle, cache, monitor)
	if err != nil {
		log.Fatal("build pipelines", "error", err)
	}
	log.Info("pipelines ready", "sequence", sequence.NodeNames(), "alternatives", alternatives.NodeNames())

	opts := []service.Option{
		service.WithConfig(&cfg.Selector),
		service.WithPipelines(sequence, alternatives),
		service.WithLogger(log),
	}
	if cfg.Cache.Backend != "none" {
		opts = append(opts, service.WithCache(cache))
	}
	sel := service.NewSelector(repo, bundle, opts...)

	var routerOpts []server.Option
	if monitor != nil {
		routerOpts = append(routerOpts, server.WithMonitor(monitor))
	}
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.NewRouter(sel, log, cfg.Server.Mode, routerOpts...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 优雅退出
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-gctx.Done():
		case sig := <-quit:
			log.Info("received signal, shutting down", "signal", sig.String())
			cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown failed", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server exited")
}

// newCache 按配置创建结果缓存；Redis 不可用时退回内存缓存
func newCache(ctx context.Context, cfg config.CacheConfig, log *logger.Logger) core.Store {
	memory := func() core.Store {
		return store.NewMemoryStore(
			store.WithMaxEntries(cfg.MaxEntries),
			store.WithCleanupInterval(cfg.CleanupInterval),
		)
	}
	switch cfg.Backend {
	case "redis":
		rs, err := store.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis cache unavailable, falling back to memory", "addr", cfg.Redis.Addr, "error", err)
			return memory()
		}
		return rs
	case "none":
		return noCache{}
	default:
		return memory()
	}
}

// noCache 是关闭缓存时使用的空实现
type noCache struct{}

func (noCache) Name() string { return "none" }
func (noCache) Get(context.Context, string) ([]byte, error) {
	return nil, core.ErrStoreNotFound
}
func (noCache) Set(context.Context, string, []byte, ...int) error { return nil }
func (noCache) Delete(context.Context, string) error              { return nil }
func (noCache) Close() error                                      { return nil }

// buildPipelines 按配置构建序列与候选 Pipeline，资格规则插在最前面
func buildPipelines(cfg *config.App, bundle *model.Bundle, cache core.Store, monitor *feature.Monitor) (sequence, alternatives *pipeline.Pipeline, err error) {
	deps := config.Dependencies{
		Bundle:    bundle,
		Extractor: feature.NewInferenceExtractor(feature.WithSymmetricPacingDiff(cfg.Selector.SymmetricPacingDiff)),
		Blacklist: filter.NewStoreAdapter(cache),
		Monitor:   monitor,
	}

	seqCfg, err := config.LoadPipelineConfig(cfg.Selector.SequencePipeline, config.DefaultSequenceConfig())
	if err != nil {
		return nil, nil, err
	}
	altCfg, err := config.LoadPipelineConfig(cfg.Selector.AlternativesPipeline, config.DefaultAlternativesConfig())
	if err != nil {
		return nil, nil, err
	}

	rules := cfg.Selector.EligibilityRules
	if sequence, err = config.BuildPipeline(config.PrependEligibility(seqCfg, rules), deps); err != nil {
		return nil, nil, fmt.Errorf("sequence pipeline: %w", err)
	}
	if alternatives, err = config.BuildPipeline(config.PrependEligibility(altCfg, rules), deps); err != nil {
		return nil, nil, fmt.Errorf("alternatives pipeline: %w", err)
	}
	return sequence, alternatives, nil
}
