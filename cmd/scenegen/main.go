package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rushteam/scenekit/config"
	"github.com/rushteam/scenekit/pkg/logger"
	"github.com/rushteam/scenekit/store"
	"github.com/rushteam/scenekit/synth"
)

func main() {
	var configPath string
	var users, movies int
	var seed uint64
	flag.StringVar(&configPath, "config", "", "path to scenekit.yaml (default: ./configs/scenekit.yaml)")
	flag.IntVar(&users, "users", 0, "override synth.users")
	flag.IntVar(&movies, "movies", 0, "override synth.movies")
	flag.Uint64Var(&seed, "seed", 0, "override synth.seed")
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

	sc := cfg.Synth.Config
	if users > 0 {
		sc.Users = users
	}
	if movies > 0 {
		sc.Movies = movies
	}
	if seed > 0 {
		sc.Seed = seed
	}
	if sc.Reference, err = cfg.Synth.ResolvedReference(time.Now()); err != nil {
		log.Fatal("resolve reference time", "error", err)
	}

	ctx := context.Background()
	world, err := synth.NewGenerator(sc, log).Generate(ctx)
	if err != nil {
		log.Fatal("generate synthetic data", "error", err)
	}

	db, err := store.OpenDB(cfg.Database, log)
	if err != nil {
		log.Fatal("open database", "error", err)
	}
	if cfg.Synth.Reset {
		err = store.Reset(db)
	} else {
		err = store.Migrate(db)
	}
	if err != nil {
		log.Fatal("prepare schema", "error", err)
	}

	repo := store.NewRepository(db, log)
	if err := repo.SaveWorld(ctx, world); err != nil {
		log.Fatal("save synthetic data", "error", err)
	}
	counts, err := repo.Count(ctx)
	if err != nil {
		log.Fatal("count rows", "error", err)
	}
	log.Info("synthetic data written",
		"dsn", cfg.Database.DSN, "seed", sc.Seed,
		"users", counts.Users, "movies", counts.Movies, "scenes", counts.Scenes,
		"variants", counts.Variants, "sessions", counts.Sessions, "viewings", counts.Viewings)
}
