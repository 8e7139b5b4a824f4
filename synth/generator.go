package synth

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/pkg/logger"
)

// Config 生成参数
type Config struct {
	Users            int       `mapstructure:"users"`
	Movies           int       `mapstructure:"movies"`
	ScenesPerMovie   int       `mapstructure:"scenes_per_movie"`
	VariantsPerScene int       `mapstructure:"variants_per_scene"`
	SessionsPerUser  int       `mapstructure:"sessions_per_user"`
	Seed             uint64    `mapstructure:"seed"`
	Workers          int       `mapstructure:"workers"`
	Reference        time.Time `mapstructure:"-"` // 生成的参考时间（"现在"）
}

// DefaultConfig 默认规模：100 用户、10 部影片 × 10 场景 × 3 版本、每用户 8 个会话
func DefaultConfig() Config {
	return Config{
		Users:            100,
		Movies:           10,
		ScenesPerMovie:   10,
		VariantsPerScene: 3,
		SessionsPerUser:  8,
		Seed:             42,
		Workers:          4,
	}
}

func (c Config) validate() error {
	switch {
	case c.Users <= 0, c.Movies <= 0, c.ScenesPerMovie <= 0, c.VariantsPerScene <= 0:
		return core.Invalidf(core.ModuleSynth, "users, movies, scenes and variants must be positive")
	case c.SessionsPerUser < 0:
		return core.Invalidf(core.ModuleSynth, "sessions_per_user must not be negative")
	case c.Reference.IsZero():
		return core.Invalidf(core.ModuleSynth, "reference time is required")
	}
	return nil
}

// 随机流编号：影片一个流，每个用户一个流
const movieStream = 0

// Generator 合成数据生成器。相同 Config 生成完全相同的 World。
type Generator struct {
	cfg Config
	log *logger.Logger
}

func NewGenerator(cfg Config, log *logger.Logger) *Generator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Generator{cfg: cfg, log: log.With("component", "synth")}
}

func (g *Generator) rng(stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(g.cfg.Seed, stream))
}

type userBatch struct {
	user     core.UserProfile
	sessions []core.ViewingSession
	viewings []core.SceneViewing
}

// Generate 生成完整的数据集。用户之间互不依赖，按 Workers 并发生成，
// 每个用户使用由种子派生的独立随机流，结果按用户顺序合并。
func (g *Generator) Generate(ctx context.Context) (*core.World, error) {
	if err := g.cfg.validate(); err != nil {
		return nil, err
	}
	movies := g.generateMovies()

	batches := make([]userBatch, g.cfg.Users)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for i := 0; i < g.cfg.Users; i++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			batches[i] = g.generateUser(i, movies)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	w := &core.World{Movies: movies}
	var viewingID int64
	for i := range batches {
		b := &batches[i]
		w.Users = append(w.Users, b.user)
		w.Sessions = append(w.Sessions, b.sessions...)
		for _, v := range b.viewings {
			viewingID++
			v.ViewingID = viewingID
			w.Viewings = append(w.Viewings, v)
		}
	}
	g.log.Info("synthetic world generated",
		"users", len(w.Users), "movies", len(w.Movies),
		"sessions", len(w.Sessions), "viewings", len(w.Viewings), "seed", g.cfg.Seed)
	return w, nil
}

func (g *Generator) generateMovies() []core.MovieSegments {
	rng := g.rng(movieStream)
	movies := make([]core.MovieSegments, g.cfg.Movies)
	var sceneID, variantID int64
	for m := 0; m < g.cfg.Movies; m++ {
		movieID := int64(m + 1)
		title := fmt.Sprintf("Movie_%d", m)
		ms := core.MovieSegments{Movie: core.Movie{
			MovieID:     movieID,
			Title:       title,
			ReleaseYear: intBetween(rng, 1990, 2022),
			Duration:    intBetween(rng, 60, 150),
			Genres:      sample(rng, core.Genres, 2),
			Rating:      core.AgeRatings[rng.IntN(len(core.AgeRatings))],
			IMDBRating:  core.F(round(uniform(rng, 4, 9), 1)),
			SceneCount:  g.cfg.ScenesPerMovie,
		}}
		for i := 0; i < g.cfg.ScenesPerMovie; i++ {
			sceneID++
			scene := core.Scene{SceneID: sceneID, MovieID: movieID, SceneIndex: i}
			for v := 0; v < g.cfg.VariantsPerScene; v++ {
				variantID++
				ms.Segments = append(ms.Segments, core.Segment{Scene: scene, Variant: core.SceneVariant{
					VariantID:       variantID,
					SceneID:         sceneID,
					Name:            fmt.Sprintf("Variant_%d", v),
					FilePath:        fmt.Sprintf("/path/to/%s_scene%d_v%d.mp4", title, i, v),
					PacingScore:     round(uniform(rng, 0, 10), 2),
					IntensityScore:  round(uniform(rng, 0, 10), 2),
					DialogueDensity: round(uniform(rng, 0, 10), 2),
					ActionLevel:     round(uniform(rng, 0, 10), 2),
					CharacterFocus:  round(uniform(rng, 0, 10), 2),
					EmotionalTone:   round(uniform(rng, -5, 5), 2),
					Duration:        intBetween(rng, 20, 120),
				}})
			}
		}
		movies[m] = ms
	}
	return movies
}

func (g *Generator) generateUser(i int, movies []core.MovieSegments) userBatch {
	rng := g.rng(uint64(i) + 1)
	ref := g.cfg.Reference

	// 出生日期：参考时间前 18 到 60 年之间
	oldest, youngest := ref.AddDate(-60, 0, 0), ref.AddDate(-18, 0, 0)
	dob := oldest.Add(time.Duration(rng.Int64N(int64(youngest.Sub(oldest)))))

	u := core.UserProfile{
		UserID:            int64(i + 1),
		Username:          fmt.Sprintf("user_%03d", i+1),
		DOB:               dob.Format("2006-01-02"),
		Sex:               core.Sexes[rng.IntN(len(core.Sexes))],
		Openness:          core.F(round(rng.Float64(), 2)),
		Conscientiousness: core.F(round(rng.Float64(), 2)),
		Extraversion:      core.F(round(rng.Float64(), 2)),
		Agreeableness:     core.F(round(rng.Float64(), 2)),
		Neuroticism:       core.F(round(rng.Float64(), 2)),
		TotalWatchTime:    core.F(float64(intBetween(rng, 0, 5000))),
		PreferredPacing:   core.F(round(uniform(rng, 0, 10), 2)),
		FavouriteGenres:   sample(rng, core.Genres, intBetween(rng, 1, 3)),
		AvgSessionLength:  core.F(round(uniform(rng, 5, 40), 2)),
		RegistrationDate:  ref,
	}
	traits := u.TraitValues()

	b := userBatch{user: u}
	window := int64(30 * 24 * time.Hour)
	for s := 0; s < g.cfg.SessionsPerUser; s++ {
		ms := &movies[rng.IntN(len(movies))]
		start := ref.Add(-time.Duration(rng.Int64N(window)))
		sess := core.ViewingSession{
			SessionID:  int64(i*g.cfg.SessionsPerUser + s + 1),
			UserID:     u.UserID,
			MovieID:    ms.Movie.MovieID,
			StartTime:  start,
			EndTime:    start.Add(time.Duration(intBetween(rng, 10, 120)) * time.Minute),
			DeviceType: core.DeviceTypes[rng.IntN(len(core.DeviceTypes))],
			Completed:  rng.IntN(2) == 1,
		}
		b.sessions = append(b.sessions, sess)

		for _, variants := range groupByScene(ms.Segments) {
			best := variants[BestVariant(traits, variants)]
			dropped := Bernoulli(rng, DropRisk(traits.Neuroticism, best))
			b.viewings = append(b.viewings, core.SceneViewing{
				SessionID:     sess.SessionID,
				VariantID:     best.VariantID,
				WatchDuration: WatchDuration(rng, best.Duration, dropped),
				DroppedOff:    dropped,
				Timestamp:     start.Add(time.Duration(intBetween(rng, 0, 3600)) * time.Second),
			})
		}
	}
	return b
}

// groupByScene 按场景分组版本，保持片段顺序
func groupByScene(segments []core.Segment) [][]core.SceneVariant {
	var out [][]core.SceneVariant
	index := make(map[int64]int)
	for _, seg := range segments {
		j, ok := index[seg.Scene.SceneID]
		if !ok {
			j = len(out)
			index[seg.Scene.SceneID] = j
			out = append(out, nil)
		}
		out[j] = append(out[j], seg.Variant)
	}
	return out
}
