// Package storetest 提供测试用的 sqlite 内存库与小型数据集。
package storetest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/pkg/logger"
	"github.com/rushteam/scenekit/store"
)

// DB 返回已建表的独立内存库，测试结束时关闭。
func DB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := store.OpenDB(store.DBConfig{DSN: dsn, MaxOpen: 1}, logger.Nop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Repository 返回写入了 World() 数据的仓库
func Repository(t testing.TB) *store.Repository {
	t.Helper()
	repo := store.NewRepository(DB(t), logger.Nop())
	if err := repo.SaveWorld(t.Context(), World()); err != nil {
		t.Fatalf("save world: %v", err)
	}
	return repo
}

// 数据集中的固定 ID
const (
	UserComplete   int64 = 1 // 画像完整
	UserSparse     int64 = 2 // 画像大部分为空
	MovieValid     int64 = 10
	MovieNoScenes  int64 = 11 // 没有任何场景
	MovieZeroCount int64 = 12 // 声明 scene_count = 0 但有场景
)

// Reference 数据集的参考时间
var Reference = time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC)

func variant(id, sceneID int64, name string, pacing, intensity, tone float64, duration int) core.SceneVariant {
	return core.SceneVariant{
		VariantID:       id,
		SceneID:         sceneID,
		Name:            name,
		FilePath:        fmt.Sprintf("/path/to/scene%d_v%d.mp4", sceneID, id),
		PacingScore:     pacing,
		IntensityScore:  intensity,
		DialogueDensity: 5,
		ActionLevel:     intensity,
		CharacterFocus:  5,
		EmotionalTone:   tone,
		Duration:        duration,
	}
}

// World 返回一个小型、确定的数据集：
// 影片 10 有 3 个场景 × 2 个版本；影片 11 没有场景；影片 12 的 scene_count 为 0。
func World() *core.World {
	w := &core.World{
		Users: []core.UserProfile{
			{
				UserID: UserComplete, Username: "user_001",
				Openness: core.F(0.7), Conscientiousness: core.F(0.5), Extraversion: core.F(0.6),
				Agreeableness: core.F(0.4), Neuroticism: core.F(0.8),
				PreferredPacing: core.F(7), TotalWatchTime: core.F(800), AvgSessionLength: core.F(25),
				FavouriteGenres: []string{"action", "thriller"},
				DOB:             "1994-03-02", Sex: "Female", RegistrationDate: Reference.AddDate(-1, 0, 0),
			},
			{UserID: UserSparse, Username: "user_002", DOB: "unknown", Sex: "Male", RegistrationDate: Reference.AddDate(0, -2, 0)},
		},
	}

	valid := core.MovieSegments{Movie: core.Movie{
		MovieID: MovieValid, Title: "Movie 10", ReleaseYear: 2012, Duration: 95,
		Genres: []string{"drama", "action"}, Rating: "PG-13", IMDBRating: core.F(7.4), SceneCount: 3,
	}}
	vid := int64(100)
	for i := 0; i < 3; i++ {
		sceneID := int64(1000 + i)
		scene := core.Scene{SceneID: sceneID, MovieID: MovieValid, SceneIndex: i}
		calm := variant(vid, sceneID, "calm", 3, 2, 3, 60+i)
		intense := variant(vid+1, sceneID, "intense", 8, 9, -2, 45+i)
		vid += 2
		valid.Segments = append(valid.Segments, core.Segment{Scene: scene, Variant: calm}, core.Segment{Scene: scene, Variant: intense})
	}

	empty := core.MovieSegments{Movie: core.Movie{MovieID: MovieNoScenes, Title: "Movie 11", SceneCount: 2, Rating: "G"}}

	broken := core.MovieSegments{Movie: core.Movie{MovieID: MovieZeroCount, Title: "Movie 12", SceneCount: 0, Rating: "R"}}
	broken.Segments = []core.Segment{{
		Scene:   core.Scene{SceneID: 1200, MovieID: MovieZeroCount, SceneIndex: 0},
		Variant: variant(200, 1200, "standard", 5, 5, 0, 30),
	}}
	w.Movies = []core.MovieSegments{valid, empty, broken}

	// 两个会话，每个场景一条观看记录；最后一条 watch_duration 为 0，不进入训练
	for s := 0; s < 2; s++ {
		sess := core.ViewingSession{
			SessionID: int64(500 + s), UserID: UserComplete + int64(s), MovieID: MovieValid,
			StartTime: Reference.Add(-time.Duration(s+1) * 24 * time.Hour), DeviceType: core.DeviceTypes[s],
		}
		sess.EndTime = sess.StartTime.Add(90 * time.Minute)
		w.Sessions = append(w.Sessions, sess)
		for i, seg := range valid.Segments {
			if i%2 != s {
				continue
			}
			watched := seg.Variant.Duration
			dropped := s == 1
			if dropped {
				watched /= 2
			}
			if s == 1 && i == len(valid.Segments)-1 {
				watched = 0
			}
			w.Viewings = append(w.Viewings, core.SceneViewing{
				ViewingID: int64(len(w.Viewings) + 1), SessionID: sess.SessionID, VariantID: seg.Variant.VariantID,
				WatchDuration: watched, DroppedOff: dropped, Timestamp: sess.StartTime.Add(time.Duration(i) * time.Minute),
			})
		}
	}
	return w
}
