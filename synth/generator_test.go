package synth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/pkg/logger"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Users = 6
	cfg.Movies = 3
	cfg.ScenesPerMovie = 4
	cfg.SessionsPerUser = 2
	cfg.Reference = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	return cfg
}

func TestGenerator_Shape(t *testing.T) {
	cfg := smallConfig()
	w, err := NewGenerator(cfg, logger.Nop()).Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, w.Users, 6)
	require.Len(t, w.Movies, 3)
	require.Len(t, w.Sessions, 12)
	assert.Len(t, w.Viewings, 12*4, "one viewing per scene per session")

	variantsByID := make(map[int64]core.SceneVariant)
	for _, ms := range w.Movies {
		assert.Equal(t, 4, ms.Movie.SceneCount)
		assert.Len(t, ms.Segments, 4*3)
		assert.Len(t, ms.Movie.Genres, 2)
		for _, seg := range ms.Segments {
			v := seg.Variant
			variantsByID[v.VariantID] = v
			assert.Equal(t, seg.Scene.SceneID, v.SceneID)
			assert.GreaterOrEqual(t, v.PacingScore, 0.0)
			assert.LessOrEqual(t, v.PacingScore, 10.0)
			assert.GreaterOrEqual(t, v.EmotionalTone, -5.0)
			assert.LessOrEqual(t, v.EmotionalTone, 5.0)
			assert.GreaterOrEqual(t, v.Duration, 20)
			assert.LessOrEqual(t, v.Duration, 120)
		}
	}

	for i, u := range w.Users {
		assert.Equal(t, int64(i+1), u.UserID)
		age := cfg.Reference.Year() - mustYear(t, u.DOB)
		assert.GreaterOrEqual(t, age, 18)
		assert.LessOrEqual(t, age, 61)
		assert.NotEmpty(t, u.FavouriteGenres)
		assert.LessOrEqual(t, len(u.FavouriteGenres), 3)
	}

	for i, v := range w.Viewings {
		assert.Equal(t, int64(i+1), v.ViewingID)
		variant, ok := variantsByID[v.VariantID]
		require.True(t, ok)
		if v.DroppedOff {
			assert.Equal(t, variant.Duration/2, v.WatchDuration)
		} else {
			assert.GreaterOrEqual(t, v.WatchDuration, int(float64(variant.Duration)*0.8))
		}
	}
	for _, s := range w.Sessions {
		assert.False(t, s.StartTime.After(cfg.Reference))
		assert.True(t, s.StartTime.After(cfg.Reference.AddDate(0, 0, -31)))
		assert.True(t, s.EndTime.After(s.StartTime))
	}
}

func mustYear(t *testing.T, dob string) int {
	d, err := time.Parse("2006-01-02", dob)
	require.NoError(t, err)
	return d.Year()
}

func TestGenerator_Deterministic(t *testing.T) {
	cfg := smallConfig()
	cfg.Workers = 1
	a, err := NewGenerator(cfg, logger.Nop()).Generate(context.Background())
	require.NoError(t, err)

	cfg.Workers = 8
	b, err := NewGenerator(cfg, logger.Nop()).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b, "worker count must not change the output")

	cfg.Seed++
	c, err := NewGenerator(cfg, logger.Nop()).Generate(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.Viewings, c.Viewings)
}

func TestGenerator_PicksMaxAffinityVariant(t *testing.T) {
	w, err := NewGenerator(smallConfig(), logger.Nop()).Generate(context.Background())
	require.NoError(t, err)

	sessions := make(map[int64]core.ViewingSession)
	for _, s := range w.Sessions {
		sessions[s.SessionID] = s
	}
	users := make(map[int64]core.UserProfile)
	for _, u := range w.Users {
		users[u.UserID] = u
	}
	scenes := make(map[int64][]core.SceneVariant)
	sceneOf := make(map[int64]int64)
	for _, ms := range w.Movies {
		for _, seg := range ms.Segments {
			scenes[seg.Scene.SceneID] = append(scenes[seg.Scene.SceneID], seg.Variant)
			sceneOf[seg.Variant.VariantID] = seg.Scene.SceneID
		}
	}
	for _, v := range w.Viewings {
		u := users[sessions[v.SessionID].UserID]
		siblings := scenes[sceneOf[v.VariantID]]
		best := siblings[BestVariant(u.TraitValues(), siblings)]
		assert.Equal(t, best.VariantID, v.VariantID)
	}
}

func TestGenerator_InvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Users = 0
	_, err := NewGenerator(cfg, logger.Nop()).Generate(context.Background())
	assert.True(t, core.IsInvalid(err))

	cfg = smallConfig()
	cfg.Reference = time.Time{}
	_, err = NewGenerator(cfg, logger.Nop()).Generate(context.Background())
	assert.True(t, core.IsInvalid(err))
}
