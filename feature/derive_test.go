package feature

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/scenekit/core"
)

func testUser() *core.UserProfile {
	return &core.UserProfile{
		UserID:            1,
		Username:          "user_001",
		Openness:          core.F(0.6),
		Conscientiousness: core.F(0.4),
		Extraversion:      core.F(0.8),
		Agreeableness:     core.F(0.3),
		Neuroticism:       core.F(0.9),
		PreferredPacing:   core.F(6.5),
		TotalWatchTime:    core.F(1200),
		AvgSessionLength:  core.F(22),
		FavouriteGenres:   []string{"thriller", "action"},
		DOB:               "1990-05-01",
		Sex:               "Female",
	}
}

func testMovie(sceneCount int) *core.Movie {
	return &core.Movie{
		MovieID:     7,
		Title:       "Movie 7",
		ReleaseYear: 2015,
		Duration:    110,
		Genres:      []string{"sci-fi", "drama"},
		Rating:      "R",
		IMDBRating:  core.F(8.1),
		SceneCount:  sceneCount,
	}
}

func testSegment(sceneIndex int) core.Segment {
	return core.Segment{
		Scene: core.Scene{SceneID: 70 + int64(sceneIndex), MovieID: 7, SceneIndex: sceneIndex},
		Variant: core.SceneVariant{
			VariantID:       700,
			Name:            "intense",
			PacingScore:     8,
			IntensityScore:  9,
			DialogueDensity: 2,
			ActionLevel:     7,
			CharacterFocus:  3,
			EmotionalTone:   -2,
			Duration:        90,
		},
	}
}

// 2024-06-15 是周六
var saturdayEvening = time.Date(2024, 6, 15, 20, 30, 0, 0, time.UTC)

func TestDeriveInference(t *testing.T) {
	r, err := DeriveInference(testUser(), testMovie(10), testSegment(5),
		core.NewViewingContext(saturdayEvening, "tv"), DeriveOptions{})
	require.NoError(t, err)

	assert.Equal(t, 34.0, r.Age)
	assert.Equal(t, 20.0, r.ViewingHour)
	assert.Equal(t, 1.0, r.IsWeekend)
	assert.Equal(t, 0.5, r.MovieProgress)
	assert.Equal(t, "early", r.SegmentPosition)
	assert.Equal(t, "tv", r.DeviceType)
	assert.Equal(t, 1.0, r.CompletionRatio)
	assert.Equal(t, "complete", r.CompletionCategory)
	assert.Equal(t, "new", r.UserExperience, "inference ignores accumulated watch time")
	assert.Equal(t, 1200.0, r.TotalWatchTime)
	assert.InDelta(t, 6.5-8, r.PacingPreferenceDiff, 1e-9)
	assert.InDelta(t, 9*0.8/10, r.IntensityExtraversionMatch, 1e-9)
	assert.Equal(t, "drama,sci-fi", r.Genres)
	assert.Equal(t, "action,thriller", r.FavouriteGenres)
	assert.Equal(t, 8.1, r.IMDBRating)
	assert.Equal(t, 90.0, r.SegmentDuration)
	assert.Equal(t, "intense", r.VariantName)
}

func TestDeriveInference_SymmetricPacingDiff(t *testing.T) {
	r, err := DeriveInference(testUser(), testMovie(10), testSegment(5),
		core.NewViewingContext(saturdayEvening, ""), DeriveOptions{SymmetricPacingDiff: true})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, r.PacingPreferenceDiff, 1e-9)
	assert.Equal(t, core.DefaultDeviceType, r.DeviceType)
}

func TestDeriveInference_Defaults(t *testing.T) {
	user := &core.UserProfile{UserID: 2, DOB: "not-a-date"}
	movie := &core.Movie{MovieID: 3, SceneCount: 4}
	seg := core.Segment{Scene: core.Scene{SceneIndex: 0}, Variant: core.SceneVariant{PacingScore: 5}}

	r, err := DeriveInference(user, movie, seg, core.NewViewingContext(saturdayEvening, ""), DeriveOptions{})
	require.NoError(t, err)

	assert.Equal(t, float64(core.DefaultAge), r.Age)
	assert.Equal(t, core.DefaultTrait, r.Openness)
	assert.Equal(t, core.DefaultTrait, r.Neuroticism)
	assert.Equal(t, core.DefaultPacing, r.PreferredPacing)
	assert.Equal(t, 0.0, r.TotalWatchTime)
	assert.Equal(t, core.DefaultAvgSessionLength, r.AvgSessionLength)
	assert.Equal(t, core.DefaultSex, r.Sex)
	assert.Equal(t, core.DefaultFavouriteGenres, r.FavouriteGenres)
	assert.Equal(t, core.DefaultMovieGenres, r.Genres)
	assert.Equal(t, core.DefaultMovieRating, r.MovieRating)
	assert.Equal(t, core.DefaultVariantName, r.VariantName)
	assert.Equal(t, core.DefaultIMDBRating, r.IMDBRating)
	assert.Equal(t, "beginning", r.SegmentPosition)
	assert.Equal(t, 0.0, r.PacingPreferenceDiff)
}

func TestDeriveInference_InvalidSceneCount(t *testing.T) {
	_, err := DeriveInference(testUser(), testMovie(0), testSegment(1),
		core.NewViewingContext(saturdayEvening, ""), DeriveOptions{})
	require.Error(t, err)
	assert.True(t, core.IsInvalid(err))

	_, err = DeriveTraining(core.TrainingRow{User: *testUser(), Movie: *testMovie(-1), Scene: testSegment(0).Scene})
	assert.True(t, core.IsInvalid(err))
}

func TestDeriveTraining(t *testing.T) {
	start := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC) // 周三
	seg := testSegment(9)
	row := core.TrainingRow{
		User:          *testUser(),
		Movie:         *testMovie(10),
		Scene:         seg.Scene,
		Variant:       seg.Variant,
		DeviceType:    "mobile",
		StartTime:     start,
		WatchDuration: 45,
		DroppedOff:    true,
	}

	r, err := DeriveTraining(row)
	require.NoError(t, err)
	assert.Equal(t, 34.0, r.Age)
	assert.Equal(t, 9.0, r.ViewingHour)
	assert.Equal(t, 0.0, r.IsWeekend)
	assert.Equal(t, "end", r.SegmentPosition)
	assert.Equal(t, 0.5, r.CompletionRatio)
	assert.Equal(t, "partial", r.CompletionCategory)
	assert.Equal(t, "regular", r.UserExperience)
	assert.InDelta(t, 1.5, r.PacingPreferenceDiff, 1e-9)
	assert.Equal(t, "mobile", r.DeviceType)
}

func TestDeriveTraining_KeepsMissing(t *testing.T) {
	seg := testSegment(0)
	seg.Variant.Duration = 0
	row := core.TrainingRow{
		User:       core.UserProfile{UserID: 9},
		Movie:      core.Movie{MovieID: 1, SceneCount: 2},
		Scene:      seg.Scene,
		Variant:    seg.Variant,
		DeviceType: "tv",
		StartTime:  saturdayEvening,
	}
	r, err := DeriveTraining(row)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(r.Openness))
	assert.True(t, math.IsNaN(r.PreferredPacing))
	assert.True(t, math.IsNaN(r.PacingPreferenceDiff))
	assert.True(t, math.IsNaN(r.IMDBRating))
	assert.True(t, math.IsNaN(r.CompletionRatio))
	assert.Equal(t, "", r.CompletionCategory)
	assert.Equal(t, "", r.UserExperience)
	assert.Equal(t, "", r.Sex)
	assert.Equal(t, "", r.Genres)
}

func TestDerive_Deterministic(t *testing.T) {
	vctx := core.NewViewingContext(saturdayEvening, "mobile")
	a, err := DeriveInference(testUser(), testMovie(10), testSegment(3), vctx, DeriveOptions{})
	require.NoError(t, err)
	b, err := DeriveInference(testUser(), testMovie(10), testSegment(3), vctx, DeriveOptions{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanonicalGenres(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"drama"}, "drama"},
		{[]string{"thriller", " action", "thriller"}, "action,thriller"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalGenres(tt.in))
	}
}
