package filter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/store"
)

func candidate(scene int, variantID int64, intensity float64) *core.Candidate {
	return core.NewCandidate(core.Segment{
		Scene:   core.Scene{SceneID: int64(scene + 1), SceneIndex: scene},
		Variant: core.SceneVariant{VariantID: variantID, IntensityScore: intensity},
	})
}

func minorContext() *core.RecommendContext {
	return &core.RecommendContext{
		User:    &core.UserProfile{UserID: 3, DOB: "2012-03-01"},
		Movie:   &core.Movie{MovieID: 1, SceneCount: 2},
		Viewing: core.NewViewingContext(time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC), ""),
	}
}

func variantIDs(cs []*core.Candidate) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.Segment.Variant.VariantID
	}
	return out
}

func TestFilterNode_Eligibility(t *testing.T) {
	f, err := NewEligibilityFilter(`user.age < 18 && variant.intensity_score > 8.0`)
	require.NoError(t, err)
	node := &FilterNode{Filters: []Filter{f}}

	rctx := minorContext()
	in := []*core.Candidate{
		candidate(0, 1, 3),
		candidate(0, 2, 9),
		candidate(1, 3, 5),
		candidate(1, 4, 9.5),
	}
	out, err := node.Process(context.Background(), rctx, in)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, variantIDs(out))
	assert.Equal(t, "filter.eligibility", in[1].Labels["filtered"].Source)
	_, relaxed := rctx.GetLabel("filter_relaxed")
	assert.False(t, relaxed)
}

func TestFilterNode_NeverEmptiesScene(t *testing.T) {
	f, err := NewEligibilityFilter(`variant.intensity_score > 8.0`)
	require.NoError(t, err)
	node := &FilterNode{Filters: []Filter{f}}

	rctx := minorContext()
	in := []*core.Candidate{
		candidate(0, 1, 9),
		candidate(0, 2, 10),
		candidate(1, 3, 5),
		candidate(1, 4, 9),
	}
	out, err := node.Process(context.Background(), rctx, in)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, variantIDs(out))

	lbl, ok := rctx.GetLabel("filter_relaxed")
	require.True(t, ok)
	assert.Equal(t, "0", lbl.Value)
	assert.Equal(t, "true", out[0].Labels["filter_relaxed"].Value)
}

type failingFilter struct{}

func (failingFilter) Name() string { return "filter.failing" }
func (failingFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Candidate) (bool, error) {
	return false, errors.New("boom")
}

func TestFilterNode_ErrorKeepsCandidate(t *testing.T) {
	node := &FilterNode{Filters: []Filter{failingFilter{}}}
	out, err := node.Process(context.Background(), minorContext(), []*core.Candidate{candidate(0, 1, 1)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "filter.failing", out[0].Labels["filter_error"].Value)
}

func TestNewEligibilityFilter_Invalid(t *testing.T) {
	_, err := NewEligibilityFilter("")
	assert.Error(t, err)
	_, err = NewEligibilityFilter("variant.intensity_score >")
	assert.Error(t, err)
}

func TestBlacklistFilter(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()

	adapter := NewStoreAdapter(mem)
	require.NoError(t, adapter.SetBlacklist(ctx, "blocked", []int64{2}))
	require.NoError(t, adapter.SetBlacklist(ctx, "user_blocks:3", []int64{3}))

	f := NewBlacklistFilter([]int64{1}, adapter, "blocked")
	f.UserKeyPrefix = "user_blocks"
	rctx := minorContext()

	for id, want := range map[int64]bool{1: true, 2: true, 3: true, 4: false} {
		got, err := f.ShouldFilter(ctx, rctx, candidate(0, id, 0))
		require.NoError(t, err)
		assert.Equal(t, want, got, "variant %d", id)
	}

	ids, err := adapter.GetBlacklist(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSceneNode(t *testing.T) {
	in := []*core.Candidate{candidate(0, 1, 0), candidate(1, 2, 0), candidate(1, 3, 0)}
	rctx := minorContext()

	out, err := (&SceneNode{}).Process(context.Background(), rctx, in)
	require.NoError(t, err)
	assert.Len(t, out, 3)

	rctx.Params = map[string]any{core.ParamSceneIndex: 1}
	out, err = (&SceneNode{}).Process(context.Background(), rctx, in)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, variantIDs(out))

	rctx.Params[core.ParamSceneIndex] = 7
	out, err = (&SceneNode{}).Process(context.Background(), rctx, in)
	require.NoError(t, err)
	assert.Empty(t, out)

	rctx.Params[core.ParamSceneIndex] = "one"
	_, err = (&SceneNode{}).Process(context.Background(), rctx, in)
	assert.True(t, core.IsInvalid(err))
}
