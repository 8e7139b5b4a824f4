package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/filter"
	"github.com/rushteam/scenekit/model/modeltest"
	"github.com/rushteam/scenekit/pipeline"
	"github.com/rushteam/scenekit/rank"
	"github.com/rushteam/scenekit/rerank"
	"github.com/rushteam/scenekit/store"
	"github.com/rushteam/scenekit/store/storetest"
)

var evening = core.NewViewingContext(storetest.Reference, "mobile")

func newTestSelector(t *testing.T, opts ...Option) (*Selector, *modeltest.PacingClassifier) {
	t.Helper()
	clf := &modeltest.PacingClassifier{}
	opts = append([]Option{WithClock(func() time.Time { return storetest.Reference })}, opts...)
	return NewSelector(storetest.Repository(t), modeltest.Bundle(clf), opts...), clf
}

func TestPredictSegmentSequence(t *testing.T) {
	sel, _ := newTestSelector(t)
	res, err := sel.PredictSegmentSequence(context.Background(), storetest.UserComplete, storetest.MovieValid, evening)
	require.NoError(t, err)

	// calm 版本节奏 3（掉线 0.3），intense 节奏 8（掉线 0.8）
	assert.Equal(t, []int64{100, 102, 104}, res.VariantIDs())
	for i, e := range res.Sequence {
		assert.Equal(t, i, e.SceneIndex)
		assert.Equal(t, "calm", e.VariantName)
		assert.InDelta(t, 0.7, e.EngagementScore, 1e-9)
		assert.InDelta(t, 1, e.EngagementScore+e.DropoutProbability, 1e-12)
		assert.NotEmpty(t, e.FilePath)
	}
	assert.InDelta(t, 0.7, res.AvgEngagement, 1e-9)
	assert.Equal(t, 60+61+62, res.TotalDuration)
	assert.Equal(t, "Movie 10", res.MovieTitle)
	assert.Equal(t, "test-v1", res.ModelVersion)
	assert.Equal(t, "mobile", res.DeviceType)
	assert.False(t, res.Cached)
}

func TestPredictSegmentSequence_Deterministic(t *testing.T) {
	sel, _ := newTestSelector(t)
	a, err := sel.PredictSegmentSequence(context.Background(), storetest.UserSparse, storetest.MovieValid, core.ViewingContext{})
	require.NoError(t, err)
	b, err := sel.PredictSegmentSequence(context.Background(), storetest.UserSparse, storetest.MovieValid, core.ViewingContext{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, core.DefaultDeviceType, a.DeviceType)
}

func TestPredictSegmentSequence_Errors(t *testing.T) {
	sel, _ := newTestSelector(t)
	ctx := context.Background()

	_, err := sel.PredictSegmentSequence(ctx, 999, storetest.MovieValid, evening)
	assert.True(t, core.IsNotFound(err), "unknown user")

	_, err = sel.PredictSegmentSequence(ctx, storetest.UserComplete, 999, evening)
	assert.True(t, core.IsNotFound(err), "unknown movie")

	_, err = sel.PredictSegmentSequence(ctx, storetest.UserComplete, storetest.MovieNoScenes, evening)
	assert.True(t, core.IsNotFound(err), "movie without scenes")

	_, err = sel.PredictSegmentSequence(ctx, storetest.UserComplete, storetest.MovieZeroCount, evening)
	assert.True(t, core.IsInvalid(err), "scene_count 0")
}

func TestPredictSegmentSequence_ClassifierFailure(t *testing.T) {
	clf := &modeltest.PacingClassifier{Err: errors.New("scoring backend down")}
	sel := NewSelector(storetest.Repository(t), modeltest.Bundle(clf))
	_, err := sel.PredictSegmentSequence(context.Background(), storetest.UserComplete, storetest.MovieValid, evening)
	assert.ErrorContains(t, err, "scoring backend down")
}

func TestPredictSegmentSequence_Cache(t *testing.T) {
	mem := store.NewMemoryStore()
	t.Cleanup(func() { _ = mem.Close() })
	sel, clf := newTestSelector(t, WithCache(mem))
	ctx := context.Background()

	first, err := sel.PredictSegmentSequence(ctx, storetest.UserComplete, storetest.MovieValid, evening)
	require.NoError(t, err)
	second, err := sel.PredictSegmentSequence(ctx, storetest.UserComplete, storetest.MovieValid, evening)
	require.NoError(t, err)

	assert.Equal(t, int64(1), clf.Calls())
	assert.True(t, second.Cached)
	assert.Equal(t, first.VariantIDs(), second.VariantIDs())

	// 缓存标记不进入响应体，两次结果序列化后一致
	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
	assert.Contains(t, string(a), `"segment_duration":60`)

	// 不同设备是不同的 key
	_, err = sel.PredictSegmentSequence(ctx, storetest.UserComplete, storetest.MovieValid, core.NewViewingContext(storetest.Reference, "tv"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), clf.Calls())
}

type brokenStore struct{}

func (brokenStore) Name() string { return "broken" }
func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}
func (brokenStore) Set(context.Context, string, []byte, ...int) error {
	return errors.New("connection refused")
}
func (brokenStore) Delete(context.Context, string) error { return nil }
func (brokenStore) Close() error                         { return nil }

func TestPredictSegmentSequence_CacheFailureIsIgnored(t *testing.T) {
	sel, _ := newTestSelector(t, WithCache(brokenStore{}))
	res, err := sel.PredictSegmentSequence(context.Background(), storetest.UserComplete, storetest.MovieValid, evening)
	require.NoError(t, err)
	assert.Len(t, res.Sequence, 3)
}

func TestPredictSegmentSequence_EligibilityFallback(t *testing.T) {
	clf := &modeltest.PacingClassifier{}
	bundle := modeltest.Bundle(clf)
	calm, err := filter.NewEligibilityFilter(`variant.name == "calm"`)
	require.NoError(t, err)
	everything, err := filter.NewEligibilityFilter(`variant.duration > 0`)
	require.NoError(t, err)

	build := func(f filter.Filter) *pipeline.Pipeline {
		return &pipeline.Pipeline{Nodes: []pipeline.Node{
			&filter.FilterNode{Filters: []filter.Filter{f}},
			rank.NewClassifierNode(bundle, nil),
			&rerank.SceneBestNode{},
		}}
	}
	repo := storetest.Repository(t)

	sel := NewSelector(repo, bundle, WithPipelines(build(calm), nil))
	res, err := sel.PredictSegmentSequence(context.Background(), storetest.UserComplete, storetest.MovieValid, evening)
	require.NoError(t, err)
	assert.Equal(t, []int64{101, 103, 105}, res.VariantIDs())

	// 全部被过滤时每个场景恢复原始版本，仍然每场景一个
	sel = NewSelector(repo, bundle, WithPipelines(build(everything), nil))
	res, err = sel.PredictSegmentSequence(context.Background(), storetest.UserComplete, storetest.MovieValid, evening)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 102, 104}, res.VariantIDs())
}

func TestGetAlternativeVariants(t *testing.T) {
	sel, _ := newTestSelector(t)
	ctx := context.Background()

	alts, err := sel.GetAlternativeVariants(ctx, storetest.UserComplete, storetest.MovieValid, 1, DefaultTopN, evening)
	require.NoError(t, err)
	require.Len(t, alts, 2)
	assert.Equal(t, int64(102), alts[0].VariantID)
	assert.Equal(t, int64(103), alts[1].VariantID)
	assert.GreaterOrEqual(t, alts[0].EngagementScore, alts[1].EngagementScore)
	assert.Equal(t, 8.0, alts[1].PacingScore)

	alts, err = sel.GetAlternativeVariants(ctx, storetest.UserComplete, storetest.MovieValid, 1, 1, evening)
	require.NoError(t, err)
	assert.Len(t, alts, 1)

	// 显式 0 不回退到默认值
	alts, err = sel.GetAlternativeVariants(ctx, storetest.UserComplete, storetest.MovieValid, 1, 0, evening)
	require.NoError(t, err)
	assert.NotNil(t, alts)
	assert.Empty(t, alts)

	alts, err = sel.GetAlternativeVariants(ctx, storetest.UserComplete, storetest.MovieValid, 9, 3, evening)
	require.NoError(t, err)
	assert.NotNil(t, alts)
	assert.Empty(t, alts)

	_, err = sel.GetAlternativeVariants(ctx, 999, storetest.MovieValid, 0, 3, evening)
	assert.True(t, core.IsNotFound(err))
}
