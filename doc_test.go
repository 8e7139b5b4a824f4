package scenekit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/scenekit"
	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/model/modeltest"
	"github.com/rushteam/scenekit/service"
	"github.com/rushteam/scenekit/store/storetest"
)

func TestFacade(t *testing.T) {
	var sel *scenekit.Selector = scenekit.NewSelector(storetest.Repository(t),
		modeltest.Bundle(&modeltest.PacingClassifier{}),
		service.WithClock(func() time.Time { return storetest.Reference }))

	res, err := sel.PredictSegmentSequence(context.Background(), 1, storetest.MovieValid, core.ViewingContext{})
	require.NoError(t, err)
	var _ *scenekit.SequenceResult = res
	assert.Len(t, res.Sequence, 3)
	assert.Equal(t, scenekit.Kind("rank"), scenekit.KindRank)
}
