package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/scenekit/core"
)

// dropNode 删除指定 variant，并记录调用顺序
type dropNode struct {
	name  string
	drop  int64
	trace *[]string
	err   error
}

func (n *dropNode) Name() string { return n.name }
func (n *dropNode) Kind() Kind   { return KindFilter }

func (n *dropNode) Process(_ context.Context, _ *core.RecommendContext, in []*core.Candidate) ([]*core.Candidate, error) {
	*n.trace = append(*n.trace, n.name)
	if n.err != nil {
		return nil, n.err
	}
	out := in[:0:0]
	for _, c := range in {
		if c.Segment.Variant.VariantID != n.drop {
			out = append(out, c)
		}
	}
	return out, nil
}

func candidates(ids ...int64) []*core.Candidate {
	segs := make([]core.Segment, len(ids))
	for i, id := range ids {
		segs[i] = core.Segment{Variant: core.SceneVariant{VariantID: id}}
	}
	return core.CandidatesFrom(segs)
}

func ids(cs []*core.Candidate) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.Segment.Variant.VariantID
	}
	return out
}

func TestPipeline_RunsInOrder(t *testing.T) {
	var trace []string
	p := &Pipeline{Name: "t", Nodes: []Node{
		&dropNode{name: "a", drop: 1, trace: &trace},
		&dropNode{name: "b", drop: 3, trace: &trace},
	}}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, candidates(1, 2, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4}, ids(out))
	assert.Equal(t, []string{"a", "b"}, trace)
	assert.Equal(t, []string{"a", "b"}, p.NodeNames())
}

func TestPipeline_StopsOnError(t *testing.T) {
	var trace []string
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{
		&dropNode{name: "a", err: boom, trace: &trace},
		&dropNode{name: "b", trace: &trace},
	}}
	_, err := p.Run(context.Background(), &core.RecommendContext{}, candidates(1))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "a: boom")
	assert.Equal(t, []string{"a"}, trace)
}

func TestPipeline_CanceledContext(t *testing.T) {
	var trace []string
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Pipeline{Nodes: []Node{&dropNode{name: "a", trace: &trace}}}
	_, err := p.Run(ctx, &core.RecommendContext{}, candidates(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, trace)
}

func testFactory(trace *[]string) *NodeFactory {
	f := NewNodeFactory()
	f.Register("drop", func(cfg map[string]interface{}) (Node, error) {
		id, _ := cfg["id"].(int)
		return &dropNode{name: "drop", drop: int64(id), trace: trace}, nil
	})
	return f
}

func TestConfig_BuildPipeline(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
pipeline:
  name: demo
  nodes:
    - type: drop
      config:
        id: 2
`))
	require.NoError(t, err)

	var trace []string
	p, err := cfg.BuildPipeline(testFactory(&trace))
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Name)

	out, err := p.Run(context.Background(), &core.RecommendContext{}, candidates(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(out))
}

func TestConfig_BuildErrors(t *testing.T) {
	var trace []string
	_, err := (&Config{}).BuildPipeline(testFactory(&trace))
	assert.ErrorContains(t, err, "no nodes")

	cfg := &Config{}
	cfg.Pipeline.Nodes = []NodeConfig{{Type: "unknown"}}
	_, err = cfg.BuildPipeline(testFactory(&trace))
	assert.ErrorContains(t, err, "unknown node type")

	_, err = ParseYAML([]byte("pipeline: ["))
	assert.Error(t, err)
}

func TestLoadFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"pipeline":{"name":"j","nodes":[{"type":"drop","config":{"id":1}}]}}`), 0o644))
	cfg, err := LoadFromJSON(path)
	require.NoError(t, err)
	assert.Equal(t, "j", cfg.Pipeline.Name)
	require.Len(t, cfg.Pipeline.Nodes, 1)
	assert.Equal(t, "drop", cfg.Pipeline.Nodes[0].Type)

	_, err = LoadFromYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
