package replay_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/tracesim/admission/threshold"
	_ "github.com/IvanBrykalov/tracesim/policy/lru"
	"github.com/IvanBrykalov/tracesim/replay"
	"github.com/IvanBrykalov/tracesim/sim"
	"github.com/IvanBrykalov/tracesim/trace"
)

// pluginLRU reimplements LRU through the public policy interface, to pin
// down that a plugin is indistinguishable from the built-in.
type pluginLRU struct {
	c    *sim.Cache
	list sim.List
}

func init() {
	sim.Register("lru-plugin", func(c *sim.Cache, params string) (sim.Policy, error) {
		c.SetTag(sim.TagLRU)
		return &pluginLRU{c: c}, nil
	})
}

func (p *pluginLRU) Find(req *sim.Request, update bool) *sim.Object {
	obj := p.c.Table.Lookup(req.ID)
	if obj != nil && update {
		p.list.MoveToHead(obj)
	}
	return obj
}

func (p *pluginLRU) Insert(req *sim.Request) *sim.Object {
	obj := p.c.NewObject(req)
	p.list.PushHead(obj)
	return obj
}

func (p *pluginLRU) Evict(req *sim.Request) {
	if obj := p.list.PopTail(); obj != nil {
		p.c.Release(obj)
	}
}

func (p *pluginLRU) ToEvict(req *sim.Request) *sim.Object { return p.list.Tail() }

func (p *pluginLRU) Remove(id uint64) bool {
	obj := p.c.Table.Lookup(id)
	if obj == nil {
		return false
	}
	p.list.Remove(obj)
	p.c.Release(obj)
	return true
}

func workload(n int64) *trace.Synthetic {
	return &trace.Synthetic{
		Count:  n,
		Keys:   500,
		Seed:   11,
		SizeOf: func(id uint64) int64 { return int64(id%7) + 1 },
	}
}

// A plugin LRU produces bit-identical hit/miss sequences to the built-in.
func TestReplay_PluginVsBuiltinEquivalence(t *testing.T) {
	t.Parallel()

	run := func(policy string) []bool {
		c, err := sim.New(policy, sim.Options{Capacity: 600}, "")
		require.NoError(t, err)
		gen := workload(20000)
		var hits []bool
		var r sim.Request
		for gen.Read(&r) == nil {
			hits = append(hits, c.Get(&r))
		}
		return hits
	}
	builtin := run("lru")
	plugin := run("lru-plugin")
	require.Equal(t, len(builtin), len(plugin))
	for i := range builtin {
		if builtin[i] != plugin[i] {
			t.Fatalf("sequences diverge at request %d", i)
		}
	}
}

// Interval snapshots are cumulative and consistent with the final stats.
func TestReplay_IntervalSnapshots(t *testing.T) {
	t.Parallel()

	c, err := sim.New("lru", sim.Options{Capacity: 100}, "")
	require.NoError(t, err)

	var snaps []replay.Stats
	r := &replay.Replayer{
		Cache:      c,
		Reader:     workload(1000),
		Interval:   250,
		OnInterval: func(s replay.Stats) { snaps = append(snaps, s) },
	}
	final, err := r.Run(context.Background())
	require.NoError(t, err)

	// 4 boundaries plus the final snapshot at EOF.
	require.Len(t, snaps, 5)
	require.Equal(t, uint64(250), snaps[0].Requests)
	require.Equal(t, final, snaps[4])
	require.Equal(t, uint64(1000), final.Requests)
	require.GreaterOrEqual(t, final.Bytes, final.MissBytes)
	require.InDelta(t, float64(final.Misses)/float64(final.Requests), final.MissRatio(), 1e-12)
}

// Admission denials count as misses but never insert.
func TestReplay_AdmissionDenial(t *testing.T) {
	t.Parallel()

	adm, err := threshold.New("size=3")
	require.NoError(t, err)
	c, err := sim.New("lru", sim.Options{Capacity: 100, Admission: adm}, "")
	require.NoError(t, err)

	r := &replay.Replayer{Cache: c, Reader: workload(5000)}
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	c.Table.Range(func(obj *sim.Object) bool {
		if obj.Size > 3 {
			t.Fatalf("object %d (size %d) slipped past admission", obj.ID, obj.Size)
		}
		return true
	})
	require.NoError(t, c.CheckResidency())
}

// Concurrent runs independent instances and keeps per-instance results in
// order; identical configurations produce identical stats.
func TestReplay_Concurrent(t *testing.T) {
	t.Parallel()

	mk := func() *replay.Replayer {
		c, err := sim.New("lru", sim.Options{Capacity: 300}, "")
		require.NoError(t, err)
		return &replay.Replayer{Cache: c, Reader: workload(10000)}
	}
	stats, err := replay.Concurrent(context.Background(), []*replay.Replayer{mk(), mk(), mk()})
	require.NoError(t, err)
	require.Len(t, stats, 3)
	require.Equal(t, stats[0], stats[1])
	require.Equal(t, stats[1], stats[2])
	require.Equal(t, uint64(10000), stats[0].Requests)
}

func TestStats_Ratios(t *testing.T) {
	t.Parallel()

	s := replay.Stats{Requests: 10, Misses: 4, Bytes: 100, MissBytes: 25}
	require.InDelta(t, 0.4, s.MissRatio(), 1e-12)
	require.InDelta(t, 0.25, s.ByteMissRatio(), 1e-12)

	var zero replay.Stats
	require.Zero(t, zero.MissRatio())
	require.Zero(t, zero.ByteMissRatio())
}
