// Package replay drives a cache instance over a request stream and
// accumulates hit/miss statistics, reporting at fixed request intervals.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/tracesim/sim"
	"github.com/IvanBrykalov/tracesim/trace"
)

// Stats is a snapshot of the counters at a reporting boundary (or at EOF).
type Stats struct {
	Requests  uint64
	Misses    uint64
	Bytes     uint64
	MissBytes uint64
}

// MissRatio returns misses/requests (0 when empty).
func (s Stats) MissRatio() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.Misses) / float64(s.Requests)
}

// ByteMissRatio returns miss-bytes/bytes (0 when empty).
func (s Stats) ByteMissRatio() float64 {
	if s.Bytes == 0 {
		return 0
	}
	return float64(s.MissBytes) / float64(s.Bytes)
}

func (s Stats) String() string {
	return fmt.Sprintf("req=%d miss=%d mr=%.4f bmr=%.4f",
		s.Requests, s.Misses, s.MissRatio(), s.ByteMissRatio())
}

// Replayer feeds one reader into one cache. It is single-threaded; run
// several independent Replayers for parallel experiments (Concurrent).
type Replayer struct {
	// Cache receives every valid request.
	Cache *sim.Cache
	// Reader supplies the request stream.
	Reader trace.Reader
	// Interval is the reporting boundary in requests (0 = final only).
	Interval uint64
	// OnInterval, when set, receives a cumulative snapshot at every
	// boundary. It must not retain the cache.
	OnInterval func(Stats)
}

// Run drains the reader. It returns the final cumulative stats; the error
// is nil on clean EOF, the reader's error otherwise. ctx cancellation is
// observed between requests, never mid-request.
func (r *Replayer) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	var req sim.Request
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		err := r.Reader.Read(&req)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("replay: reader: %w", err)
		}
		if !req.Valid {
			continue
		}
		hit := r.Cache.Get(&req)
		stats.Requests++
		stats.Bytes += uint64(req.Size)
		if !hit {
			stats.Misses++
			stats.MissBytes += uint64(req.Size)
		}
		if r.Interval > 0 && stats.Requests%r.Interval == 0 && r.OnInterval != nil {
			r.OnInterval(stats)
		}
	}
	if r.OnInterval != nil {
		r.OnInterval(stats)
	}
	return stats, nil
}

// Concurrent runs independent replayers in parallel goroutines, one per
// entry, and returns their final stats in order. The replayers must not
// share caches, readers, or admissioners; clone what needs cloning. The
// cache core itself is single-threaded by design.
func Concurrent(ctx context.Context, rs []*Replayer) ([]Stats, error) {
	out := make([]Stats, len(rs))
	g, ctx := errgroup.WithContext(ctx)
	for i, r := range rs {
		g.Go(func() error {
			s, err := r.Run(ctx)
			out[i] = s
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
