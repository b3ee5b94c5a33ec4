// Package sim is the core of a trace-driven cache simulator: it replays a
// stream of object-access requests against a cache instance with a pluggable
// eviction policy, enforcing a byte budget and reporting hits and misses.
//
// Design
//
//   - Storage: a Cache owns a closed-addressing hash table (intrusive
//     hashNext chains) mapping object IDs to Object records. Each Object
//     carries intrusive prev/next links, so the policy lists never allocate
//     per node; an object is in exactly one policy list at a time.
//
//   - Policies: eviction is pluggable via the Policy interface
//     (Find/Insert/Evict/ToEvict/Remove). Policies register themselves by
//     name (database/sql-driver style); New(name, opts, params) builds a
//     cache bound to one policy instance. The policy/all package
//     blank-imports every built-in policy.
//
//   - Metadata: every Object embeds a flat tagged Metadata block holding
//     the per-policy fields (reference bits, list IDs, frequencies, ghost
//     flags). The record is kept within two cache lines.
//
//   - Admission: an optional Admissioner observes every access (Update) and
//     gates inserts (Admit). AdaptSize lives in admission/adaptsize.
//
//   - Accounting: capacity and occupancy are in bytes; ghost entries keep
//     hash-table presence with no residency cost. The residency invariant
//     (Occupied == sum of resident sizes + overhead) is checkable with
//     CheckResidency and asserted throughout in simdebug builds.
//
//   - Concurrency: a Cache is single-threaded on purpose. Parallel replays
//     run independent instances (see replay.Concurrent); Admissioner.Clone
//     exists precisely so those instances never share state.
//
// Basic usage
//
//	c, err := sim.New("lru", sim.Options{Capacity: 1 << 30}, "")
//	if err != nil { ... }
//	req := &sim.Request{ID: 42, Size: 1024, Valid: true}
//	hit := c.Get(req)
//
// With CAR and AdaptSize admission
//
//	adm, _ := adaptsize.New(1<<30, "reconf-interval=30000", adaptsize.WithSeed(1))
//	c, err := sim.New("car", sim.Options{Capacity: 1 << 30, Admission: adm}, "p=0")
//
// See the replay package for the per-request driver loop and interval
// statistics, and the trace package for the request-iterator contract.
package sim
