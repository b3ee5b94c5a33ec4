package sim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Policy is the eviction-policy side of a cache. A cache instance binds to
// exactly one Policy for its lifetime, so dispatch stays monomorphic on the
// per-request path.
//
// Semantics (the cache's default Get composes these):
//   - Find looks the request's ID up and, when update is true, applies the
//     policy's hit bookkeeping (list moves, reference bits). Ghost entries
//     return nil but may mutate policy state on the way out.
//   - Insert creates the object for a missed request and links it at the
//     policy-defined position. The caller has already made room.
//   - Evict removes (or ghostifies) exactly one victim.
//   - ToEvict is a non-destructive peek at the next victim; policies with
//     no cheap answer return nil.
//   - Remove undoes Insert for a user-triggered removal.
type Policy interface {
	Find(req *Request, update bool) *Object
	Insert(req *Request) *Object
	Evict(req *Request)
	ToEvict(req *Request) *Object
	Remove(id uint64) bool
}

// Options carries the policy-agnostic cache parameters.
type Options struct {
	// Capacity is the size budget in bytes. Required.
	Capacity int64
	// DefaultTTL applies to requests that carry no TTL of their own
	// (0 = no default expiry). Units are the trace's clock units.
	DefaultTTL int64
	// HashBuckets sets the hash-table bucket count
	// (0 = DefaultHashBuckets; rounded up to a power of two).
	HashBuckets int
	// ConsiderObjMetadata charges ObjMetadata bytes of overhead per
	// resident object against Capacity.
	ConsiderObjMetadata bool
	// ObjMetadata is the per-object metadata overhead in bytes
	// (0 = DefaultObjMetadata). Ignored unless ConsiderObjMetadata.
	ObjMetadata int64
	// Admission is consulted on every access and on the insert path.
	// Nil admits everything.
	Admission Admissioner
	// Metrics receives hit/miss/evict/size signals. Nil => NoopMetrics.
	Metrics Metrics
	// Logger is used for construction info and rate-limit warnings.
	// The zero value logs nothing.
	Logger zerolog.Logger
	// RandSeed seeds policies that draw random numbers (Random eviction).
	// Zero means an arbitrary fixed seed; replays stay reproducible.
	RandSeed int64
}

// DefaultObjMetadata approximates the bookkeeping bytes a production cache
// spends per object (links, id, sizes).
const DefaultObjMetadata = 48

// Cache is the policy-agnostic simulator handle. It owns the hash table and
// every resident object; policies own their lists and manipulate residency
// through the NewObject/Release/Ghostify helpers so the byte accounting
// stays in one place.
//
// A Cache is single-threaded: no method may be called concurrently.
type Cache struct {
	Name string

	// Capacity and Occupied are in bytes. Occupied includes the per-object
	// overhead when ConsiderObjMetadata is set.
	Capacity int64
	Occupied int64

	// ObjOverhead is the per-object metadata charge (0 when disabled).
	ObjOverhead int64

	DefaultTTL int64

	// Table maps IDs to resident objects and ghost entries.
	Table *Table

	// NumReq counts Get calls.
	NumReq uint64

	// Residents counts non-ghost objects.
	Residents int

	Admission Admissioner

	policy  Policy
	tag     PolicyTag
	metrics Metrics
	log     zerolog.Logger
	seed    int64
}

// Factory builds a policy bound to c, parsing its private parameters from
// a "k1=v1,k2=v2" string.
type Factory func(c *Cache, params string) (Policy, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a policy constructable by name. It is intended to be
// called from policy package init functions, database/sql-driver style.
// Registering a duplicate name panics.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("sim: policy %q registered twice", name))
	}
	registry[name] = f
}

// Policies returns the sorted names of all registered policies.
func Policies() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New constructs a cache running the named eviction policy.
// The params string is policy-specific; an unknown key is a construction
// error, as is an unknown policy name.
func New(name string, opt Options, params string) (*Cache, error) {
	if opt.Capacity <= 0 {
		return nil, fmt.Errorf("sim: capacity must be > 0, got %d", opt.Capacity)
	}
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("sim: unknown policy %q (registered: %v)", name, Policies())
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	overhead := int64(0)
	if opt.ConsiderObjMetadata {
		overhead = opt.ObjMetadata
		if overhead == 0 {
			overhead = DefaultObjMetadata
		}
	}
	c := &Cache{
		Name:        name,
		Capacity:    opt.Capacity,
		ObjOverhead: overhead,
		DefaultTTL:  opt.DefaultTTL,
		Table:       NewTable(opt.HashBuckets),
		Admission:   opt.Admission,
		metrics:     opt.Metrics,
		log:         opt.Logger,
		seed:        opt.RandSeed,
	}
	p, err := factory(c, params)
	if err != nil {
		return nil, fmt.Errorf("sim: policy %q: %w", name, err)
	}
	c.policy = p
	c.log.Info().
		Str("policy", name).
		Int64("capacity", opt.Capacity).
		Int64("obj_overhead", overhead).
		Msg("cache created")
	return c, nil
}

// Policy returns the bound policy instance (for tests and composition).
func (c *Cache) Policy() Policy { return c.policy }

// SetTag records the policy's metadata tag; policies call it once from
// their factory so NewObject stamps every record.
func (c *Cache) SetTag(tag PolicyTag) { c.tag = tag }

// RandSeed returns the seed policies should use for their private RNGs.
func (c *Cache) RandSeed() int64 { return c.seed }

// Logger returns the cache's logger for policy and admission warnings.
func (c *Cache) Logger() zerolog.Logger { return c.log }

// Get replays one request. It returns true on hit, false on miss.
//
// Contract, in order: bump the request counter; let the admissioner observe
// the access; Find with update; classify; on miss ask the admissioner
// whether to insert, evict until the object fits, then Insert.
func (c *Cache) Get(req *Request) bool {
	c.NumReq++
	if c.Admission != nil {
		c.Admission.Update(req, c.Capacity)
	}

	if obj := c.policy.Find(req, true); obj != nil {
		if !obj.Expired(req.ClockTime) {
			c.metrics.Hit(req.Size)
			return true
		}
		// Lazy TTL: an expired resident is a miss; drop it and fall
		// through to the insert path.
		c.policy.Remove(obj.ID)
	}

	if req.Size+c.ObjOverhead > c.Capacity {
		c.log.Warn().
			Uint64("id", req.ID).
			Int64("size", req.Size).
			Int64("capacity", c.Capacity).
			Msg("cannot insert: object larger than capacity")
		c.metrics.Miss(req.Size)
		return false
	}

	if c.Admission != nil && !c.Admission.Admit(req) {
		c.metrics.Miss(req.Size)
		return false
	}

	for c.Occupied+req.Size+c.ObjOverhead > c.Capacity {
		before := c.Occupied
		c.policy.Evict(req)
		assertf(c.Occupied < before, "evict made no progress (occupied=%d)", c.Occupied)
		if c.Occupied >= before {
			break
		}
	}
	c.policy.Insert(req)
	c.metrics.Miss(req.Size)
	c.metrics.Size(c.Residents, c.Occupied)
	return false
}

// Find exposes the policy's lookup without the full Get contract.
// With update=false the policy must not mutate any state.
func (c *Cache) Find(req *Request, update bool) *Object {
	return c.policy.Find(req, update)
}

// ToEvict peeks at the policy's next victim (nil if unsupported or empty).
func (c *Cache) ToEvict(req *Request) *Object {
	return c.policy.ToEvict(req)
}

// Remove deletes the object with the given id, undoing Insert.
// It returns false when the id is not resident.
func (c *Cache) Remove(id uint64) bool {
	return c.policy.Remove(id)
}

// ---- residency helpers for policies ----

// NewObject creates the resident record for a missed request, stores it in
// the hash table, and charges its bytes. The policy links it afterwards.
func (c *Cache) NewObject(req *Request) *Object {
	obj := &Object{
		ID:         req.ID,
		Size:       req.Size,
		CreateTime: req.ClockTime,
	}
	obj.Meta.Tag = c.tag
	switch {
	case req.TTL > 0:
		obj.ExpiryTime = req.ClockTime + req.TTL
	case req.TTL == 0 && c.DefaultTTL > 0:
		obj.ExpiryTime = req.ClockTime + c.DefaultTTL
	}
	c.Table.Insert(obj)
	c.Occupied += obj.Size + c.ObjOverhead
	c.Residents++
	return obj
}

// Release destroys a resident object: hash-table removal plus the byte
// refund, in one logical step. The policy must have unlinked it already.
func (c *Cache) Release(obj *Object) {
	assertf(!obj.Meta.Ghost, "Release on ghost %d", obj.ID)
	deleted := c.Table.Delete(obj.ID)
	assertf(deleted == obj, "Release: object %d not in table", obj.ID)
	c.Occupied -= obj.Size + c.ObjOverhead
	c.Residents--
	assertf(c.Occupied >= 0, "negative occupied bytes after releasing %d", obj.ID)
	c.metrics.Evict(obj.Size)
}

// Ghostify demotes a resident object to a ghost: the byte charge is
// refunded but the record stays in the hash table so a re-access can
// inform the policy. The policy relinks it into its ghost list.
func (c *Cache) Ghostify(obj *Object) {
	assertf(!obj.Meta.Ghost, "Ghostify on ghost %d", obj.ID)
	obj.Meta.Ghost = true
	c.Occupied -= obj.Size + c.ObjOverhead
	c.Residents--
	assertf(c.Occupied >= 0, "negative occupied bytes after ghostifying %d", obj.ID)
	c.metrics.Evict(obj.Size)
}

// DropGhost removes a ghost entry from the hash table for good.
func (c *Cache) DropGhost(obj *Object) {
	assertf(obj.Meta.Ghost, "DropGhost on resident %d", obj.ID)
	deleted := c.Table.Delete(obj.ID)
	assertf(deleted == obj, "DropGhost: ghost %d not in table", obj.ID)
}

// CheckResidency verifies the residency invariant: Occupied equals the
// summed sizes (plus overhead) of non-ghost objects in the table. It walks
// the whole table, so it's for tests and debug builds only.
func (c *Cache) CheckResidency() error {
	var sum int64
	var residents int
	c.Table.Range(func(obj *Object) bool {
		if !obj.Meta.Ghost {
			sum += obj.Size + c.ObjOverhead
			residents++
		}
		return true
	})
	if sum != c.Occupied {
		return fmt.Errorf("sim: occupied=%d but table sums to %d", c.Occupied, sum)
	}
	if residents != c.Residents {
		return fmt.Errorf("sim: residents=%d but table holds %d", c.Residents, residents)
	}
	if c.Occupied > c.Capacity {
		return fmt.Errorf("sim: occupied %d exceeds capacity %d", c.Occupied, c.Capacity)
	}
	return nil
}
