package mempool

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-sub009/errors"
)

// Size classes served from pooled chunks. Requests above the largest
// class are tracked individually as large allocations.
var sizeClasses = []uint32{16, 32, 64, 128, 256, 512, 1024}

const largeClass = -1

// Ref is a stable handle to an allocation. The zero Ref is invalid.
// Handles survive internal storage growth, and a freed handle can never
// alias a later allocation because every reuse bumps the generation.
type Ref struct {
	index uint32
	gen   uint32
}

// Valid reports whether the handle was produced by an Alloc call.
// It does not check liveness; use Allocator.Live for that.
func (r Ref) Valid() bool {
	return r.gen != 0
}

// Config controls pool sizing and concurrency.
type Config struct {
	// MaxChunksPerClass bounds growth of each size-class pool.
	// Exhaustion fails the allocation instead of growing past it.
	MaxChunksPerClass uint32

	// MaxLargeAllocs bounds the number of live large allocations.
	MaxLargeAllocs uint32

	// ThreadSafe guards the allocator with a mutex so background work
	// can allocate alongside the driver goroutine.
	ThreadSafe bool
}

// DefaultConfig returns the standard pool bounds.
func DefaultConfig() *Config {
	return &Config{
		MaxChunksPerClass: 4096,
		MaxLargeAllocs:    1024,
	}
}

type entry struct {
	data  []byte
	size  uint32 // requested size
	class int8
	gen   uint32
	live  bool
}

// Stats is a point-in-time snapshot of allocator usage.
type Stats struct {
	Classes     []ClassStats
	LargeInUse  uint32
	LargeBytes  uint64
	TotalAllocs uint64
	TotalFrees  uint64
	PeakInUse   uint32
}

// ClassStats describes one size-class pool.
type ClassStats struct {
	ChunkSize uint32
	Capacity  uint32 // chunks ever carved
	InUse     uint32
	Free      uint32
}

// LeakRecord identifies an allocation still live at Close.
type LeakRecord struct {
	Ref  Ref
	Size uint32
}

// Allocator serves fixed-size chunks from per-class free lists, with
// large requests tracked individually. Every allocation is addressed by
// a Ref handle with an O(1) liveness check.
type Allocator struct {
	cfg     Config
	mu      sync.Mutex
	entries []entry
	free    [][]uint32 // per-class free entry indices
	spare   []uint32   // recycled entry slots for large allocations

	inUse       uint32
	largeInUse  uint32
	largeBytes  uint64
	totalAllocs uint64
	totalFrees  uint64
	peakInUse   uint32
	closed      bool
}

// New creates an allocator. A nil config uses DefaultConfig.
func New(cfg *Config) *Allocator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Allocator{
		cfg:     *cfg,
		entries: make([]entry, 0, 64),
		free:    make([][]uint32, len(sizeClasses)),
	}
}

func (a *Allocator) lock() {
	if a.cfg.ThreadSafe {
		a.mu.Lock()
	}
}

func (a *Allocator) unlock() {
	if a.cfg.ThreadSafe {
		a.mu.Unlock()
	}
}

func classFor(size uint32) int8 {
	for i, cs := range sizeClasses {
		if size <= cs {
			return int8(i)
		}
	}
	return largeClass
}

// Alloc reserves size bytes and returns a handle to the chunk.
// Pool exhaustion returns an out-of-memory error; the allocator never
// hands out a chunk that is still live.
func (a *Allocator) Alloc(size int) (Ref, error) {
	if size <= 0 {
		return Ref{}, errors.InvalidInput(errors.PhaseAlloc, fmt.Sprintf("allocation size must be positive, got %d", size))
	}

	a.lock()
	defer a.unlock()

	if a.closed {
		return Ref{}, errors.New(errors.PhaseAlloc, errors.KindNotInitialized).
			Detail("allocator is closed").
			Build()
	}

	class := classFor(uint32(size))
	if class == largeClass {
		return a.allocLarge(uint32(size))
	}
	return a.allocPooled(class, uint32(size))
}

func (a *Allocator) allocPooled(class int8, size uint32) (Ref, error) {
	freeList := a.free[class]
	if len(freeList) > 0 {
		idx := freeList[len(freeList)-1]
		a.free[class] = freeList[:len(freeList)-1]
		e := &a.entries[idx]
		e.size = size
		e.gen++
		e.live = true
		a.bump()
		return Ref{index: idx, gen: e.gen}, nil
	}

	if a.classCapacity(class) >= a.cfg.MaxChunksPerClass {
		return Ref{}, errors.OutOfMemory("pool class %d (%d-byte chunks) exhausted at %d chunks",
			class, sizeClasses[class], a.cfg.MaxChunksPerClass)
	}

	a.entries = append(a.entries, entry{
		data:  make([]byte, sizeClasses[class]),
		size:  size,
		class: class,
		gen:   1,
		live:  true,
	})
	a.bump()
	return Ref{index: uint32(len(a.entries) - 1), gen: 1}, nil
}

func (a *Allocator) allocLarge(size uint32) (Ref, error) {
	if a.largeInUse >= a.cfg.MaxLargeAllocs {
		return Ref{}, errors.OutOfMemory("large allocation count exceeds %d", a.cfg.MaxLargeAllocs)
	}

	var idx uint32
	if len(a.spare) > 0 {
		idx = a.spare[len(a.spare)-1]
		a.spare = a.spare[:len(a.spare)-1]
		e := &a.entries[idx]
		e.data = make([]byte, size)
		e.size = size
		e.class = largeClass
		e.gen++
		e.live = true
	} else {
		a.entries = append(a.entries, entry{
			data:  make([]byte, size),
			size:  size,
			class: largeClass,
			gen:   1,
			live:  true,
		})
		idx = uint32(len(a.entries) - 1)
	}

	a.largeInUse++
	a.largeBytes += uint64(size)
	a.bump()
	return Ref{index: idx, gen: a.entries[idx].gen}, nil
}

func (a *Allocator) bump() {
	a.inUse++
	a.totalAllocs++
	if a.inUse > a.peakInUse {
		a.peakInUse = a.inUse
	}
}

// Free returns the chunk behind ref to its pool. Freeing an unknown or
// already-freed handle is reported as an error, never absorbed.
func (a *Allocator) Free(ref Ref) error {
	a.lock()
	defer a.unlock()

	e, err := a.lookup(ref)
	if err != nil {
		return err
	}

	e.live = false
	a.inUse--
	a.totalFrees++

	if e.class == largeClass {
		a.largeInUse--
		a.largeBytes -= uint64(e.size)
		e.data = nil
		a.spare = append(a.spare, ref.index)
	} else {
		clear(e.data)
		a.free[e.class] = append(a.free[e.class], ref.index)
	}
	return nil
}

// Realloc resizes an allocation, preserving the common prefix of the
// contents. The returned handle may differ from ref, in which case ref
// is freed.
func (a *Allocator) Realloc(ref Ref, newSize int) (Ref, error) {
	if newSize <= 0 {
		return Ref{}, errors.InvalidInput(errors.PhaseAlloc, fmt.Sprintf("reallocation size must be positive, got %d", newSize))
	}

	a.lock()
	e, err := a.lookup(ref)
	if err != nil {
		a.unlock()
		return Ref{}, err
	}

	// Same class: the existing chunk already fits.
	if e.class != largeClass && classFor(uint32(newSize)) == e.class {
		e.size = uint32(newSize)
		a.unlock()
		return ref, nil
	}

	old := make([]byte, e.size)
	copy(old, e.data[:e.size])
	a.unlock()

	next, err := a.Alloc(newSize)
	if err != nil {
		return Ref{}, err
	}
	dst, _ := a.Bytes(next)
	copy(dst, old)

	if err := a.Free(ref); err != nil {
		_ = a.Free(next)
		return Ref{}, err
	}
	return next, nil
}

// Bytes returns the chunk behind ref, sliced to the requested size.
// The slice stays valid until ref is freed.
func (a *Allocator) Bytes(ref Ref) ([]byte, error) {
	a.lock()
	defer a.unlock()

	e, err := a.lookup(ref)
	if err != nil {
		return nil, err
	}
	return e.data[:e.size], nil
}

// Live reports whether ref addresses a current allocation. O(1).
func (a *Allocator) Live(ref Ref) bool {
	a.lock()
	defer a.unlock()

	if !ref.Valid() || int(ref.index) >= len(a.entries) {
		return false
	}
	e := &a.entries[ref.index]
	return e.live && e.gen == ref.gen
}

func (a *Allocator) lookup(ref Ref) (*entry, error) {
	if !ref.Valid() || int(ref.index) >= len(a.entries) {
		return nil, errors.InvalidHandle(errors.PhaseAlloc, ref.index)
	}
	e := &a.entries[ref.index]
	if e.gen != ref.gen || !e.live {
		if e.gen >= ref.gen {
			return nil, errors.DoubleFree(ref.index)
		}
		return nil, errors.InvalidHandle(errors.PhaseAlloc, ref.index)
	}
	return e, nil
}

// Stats returns a snapshot of allocator usage.
func (a *Allocator) Stats() Stats {
	a.lock()
	defer a.unlock()

	s := Stats{
		Classes:     make([]ClassStats, len(sizeClasses)),
		LargeInUse:  a.largeInUse,
		LargeBytes:  a.largeBytes,
		TotalAllocs: a.totalAllocs,
		TotalFrees:  a.totalFrees,
		PeakInUse:   a.peakInUse,
	}
	for i := range sizeClasses {
		s.Classes[i] = ClassStats{
			ChunkSize: sizeClasses[i],
			Free:      uint32(len(a.free[i])),
		}
	}
	for i := range a.entries {
		e := &a.entries[i]
		if e.class == largeClass {
			continue
		}
		s.Classes[e.class].Capacity++
		if e.live {
			s.Classes[e.class].InUse++
		}
	}
	return s
}

func (a *Allocator) classCapacity(class int8) uint32 {
	var n uint32
	for i := range a.entries {
		if a.entries[i].class == class {
			n++
		}
	}
	return n
}

// Leaks returns the allocations still live. Intended for shutdown
// diagnostics and tests.
func (a *Allocator) Leaks() []LeakRecord {
	a.lock()
	defer a.unlock()

	var leaks []LeakRecord
	for i := range a.entries {
		e := &a.entries[i]
		if e.live {
			leaks = append(leaks, LeakRecord{
				Ref:  Ref{index: uint32(i), gen: e.gen},
				Size: e.size,
			})
		}
	}
	return leaks
}

// Close releases all storage. Live allocations at close are leaks:
// each is logged, and a leak error summarizing the count is returned.
func (a *Allocator) Close() error {
	a.lock()
	defer a.unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	var leaked int
	var bytes uint64
	for i := range a.entries {
		e := &a.entries[i]
		if e.live {
			leaked++
			bytes += uint64(e.size)
			Logger().Warn("allocation leaked at close",
				zap.Uint32("index", uint32(i)),
				zap.Uint32("size", e.size))
		}
	}

	a.entries = nil
	a.free = nil
	a.spare = nil

	if leaked > 0 {
		return errors.Leak(leaked, bytes)
	}
	return nil
}
