package mempool_test

import (
	stderrors "errors"
	"testing"

	"github.com/kryonlabs/kryon-sub009/errors"
	"github.com/kryonlabs/kryon-sub009/mempool"
)

func TestAllocFreeRoundTrip(t *testing.T) {
	a := mempool.New(nil)
	defer a.Close()

	const n = 50
	refs := make([]mempool.Ref, 0, n)
	for i := 0; i < n; i++ {
		ref, err := a.Alloc(48)
		if err != nil {
			t.Fatalf("alloc %d: %v", i, err)
		}
		if !a.Live(ref) {
			t.Fatalf("alloc %d: handle not live", i)
		}
		refs = append(refs, ref)
	}

	for _, ref := range refs {
		if err := a.Free(ref); err != nil {
			t.Fatalf("free: %v", err)
		}
	}

	// All chunks back on the free list, none in use.
	s := a.Stats()
	for _, c := range s.Classes {
		if c.InUse != 0 {
			t.Errorf("class %d: %d chunks still in use", c.ChunkSize, c.InUse)
		}
		if c.Free != c.Capacity {
			t.Errorf("class %d: free %d != capacity %d", c.ChunkSize, c.Free, c.Capacity)
		}
	}
	if s.TotalAllocs != n || s.TotalFrees != n {
		t.Errorf("counters: allocs %d frees %d, want %d each", s.TotalAllocs, s.TotalFrees, n)
	}
}

func TestDoubleFreeDetected(t *testing.T) {
	a := mempool.New(nil)
	defer a.Close()

	ref, err := a.Alloc(16)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Free(ref); err != nil {
		t.Fatal(err)
	}

	err = a.Free(ref)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindDoubleFree}) {
		t.Errorf("expected double free error, got %v", err)
	}
}

func TestStaleHandleAfterReuse(t *testing.T) {
	a := mempool.New(nil)
	defer a.Close()

	old, _ := a.Alloc(16)
	a.Free(old)

	// The freed chunk is recycled under a new generation.
	fresh, _ := a.Alloc(16)
	if a.Live(old) {
		t.Error("stale handle reports live after chunk reuse")
	}
	if !a.Live(fresh) {
		t.Error("fresh handle not live")
	}

	err := a.Free(old)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindDoubleFree}) {
		t.Errorf("expected double free error for stale handle, got %v", err)
	}
}

func TestZeroRefRejected(t *testing.T) {
	a := mempool.New(nil)
	defer a.Close()

	var zero mempool.Ref
	if zero.Valid() {
		t.Error("zero ref reports valid")
	}
	if a.Live(zero) {
		t.Error("zero ref reports live")
	}
	if err := a.Free(zero); err == nil {
		t.Error("expected error freeing zero ref")
	}
}

func TestPoolExhaustion(t *testing.T) {
	a := mempool.New(&mempool.Config{MaxChunksPerClass: 4, MaxLargeAllocs: 4})
	defer a.Close()

	refs := make([]mempool.Ref, 0, 4)
	for i := 0; i < 4; i++ {
		ref, err := a.Alloc(16)
		if err != nil {
			t.Fatalf("alloc %d: %v", i, err)
		}
		refs = append(refs, ref)
	}

	_, err := a.Alloc(16)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindOutOfMemory}) {
		t.Fatalf("expected out of memory, got %v", err)
	}

	// Freeing one chunk makes room again; the recycled chunk must be
	// a previously freed one, never a live one.
	if err := a.Free(refs[0]); err != nil {
		t.Fatal(err)
	}
	ref, err := a.Alloc(16)
	if err != nil {
		t.Fatalf("alloc after free: %v", err)
	}
	for _, live := range refs[1:] {
		if ref == live {
			t.Fatal("allocator handed out a live chunk")
		}
	}
}

func TestLargeAllocation(t *testing.T) {
	a := mempool.New(nil)
	defer a.Close()

	ref, err := a.Alloc(100_000)
	if err != nil {
		t.Fatal(err)
	}

	buf, err := a.Bytes(ref)
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) != 100_000 {
		t.Fatalf("large buffer: got %d bytes, want 100000", len(buf))
	}

	s := a.Stats()
	if s.LargeInUse != 1 || s.LargeBytes != 100_000 {
		t.Errorf("large stats: in use %d, bytes %d", s.LargeInUse, s.LargeBytes)
	}

	if err := a.Free(ref); err != nil {
		t.Fatal(err)
	}
	s = a.Stats()
	if s.LargeInUse != 0 || s.LargeBytes != 0 {
		t.Errorf("large stats after free: in use %d, bytes %d", s.LargeInUse, s.LargeBytes)
	}
}

func TestLargeAllocationLimit(t *testing.T) {
	a := mempool.New(&mempool.Config{MaxChunksPerClass: 16, MaxLargeAllocs: 1})
	defer a.Close()

	if _, err := a.Alloc(10_000); err != nil {
		t.Fatal(err)
	}
	_, err := a.Alloc(10_000)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindOutOfMemory}) {
		t.Errorf("expected out of memory, got %v", err)
	}
}

func TestBytesSlicedToRequestedSize(t *testing.T) {
	a := mempool.New(nil)
	defer a.Close()

	ref, _ := a.Alloc(20) // lands in the 32-byte class
	buf, err := a.Bytes(ref)
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) != 20 {
		t.Errorf("buffer length: got %d, want 20", len(buf))
	}
}

func TestFreedChunkZeroed(t *testing.T) {
	a := mempool.New(nil)
	defer a.Close()

	ref, _ := a.Alloc(16)
	buf, _ := a.Bytes(ref)
	for i := range buf {
		buf[i] = 0xAB
	}
	a.Free(ref)

	fresh, _ := a.Alloc(16)
	buf, _ = a.Bytes(fresh)
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("recycled chunk byte %d not zeroed: 0x%02X", i, b)
		}
	}
}

func TestReallocWithinClass(t *testing.T) {
	a := mempool.New(nil)
	defer a.Close()

	ref, _ := a.Alloc(20)
	buf, _ := a.Bytes(ref)
	copy(buf, "hello")

	// 20 -> 30 stays in the 32-byte class; handle is unchanged.
	next, err := a.Realloc(ref, 30)
	if err != nil {
		t.Fatal(err)
	}
	if next != ref {
		t.Error("same-class realloc returned a new handle")
	}
	buf, _ = a.Bytes(next)
	if len(buf) != 30 || string(buf[:5]) != "hello" {
		t.Errorf("contents after realloc: len %d, prefix %q", len(buf), buf[:5])
	}
}

func TestReallocAcrossClasses(t *testing.T) {
	a := mempool.New(nil)
	defer a.Close()

	ref, _ := a.Alloc(16)
	buf, _ := a.Bytes(ref)
	copy(buf, "abcd")

	next, err := a.Realloc(ref, 500)
	if err != nil {
		t.Fatal(err)
	}
	if next == ref {
		t.Error("cross-class realloc kept the old handle")
	}
	if a.Live(ref) {
		t.Error("old handle still live after realloc")
	}
	buf, _ = a.Bytes(next)
	if len(buf) != 500 || string(buf[:4]) != "abcd" {
		t.Errorf("contents after realloc: len %d, prefix %q", len(buf), buf[:4])
	}
}

func TestLeakReport(t *testing.T) {
	a := mempool.New(nil)

	a.Alloc(16)
	a.Alloc(2048)
	kept, _ := a.Alloc(64)
	a.Free(kept)

	leaks := a.Leaks()
	if len(leaks) != 2 {
		t.Fatalf("leaks: got %d, want 2", len(leaks))
	}

	err := a.Close()
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindLeak}) {
		t.Errorf("expected leak error from close, got %v", err)
	}
	// Second close is a no-op.
	if err := a.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestCleanCloseReturnsNil(t *testing.T) {
	a := mempool.New(nil)
	ref, _ := a.Alloc(16)
	a.Free(ref)
	if err := a.Close(); err != nil {
		t.Errorf("close after balanced alloc/free: %v", err)
	}
}

func TestAllocAfterClose(t *testing.T) {
	a := mempool.New(nil)
	a.Close()
	if _, err := a.Alloc(16); err == nil {
		t.Error("expected error allocating from closed allocator")
	}
}

func TestThreadSafeMode(t *testing.T) {
	a := mempool.New(&mempool.Config{
		MaxChunksPerClass: 4096,
		MaxLargeAllocs:    64,
		ThreadSafe:        true,
	})
	defer a.Close()

	done := make(chan error, 4)
	for g := 0; g < 4; g++ {
		go func() {
			for i := 0; i < 200; i++ {
				ref, err := a.Alloc(48)
				if err != nil {
					done <- err
					return
				}
				if err := a.Free(ref); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
	}
	for g := 0; g < 4; g++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}

	s := a.Stats()
	if s.TotalAllocs != 800 || s.TotalFrees != 800 {
		t.Errorf("counters: allocs %d frees %d, want 800 each", s.TotalAllocs, s.TotalFrees)
	}
}

func BenchmarkAllocFree(b *testing.B) {
	a := mempool.New(nil)
	defer a.Close()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ref, err := a.Alloc(48)
		if err != nil {
			b.Fatal(err)
		}
		if err := a.Free(ref); err != nil {
			b.Fatal(err)
		}
	}
}
