package runtime

import (
	"context"
	"io"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-sub009/element"
	"github.com/kryonlabs/kryon-sub009/errors"
	"github.com/kryonlabs/kryon-sub009/event"
	"github.com/kryonlabs/kryon-sub009/krb"
	"github.com/kryonlabs/kryon-sub009/mempool"
	"github.com/kryonlabs/kryon-sub009/scripthost"
	"github.com/kryonlabs/kryon-sub009/state"
)

// handlerEvents maps handler property names to the event types they
// listen for.
var handlerEvents = map[string]event.Type{
	"on_click":    event.TypeClick,
	"on_change":   event.TypeChange,
	"on_submit":   event.TypeSubmit,
	"on_key_down": event.TypeKeyDown,
	"on_focus":    event.TypeFocus,
	"on_blur":     event.TypeBlur,
}

// Runtime drives the update/render loop over one loaded document. All
// methods must be called from the driver goroutine.
type Runtime struct {
	cfg    Config
	logger *zap.Logger

	tree       *element.Tree
	store      *state.Store
	bindings   *state.Registry
	dispatcher *event.Dispatcher
	alloc      *mempool.Allocator
	cache      *lru.Cache[string, *krb.Bundle]
	funcs      scripthost.FuncSource

	running bool
	closed  bool
	frames  uint64
	errlog  []error
}

// New creates a runtime. A nil config uses DefaultConfig.
func New(cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	} else {
		krb.SetLogger(logger.Named("krb"))
		element.SetLogger(logger.Named("element"))
		state.SetLogger(logger.Named("state"))
		event.SetLogger(logger.Named("event"))
		mempool.SetLogger(logger.Named("mempool"))
		SetLogger(logger.Named("runtime"))
	}

	cache, err := lru.New[string, *krb.Bundle](cfg.BundleCacheSize)
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "bundle cache size must be positive")
	}

	r := &Runtime{
		cfg:    *cfg,
		logger: logger,
		store:  state.NewStore(),
		alloc:  mempool.New(cfg.Allocator),
		cache:  cache,
	}
	return r, nil
}

// SetFuncSource attaches the resolver for function-reference handler
// properties. Must be set before loading a bundle that uses them.
func (r *Runtime) SetFuncSource(src scripthost.FuncSource) {
	r.funcs = src
}

// LoadFile loads a bundle from disk. Decoded bundles are cached by
// absolute path; the element tree is rebuilt on every load.
func (r *Runtime) LoadFile(path string) error {
	if r.closed {
		return errors.NotInitialized(errors.PhaseLoad, "runtime")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Load("resolve bundle path", err)
	}

	if bundle, ok := r.cache.Get(abs); ok {
		r.logger.Debug("bundle cache hit", zap.String("path", abs))
		return r.install(bundle)
	}

	bundle, err := r.readBundle(abs)
	if err != nil {
		return err
	}
	r.cache.Add(abs, bundle)
	return r.install(bundle)
}

// readBundle reads and decodes one file through a pooled buffer.
func (r *Runtime) readBundle(path string) (*krb.Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Load("open bundle file", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Load("stat bundle file", err)
	}

	ref, err := r.alloc.Alloc(int(info.Size()))
	if err != nil {
		return nil, err
	}
	defer r.alloc.Free(ref)

	buf, err := r.alloc.Bytes(ref)
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, errors.Load("read bundle file", err)
	}

	bundle, err := krb.DecodeWithOptions(buf, r.cfg.Decode)
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

// LoadBinary loads a bundle from memory.
func (r *Runtime) LoadBinary(data []byte) error {
	if r.closed {
		return errors.NotInitialized(errors.PhaseLoad, "runtime")
	}
	bundle, err := krb.DecodeWithOptions(data, r.cfg.Decode)
	if err != nil {
		return err
	}
	return r.install(bundle)
}

// install replaces the live document with one built from bundle.
func (r *Runtime) install(bundle *krb.Bundle) error {
	tree, err := element.FromBundle(bundle)
	if err != nil {
		return err
	}

	r.tree = tree
	r.bindings = state.NewRegistry()
	r.dispatcher = event.NewDispatcher(tree, r.cfg.QueueCapacity)

	// Seed the binding registry and make every bound path resolvable.
	var seedErr error
	tree.EachBinding(func(h element.Handle, name, path string) {
		if err := r.store.EnsurePath(path); err != nil && seedErr == nil {
			seedErr = err
			return
		}
		r.bindings.Register(state.Binding{Element: h, Property: name, Path: path})
	})
	if seedErr != nil {
		return seedErr
	}

	r.wireHandlers()

	r.logger.Info("bundle installed",
		zap.Int("elements", tree.Len()),
		zap.Int("bindings", r.bindings.Len()))
	return nil
}

// wireHandlers registers dispatcher listeners for every
// function-reference handler property in the tree.
func (r *Runtime) wireHandlers() {
	r.tree.PaintOrder(func(h element.Handle) bool {
		for name, typ := range handlerEvents {
			v, ok := r.tree.GetProperty(h, name)
			if !ok || v.Kind != element.KindFunction {
				continue
			}
			ref := v.Str
			r.dispatcher.AddListener(h, typ, false, func(ev *event.Event) {
				r.callHandler(ref, ev)
			})
		}
		return true
	})
}

func (r *Runtime) callHandler(ref string, ev *event.Event) {
	if r.funcs == nil {
		r.record(errors.NotInitialized(errors.PhaseScript, "function source"))
		return
	}
	fn, err := r.funcs.Resolve(ref)
	if err != nil {
		r.record(err)
		return
	}
	if _, err := fn(context.Background(), int64(ev.Type)); err != nil {
		r.record(err)
	}
}

// Start begins the frame loop. A document must be loaded first. When a
// snapshot file is configured, prior state is restored.
func (r *Runtime) Start() error {
	if r.closed {
		return errors.NotInitialized(errors.PhaseRuntime, "runtime")
	}
	if r.tree == nil {
		return errors.NotInitialized(errors.PhaseRuntime, "document")
	}
	if r.running {
		return errors.Lifecycle("runtime already running")
	}
	if r.cfg.SnapshotFile != "" {
		r.store.MustLoadSnapshot(r.cfg.SnapshotFile)
	}
	r.running = true
	r.logger.Info("runtime started", zap.String("mode", r.cfg.Mode.String()))
	return nil
}

// Stop halts the frame loop. When a snapshot file is configured the
// current state is persisted.
func (r *Runtime) Stop() error {
	if !r.running {
		return errors.Lifecycle("runtime not running")
	}
	r.running = false
	if r.cfg.SnapshotFile != "" {
		if err := r.store.SaveSnapshot(r.cfg.SnapshotFile); err != nil {
			r.record(err)
		}
	}
	r.logger.Info("runtime stopped", zap.Uint64("frames", r.frames))
	return nil
}

// Running reports whether the frame loop is active.
func (r *Runtime) Running() bool {
	return r.running
}

// HandleEvent queues an input event for the next frame.
func (r *Runtime) HandleEvent(ev event.Event) error {
	if r.dispatcher == nil {
		return errors.NotInitialized(errors.PhaseDispatch, "dispatcher")
	}
	return r.dispatcher.Push(ev)
}

// Tree exposes the live document.
func (r *Runtime) Tree() *element.Tree {
	return r.tree
}

// State exposes the state store.
func (r *Runtime) State() *state.Store {
	return r.store
}

// Dispatcher exposes the event dispatcher for listener and shortcut
// registration.
func (r *Runtime) Dispatcher() *event.Dispatcher {
	return r.dispatcher
}

// Var reads a runtime variable.
func (r *Runtime) Var(name string) (state.Value, bool) {
	return r.store.Get("runtime." + name)
}

// SetVar writes a runtime variable. Variables live in the state store
// under the "runtime" prefix, so bindings can reference them like any
// other path.
func (r *Runtime) SetVar(name string, v state.Value) error {
	path := "runtime." + name
	if err := r.store.EnsurePath(path); err != nil {
		return err
	}
	return r.store.Set(path, v)
}

// Errors returns the recorded error log, oldest first.
func (r *Runtime) Errors() []error {
	out := make([]error, len(r.errlog))
	copy(out, r.errlog)
	return out
}

func (r *Runtime) record(err error) {
	r.logger.Warn("runtime error", zap.Error(err))
	r.errlog = append(r.errlog, err)
	if limit := r.cfg.ErrorLogSize; limit > 0 && len(r.errlog) > limit {
		r.errlog = r.errlog[len(r.errlog)-limit:]
	}
}

// Stats is a point-in-time snapshot of runtime usage.
type Stats struct {
	Frames        uint64
	Elements      int
	Bindings      int
	PendingEvents int
	CachedBundles int
	Memory        mempool.Stats
}

// RuntimeStats returns current counters.
func (r *Runtime) RuntimeStats() Stats {
	s := Stats{
		Frames:        r.frames,
		CachedBundles: r.cache.Len(),
		Memory:        r.alloc.Stats(),
	}
	if r.tree != nil {
		s.Elements = r.tree.Len()
	}
	if r.bindings != nil {
		s.Bindings = r.bindings.Len()
	}
	if r.dispatcher != nil {
		s.PendingEvents = r.dispatcher.Pending()
	}
	return s
}

// Close tears the runtime down: stops the loop if running, closes the
// function source, and releases pooled memory. Leaked allocations are
// reported through the error log.
func (r *Runtime) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.running {
		if err := r.Stop(); err != nil {
			r.record(err)
		}
	}
	if r.funcs != nil {
		if err := r.funcs.Close(context.Background()); err != nil {
			r.record(err)
		}
	}
	r.cache.Purge()
	if err := r.alloc.Close(); err != nil {
		r.record(err)
		return err
	}
	return nil
}
