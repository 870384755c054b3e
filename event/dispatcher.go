package event

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-sub009/element"
	"github.com/kryonlabs/kryon-sub009/errors"
)

// DefaultQueueCapacity bounds the event queue when no capacity is
// given.
const DefaultQueueCapacity = 256

// HandlerFunc processes one event during dispatch. Mutating the event
// through MarkHandled or PreventDefault steers the remaining phases.
type HandlerFunc func(ev *Event)

// ListenerHandle identifies a registered listener. The zero handle is
// invalid.
type ListenerHandle uint64

type listener struct {
	handle  ListenerHandle
	typ     Type
	capture bool
	fn      HandlerFunc
}

type shortcut struct {
	combo Combo
	fn    HandlerFunc
}

// Dispatcher owns the bounded event queue, the listener registries and
// the shortcut table, and walks the capture/bubble phases against the
// element tree.
//
// A Dispatcher is confined to the driver goroutine. It is not safe for
// concurrent use.
type Dispatcher struct {
	tree  *element.Tree
	queue *ring

	byElement map[element.Handle][]listener
	global    []listener
	owners    map[ListenerHandle]element.Handle // global listeners map to the zero handle
	nextID    ListenerHandle

	shortcuts []shortcut
	start     time.Time
}

// NewDispatcher creates a dispatcher over tree. capacity <= 0 uses
// DefaultQueueCapacity.
func NewDispatcher(tree *element.Tree, capacity int) *Dispatcher {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Dispatcher{
		tree:      tree,
		queue:     newRing(capacity),
		byElement: make(map[element.Handle][]listener),
		owners:    make(map[ListenerHandle]element.Handle),
		start:     time.Now(),
	}
}

// Push enqueues an event. A full queue rejects the event with a
// queue-full error; the caller decides whether to drop or retry.
func (d *Dispatcher) Push(ev Event) error {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Since(d.start)
	}
	if !d.queue.push(ev) {
		return errors.QueueFull(len(d.queue.buf))
	}
	return nil
}

// Poll dequeues the oldest event without dispatching it.
func (d *Dispatcher) Poll() (Event, bool) {
	return d.queue.pop()
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	return d.queue.len()
}

// ProcessAll drains the queue in FIFO order, dispatching each event
// through both phases before dequeuing the next. Returns the number of
// events dispatched.
func (d *Dispatcher) ProcessAll() int {
	n := 0
	for {
		ev, ok := d.queue.pop()
		if !ok {
			return n
		}
		d.Dispatch(&ev)
		n++
	}
}

// Dispatch runs one event through shortcuts, then the capture phase
// from root down to target, then the bubble phase from target back up.
// Either phase halts as soon as a listener marks the event handled.
func (d *Dispatcher) Dispatch(ev *Event) {
	if ev.Type == TypeKeyDown {
		d.matchShortcuts(ev)
		if ev.handled {
			return
		}
	}

	if !ev.Target.Valid() || !d.tree.Live(ev.Target) {
		// Untargeted events go to global listeners only.
		d.invoke(d.global, ev, false)
		return
	}

	path := d.tree.PathToRoot(ev.Target)

	// Capture: root first. Global capture listeners run before the
	// tree walk, standing in for the window.
	d.invoke(d.global, ev, true)
	for i := len(path) - 1; i >= 0 && !ev.handled; i-- {
		d.invoke(d.byElement[path[i]], ev, true)
	}

	// Bubble: target first.
	for i := 0; i < len(path) && !ev.handled; i++ {
		d.invoke(d.byElement[path[i]], ev, false)
	}
	if !ev.handled {
		d.invoke(d.global, ev, false)
	}
}

func (d *Dispatcher) invoke(ls []listener, ev *Event, capture bool) {
	for _, l := range ls {
		if ev.handled {
			return
		}
		if l.typ == ev.Type && l.capture == capture {
			l.fn(ev)
		}
	}
}

func (d *Dispatcher) matchShortcuts(ev *Event) {
	for _, sc := range d.shortcuts {
		if sc.combo.Matches(ev.Key, ev.Mods) {
			Logger().Debug("shortcut fired",
				zap.String("combo", sc.combo.String()))
			sc.fn(ev)
			if ev.handled {
				return
			}
		}
	}
}

// AddListener registers a handler for one event type on an element.
// A zero target handle registers a global listener. capture selects
// the phase the listener fires in.
func (d *Dispatcher) AddListener(target element.Handle, typ Type, capture bool, fn HandlerFunc) ListenerHandle {
	d.nextID++
	l := listener{handle: d.nextID, typ: typ, capture: capture, fn: fn}
	if target.Valid() {
		d.byElement[target] = append(d.byElement[target], l)
	} else {
		d.global = append(d.global, l)
	}
	d.owners[d.nextID] = target
	return d.nextID
}

// RemoveListener drops a listener. Unknown handles are an error.
func (d *Dispatcher) RemoveListener(h ListenerHandle) error {
	target, ok := d.owners[h]
	if !ok {
		return errors.NotFound(errors.PhaseDispatch, "listener", fmt.Sprintf("%d", h))
	}
	delete(d.owners, h)

	remove := func(ls []listener) []listener {
		for i := range ls {
			if ls[i].handle == h {
				return append(ls[:i], ls[i+1:]...)
			}
		}
		return ls
	}
	if target.Valid() {
		d.byElement[target] = remove(d.byElement[target])
		if len(d.byElement[target]) == 0 {
			delete(d.byElement, target)
		}
	} else {
		d.global = remove(d.global)
	}
	return nil
}

// DropElement removes every listener attached to an element, for
// teardown when the element is destroyed.
func (d *Dispatcher) DropElement(target element.Handle) {
	for _, l := range d.byElement[target] {
		delete(d.owners, l.handle)
	}
	delete(d.byElement, target)
}

// RegisterShortcut parses a combo specification and binds fn to it.
// Shortcuts match key-down events with an exact modifier set before
// any listener phase runs.
func (d *Dispatcher) RegisterShortcut(spec string, fn HandlerFunc) error {
	combo, err := ParseCombo(spec)
	if err != nil {
		return err
	}
	d.shortcuts = append(d.shortcuts, shortcut{combo: combo, fn: fn})
	return nil
}
