package event

// ring is a fixed-capacity FIFO of events. Push on a full ring fails;
// the newest event is the one rejected, queued events are never
// displaced.
type ring struct {
	buf   []Event
	head  int
	count int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]Event, capacity)}
}

func (r *ring) push(ev Event) bool {
	if r.count == len(r.buf) {
		return false
	}
	r.buf[(r.head+r.count)%len(r.buf)] = ev
	r.count++
	return true
}

func (r *ring) pop() (Event, bool) {
	if r.count == 0 {
		return Event{}, false
	}
	ev := r.buf[r.head]
	r.buf[r.head] = Event{}
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return ev, true
}

func (r *ring) len() int {
	return r.count
}
