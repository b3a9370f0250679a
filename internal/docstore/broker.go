package docstore

import "sync"

// broker wakes live queries after a commit touches their collection.
// Signals carry no data; a woken query re-reads its result.
type broker struct {
	mu       sync.Mutex
	nextID   int
	watchers map[string]map[int]chan struct{}
	closed   bool
}

func newBroker() *broker {
	return &broker{watchers: make(map[string]map[int]chan struct{})}
}

// watch registers interest in collection. The returned channel is closed
// when the broker shuts down; stop unregisters.
func (b *broker) watch(collection string) (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan struct{}, 1)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	if b.watchers[collection] == nil {
		b.watchers[collection] = make(map[int]chan struct{})
	}
	b.watchers[collection][id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.watchers[collection], id)
	}
}

// publish signals every watcher of the given collections without blocking.
func (b *broker) publish(collections ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range collections {
		for _, ch := range b.watchers[c] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ws := range b.watchers {
		for _, ch := range ws {
			close(ch)
		}
	}
	b.watchers = nil
}
