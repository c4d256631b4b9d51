package daemon

import (
	"sync"
	"sync/atomic"

	"github.com/firecorners/cornerd/internal/domain"
)

// ConfigHolder publishes the active document as a single atomic reference.
// Readers never see a partially updated document; published documents must
// not be mutated.
type ConfigHolder struct {
	current atomic.Pointer[domain.Document]

	mu   sync.Mutex
	subs map[int]chan *domain.Document
	next int
}

// NewConfigHolder creates a holder publishing doc.
func NewConfigHolder(doc *domain.Document) *ConfigHolder {
	h := &ConfigHolder{subs: make(map[int]chan *domain.Document)}
	if doc == nil {
		doc = domain.DefaultDocument()
	}
	h.current.Store(doc)
	return h
}

// Get returns the active document.
func (h *ConfigHolder) Get() *domain.Document {
	return h.current.Load()
}

// Swap publishes doc and notifies subscribers. It returns the previous document.
func (h *ConfigHolder) Swap(doc *domain.Document) *domain.Document {
	old := h.current.Swap(doc)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		// Keep only the newest document for slow subscribers
		select {
		case <-ch:
		default:
		}
		ch <- doc
	}
	return old
}

// Subscribe returns a channel receiving each newly published document and a
// cancel func. Only the latest unread document is buffered.
func (h *ConfigHolder) Subscribe() (<-chan *domain.Document, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan *domain.Document, 1)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}
