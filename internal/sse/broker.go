// Package sse streams capture and template events to connected clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types.
const (
	CaptureCreated   = "capture.created"
	TemplateCreated  = "template.created"
	TemplateUpdated  = "template.updated"
	TemplateDeleted  = "template.deleted"
	TemplatesChanged = "templates.changed"
)

// Event is one message sent to every client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type templateChange struct {
	kind string
	name string
}

// Broker fans events out to SSE clients.
//
// One goroutine owns the client set and the refresh throttle; the exported
// methods talk to it over channels.
type Broker struct {
	refreshEvery time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	templateCh    chan templateChange
	countCh       chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker. A burst of template changes produces at most
// one templates.changed event per refreshEvery.
func NewBroker(refreshEvery time.Duration) *Broker {
	if refreshEvery <= 0 {
		refreshEvery = 2 * time.Second
	}
	b := &Broker{
		refreshEvery:  refreshEvery,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		templateCh:    make(chan templateChange, 256),
		countCh:       make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastRefresh time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than stall the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case c := <-b.templateCh:
			data := map[string]string{"name": c.name}
			switch c.kind {
			case "created":
				broadcast(Event{Type: TemplateCreated, Data: data})
			case "updated":
				broadcast(Event{Type: TemplateUpdated, Data: data})
			case "deleted":
				broadcast(Event{Type: TemplateDeleted, Data: data})
			}
			if now := time.Now(); now.Sub(lastRefresh) >= b.refreshEvery {
				lastRefresh = now
				broadcast(Event{Type: TemplatesChanged, Data: map[string]string{}})
			}

		case resp := <-b.countCh:
			resp <- len(clients)
		}
	}
}

// Close stops the broker and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishCapture announces a new capture. data is usually a capture
// result.
func (b *Broker) PublishCapture(data any) {
	b.Publish(Event{Type: CaptureCreated, Data: data})
}

// PublishTemplateChange announces a template change (kind is "created",
// "updated" or "deleted") and a throttled templates.changed.
func (b *Broker) PublishTemplateChange(kind, name string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.templateCh <- templateChange{kind: kind, name: name}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
