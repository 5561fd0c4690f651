package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	appregistry "github.com/chandra-gummaluru/beamer-plus/internal/app/registry"
	"github.com/chandra-gummaluru/beamer-plus/internal/core/contracts"
	"github.com/chandra-gummaluru/beamer-plus/internal/core/domain"
)

// fakeClient records every frame sent to it.
type fakeClient struct {
	mu     sync.Mutex
	id     string
	frames [][]byte
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id}
}

func (c *fakeClient) ID() string { return c.id }

func (c *fakeClient) Send(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *fakeClient) Close() {}

func (c *fakeClient) events(t *testing.T) []domain.Event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	events := make([]domain.Event, 0, len(c.frames))
	for _, frame := range c.frames {
		var evt domain.Event
		if err := json.Unmarshal(frame, &evt); err != nil {
			t.Fatalf("client %s received non-event frame %s: %v", c.id, frame, err)
		}
		events = append(events, evt)
	}
	return events
}

func (c *fakeClient) eventsOfType(t *testing.T, typ string) []domain.Event {
	t.Helper()
	var out []domain.Event
	for _, evt := range c.events(t) {
		if evt.Type == typ {
			out = append(out, evt)
		}
	}
	return out
}

// fakeBackend returns a canned result or error.
type fakeBackend struct {
	summaries []domain.Summary
	err       error
	panicWith any
	calls     int
}

func (b *fakeBackend) Summarize(ctx context.Context, responses []string, count int) ([]domain.Summary, error) {
	b.calls++
	if b.panicWith != nil {
		panic(b.panicWith)
	}
	return b.summaries, b.err
}

// fakeBackends is a minimal in-test backend registry.
type fakeBackends map[string]contracts.AnalysisBackend

func (f fakeBackends) Resolve(name string) (contracts.AnalysisBackend, bool) {
	b, ok := f[name]
	return b, ok
}

func (f fakeBackends) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	return names
}

// testCore wires a running event loop with the real connection
// registry and fresh services.
type testCore struct {
	loop     *Loop
	hub      *appregistry.Registry
	state    *StateStore
	surveys  *SurveyService
	router   *Router
	backends fakeBackends
}

func newTestCore(t *testing.T) *testCore {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	loop := NewLoop()
	hub := appregistry.NewRegistry()
	state := NewStateStore()
	backends := fakeBackends{}
	surveys := NewSurveyService(slog.Default(), loop, hub, backends, domain.DefaultSummaryCount)
	router := NewRouter(slog.Default(), loop, hub, state, surveys)
	go loop.Run(ctx)

	return &testCore{
		loop:     loop,
		hub:      hub,
		state:    state,
		surveys:  surveys,
		router:   router,
		backends: backends,
	}
}

// sync waits until every step enqueued so far has run.
func (c *testCore) sync(t *testing.T) {
	t.Helper()
	if err := c.loop.Call(context.Background(), func() {}); err != nil {
		t.Fatalf("loop barrier failed: %v", err)
	}
}

func (c *testCore) dispatch(src contracts.Client, typ string, data any) {
	c.router.Dispatch(context.Background(), src, domain.NewEvent(typ, data))
}

func rawEvent(typ string, raw string) domain.Event {
	return domain.Event{Type: typ, Data: json.RawMessage(raw)}
}
