package dockscale_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/harborlabs/dockscale"
)

// =============================================================================
// Test Utilities
// =============================================================================

// testLogger implements dockscale.Logger for capturing log output in tests.
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func newTestLogger() *testLogger {
	return &testLogger{messages: make([]string, 0)}
}

func (l *testLogger) Debug(msg string, fields ...dockscale.LogField) {
	l.log("DEBUG", msg)
}

func (l *testLogger) Info(msg string, fields ...dockscale.LogField) {
	l.log("INFO", msg)
}

func (l *testLogger) Warn(msg string, fields ...dockscale.LogField) {
	l.log("WARN", msg)
}

func (l *testLogger) Error(msg string, fields ...dockscale.LogField) {
	l.log("ERROR", msg)
}

func (l *testLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("[%s] %s", level, msg))
}

// trackingPlugin tracks initialization and shutdown calls for testing.
type trackingPlugin struct {
	name          string
	initOrder     *[]string
	shutdownOrder *[]string
	initError     error
	shutdownError error
	mu            sync.Mutex
	initialized   bool
	shutdown      bool
}

func newTrackingPlugin(name string, initOrder, shutdownOrder *[]string) *trackingPlugin {
	return &trackingPlugin{
		name:          name,
		initOrder:     initOrder,
		shutdownOrder: shutdownOrder,
	}
}

func (p *trackingPlugin) Name() string { return p.name }

func (p *trackingPlugin) Initialize(ctx context.Context, cfg dockscale.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initError != nil {
		return p.initError
	}

	*p.initOrder = append(*p.initOrder, p.name)
	p.initialized = true
	return nil
}

func (p *trackingPlugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	*p.shutdownOrder = append(*p.shutdownOrder, p.name)
	p.shutdown = true

	return p.shutdownError
}

func (p *trackingPlugin) IsInitialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

func (p *trackingPlugin) IsShutdown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shutdown
}

// sinkPlugin records the measurement stream.
type sinkPlugin struct {
	dockscale.BasePlugin
	mu   sync.Mutex
	seen []dockscale.MeasurementEvent
}

func (p *sinkPlugin) HandleMeasurement(event dockscale.MeasurementEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, event)
}

func (p *sinkPlugin) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

// eventTracker tracks dockscale events.
type eventTracker struct {
	dockscale.BaseEventHandler
	mu           sync.Mutex
	stateChanges []dockscale.StateChangeEvent
	verifies     []dockscale.VerifyEvent
	successes    []dockscale.PublishSuccessEvent
}

func (e *eventTracker) OnStateChange(event dockscale.StateChangeEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stateChanges = append(e.stateChanges, event)
}

func (e *eventTracker) OnVerify(event dockscale.VerifyEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.verifies = append(e.verifies, event)
}

func (e *eventTracker) OnPublishSuccess(event dockscale.PublishSuccessEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.successes = append(e.successes, event)
}

func (e *eventTracker) StateChanges() []dockscale.StateChangeEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make([]dockscale.StateChangeEvent, len(e.stateChanges))
	copy(cp, e.stateChanges)
	return cp
}

func (e *eventTracker) Verifies() []dockscale.VerifyEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make([]dockscale.VerifyEvent, len(e.verifies))
	copy(cp, e.verifies)
	return cp
}

func (e *eventTracker) Successes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.successes)
}

// fakeStoreServer simulates the cloud store REST endpoint.
type fakeStoreServer struct {
	mu       sync.Mutex
	identity string
	puts     []string
	gets     int
}

func newFakeStoreServer(t *testing.T, identity string) (*fakeStoreServer, *httptest.Server) {
	t.Helper()
	f := &fakeStoreServer{identity: identity}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/docks/test-dock.json":
			f.mu.Lock()
			f.gets++
			identity := f.identity
			f.mu.Unlock()
			fmt.Fprint(w, identity)
		case r.Method == http.MethodPut && r.URL.Path == "/docks/test-dock/weight.json":
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.puts = append(f.puts, string(body))
			f.mu.Unlock()
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeStoreServer) Puts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

func (f *fakeStoreServer) Gets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

// testConfig creates a minimal valid config against the given store URL.
func testConfig(storeURL string) dockscale.Config {
	return dockscale.Config{
		DockID:           "test-dock",
		StoreURL:         storeURL,
		AuthToken:        "",
		Simulate:         true,
		ReadInterval:     2 * time.Millisecond,
		PublishInterval:  time.Millisecond,
		NetCheckInterval: 5 * time.Millisecond,
		HTTPTimeout:      2 * time.Second,
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(time.Millisecond)
	}
}

// =============================================================================
// End-to-End Tests
// =============================================================================

func TestDockscale_EndToEnd(t *testing.T) {
	store, srv := newFakeStoreServer(t, `"Test Dock"`)
	tracker := &eventTracker{}

	w, err := dockscale.New(testConfig(srv.URL),
		dockscale.WithLogger(newTestLogger()),
		dockscale.WithEventHandler(tracker),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	waitFor(t, func() bool { return store.Puts() >= 2 }, "no weights reached the store")

	if store.Gets() != 1 {
		t.Errorf("identity checked %d times, want 1", store.Gets())
	}
	if w.Status() != dockscale.StateRunning {
		t.Errorf("Status = %v, want Running", w.Status())
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() failed: %v", err)
	}
	if w.Status() != dockscale.StateStopped {
		t.Errorf("Status after Stop = %v, want Stopped", w.Status())
	}

	changes := tracker.StateChanges()
	if len(changes) < 4 {
		t.Fatalf("got %d state changes, want at least 4", len(changes))
	}
	if changes[0].Previous != dockscale.StateStopped || changes[0].Current != dockscale.StateStarting {
		t.Errorf("first change %v->%v, want Stopped->Starting", changes[0].Previous, changes[0].Current)
	}
	last := changes[len(changes)-1]
	if last.Current != dockscale.StateStopped {
		t.Errorf("last change ends in %v, want Stopped", last.Current)
	}

	verifies := tracker.Verifies()
	if len(verifies) != 1 || !verifies[0].Verified {
		t.Errorf("verify events = %+v, want exactly one successful", verifies)
	}
	if tracker.Successes() == 0 {
		t.Error("no publish success events emitted")
	}
}

func TestDockscale_UnverifiedDockNeverWrites(t *testing.T) {
	store, srv := newFakeStoreServer(t, "null")
	tracker := &eventTracker{}

	w, err := dockscale.New(testConfig(srv.URL),
		dockscale.WithEventHandler(tracker),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer func() { _ = w.Stop() }()

	waitFor(t, func() bool { return store.Gets() >= 3 }, "identity never checked")

	if store.Puts() != 0 {
		t.Errorf("store received %d writes for an unregistered dock, want 0", store.Puts())
	}

	verifies := tracker.Verifies()
	if len(verifies) == 0 {
		t.Fatal("no verify events emitted")
	}
	for _, v := range verifies {
		if v.Verified {
			t.Error("verify reported success for an unregistered dock")
		}
	}
}

func TestDockscale_Once(t *testing.T) {
	store, srv := newFakeStoreServer(t, `"Test Dock"`)

	cfg := testConfig(srv.URL)
	cfg.Once = true

	w, err := dockscale.New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	waitFor(t, func() bool { return w.Status() == dockscale.StateStopped }, "once mode did not finish")

	if store.Puts() != 1 {
		t.Errorf("store received %d writes in once mode, want 1", store.Puts())
	}
}

// =============================================================================
// Plugin Lifecycle Tests
// =============================================================================

func TestDockscale_PluginInitializationOrder(t *testing.T) {
	_, srv := newFakeStoreServer(t, `"Test Dock"`)

	var initOrder []string
	var shutdownOrder []string

	plugin1 := newTrackingPlugin("plugin1", &initOrder, &shutdownOrder)
	plugin2 := newTrackingPlugin("plugin2", &initOrder, &shutdownOrder)
	plugin3 := newTrackingPlugin("plugin3", &initOrder, &shutdownOrder)

	w, err := dockscale.New(testConfig(srv.URL),
		dockscale.WithLogger(newTestLogger()),
		dockscale.WithPlugin(plugin1),
		dockscale.WithPlugin(plugin2),
		dockscale.WithPlugin(plugin3),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// Plugins are initialized synchronously inside Start.
	if len(initOrder) != 3 {
		t.Errorf("Expected 3 plugins initialized, got %d", len(initOrder))
	}
	if initOrder[0] != "plugin1" || initOrder[1] != "plugin2" || initOrder[2] != "plugin3" {
		t.Errorf("Unexpected init order: %v", initOrder)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() failed: %v", err)
	}

	// Verify shutdown order (should be reverse of init)
	if len(shutdownOrder) != 3 {
		t.Errorf("Expected 3 plugins shutdown, got %d", len(shutdownOrder))
	}
	if shutdownOrder[0] != "plugin3" || shutdownOrder[1] != "plugin2" || shutdownOrder[2] != "plugin1" {
		t.Errorf("Unexpected shutdown order: %v (expected reverse of init)", shutdownOrder)
	}
}

func TestDockscale_PluginInitFailure_PreventsStart(t *testing.T) {
	_, srv := newFakeStoreServer(t, `"Test Dock"`)

	var initOrder []string
	var shutdownOrder []string

	plugin1 := newTrackingPlugin("plugin1", &initOrder, &shutdownOrder)
	plugin2 := newTrackingPlugin("plugin2", &initOrder, &shutdownOrder)
	plugin2.initError = errors.New("intentional init failure")
	plugin3 := newTrackingPlugin("plugin3", &initOrder, &shutdownOrder)

	w, err := dockscale.New(testConfig(srv.URL),
		dockscale.WithPlugin(plugin1),
		dockscale.WithPlugin(plugin2),
		dockscale.WithPlugin(plugin3),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	err = w.Start(context.Background())

	// Start should fail due to plugin2 init failure
	if err == nil {
		t.Fatal("Start() should have failed due to plugin init error")
	}

	// plugin1 should have been initialized before plugin2 failed
	if len(initOrder) != 1 || initOrder[0] != "plugin1" {
		t.Errorf("Expected only plugin1 to init before failure, got: %v", initOrder)
	}

	// plugin3 should NOT have been initialized
	if plugin3.IsInitialized() {
		t.Error("plugin3 should not have been initialized after plugin2 failed")
	}

	// State should be crashed
	if w.Status() != dockscale.StateCrashed {
		t.Errorf("Status = %v, want Crashed", w.Status())
	}
}

func TestDockscale_PluginShutdownFailure_ContinuesOtherPlugins(t *testing.T) {
	_, srv := newFakeStoreServer(t, `"Test Dock"`)

	var initOrder []string
	var shutdownOrder []string

	plugin1 := newTrackingPlugin("plugin1", &initOrder, &shutdownOrder)
	plugin2 := newTrackingPlugin("plugin2", &initOrder, &shutdownOrder)
	plugin2.shutdownError = errors.New("intentional shutdown failure")
	plugin3 := newTrackingPlugin("plugin3", &initOrder, &shutdownOrder)

	w, err := dockscale.New(testConfig(srv.URL),
		dockscale.WithPlugin(plugin1),
		dockscale.WithPlugin(plugin2),
		dockscale.WithPlugin(plugin3),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// Stop should complete even though plugin2 fails
	_ = w.Stop()

	// All plugins should have attempted shutdown (reverse order)
	if len(shutdownOrder) != 3 {
		t.Errorf("Expected all 3 plugins to attempt shutdown, got: %v", shutdownOrder)
	}

	if !plugin1.IsShutdown() {
		t.Error("plugin1 should have been shutdown")
	}
	if !plugin3.IsShutdown() {
		t.Error("plugin3 should have been shutdown")
	}
}

func TestDockscale_MeasurementSinkPlugin(t *testing.T) {
	_, srv := newFakeStoreServer(t, `"Test Dock"`)

	sink := &sinkPlugin{BasePlugin: dockscale.NewBasePlugin("sink")}

	w, err := dockscale.New(testConfig(srv.URL),
		dockscale.WithPlugin(sink),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer func() { _ = w.Stop() }()

	waitFor(t, func() bool { return sink.Count() >= 3 }, "sink plugin received no measurements")
}

// =============================================================================
// Edge Case Tests
// =============================================================================

func TestDockscale_InvalidConfig(t *testing.T) {
	_, err := dockscale.New(dockscale.Config{Simulate: true})
	if !errors.Is(err, dockscale.ErrInvalidConfig) {
		t.Errorf("New() with no dock id = %v, want ErrInvalidConfig", err)
	}
}

func TestDockscale_StartAlreadyRunning(t *testing.T) {
	_, srv := newFakeStoreServer(t, `"Test Dock"`)

	w, err := dockscale.New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("First Start() failed: %v", err)
	}

	// Second Start should fail
	if err := w.Start(ctx); !errors.Is(err, dockscale.ErrAlreadyRunning) {
		t.Errorf("Second Start() = %v, want ErrAlreadyRunning", err)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() failed: %v", err)
	}
}

func TestDockscale_StopAlreadyStopped(t *testing.T) {
	_, srv := newFakeStoreServer(t, `"Test Dock"`)

	w, err := dockscale.New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	// Stop without starting should fail
	if err := w.Stop(); !errors.Is(err, dockscale.ErrNotRunning) {
		t.Errorf("Stop() without Start() = %v, want ErrNotRunning", err)
	}
}

func TestDockscale_RapidStartStop(t *testing.T) {
	_, srv := newFakeStoreServer(t, `"Test Dock"`)

	w, err := dockscale.New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := w.Start(context.Background()); err != nil {
			t.Fatalf("Start() iteration %d failed: %v", i, err)
		}

		time.Sleep(10 * time.Millisecond)

		if err := w.Stop(); err != nil {
			t.Errorf("Stop() iteration %d failed: %v", i, err)
		}
	}

	if w.Status() != dockscale.StateStopped {
		t.Errorf("Final status = %v, want Stopped", w.Status())
	}
}

func TestDockscale_CloseReleasesInstance(t *testing.T) {
	_, srv := newFakeStoreServer(t, `"Test Dock"`)

	w, err := dockscale.New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if w.Status() != dockscale.StateStopped {
		t.Errorf("Status after Close = %v, want Stopped", w.Status())
	}

	// A closed instance cannot be restarted.
	if err := w.Start(context.Background()); !errors.Is(err, dockscale.ErrNotRunning) {
		t.Errorf("Start() after Close = %v, want ErrNotRunning", err)
	}
}
