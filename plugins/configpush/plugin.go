// Package configpush mirrors the agent's config file into the cloud store.
// When enabled, it watches the TOML config for changes and replaces the
// snapshot stored under docks/<dock-id>/config.
package configpush

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harborlabs/dockscale"
)

// Error codes stored in place of a snapshot when the file cannot be read.
const (
	ErrCodeFileNotFound     = "FILE_NOT_FOUND"
	ErrCodePermissionDenied = "PERMISSION_DENIED"
	ErrCodeReadError        = "READ_ERROR"
)

// Plugin implements config mirroring functionality.
// It monitors the agent's config file and replaces the stored snapshot
// when it changes.
type Plugin struct {
	mu sync.RWMutex

	// Configuration
	retryInterval time.Duration
	debounceDelay time.Duration

	// Runtime state
	configPath string
	storeURL   string
	dockID     string
	authToken  string
	logger     dockscale.Logger
	httpClient *http.Client
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	debounce   *time.Timer
}

// Config holds configuration options for the config push plugin.
type Config struct {
	// RetryInterval is the delay between retries on failure.
	// Default: 5 seconds
	RetryInterval time.Duration

	// DebounceDelay is the delay to wait after a file change before pushing.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// HTTPTimeout is the timeout for HTTP requests.
	// Default: 30 seconds
	HTTPTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RetryInterval: 5 * time.Second,
		DebounceDelay: 100 * time.Millisecond,
		HTTPTimeout:   30 * time.Second,
	}
}

// New creates a new config push plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 5 * time.Second
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}

	return &Plugin{
		retryInterval: cfg.RetryInterval,
		debounceDelay: cfg.DebounceDelay,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configpush"
}

// Initialize sets up the plugin and starts the file watcher.
func (p *Plugin) Initialize(ctx context.Context, cfg dockscale.PluginConfig) error {
	p.mu.Lock()
	p.configPath = cfg.ConfigPath
	p.storeURL = strings.TrimSuffix(cfg.StoreURL, "/")
	p.dockID = cfg.DockID
	p.authToken = cfg.AuthToken
	p.logger = cfg.Logger
	p.mu.Unlock()

	if p.configPath == "" || p.storeURL == "" {
		p.logger.Warn("Config push disabled: config path or store URL not configured")
		return nil
	}

	// Create cancellable context for the watcher loop
	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("Config push plugin initialized")

	// Start watcher loop
	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	return nil
}

// Shutdown stops the file watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// watchLoop watches for config file changes.
func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.logger.Error("Config push: failed to create watcher")
		return
	}
	defer watcher.Close()

	// Editors replace files on save, so watch the directory and filter by name.
	if err := watcher.Add(filepath.Dir(p.configPath)); err != nil {
		p.logger.Error("Config push: failed to watch directory")
		// Still try to push the initial snapshot
		p.pushSnapshotWithRetry(ctx)
		return
	}

	// Push initial snapshot
	p.pushSnapshotWithRetry(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(p.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debouncePush(ctx, p.debounceDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			_ = err // logged as generic error
			p.logger.Error("Config push: watcher error")
		}
	}
}

func (p *Plugin) debouncePush(ctx context.Context, delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}

	p.debounce = time.AfterFunc(delay, func() {
		p.pushSnapshotWithRetry(ctx)
	})
}

// snapshot is the JSON document stored under docks/<dock-id>/config.
type snapshot struct {
	CapturedAt string `json:"captured_at"`
	Config     string `json:"config,omitempty"`
	Error      string `json:"error,omitempty"`
}

// buildSnapshot reads the config file into a snapshot document.
func (p *Plugin) buildSnapshot() snapshot {
	snap := snapshot{CapturedAt: time.Now().UTC().Format(time.RFC3339Nano)}

	data, err := os.ReadFile(p.configPath)
	if err != nil {
		snap.Error = p.errorToCode(err)
		return snap
	}
	snap.Config = string(data)
	return snap
}

// pushSnapshotWithRetry retries until success or context cancellation.
func (p *Plugin) pushSnapshotWithRetry(ctx context.Context) {
	retryCount := 0

	payload, err := json.Marshal(p.buildSnapshot())
	if err != nil {
		p.logger.Error("Config push: marshal snapshot failed")
		return
	}

	for {
		if err := p.push(ctx, payload); err == nil {
			if retryCount > 0 {
				p.logger.Info("Config push: stored configuration snapshot after retries")
			} else {
				p.logger.Info("Config push: stored configuration snapshot")
			}
			return
		}

		// Failure - log and retry
		retryCount++
		p.logger.Error("Config push: store write failed")

		select {
		case <-ctx.Done():
			p.logger.Info("Config push: stopping retry due to context cancellation")
			return
		case <-time.After(p.retryInterval):
			// Continue to next retry
		}
	}
}

func (p *Plugin) errorToCode(err error) string {
	if os.IsNotExist(err) {
		return ErrCodeFileNotFound
	}
	if os.IsPermission(err) {
		return ErrCodePermissionDenied
	}
	if strings.Contains(err.Error(), "permission denied") {
		return ErrCodePermissionDenied
	}
	return ErrCodeReadError
}

// configURL maps the snapshot document to its store REST endpoint.
func (p *Plugin) configURL() string {
	u := p.storeURL + "/docks/" + p.dockID + "/config.json"
	if p.authToken != "" {
		u += "?auth=" + url.QueryEscape(p.authToken)
	}
	return u
}

func (p *Plugin) push(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, p.configURL(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Ensure Plugin implements dockscale.Plugin.
var _ dockscale.Plugin = (*Plugin)(nil)
