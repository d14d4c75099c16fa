// Package mqttmirror republishes weight readings to an MQTT broker.
// When enabled, every measurement also goes out on a local state topic,
// with an optional retained Home Assistant discovery payload so the dock
// shows up as a weight sensor without manual setup.
package mqttmirror

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/harborlabs/dockscale"
)

// Discovery payload keys/values.
const (
	keyName               = "name"
	keyStateTopic         = "state_topic"
	keyUnitOfMeasurement  = "unit_of_measurement"
	keyDeviceClass        = "device_class"
	keyStateClass         = "state_class"
	keyValueTemplate      = "value_template"
	keyUniqueID           = "unique_id"
	unitKilograms         = "kg"
	deviceClassWeight     = "weight"
	stateClassMeasurement = "measurement"
	valueTemplateWeight   = "{{ value_json.kilograms }}"
)

// Plugin implements MQTT mirroring of weight readings.
// It receives measurements through the MeasurementSink interface and
// publishes them as JSON on the state topic.
type Plugin struct {
	mu sync.Mutex

	cfg    Config
	dockID string
	logger dockscale.Logger
	client mqtt.Client
}

// Config holds configuration options for the MQTT mirror plugin.
type Config struct {
	// BrokerURL is the MQTT broker address, e.g. "tcp://localhost:1883".
	// The plugin is disabled when empty.
	BrokerURL string

	// ClientID identifies this client to the broker.
	// Default: "dockscale-<dock-id>"
	ClientID string

	// Username and Password are optional broker credentials.
	Username string
	Password string

	// StateTopic is the topic readings are published on.
	// Default: "dockscale/<dock-id>/weight"
	StateTopic string

	// DiscoveryTopic, when set, receives a retained Home Assistant
	// discovery payload during initialization.
	DiscoveryTopic string

	// ConnectTimeout bounds the initial broker connect.
	// Default: 10 seconds
	ConnectTimeout time.Duration

	// PublishTimeout bounds how long a publish may stay outstanding
	// before it is dropped with a warning.
	// Default: 5 seconds
	PublishTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 10 * time.Second,
		PublishTimeout: 5 * time.Second,
	}
}

// applyDefaults fills topic and client defaults once the dock ID is known.
func (c *Config) applyDefaults(dockID string) {
	if c.ClientID == "" {
		c.ClientID = "dockscale-" + dockID
	}
	if c.StateTopic == "" {
		c.StateTopic = "dockscale/" + dockID + "/weight"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 5 * time.Second
	}
}

// New creates a new MQTT mirror plugin with the given configuration.
func New(cfg Config) *Plugin {
	return &Plugin{cfg: cfg}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "mqttmirror"
}

// Initialize connects to the broker and publishes the discovery payload.
func (p *Plugin) Initialize(ctx context.Context, cfg dockscale.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.dockID = cfg.DockID
	p.logger = cfg.Logger

	if p.cfg.BrokerURL == "" {
		p.logger.Warn("MQTT mirror disabled: broker URL not configured")
		return nil
	}

	p.cfg.applyDefaults(cfg.DockID)

	opts := mqtt.NewClientOptions().AddBroker(p.cfg.BrokerURL).SetClientID(p.cfg.ClientID)
	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
	}
	if p.cfg.Password != "" {
		opts.SetPassword(p.cfg.Password)
	}
	opts.SetConnectTimeout(p.cfg.ConnectTimeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(p.cfg.ConnectTimeout) {
		client.Disconnect(0)
		return fmt.Errorf("mqtt connect: timeout after %s", p.cfg.ConnectTimeout)
	}
	if token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	p.client = client

	// Publish Home Assistant discovery payload if requested
	if p.cfg.DiscoveryTopic != "" {
		payload := discoveryPayload("Dock "+p.dockID+" weight", p.cfg.StateTopic, p.cfg.ClientID)
		if err := publishJSON(client, p.cfg.DiscoveryTopic, true, payload, p.cfg.PublishTimeout); err != nil {
			p.logger.Error("MQTT mirror: discovery publish failed")
		}
	}

	p.logger.Info("MQTT mirror plugin initialized")
	return nil
}

// Shutdown disconnects from the broker.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		p.client.Disconnect(250)
		p.client = nil
	}
	return nil
}

// HandleMeasurement publishes one reading on the state topic. It runs
// on the sampling goroutine, so the publish token is completed on a
// reaper goroutine; a stalled broker must not hold up readings.
func (p *Plugin) HandleMeasurement(event dockscale.MeasurementEvent) {
	p.mu.Lock()
	client := p.client
	topic := p.cfg.StateTopic
	timeout := p.cfg.PublishTimeout
	logger := p.logger
	p.mu.Unlock()

	if client == nil {
		return
	}

	payload := map[string]interface{}{
		"kilograms": event.Kilograms,
		"taken_at":  event.TakenAt.UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}

	token := client.Publish(topic, 0, false, b)
	go reapPublish(token, timeout, logger)
}

// reapPublish waits out one state publish and logs the outcome.
func reapPublish(token mqtt.Token, timeout time.Duration, logger dockscale.Logger) {
	if !token.WaitTimeout(timeout) {
		logger.Warn("MQTT mirror: publish timed out")
		return
	}
	if token.Error() != nil {
		logger.Error("MQTT mirror: publish failed")
	}
}

// discoveryPayload builds the retained discovery document for one dock.
func discoveryPayload(name, stateTopic, uniqueID string) map[string]interface{} {
	payload := map[string]interface{}{
		keyName:              name,
		keyStateTopic:        stateTopic,
		keyUnitOfMeasurement: unitKilograms,
		keyDeviceClass:       deviceClassWeight,
		keyStateClass:        stateClassMeasurement,
		keyValueTemplate:     valueTemplateWeight,
	}
	if uniqueID != "" {
		payload[keyUniqueID] = uniqueID
	}
	return payload
}

// publishJSON marshals and publishes a JSON payload, waiting at most
// timeout for the broker to take it.
func publishJSON(client mqtt.Client, topic string, retained bool, payload map[string]interface{}, timeout time.Duration) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	token := client.Publish(topic, 0, retained, b)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish %s: timeout after %s", topic, timeout)
	}
	return token.Error()
}

// Ensure Plugin implements both plugin interfaces.
var (
	_ dockscale.Plugin          = (*Plugin)(nil)
	_ dockscale.MeasurementSink = (*Plugin)(nil)
)
