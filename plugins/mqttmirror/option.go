package mqttmirror

import "github.com/harborlabs/dockscale"

// WithMQTTMirror returns a dockscale Option that enables MQTT mirroring.
// When enabled, every weight reading is republished as JSON on the state
// topic, so local consumers like Home Assistant see readings without
// going through the cloud store.
//
// Usage:
//
//	d, err := dockscale.New(cfg,
//	    mqttmirror.WithMQTTMirror(mqttmirror.Config{
//	        BrokerURL:      "tcp://localhost:1883",
//	        DiscoveryTopic: "homeassistant/sensor/dock7/config",
//	    }),
//	)
func WithMQTTMirror(cfg Config) dockscale.Option {
	plugin := New(cfg)
	return dockscale.WithPlugin(plugin)
}
