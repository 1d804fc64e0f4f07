// Package config loads the TOML configuration snapshot for csi-ingestd.
//
// Loading is intentionally dumb: validation is limited to three required
// fields (message.port, message.csi_frame_size, influx.write_batch_size),
// there is no live reload, and no global mutable singleton. Load reads the file once at
// startup and hands back an immutable Config value that the caller passes
// by reference into the dispatcher, state map and sink — see spec.md §9
// ("Global configuration singleton").
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Buffer controls the per-sender correlation window.
type Buffer struct {
	WindowSize int `toml:"window_size"`
}

// Message controls the inbound UDP listener.
type Message struct {
	Address      string `toml:"address"`
	Port         uint16 `toml:"port"`
	CsiFrameSize int16  `toml:"csi_frame_size"`
}

// Influx controls the outbound time-series sink.
type Influx struct {
	Protocol                    string `toml:"protocol"`
	Address                     string `toml:"address"`
	Port                        int16  `toml:"port"`
	Database                    string `toml:"database"`
	WriteBatchSize              int    `toml:"write_batch_size"`
	CsiMetricsMeasurement       string `toml:"csi_metrics_measurement"`
	SensorTelemetryMeasurement  string `toml:"sensor_telemetry_measurement"`
	Token                       string `toml:"token"`
	Org                         string `toml:"org"`
}

// Metrics controls the optional, off-by-default Prometheus endpoint.
// Not part of the distilled spec; see SPEC_FULL.md Supplemented features.
type Metrics struct {
	ListenAddress string `toml:"listen_address"`
}

// Config is the complete, immutable configuration snapshot for a run.
type Config struct {
	Buffer  Buffer  `toml:"buffer"`
	Message Message `toml:"message"`
	Influx  Influx  `toml:"influx"`
	Metrics Metrics `toml:"metrics"`
}

// URL returns the InfluxDB base URL built from the Influx section.
func (c *Config) URL() string {
	return fmt.Sprintf("%s://%s:%d", c.Influx.Protocol, c.Influx.Address, c.Influx.Port)
}

// Load reads and parses the TOML file at path. Any failure is fatal to the
// caller's startup sequence (spec.md §6: "Exit code: Non-zero on any fatal
// startup failure (config missing, bind failure)"); Load itself only
// returns the error, the caller decides how to exit.
func Load(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[CONFIG]> could not read %q: %w", path, err)
	}

	var cfg Config
	if _, err := toml.Decode(string(contents), &cfg); err != nil {
		return nil, fmt.Errorf("[CONFIG]> could not parse %q: %w", path, err)
	}

	if cfg.Message.Port == 0 {
		return nil, fmt.Errorf("[CONFIG]> message.port must be set")
	}
	if cfg.Message.CsiFrameSize <= 0 {
		return nil, fmt.Errorf("[CONFIG]> message.csi_frame_size must be positive")
	}
	if cfg.Influx.WriteBatchSize <= 0 {
		return nil, fmt.Errorf("[CONFIG]> influx.write_batch_size must be positive")
	}

	return &cfg, nil
}
