// Package config holds the settings of the driver, from defaults,
// environment, command line flags and an optional YAML file.
package config

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/genesis.go/pkg/env"
	"github.com/robotalks/genesis.go/pkg/genesis/comm"
	"github.com/robotalks/genesis.go/pkg/genesis/device"
	"github.com/robotalks/genesis.go/pkg/genesis/frame"
	"github.com/robotalks/genesis.go/pkg/genesis/liha"
	"github.com/robotalks/genesis.go/pkg/genesis/roma"
	"github.com/robotalks/genesis.go/pkg/genesis/serial"
)

// DefaultCloseDelay is the wait before closing for the instrument to
// finish pending acknowledgments.
const DefaultCloseDelay = 2 * time.Second

// Config defines the configuration of the driver.
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Protocol ProtocolConfig `yaml:"protocol"`
	LiHa     LiHaConfig     `yaml:"liha"`
	RoMa     RoMaConfig     `yaml:"roma"`
	Trace    TraceConfig    `yaml:"trace"`

	CloseDelay time.Duration `yaml:"close_delay"`
	// Simulate uses the built-in simulator instead of the serial port.
	Simulate bool `yaml:"simulate"`
}

// SerialConfig is the serial line.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
	// ReadTimeout is the wait for a reply frame.
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// ProtocolConfig tunes the transport.
type ProtocolConfig struct {
	Channels      string `yaml:"channels"`
	GroupChannel  string `yaml:"group_channel"`
	ChannelOffset int    `yaml:"channel_offset"`
}

// LiHaConfig configures the liquid handling arm.
type LiHaConfig struct {
	Device       string            `yaml:"device"`
	MinimumPitch int               `yaml:"minimum_pitch"`
	WashStation  WashStationConfig `yaml:"wash_station"`
}

// WashStationConfig locates the wash station.
type WashStationConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Z      float64 `yaml:"z"`
	AirGap float64 `yaml:"air_gap,omitempty"`
}

// RoMaConfig configures the plate gripping arm.
type RoMaConfig struct {
	Device string `yaml:"device"`
}

// TraceConfig enables publishing frames to MQTT.
type TraceConfig struct {
	// MQTTURL is the broker, e.g. mqtt://host:port/topic-prefix.
	// Empty disables tracing.
	MQTTURL      string `yaml:"mqtt_url,omitempty"`
	InstrumentID string `yaml:"instrument_id,omitempty"`
}

var (
	defaultConfig = Config{
		Serial: SerialConfig{
			Baud:        serial.DefaultBaud,
			ReadTimeout: comm.DefaultReadTimeout,
		},
		Protocol: ProtocolConfig{
			Channels:      comm.DefaultChannels,
			GroupChannel:  string(comm.DefaultGroupChannel),
			ChannelOffset: frame.ChannelOffset,
		},
		LiHa: LiHaConfig{
			Device:       liha.DefaultDevice,
			MinimumPitch: liha.DefaultMinimumPitch,
			WashStation: WashStationConfig{
				X: float64(liha.DefaultWashStation.X),
				Y: float64(liha.DefaultWashStation.Y),
				Z: float64(liha.DefaultWashStation.Z),
			},
		},
		RoMa:       RoMaConfig{Device: roma.DefaultDevice},
		CloseDelay: DefaultCloseDelay,
	}

	defaultPath string
)

func init() {
	if val := os.Getenv("GENESIS_PORT"); val != "" {
		defaultConfig.Serial.Port = val
	}
	if val := os.Getenv("GENESIS_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			defaultConfig.Serial.Baud = baud
		}
	}
	if val := os.Getenv("GENESIS_MQTT_URL"); val != "" {
		defaultConfig.Trace.MQTTURL = val
	}
	defaultPath = os.Getenv("GENESIS_CONFIG")
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultPath, "config", defaultPath, "YAML configuration file.")
	flag.StringVar(&defaultConfig.Serial.Port, "port", defaultConfig.Serial.Port, "Serial port of the instrument.")
	flag.IntVar(&defaultConfig.Serial.Baud, "baud", defaultConfig.Serial.Baud, "Baud rate.")
	flag.DurationVar(&defaultConfig.Serial.ReadTimeout, "read-timeout", defaultConfig.Serial.ReadTimeout, "Wait for a reply frame.")
	flag.StringVar(&defaultConfig.Trace.MQTTURL, "mqtt", defaultConfig.Trace.MQTTURL, "MQTT broker URL for frame tracing.")
	flag.StringVar(&defaultConfig.Trace.InstrumentID, "id", defaultConfig.Trace.InstrumentID, "Instrument ID in trace topics, defaults to machine ID.")
	flag.BoolVar(&defaultConfig.Simulate, "sim", defaultConfig.Simulate, "Use the simulator instead of the serial port.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Path returns the configuration file from flags or environment.
func Path() string {
	return defaultPath
}

// LoadDefault loads the file from Path over the defaults,
// or returns the defaults if no file is specified.
func LoadDefault() (*Config, error) {
	if defaultPath == "" {
		conf := NewConfig()
		return conf, conf.Validate()
	}
	return Load(defaultPath)
}

// Load reads a YAML file over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	conf := NewConfig()
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return conf, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return ioutil.WriteFile(path, data, 0644)
}

// Validate checks the values.
func (c *Config) Validate() error {
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Serial.Baud)
	}
	if c.Protocol.Channels == "" {
		return fmt.Errorf("no channels")
	}
	if len(c.Protocol.GroupChannel) != 1 {
		return fmt.Errorf("group channel must be a single character: %q", c.Protocol.GroupChannel)
	}
	if c.Protocol.ChannelOffset <= 0 {
		return fmt.Errorf("invalid channel offset %d", c.Protocol.ChannelOffset)
	}
	for _, dev := range []string{c.LiHa.Device, c.RoMa.Device} {
		if len(dev) != 2 {
			return fmt.Errorf("device address must be 2 characters: %q", dev)
		}
	}
	if c.LiHa.MinimumPitch < 0 {
		return fmt.Errorf("invalid minimum pitch %d", c.LiHa.MinimumPitch)
	}
	if _, err := c.WashStation(); err != nil {
		return err
	}
	return nil
}

// GroupChannel returns the group channel token.
func (c *Config) GroupChannel() byte {
	if len(c.Protocol.GroupChannel) == 0 {
		return comm.DefaultGroupChannel
	}
	return c.Protocol.GroupChannel[0]
}

// WashStation converts the wash station, coordinates must be integral.
func (c *Config) WashStation() (liha.WashStation, error) {
	var (
		ws  liha.WashStation
		err error
	)
	cfg := c.LiHa.WashStation
	if ws.X, err = device.Integral("wash station x", cfg.X); err != nil {
		return ws, err
	}
	if ws.Y, err = device.Integral("wash station y", cfg.Y); err != nil {
		return ws, err
	}
	if ws.Z, err = device.Integral("wash station z", cfg.Z); err != nil {
		return ws, err
	}
	if cfg.AirGap < 0 {
		return ws, &device.ValidationError{Field: "air gap", Value: cfg.AirGap, Reason: "must not be negative"}
	}
	ws.AirGap = cfg.AirGap
	return ws, nil
}

// SerialPort returns the serial port configuration.
func (c *Config) SerialPort() *serial.Config {
	return serial.DefaultConfig(c.Serial.Port).WithBaud(c.Serial.Baud)
}

// InstrumentID returns the ID used in trace topics.
func (c *Config) InstrumentID() string {
	if c.Trace.InstrumentID != "" {
		return c.Trace.InstrumentID
	}
	return env.MachineID()
}
