package libevents

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// BridgeConfig configures a bridge Server and Client.
//
//	listen: 127.0.0.1:8089
//	path: /events
//	read_limit: 65536
//	keep_alive: 15s
//	handshake_timeout: 5s
//	dial_attempts: 5
type BridgeConfig struct {
	// Listen is the server's listen address and the client's target host.
	Listen string `yaml:"listen"`
	// Path is the URL path the websocket endpoint is served on.
	Path string `yaml:"path"`
	// ReadLimit caps the size in bytes of a single frame. Zero means no limit.
	ReadLimit int64 `yaml:"read_limit"`
	// KeepAlive is the client's ping interval. Zero disables pings.
	KeepAlive time.Duration `yaml:"keep_alive"`
	// HandshakeTimeout bounds the websocket handshake on both sides.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	// DialAttempts is how many times the client dials before giving up.
	DialAttempts int `yaml:"dial_attempts"`
}

func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		Listen:           "127.0.0.1:8089",
		Path:             "/events",
		ReadLimit:        64 << 10,
		KeepAlive:        15 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		DialAttempts:     5,
	}
}

// URL returns the websocket URL a client should dial.
func (c BridgeConfig) URL() string {
	return "ws://" + c.Listen + c.Path
}

func (c BridgeConfig) Validate() error {
	switch {
	case c.Listen == "":
		return errors.New("bridge config: listen is required")
	case !strings.HasPrefix(c.Path, "/"):
		return errors.Errorf("bridge config: path %q must start with /", c.Path)
	case c.ReadLimit < 0:
		return errors.New("bridge config: read_limit must not be negative")
	case c.KeepAlive < 0:
		return errors.New("bridge config: keep_alive must not be negative")
	case c.HandshakeTimeout < 0:
		return errors.New("bridge config: handshake_timeout must not be negative")
	case c.DialAttempts < 1:
		return errors.New("bridge config: dial_attempts must be at least 1")
	}
	return nil
}

// ParseBridgeConfig reads YAML on top of DefaultBridgeConfig and validates it.
func ParseBridgeConfig(data []byte) (BridgeConfig, error) {
	cfg := DefaultBridgeConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return BridgeConfig{}, errors.Wrap(err, "bridge config: cannot parse yaml")
	}
	if err := cfg.Validate(); err != nil {
		return BridgeConfig{}, err
	}
	return cfg, nil
}

func LoadBridgeConfig(path string) (BridgeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BridgeConfig{}, errors.Wrapf(err, "bridge config: cannot read %s", path)
	}
	return ParseBridgeConfig(data)
}
