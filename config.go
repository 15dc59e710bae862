package naseps

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/epsnet/naseps/internal/nas"
	"github.com/epsnet/naseps/internal/security"
)

var (
	ErrBadKeyLength = errors.New("naseps: ciphering key must be 16 bytes")
	ErrBadDirection = errors.New("naseps: direction must be uplink or downlink")
)

// Config is the per-call decode configuration. Build it once at
// startup and reuse it; Decode treats it as read-only, so one Config
// is safe to share across concurrent decodes.
type Config struct {
	// Key is the 128-bit NAS ciphering key. Leave nil to decode
	// without deciphering; protected bodies then surface as opaque
	// ciphered spans.
	Key []byte

	// Direction is the link direction of the captured traffic, used
	// in the decipher counter block.
	Direction Direction

	// ForcePlain skips the decipher engine and decodes protected
	// bodies as plaintext.
	ForcePlain bool

	// Handoff, when set, receives container payloads that carry
	// another registered protocol (SMS, NBIFOM).
	Handoff Handoff

	// Sink, when set, receives every decoded element in wire order.
	Sink Sink
}

// Validate checks the key length. A nil key is valid.
func (c Config) Validate() error {
	if len(c.Key) != 0 && len(c.Key) != security.KeySize {
		return fmt.Errorf("%w: got %d", ErrBadKeyLength, len(c.Key))
	}
	return nil
}

func (c Config) engine() nas.Config {
	return nas.Config{
		Key:        c.Key,
		Direction:  c.Direction,
		ForcePlain: c.ForcePlain,
		Handoff:    c.Handoff,
		Sink:       c.Sink,
	}
}

type fileConfig struct {
	Key        string `toml:"key"`
	Direction  string `toml:"direction"`
	ForcePlain bool   `toml:"force_plain"`
}

// LoadConfig reads a decode configuration from a TOML file. The key is
// hex encoded; direction is "uplink" or "downlink".
func LoadConfig(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load decode config: %w", err)
	}

	var cfg Config
	if meta.IsDefined("key") {
		s := strings.TrimSpace(raw.Key)
		if s != "" {
			key, err := hex.DecodeString(s)
			if err != nil {
				return Config{}, fmt.Errorf("parse key: %w", err)
			}
			cfg.Key = key
		}
	}
	if meta.IsDefined("direction") {
		switch strings.ToLower(strings.TrimSpace(raw.Direction)) {
		case "", "uplink", "ul":
			cfg.Direction = DirectionUplink
		case "downlink", "dl":
			cfg.Direction = DirectionDownlink
		default:
			return Config{}, fmt.Errorf("%w: %q", ErrBadDirection, raw.Direction)
		}
	}
	if meta.IsDefined("force_plain") {
		cfg.ForcePlain = raw.ForcePlain
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
