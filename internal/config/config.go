// Package config holds the two file formats the cmd/ binaries load:
// the JSON server directory the teacher's cmd/notary reads (rebuilt
// here since the teacher's internal/config package was not itself
// retrieved — see DESIGN.md), and a TOML server-operation config for
// cmd/roughtime-server.
package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/BurntSushi/toml"
)

// ServersJSON is the well-known Roughtime server directory format
// published by roughtime.se and Cloudflare: a flat list of servers,
// each with a base64 long-term public key and one or more transport
// addresses.
type ServersJSON struct {
	Servers []Server `json:"servers"`
}

// Server is one entry in a ServersJSON directory.
type Server struct {
	Name          string    `json:"name"`
	PublicKeyType string    `json:"publicKeyType"`
	PublicKey     string    `json:"publicKey"` // base64-encoded, 32 bytes
	Addresses     []Address `json:"addresses"`
}

// Address is one transport endpoint for a Server.
type Address struct {
	Protocol string `json:"protocol"`
	Address  string `json:"address"`
}

// DecodedPublicKey base64-decodes s.PublicKey and validates its length.
func (s Server) DecodedPublicKey() ([32]byte, error) {
	var out [32]byte
	raw, err := base64.StdEncoding.DecodeString(s.PublicKey)
	if err != nil {
		return out, fmt.Errorf("config: server %q: %w", s.Name, err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("config: server %q: public key must be 32 bytes, got %d", s.Name, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// ReadServersJSON decodes a ServersJSON directory from r, matching the
// teacher's ReadServersJSON call shape (cmd/notary/main.go).
func ReadServersJSON(r io.Reader) (*ServersJSON, error) {
	var sj ServersJSON
	if err := json.NewDecoder(r).Decode(&sj); err != nil {
		return nil, fmt.Errorf("config: decoding servers.json: %w", err)
	}
	return &sj, nil
}

// ServerConfig is cmd/roughtime-server's operational configuration:
// the listen address, the mint validity window and the anti-
// amplification floor spec.md §6 and §4.12 describe as deployer-chosen
// policy.
type ServerConfig struct {
	ListenAddr    string        `toml:"listen_addr"`
	MintValidity  time.Duration `toml:"mint_validity"`
	MinMsgSize    int           `toml:"min_msg_size"`
	Radius        time.Duration `toml:"radius"`
	BatchWindow   time.Duration `toml:"batch_window"`
	LongtermSeed  string        `toml:"longterm_seed_hex"`
}

// DefaultServerConfig matches this spec's defaults: a one-hour mint
// window, the 1012-byte message floor (so the framed packet is >=
// 1024, spec.md §6), the 10-second policy radius and a 100ms batching
// window.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:   ":2002",
		MintValidity: time.Hour,
		MinMsgSize:   1012,
		Radius:       10 * time.Second,
		BatchWindow:  100 * time.Millisecond,
	}
}

// ReadServerConfig decodes a TOML ServerConfig from r, starting from
// DefaultServerConfig so an incomplete file still produces sane
// defaults for anything it omits.
func ReadServerConfig(r io.Reader) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if _, err := toml.DecodeReader(r, &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("config: decoding server config: %w", err)
	}
	return cfg, nil
}
