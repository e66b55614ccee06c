// Package config holds the engine and CLI configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/TheusHen/ctxcrypt/ctxcrypt"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/ecc"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/pkcs1"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/sealed"
)

// Config is the top-level configuration.
type Config struct {
	Features Features `yaml:"features"`

	// Curves enabled for ECDH and ECDSA. Empty enables every curve with a backend.
	Curves []string `yaml:"curves"`

	// Personalization string mixed into the random generator seed.
	Personalization string `yaml:"personalization"`

	// Digest used by RSA sign/verify when the call names none.
	DefaultHash string `yaml:"default_hash"`

	Sealed Sealed `yaml:"sealed"`

	// Logging: debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// Features switches whole algorithm families on or off.
type Features struct {
	RC4              bool `yaml:"rc4"`
	RSA              bool `yaml:"rsa"`
	ChaCha20Poly1305 bool `yaml:"chacha20poly1305"`
}

// Sealed mirrors sealed.Options.
type Sealed struct {
	ChunkSize    int  `yaml:"chunk_size"`
	Compression  bool `yaml:"compression"`
	DataShards   int  `yaml:"data_shards"`
	ParityShards int  `yaml:"parity_shards"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Features: Features{
			RC4:              true,
			RSA:              true,
			ChaCha20Poly1305: true,
		},
		Personalization: ctxcrypt.DefaultPersonalization,
		DefaultHash:     pkcs1.DefaultDigest.String(),
		Sealed: Sealed{
			ChunkSize:    sealed.DefaultChunkSize,
			Compression:  true,
			DataShards:   0,
			ParityShards: 0,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file on top of DefaultConfig and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks names and ranges.
func (c *Config) Validate() error {
	for _, name := range c.Curves {
		curve, err := ecc.ParseCurve(name)
		if err != nil {
			return fmt.Errorf("unknown curve %q", name)
		}
		if !curve.Available() {
			return fmt.Errorf("curve %q has no backend", name)
		}
	}
	if _, err := pkcs1.ParseDigest(c.DefaultHash); err != nil {
		return fmt.Errorf("unknown default_hash %q", c.DefaultHash)
	}
	if err := c.SealedOptions().Validate(); err != nil {
		return err
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error (got %q)", c.LogLevel)
	}
	return nil
}

// Options converts the configuration into engine options. Logger and
// entropy are left for the caller.
func (c *Config) Options() (ctxcrypt.Options, error) {
	opts := ctxcrypt.Options{
		DisableRC4:              !c.Features.RC4,
		DisableRSA:              !c.Features.RSA,
		DisableChaCha20Poly1305: !c.Features.ChaCha20Poly1305,
		DefaultDigest:           c.DefaultHash,
		Personalization:         []byte(c.Personalization),
	}
	for _, name := range c.Curves {
		curve, err := ecc.ParseCurve(name)
		if err != nil {
			return ctxcrypt.Options{}, err
		}
		opts.Curves = append(opts.Curves, curve)
	}
	return opts, nil
}

// SealedOptions converts the sealed section.
func (c *Config) SealedOptions() sealed.Options {
	return sealed.Options{
		ChunkSize:    c.Sealed.ChunkSize,
		Compression:  c.Sealed.Compression,
		DataShards:   c.Sealed.DataShards,
		ParityShards: c.Sealed.ParityShards,
	}
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}

	return nil
}
