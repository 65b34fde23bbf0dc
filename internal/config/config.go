// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package config loads the Instept client configuration from embedded YAML
// defaults overridden by INSTEPT_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Backend is the configuration for the extraction backend.
type Backend struct {
	// URL is the base URL of the backend.
	URL string `koanf:"url"`
}

// Google is the configuration for Google Cloud access.
type Google struct {
	// Project is the GCP project holding the Firestore database.
	Project string `koanf:"project"`
}

// Cache is the configuration for the image cache.
type Cache struct {
	// Dir is the on-disk cache directory. Empty means a per-user default
	// under the OS cache directory.
	Dir string `koanf:"dir"`
}

// Listen is the configuration for the push webhook listener.
type Listen struct {
	// Address is the address to serve the listener on.
	Address string `koanf:"address"`
}

// User identifies the signed-in user.
type User struct {
	// ID is the user's document ID in the users collection.
	ID string `koanf:"id"`
}

type Config struct {
	Backend  Backend `koanf:"backend"`
	Google   Google  `koanf:"google"`
	Cache    Cache   `koanf:"cache"`
	Listen   Listen  `koanf:"listen"`
	User     User    `koanf:"user"`
	Language string  `koanf:"language"`
}

// Load parses defaults as YAML and applies INSTEPT_* environment overrides,
// e.g. INSTEPT_BACKEND_URL for backend.url.
func Load(defaults []byte) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(defaults), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("config: loading default config: %w", err)
	}
	if err := k.Load(env.Provider("INSTEPT_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "INSTEPT_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment config: %w", err)
	}

	var conf Config
	if err := k.Unmarshal("", &conf); err != nil {
		return nil, fmt.Errorf("config: unmarshalling config: %w", err)
	}

	if conf.Cache.Dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolving user cache directory: %w", err)
		}
		conf.Cache.Dir = filepath.Join(base, "instept", "images")
	}
	return &conf, nil
}

// DeviceToken returns the stable token identifying this installation to the
// backend's push delivery, creating and persisting one under dir on first
// use.
func DeviceToken(dir string) (string, error) {
	path := filepath.Join(dir, "device-token")
	if tok, err := os.ReadFile(path); err == nil {
		return strings.TrimSpace(string(tok)), nil
	}
	tok := uuid.NewString()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("config: creating token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(tok), 0o600); err != nil {
		return "", fmt.Errorf("config: persisting device token: %w", err)
	}
	return tok, nil
}
