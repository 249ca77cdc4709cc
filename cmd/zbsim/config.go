// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// Config is the on-disk zbsim.json shape: a plain struct loaded with
// encoding/json, no flags/viper framework.
type Config struct {
	IeeeAddress    string   `json:"ieee_address"`
	ExtendedPanID  string   `json:"extended_panid"`
	Channels       []uint8  `json:"channels"`
	ScanDuration   uint8    `json:"scan_duration"`
	NetworkKey     string   `json:"network_key"`
	TapDevice      string   `json:"tap_device,omitempty"`
	DebugLevel     int      `json:"debug_level"`
}

// loadConfig reads and parses jsonFile into a Config.
func loadConfig(jsonFile string) (*Config, error) {
	data, err := os.ReadFile(jsonFile)
	if err != nil {
		return nil, fmt.Errorf("zbsim: read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("zbsim: parse config: %w", err)
	}
	return &cfg, nil
}

// parseHexKey decodes a 32-character hex string into a 16-byte key.
func parseHexKey(s string) ([16]byte, error) {
	var key [16]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return key, fmt.Errorf("zbsim: bad key hex: %w", err)
	}
	if len(raw) != 16 {
		return key, fmt.Errorf("zbsim: key must be 16 bytes, got %d", len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

func parseHexU64(s string) (uint64, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	return v, nil
}
