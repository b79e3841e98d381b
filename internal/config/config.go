// go-siterm
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-siterm.
//
// go-siterm is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-siterm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-siterm; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package config loads the TOML configuration shared by the commands.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"periph.io/x/conn/v3/physic"

	siterm "github.com/ZaparooProject/go-siterm"
	"github.com/ZaparooProject/go-siterm/client"
	"github.com/ZaparooProject/go-siterm/handlers"
	"github.com/ZaparooProject/go-siterm/protocol"
)

// Endpoint kinds accepted in [device] endpoint
const (
	EndpointPTY  = "pty"
	EndpointUART = "uart"
)

// Device configures the device runtime
type Device struct {
	Endpoint   string
	Port       string
	Link       string
	I2CBus     string
	EchoPrefix string
	LogLevel   string
	Machine    siterm.MachineConfig
	Baud       int
	I2CSpeedHz int64
	Brightness uint8
}

// Host configures the host CLI
type Host struct {
	Port             string
	LogLevel         string
	Baud             int
	HandshakeTimeout time.Duration
	ResponseTimeout  time.Duration
}

// Config is the whole configuration file
type Config struct {
	Device Device
	Host   Host
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Device: Device{
			Endpoint:   EndpointPTY,
			Baud:       client.DefaultBaudRate,
			EchoPrefix: handlers.DefaultEchoPrefix,
			I2CSpeedHz: int64(handlers.DefaultBusSpeed / physic.Hertz),
			Brightness: 255,
			LogLevel:   "info",
			Machine:    *siterm.DefaultMachineConfig(),
		},
		Host: Host{
			Baud:             client.DefaultBaudRate,
			HandshakeTimeout: protocol.HandshakeTimeout,
			ResponseTimeout:  client.DefaultResponseTimeout,
			LogLevel:         "warn",
		},
	}
}

type fileDevice struct {
	Endpoint           string `toml:"endpoint"`
	Port               string `toml:"port"`
	Link               string `toml:"link"`
	I2CBus             string `toml:"i2c_bus"`
	EchoPrefix         string `toml:"echo_prefix"`
	LogLevel           string `toml:"log_level"`
	HandshakeTimeout   string `toml:"handshake_timeout"`
	WriteRetryTimeout  string `toml:"write_retry_timeout"`
	WriteRetryInterval string `toml:"write_retry_interval"`
	StatusPollInterval string `toml:"status_poll_interval"`
	Baud               int    `toml:"baud"`
	I2CSpeedHz         int64  `toml:"i2c_speed_hz"`
	Brightness         int    `toml:"brightness"`
}

type fileHost struct {
	Port             string `toml:"port"`
	LogLevel         string `toml:"log_level"`
	HandshakeTimeout string `toml:"handshake_timeout"`
	ResponseTimeout  string `toml:"response_timeout"`
	Baud             int    `toml:"baud"`
}

type fileConfig struct {
	Device fileDevice `toml:"device"`
	Host   fileHost   `toml:"host"`
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}
	return apply(Default(), raw, meta)
}

// Decode parses TOML text over the defaults
func Decode(text string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(text, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return apply(Default(), raw, meta)
}

func apply(cfg Config, raw fileConfig, meta toml.MetaData) (Config, error) {
	dev := &cfg.Device
	if meta.IsDefined("device", "endpoint") {
		dev.Endpoint = strings.ToLower(strings.TrimSpace(raw.Device.Endpoint))
	}
	if meta.IsDefined("device", "port") {
		dev.Port = strings.TrimSpace(raw.Device.Port)
	}
	if meta.IsDefined("device", "link") {
		dev.Link = strings.TrimSpace(raw.Device.Link)
	}
	if meta.IsDefined("device", "i2c_bus") {
		dev.I2CBus = strings.TrimSpace(raw.Device.I2CBus)
	}
	if meta.IsDefined("device", "echo_prefix") {
		dev.EchoPrefix = raw.Device.EchoPrefix
	}
	if meta.IsDefined("device", "log_level") {
		dev.LogLevel = strings.TrimSpace(raw.Device.LogLevel)
	}
	if meta.IsDefined("device", "baud") {
		dev.Baud = raw.Device.Baud
	}
	if meta.IsDefined("device", "i2c_speed_hz") {
		dev.I2CSpeedHz = raw.Device.I2CSpeedHz
	}
	if meta.IsDefined("device", "brightness") {
		if raw.Device.Brightness < 0 || raw.Device.Brightness > 255 {
			return Config{}, fmt.Errorf("brightness must be 0-255, got %d", raw.Device.Brightness)
		}
		dev.Brightness = uint8(raw.Device.Brightness)
	}

	durations := []struct {
		dst  *time.Duration
		key  string
		text string
	}{
		{&dev.Machine.HandshakeTimeout, "handshake_timeout", raw.Device.HandshakeTimeout},
		{&dev.Machine.WriteRetryTimeout, "write_retry_timeout", raw.Device.WriteRetryTimeout},
		{&dev.Machine.WriteRetryInterval, "write_retry_interval", raw.Device.WriteRetryInterval},
		{&dev.Machine.StatusPollInterval, "status_poll_interval", raw.Device.StatusPollInterval},
	}
	for _, d := range durations {
		if !meta.IsDefined("device", d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.text))
		if err != nil {
			return Config{}, fmt.Errorf("parse device.%s: %w", d.key, err)
		}
		*d.dst = v
	}

	host := &cfg.Host
	if meta.IsDefined("host", "port") {
		host.Port = strings.TrimSpace(raw.Host.Port)
	}
	if meta.IsDefined("host", "log_level") {
		host.LogLevel = strings.TrimSpace(raw.Host.LogLevel)
	}
	if meta.IsDefined("host", "baud") {
		host.Baud = raw.Host.Baud
	}
	if meta.IsDefined("host", "handshake_timeout") {
		v, err := time.ParseDuration(strings.TrimSpace(raw.Host.HandshakeTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse host.handshake_timeout: %w", err)
		}
		host.HandshakeTimeout = v
	}
	if meta.IsDefined("host", "response_timeout") {
		v, err := time.ParseDuration(strings.TrimSpace(raw.Host.ResponseTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse host.response_timeout: %w", err)
		}
		host.ResponseTimeout = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values the commands cannot run with
func (c Config) Validate() error {
	var errs []error
	switch c.Device.Endpoint {
	case EndpointPTY:
	case EndpointUART:
		if c.Device.Port == "" {
			errs = append(errs, errors.New("device.port is required for the uart endpoint"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown device.endpoint %q", c.Device.Endpoint))
	}
	if c.Device.Baud <= 0 {
		errs = append(errs, fmt.Errorf("device.baud must be positive, got %d", c.Device.Baud))
	}
	if c.Host.Baud <= 0 {
		errs = append(errs, fmt.Errorf("host.baud must be positive, got %d", c.Host.Baud))
	}
	if c.Host.HandshakeTimeout <= 0 || c.Host.ResponseTimeout <= 0 {
		errs = append(errs, errors.New("host timeouts must be positive"))
	}
	if err := c.Device.Machine.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("device: %w", err))
	}
	return errors.Join(errs...)
}

// I2CSpeed returns the configured bus clock
func (d Device) I2CSpeed() physic.Frequency {
	return physic.Frequency(d.I2CSpeedHz) * physic.Hertz
}
