// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

import (
	"crypto/tls"
	"time"
)

// Endpoint is the immutable address a Conn dials (spec 3).
type Endpoint struct {
	Host         string
	Port         int // defaults to 3306
	Database     string
	Username     string
	Password     string
	IsUnixSocket bool
	Secure       bool // require a TLS upgrade
}

func (e Endpoint) withDefaults() Endpoint {
	if e.Port == 0 {
		e.Port = defaultPort
	}
	return e
}

// Settings merges user-provided tuning knobs with the defaults named
// throughout spec sections 5, 6 and 9 (spec 4.9's "Parameter/session
// settings resolution").
type Settings struct {
	ConnectTimeout time.Duration // spec 5: default 15s
	MaxPacketSize  int           // spec 3: default 50 MiB
	Collation      uint8         // spec 6: default 33 (utf8_general_ci)
	TLSConfig      *tls.Config   // nil means accept whatever the default produces

	AllowCleartextPasswords bool // explicit opt-in; the plugin itself is still unsupported (spec 1 Non-goals)
	Strict                  bool // escalate SHOW WARNINGS to an error after a command (teacher's "strict" mode)
	Debug                   bool // trace each query / statement execute sent through Logger

	// Dial overrides the default net.Dialer-based connector. Replaces
	// the teacher's global RegisterDial map with a per-Settings hook,
	// since the transport is an external collaborator per spec 1.
	Dial func(network, addr string) (Transport, error)
}

var defaultInsecureTLSConfig = &tls.Config{InsecureSkipVerify: true}

// DefaultSettings returns the spec's default tuning (spec 5, 6).
func DefaultSettings() Settings {
	return Settings{
		ConnectTimeout: 15 * time.Second,
		MaxPacketSize:  maxPayloadSize,
		Collation:      defaultCollation,
	}
}

// resolve merges s over DefaultSettings(), leaving explicitly-set
// zero values (e.g. a Settings{} literal) defaulted. This is spec
// 4.9's "merge user-provided settings with defaults".
func (s Settings) resolve() Settings {
	out := DefaultSettings()
	if s.ConnectTimeout > 0 {
		out.ConnectTimeout = s.ConnectTimeout
	}
	if s.MaxPacketSize > 0 {
		out.MaxPacketSize = s.MaxPacketSize
	}
	if s.Collation > 0 {
		out.Collation = s.Collation
	}
	out.TLSConfig = s.TLSConfig
	if out.TLSConfig == nil {
		// spec 4.3: "Untrusted certificates are accepted (the client is
		// a library; callers configure trust via the transport if they
		// need verification)". A shared pointer, not a fresh Config per
		// call, so two defaulted Settings still compare equal for pool
		// matching (pool.go's settingsMatch).
		out.TLSConfig = defaultInsecureTLSConfig
	}
	out.AllowCleartextPasswords = s.AllowCleartextPasswords
	out.Strict = s.Strict
	out.Debug = s.Debug
	out.Dial = s.Dial
	return out
}

// PoolSettings configures the bounded connection pool (spec 4.9).
type PoolSettings struct {
	MaxConnectionCount int           // default 1
	MaxConnectionAge   time.Duration // default 12h
	MaxSessionUse       time.Duration // default 4h
}

func (p PoolSettings) resolve() PoolSettings {
	if p.MaxConnectionCount <= 0 {
		p.MaxConnectionCount = 1
	}
	if p.MaxConnectionAge <= 0 {
		p.MaxConnectionAge = 12 * time.Hour
	}
	if p.MaxSessionUse <= 0 {
		p.MaxSessionUse = 4 * time.Hour
	}
	return p
}
