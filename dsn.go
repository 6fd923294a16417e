// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	errInvalidDSNUnescaped = errors.New("invalid DSN: did you forget to escape a param value?")
	errInvalidDSNAddr      = errors.New("invalid DSN: network address not terminated (missing closing brace)")
	errInvalidDSNNoSlash   = errors.New("invalid DSN: missing the slash separating the database name")
)

// ParseDSN parses a `[user[:password]@][net[(addr)]]/dbname[?param=value&...]`
// DSN string into an Endpoint and Settings, the same shape the
// Endpoint/Settings model already speaks (spec 3, 4.9).
func ParseDSN(dsn string) (Endpoint, Settings, error) {
	var endpoint Endpoint
	settings := DefaultSettings()

	network := ""
	addr := ""

	foundSlash := false
	for i := len(dsn) - 1; i >= 0; i-- {
		if dsn[i] != '/' {
			continue
		}
		foundSlash = true
		var j, k int

		if i > 0 {
			for j = i; j >= 0; j-- {
				if dsn[j] == '@' {
					for k = 0; k < j; k++ {
						if dsn[k] == ':' {
							endpoint.Password = dsn[k+1 : j]
							break
						}
					}
					endpoint.Username = dsn[:k]
					break
				}
			}

			for k = j + 1; k < i; k++ {
				if dsn[k] == '(' {
					if dsn[i-1] != ')' {
						if strings.ContainsRune(dsn[k+1:i], ')') {
							return Endpoint{}, Settings{}, errInvalidDSNUnescaped
						}
						return Endpoint{}, Settings{}, errInvalidDSNAddr
					}
					addr = dsn[k+1 : i-1]
					break
				}
			}
			network = dsn[j+1 : k]
		}

		for j = i + 1; j < len(dsn); j++ {
			if dsn[j] == '?' {
				if err := parseDSNParams(&endpoint, &settings, dsn[j+1:]); err != nil {
					return Endpoint{}, Settings{}, err
				}
				break
			}
		}
		endpoint.Database = dsn[i+1 : j]
		break
	}

	if !foundSlash && len(dsn) > 0 {
		return Endpoint{}, Settings{}, errInvalidDSNNoSlash
	}

	if network == "" {
		network = "tcp"
	}

	switch network {
	case "unix":
		if addr == "" {
			addr = "/tmp/mysql.sock"
		}
		endpoint.IsUnixSocket = true
		endpoint.Host = addr
	case "tcp":
		if addr == "" {
			addr = "127.0.0.1:3306"
		}
		host, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			return Endpoint{}, Settings{}, fmt.Errorf("invalid DSN address %q: %w", addr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Endpoint{}, Settings{}, fmt.Errorf("invalid DSN port %q: %w", portStr, err)
		}
		endpoint.Host, endpoint.Port = host, port
	default:
		return Endpoint{}, Settings{}, fmt.Errorf("unsupported DSN network %q", network)
	}

	return endpoint, settings.resolve(), nil
}

// parseDSNParams parses the DSN query string; recognized names map
// onto Endpoint/Settings, everything else is ignored (no config-file
// layer exists for arbitrary connection attributes, per SPEC_FULL.md
// section B).
func parseDSNParams(endpoint *Endpoint, settings *Settings, params string) error {
	for _, kv := range strings.Split(params, "&") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name, value := parts[0], parts[1]

		switch name {
		case "allowCleartextPasswords":
			b, ok := readBool(value)
			if !ok {
				return fmt.Errorf("invalid bool value: %s", value)
			}
			settings.AllowCleartextPasswords = b

		case "strict":
			b, ok := readBool(value)
			if !ok {
				return fmt.Errorf("invalid bool value: %s", value)
			}
			settings.Strict = b

		case "debug":
			b, ok := readBool(value)
			if !ok {
				return fmt.Errorf("invalid bool value: %s", value)
			}
			settings.Debug = b

		case "collation":
			collation, ok := collations[value]
			if !ok {
				return fmt.Errorf("unknown collation %q", value)
			}
			settings.Collation = collation

		case "timeout":
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			settings.ConnectTimeout = d

		case "tls":
			b, isBool := readBool(value)
			switch {
			case isBool && b:
				endpoint.Secure = true
			case isBool:
				endpoint.Secure = false
			default:
				unescaped, err := url.QueryUnescape(value)
				if err != nil {
					return fmt.Errorf("invalid value for tls param: %w", err)
				}
				if strings.ToLower(unescaped) == "skip-verify" {
					endpoint.Secure = true
				}
			}
		}
	}
	return nil
}

func readBool(raw string) (value bool, valid bool) {
	switch raw {
	case "1", "true", "TRUE", "True":
		return true, true
	case "0", "false", "FALSE", "False":
		return false, true
	}
	return false, false
}

// collations maps the small set of collation names this client is
// likely to be asked for by name in a DSN to their protocol ids.
// utf8mb4Collation/defaultCollation (const.go) cover the two this
// client sets by default; others pass through numerically unknown
// and are rejected rather than guessed.
var collations = map[string]uint8{
	"utf8_general_ci":    defaultCollation,
	"utf8mb4_general_ci": utf8mb4Collation,
}
