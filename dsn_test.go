// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

import "testing"

func TestParseDSNBasic(t *testing.T) {
	endpoint, settings, err := ParseDSN("user:pass@tcp(127.0.0.1:3307)/testdb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if endpoint.Username != "user" || endpoint.Password != "pass" {
		t.Errorf("got user=%q pass=%q, want user=%q pass=%q", endpoint.Username, endpoint.Password, "user", "pass")
	}
	if endpoint.Host != "127.0.0.1" || endpoint.Port != 3307 {
		t.Errorf("got host=%q port=%d, want host=%q port=%d", endpoint.Host, endpoint.Port, "127.0.0.1", 3307)
	}
	if endpoint.Database != "testdb" {
		t.Errorf("got database=%q, want %q", endpoint.Database, "testdb")
	}
	if settings.ConnectTimeout == 0 {
		t.Error("expected a default ConnectTimeout to be resolved")
	}
}

func TestParseDSNDefaults(t *testing.T) {
	endpoint, _, err := ParseDSN("/testdb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if endpoint.Host != "127.0.0.1" || endpoint.Port != 3306 {
		t.Errorf("got host=%q port=%d, want the default tcp endpoint", endpoint.Host, endpoint.Port)
	}
}

func TestParseDSNUnixSocket(t *testing.T) {
	endpoint, _, err := ParseDSN("user@unix(/var/run/mysqld/mysqld.sock)/testdb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !endpoint.IsUnixSocket || endpoint.Host != "/var/run/mysqld/mysqld.sock" {
		t.Errorf("got IsUnixSocket=%v Host=%q, want a unix socket endpoint", endpoint.IsUnixSocket, endpoint.Host)
	}
}

func TestParseDSNParams(t *testing.T) {
	_, settings, err := ParseDSN("user@tcp(127.0.0.1:3306)/testdb?strict=true&debug=1&timeout=2s&collation=utf8mb4_general_ci")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !settings.Strict || !settings.Debug {
		t.Errorf("got Strict=%v Debug=%v, want both true", settings.Strict, settings.Debug)
	}
	if settings.ConnectTimeout.Seconds() != 2 {
		t.Errorf("got ConnectTimeout=%v, want 2s", settings.ConnectTimeout)
	}
	if settings.Collation != utf8mb4Collation {
		t.Errorf("got Collation=%d, want %d", settings.Collation, utf8mb4Collation)
	}
}

func TestParseDSNMissingSlash(t *testing.T) {
	_, _, err := ParseDSN("user@tcp(127.0.0.1:3306)")
	if err == nil {
		t.Fatal("expected an error for a DSN missing the database slash")
	}
}

func TestParseDSNUnknownCollation(t *testing.T) {
	_, _, err := ParseDSN("/testdb?collation=bogus")
	if err == nil {
		t.Fatal("expected an error for an unknown collation name")
	}
}
