// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"
)

// These exercises need a live MySQL server, same as the teacher's own
// driver_test.go gated its ConnTest helpers behind MYSQL_TEST_* env
// vars. Set MYSQL_TEST_HOST, MYSQL_TEST_USER, MYSQL_TEST_PASS and
// MYSQL_TEST_DBNAME to run them; otherwise they skip.
func testEndpoint(t *testing.T) (Endpoint, bool) {
	host := os.Getenv("MYSQL_TEST_HOST")
	if host == "" {
		t.Skip("MYSQL_TEST_HOST not set, skipping live-server test")
		return Endpoint{}, false
	}
	port := defaultPort
	if raw := os.Getenv("MYSQL_TEST_PORT"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil {
			port = p
		}
	}
	return Endpoint{
		Host:     host,
		Port:     port,
		Username: os.Getenv("MYSQL_TEST_USER"),
		Password: os.Getenv("MYSQL_TEST_PASS"),
		Database: os.Getenv("MYSQL_TEST_DBNAME"),
	}, true
}

func TestLiveDialAndQuery(t *testing.T) {
	endpoint, ok := testEndpoint(t)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, endpoint, Settings{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	rs, err := conn.Execute(ctx, "SELECT 1 AS one", nil, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	rows := rs.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if v, err := rows[0].IntAt(0); err != nil || v != 1 {
		t.Fatalf("IntAt(0) = (%d, %v), want (1, nil)", v, err)
	}
}

func TestLiveTransactionalRollback(t *testing.T) {
	endpoint, ok := testEndpoint(t)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, endpoint, Settings{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	boom := newClientErr(KindInvalidArgument, "forced rollback")
	_, err = conn.Transactional(ctx, func(tx *Conn) (interface{}, error) {
		if _, err := tx.Execute(ctx, "SELECT 1", nil, false); err != nil {
			return nil, err
		}
		return nil, boom
	})
	if err != boom {
		t.Fatalf("got %v, want the body's own error to propagate", err)
	}
}

func TestLivePoolRoundTrip(t *testing.T) {
	endpoint, ok := testEndpoint(t)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool := NewPool(PoolSettings{MaxConnectionCount: 2})
	defer pool.Close()

	rs, err := pool.Execute(ctx, endpoint, Settings{}, "SELECT 1", nil, false)
	if err != nil {
		t.Fatalf("pool.Execute: %v", err)
	}
	if n, err := rs.NumOfRows(); err != nil || n != 1 {
		t.Fatalf("NumOfRows() = (%d, %v), want (1, nil)", n, err)
	}
}
