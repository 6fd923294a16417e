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
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// maxPoolRetries bounds the closedConnection/brokenConnection retry
// loop named in spec 4.9. The spec does not name a bound; without
// one, a permanently unreachable server would spin Execute/
// Transactional forever.
const maxPoolRetries = 3

// pooledConn is one connection's bookkeeping inside a Pool (spec
// 4.9).
type pooledConn struct {
	conn           *Conn
	endpoint       Endpoint
	settings       Settings
	createdAt      time.Time
	lastReturnedAt time.Time
	cumulativeUse  time.Duration
}

func (pc *pooledConn) expired(now time.Time, limits PoolSettings) bool {
	if now.Sub(pc.createdAt) >= limits.MaxConnectionAge {
		return true
	}
	return pc.cumulativeUse >= limits.MaxSessionUse
}

// settingsMatch compares the fields that affect wire behavior,
// skipping the Dial hook and TLS config (not meaningfully comparable
// beyond pointer identity, which this still honors via ==).
func settingsMatch(a, b Settings) bool {
	return a.Collation == b.Collation &&
		a.MaxPacketSize == b.MaxPacketSize &&
		a.ConnectTimeout == b.ConnectTimeout &&
		a.AllowCleartextPasswords == b.AllowCleartextPasswords &&
		a.Strict == b.Strict &&
		a.Debug == b.Debug &&
		a.TLSConfig == b.TLSConfig
}

// Pool is a bounded, capacity-N semaphore over reusable connections
// (spec 4.9). Each live connection - idle or checked out - holds one
// semaphore slot for its whole lifetime.
type Pool struct {
	settings PoolSettings

	sem chan struct{}

	mu       sync.Mutex
	createMu sync.Mutex
	idle     []*pooledConn
	closed   bool
}

// NewPool builds a pool with the given (defaulted) settings.
func NewPool(settings PoolSettings) *Pool {
	settings = settings.resolve()
	return &Pool{
		settings: settings,
		sem:      make(chan struct{}, settings.MaxConnectionCount),
	}
}

// PooledConn is exclusive access to one pooled connection, checked
// out via Acquire or WithConnection.
type PooledConn struct {
	pool *Pool
	pc   *pooledConn
	in   time.Time
}

func (p *PooledConn) Conn() *Conn { return p.pc.conn }

// Release returns the connection to the pool. reusable should be
// false if the caller's work bubbled a *ClientError (spec
// 4.9: "the caller marked it non-reusable") - the pool will dispose
// it instead of returning it to idle.
func (p *PooledConn) Release(reusable bool) {
	p.pc.cumulativeUse += time.Since(p.in)
	p.pool.release(p.pc, reusable)
}

// Acquire finds an idle connection matching endpoint+settings that
// is not expired, or creates a new one under the create-lock (spec
// 4.9).
func (p *Pool) Acquire(ctx context.Context, endpoint Endpoint, settings Settings) (*PooledConn, error) {
	endpoint = endpoint.withDefaults()
	settings = settings.resolve()

	if pc := p.takeIdleMatch(endpoint, settings); pc != nil {
		return &PooledConn{pool: p, pc: pc, in: time.Now()}, nil
	}

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, newClientErr(KindTimeout, "timed out waiting for an available pooled connection")
	}

	p.createMu.Lock()
	defer p.createMu.Unlock()

	// Another goroutine may have returned a match while we waited for
	// the semaphore slot or the create-lock.
	if pc := p.takeIdleMatch(endpoint, settings); pc != nil {
		<-p.sem // the slot we reserved is unused; the matched connection already holds its own
		return &PooledConn{pool: p, pc: pc, in: time.Now()}, nil
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.sem
		return nil, newClientErr(KindClosedConnection, "pool is closed")
	}
	p.mu.Unlock()

	conn, err := Dial(ctx, endpoint, settings)
	if err != nil {
		<-p.sem
		return nil, err
	}
	now := time.Now()
	pc := &pooledConn{conn: conn, endpoint: endpoint, settings: settings, createdAt: now, lastReturnedAt: now}
	return &PooledConn{pool: p, pc: pc, in: now}, nil
}

// takeIdleMatch scans idle for a matching, non-expired connection,
// evicting (and disposing) any expired entries it passes over.
func (p *Pool) takeIdleMatch(endpoint Endpoint, settings Settings) *pooledConn {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	kept := p.idle[:0]
	var found *pooledConn
	for _, pc := range p.idle {
		switch {
		case found != nil:
			kept = append(kept, pc)
		case pc.expired(now, p.settings):
			go p.disposeLocked(pc)
		case pc.endpoint == endpoint && settingsMatch(pc.settings, settings):
			found = pc
		default:
			kept = append(kept, pc)
		}
	}
	p.idle = kept
	return found
}

// disposeLocked closes a connection and frees its semaphore slot. It
// must not be called while holding p.mu (release calls it directly
// after releasing the lock; takeIdleMatch defers it to a goroutine
// to avoid blocking the caller on a socket close).
func (p *Pool) disposeLocked(pc *pooledConn) {
	errLog.Print(logEntry(logrus.Fields{
		"endpoint": pc.endpoint.Host,
		"age":      time.Since(pc.createdAt).String(),
	}, "mysqlclient: evicting pooled connection"))
	_ = pc.conn.Close()
	<-p.sem
}

// release returns pc to idle, or disposes it if the pool is closed,
// the connection is no longer open, it is expired, or the caller
// marked it non-reusable (spec 4.9's "on return" rules).
func (p *Pool) release(pc *pooledConn, reusable bool) {
	p.mu.Lock()
	pc.lastReturnedAt = time.Now()
	dispose := p.closed || !reusable || !pc.conn.IsOpen() || pc.expired(time.Now(), p.settings)
	if !dispose {
		p.idle = append(p.idle, pc)
	}
	p.mu.Unlock()

	if dispose {
		p.disposeLocked(pc)
	}
}

// WithConnection gives body exclusive access to a pooled connection
// and returns it afterward, marking it non-reusable if body returned
// an error (spec 6, "withConnection(fn, settings?)").
func (p *Pool) WithConnection(ctx context.Context, endpoint Endpoint, settings Settings, body func(*Conn) (interface{}, error)) (interface{}, error) {
	pc, err := p.Acquire(ctx, endpoint, settings)
	if err != nil {
		return nil, err
	}
	result, bodyErr := body(pc.Conn())
	pc.Release(bodyErr == nil)
	return result, bodyErr
}

// withRetry re-acquires a fresh connection on closedConnection/
// brokenConnection errors - the only errors the pool retries (spec
// 4.9, 7).
func (p *Pool) withRetry(ctx context.Context, endpoint Endpoint, settings Settings, body func(*Conn) (interface{}, error)) (interface{}, error) {
	var result interface{}
	var err error
	for attempt := 0; attempt <= maxPoolRetries; attempt++ {
		result, err = p.WithConnection(ctx, endpoint, settings, body)
		if err == nil || !(IsKind(err, KindClosedConnection) || IsKind(err, KindBrokenConnection)) {
			return result, err
		}
	}
	return result, err
}

// Execute runs a query through the pool with retry-on-broken-
// connection semantics (spec 4.9).
func (p *Pool) Execute(ctx context.Context, endpoint Endpoint, settings Settings, query string, params map[string]interface{}, streaming bool) (*ResultSet, error) {
	res, err := p.withRetry(ctx, endpoint, settings, func(c *Conn) (interface{}, error) {
		return c.Execute(ctx, query, params, streaming)
	})
	if res == nil {
		return nil, err
	}
	return res.(*ResultSet), err
}

// Transactional runs body under a transaction on a pooled connection
// with the same retry semantics as Execute.
func (p *Pool) Transactional(ctx context.Context, endpoint Endpoint, settings Settings, body func(*Conn) (interface{}, error)) (interface{}, error) {
	return p.withRetry(ctx, endpoint, settings, func(c *Conn) (interface{}, error) {
		return c.Transactional(ctx, body)
	})
}

// Close disposes every idle connection and marks the pool closed, so
// any connection returned later is disposed rather than recycled.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	var firstErr error
	for _, pc := range idle {
		if err := pc.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		<-p.sem
	}
	return firstErr
}
