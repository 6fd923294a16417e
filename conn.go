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
	"fmt"
	"net"
	"sync"
	"time"

	pcerrors "github.com/pingcap/errors"
	"github.com/sirupsen/logrus"
)

// Conn is a single MySQL protocol session: one TCP/UNIX socket (or
// TLS-upgraded) transport, one connection state machine, and the
// capacity-1 operation lock serializing commands (spec 3, 4.6).
type Conn struct {
	endpoint Endpoint
	settings Settings

	raw   *rawConn
	state connState

	flags  capabilityFlag // capabilities the server advertised
	status statusFlag
	seq    uint8 // next outbound/expected sequence id for the current command

	serverVersion  string
	connectionID   uint32
	authPluginName string
	salt           []byte // the 20-byte challenge, part1||part2

	// opLock is the capacity-1 semaphore serializing commands (spec
	// 4.6 "Outbound serialization"). A transaction holds it across its
	// whole body; nested calls from inside that body detect ownership
	// via txHolder and skip re-acquiring.
	opLock       chan struct{}
	inTx         bool
	txHolder     bool // true while this goroutine already owns opLock via transactional()

	stmts map[uint32]*PreparedStmt

	closedCh chan struct{}
	closeMu  sync.Mutex
	closed   bool

	onCloseCallbacks []func()
}

// Dial opens a new Conn to endpoint using the given settings (spec
// 4.6, "Fresh -> WaitInitialHandshake -> ... -> ConnectionEstablished").
func Dial(ctx context.Context, endpoint Endpoint, settings Settings) (*Conn, error) {
	endpoint = endpoint.withDefaults()
	settings = settings.resolve()

	c := &Conn{
		endpoint: endpoint,
		settings: settings,
		state:    stateFresh,
		opLock:   make(chan struct{}, 1),
		stmts:    make(map[uint32]*PreparedStmt),
		closedCh: make(chan struct{}),
	}

	deadline := time.Now().Add(settings.ConnectTimeout)
	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	transport, err := c.dial(dialCtx)
	if err != nil {
		return nil, pcerrors.Trace(err)
	}
	c.raw = newRawConn(transport)
	c.state = stateWaitInitialHandshake

	if err := c.performHandshake(dialCtx); err != nil {
		c.raw.close()
		c.state = stateClosed
		return nil, pcerrors.Trace(err)
	}

	if err := c.setSessionCharset(dialCtx); err != nil {
		c.Close()
		return nil, pcerrors.Trace(err)
	}

	return c, nil
}

func (c *Conn) dial(ctx context.Context) (Transport, error) {
	network := "tcp"
	addr := fmt.Sprintf("%s:%d", c.endpoint.Host, c.endpoint.Port)
	if c.endpoint.IsUnixSocket {
		network, addr = "unix", c.endpoint.Host
	}

	if c.settings.Dial != nil {
		return c.settings.Dial(network, addr)
	}

	d := net.Dialer{}
	if dl, ok := ctx.Deadline(); ok {
		d.Deadline = dl
	}
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetKeepAlive(true)
	}
	return conn, nil
}

// setSessionCharset issues the post-connect SET @@... statements spec
// 6 names ("Wire defaults").
func (c *Conn) setSessionCharset(ctx context.Context) error {
	_, err := c.execQuery(ctx, fmt.Sprintf(
		"SET @@collation_connection=%d, @@character_set_client=utf8mb4, "+
			"@@character_set_connection=utf8mb4, @@character_set_results=utf8mb4",
		c.settings.Collation,
	), false)
	return err
}

// acquireOp acquires the operation lock, unless the calling goroutine
// already holds it via an in-progress transaction (spec 4.6: "nested
// execute/prepare calls invoked from the transaction body skip
// re-acquiring").
func (c *Conn) acquireOp(ctx context.Context) (release func(), err error) {
	if c.txHolder {
		return func() {}, nil
	}
	select {
	case c.opLock <- struct{}{}:
		return func() { <-c.opLock }, nil
	case <-ctx.Done():
		return nil, newTimeoutErr(c.settings.ConnectTimeout, "waiting for operation lock")
	case <-c.closedCh:
		return nil, newClientErr(KindClosedConnection, "connection closed while waiting for operation lock")
	}
}

func (c *Conn) requireState(want connState) error {
	if c.state != want {
		return newClientErr(KindUnexpectedState, "expected state %s, got %s", want, c.state)
	}
	return nil
}

// fail moves the connection to Closed and returns err, per spec 7's
// propagation policy for fatal protocol/framing errors.
func (c *Conn) fail(err error) error {
	errLog.Print(logEntry(logrus.Fields{
		"connectionID": c.connectionID,
		"state":        c.state,
		"error":        err,
	}, "mysqlclient: fatal protocol error, closing connection"))
	c.state = stateClosed
	if c.raw != nil {
		c.raw.close()
	}
	c.signalClosed()
	return err
}

func (c *Conn) signalClosed() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.closedCh)
		for _, cb := range c.onCloseCallbacks {
			cb()
		}
	}
}

// IsOpen reports whether the connection has not yet been closed.
func (c *Conn) IsOpen() bool {
	return c.state != stateClosed
}

// Closed returns a channel that is closed once the connection has
// shut down, for use in select statements (spec 6, "closed future").
func (c *Conn) Closed() <-chan struct{} {
	return c.closedCh
}

// OnClose registers a callback to run when the connection closes.
func (c *Conn) OnClose(cb func()) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		c.closeMu.Unlock()
		cb()
		c.closeMu.Lock()
		return
	}
	c.onCloseCallbacks = append(c.onCloseCallbacks, cb)
}

// Close sends COM_QUIT and shuts the transport down (spec 6). It is
// idempotent.
func (c *Conn) Close() error {
	if c.state == stateClosed {
		return nil
	}

	for id, stmt := range c.stmts {
		_ = c.writeStmtClosePacket(id)
		delete(c.stmts, id)
		stmt.conn = nil
	}

	var err error
	if c.state == stateConnectionEstablished {
		err = c.writeCommandPacket(comQuit)
		c.state = stateQuitCommandSent
	}
	if c.raw != nil {
		if cerr := c.raw.close(); err == nil {
			err = cerr
		}
	}
	c.state = stateClosed
	c.signalClosed()
	return err
}
