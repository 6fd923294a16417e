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
	"net"
)

// Transport is the external collaborator spec 1 calls out as
// out-of-scope: the byte stream a Conn speaks the protocol over.
// net.Conn satisfies it directly; tests substitute a net.Pipe or an
// in-memory implementation.
type Transport interface {
	net.Conn
}

// framer re-assembles a byte stream into length-prefixed packet
// frames (spec 4.6). It never reorders and enforces the 16 MiB
// incomplete-buffer cap as a defensive framing error.
type framer struct {
	acc []byte
}

// feed appends chunk to the accumulator and extracts every complete
// frame (header + payload) currently available. The frame bytes
// returned are owned by the caller (copied out of the accumulator).
func (f *framer) feed(chunk []byte) ([][]byte, error) {
	f.acc = append(f.acc, chunk...)

	var frames [][]byte
	for len(f.acc) >= 4 {
		pktLen := int(readUint24(f.acc[0:3]))
		total := 4 + pktLen
		if len(f.acc) < total {
			break
		}
		frame := make([]byte, total)
		copy(frame, f.acc[:total])
		frames = append(frames, frame)
		f.acc = f.acc[total:]
	}

	if len(f.acc) > maxIncompleteBuffer {
		return frames, errBufferOverflow
	}
	return frames, nil
}

// rawConn drives the framer over a Transport: it reads chunks,
// extracts frames, and queues any the caller hasn't consumed yet. It
// is not safe for concurrent reads, which matches the operation
// lock's guarantee that only one command is ever in flight.
type rawConn struct {
	transport Transport
	framer    framer
	pending   [][]byte
	readBuf   [32 * 1024]byte
}

func newRawConn(t Transport) *rawConn {
	return &rawConn{transport: t}
}

// nextFrame returns the next complete frame, blocking on the
// transport until one is available.
func (r *rawConn) nextFrame() ([]byte, error) {
	for len(r.pending) == 0 {
		n, err := r.transport.Read(r.readBuf[:])
		if n > 0 {
			frames, ferr := r.framer.feed(r.readBuf[:n])
			r.pending = append(r.pending, frames...)
			if ferr != nil {
				return nil, ferr
			}
		}
		if err != nil {
			if len(r.pending) > 0 {
				break
			}
			return nil, err
		}
	}
	frame := r.pending[0]
	r.pending = r.pending[1:]
	return frame, nil
}

func (r *rawConn) write(p []byte) error {
	_, err := r.transport.Write(p)
	return err
}

func (r *rawConn) close() error {
	return r.transport.Close()
}

// transportIsTLS reports whether the transport has already been
// upgraded via upgradeTLS, used to gate caching_sha2_password's
// full-auth path (spec 4.3).
func (r *rawConn) transportIsTLS() bool {
	_, ok := r.transport.(*tls.Conn)
	return ok
}

// upgradeTLS swaps the underlying transport for a TLS client
// connection in place. The reader must be paused (no in-flight
// nextFrame call) before this runs, and any accumulated-but-unread
// bytes must be empty: the SSLRequest is always the last plaintext
// packet, so this holds by construction in the handshake flow.
func (r *rawConn) upgradeTLS(cfg *tls.Config) error {
	tlsConn := tls.Client(r.transport, cfg)
	if err := tlsConn.Handshake(); err != nil {
		return err
	}
	r.transport = tlsConn
	r.framer = framer{}
	r.pending = nil
	return nil
}
