// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

import (
	"net"
	"testing"
)

// buildHandshakePacket assembles a Protocol::Handshake v10 body
// (spec 3) with CLIENT_PROTOCOL_41|CLIENT_SECURE_CONNECTION|
// CLIENT_PLUGIN_AUTH advertised, the shape performHandshake expects.
func buildHandshakePacket(t *testing.T) []byte {
	t.Helper()
	var body []byte
	body = append(body, 10) // protocol version
	body = append(body, "5.7.30-fake"...)
	body = append(body, 0x00)

	connID := make([]byte, 4)
	putUint32(connID, 99)
	body = append(body, connID...)

	body = append(body, []byte("AUTHDATA")...) // part 1, 8 bytes
	body = append(body, 0x00)                  // filler

	caps := baseClientCapabilities | clientSecureConnection
	capLower := make([]byte, 2)
	putUint16(capLower, uint16(caps))
	body = append(body, capLower...)

	body = append(body, 0x21)       // charset
	body = append(body, 0x02, 0x00) // status flags
	capUpper := make([]byte, 2)
	putUint16(capUpper, uint16(caps>>16))
	body = append(body, capUpper...)
	body = append(body, 21) // auth-plugin-data-length
	body = append(body, make([]byte, 10)...)

	part2 := []byte("MORESALTDATA\x00") // 13 bytes incl. NUL, rest=21-8=13
	body = append(body, part2...)

	body = append(body, authNativePassword...)
	body = append(body, 0x00)
	return body
}

func framePacket(seq byte, body []byte) []byte {
	frame := make([]byte, 4+len(body))
	putUint24(frame[0:3], uint32(len(body)))
	frame[3] = seq
	copy(frame[4:], body)
	return frame
}

func TestReadInitialHandshake(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	body := buildHandshakePacket(t)
	go func() {
		_, _ = server.Write(framePacket(0, body))
	}()

	c := &Conn{raw: newRawConn(client), settings: DefaultSettings()}
	if err := c.readInitialHandshake(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.serverVersion != "5.7.30-fake" {
		t.Errorf("got serverVersion=%q, want %q", c.serverVersion, "5.7.30-fake")
	}
	if c.connectionID != 99 {
		t.Errorf("got connectionID=%d, want 99", c.connectionID)
	}
	if c.authPluginName != authNativePassword {
		t.Errorf("got authPluginName=%q, want %q", c.authPluginName, authNativePassword)
	}
	if len(c.salt) != 20 {
		t.Errorf("got salt length %d, want 20", len(c.salt))
	}
	if c.flags&clientSecureConnection == 0 {
		t.Error("expected clientSecureConnection to be set")
	}
}

func TestReadInitialHandshakeRejectsOldProtocol(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	body := []byte{9, 'x', 0x00}
	go func() {
		_, _ = server.Write(framePacket(0, body))
	}()

	c := &Conn{raw: newRawConn(client), settings: DefaultSettings(), closedCh: make(chan struct{})}
	err := c.readInitialHandshake()
	if !IsKind(err, KindUnsupported) {
		t.Errorf("expected KindUnsupported for an old protocol version, got %v", err)
	}
}
