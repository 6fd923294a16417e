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

	"github.com/sirupsen/logrus"
)

// performHandshake drives Fresh/WaitInitialHandshake through
// ConnectionEstablished (spec 4.6 "Inbound dispatch").
func (c *Conn) performHandshake(ctx context.Context) error {
	if err := c.requireState(stateWaitInitialHandshake); err != nil {
		return err
	}

	if err := c.readInitialHandshake(); err != nil {
		return err
	}

	if c.endpoint.Secure {
		if c.flags&clientSSL == 0 {
			return c.fail(newClientErr(KindUnsupported, "server does not advertise CLIENT_SSL but secure=true was requested"))
		}
		if err := c.writeSSLRequest(); err != nil {
			return err
		}
		if err := c.raw.upgradeTLS(c.settings.TLSConfig); err != nil {
			return c.fail(err)
		}
	}

	if err := c.writeHandshakeResponse(); err != nil {
		return err
	}
	c.state = stateInitialHandshakeResponseSent

	if err := c.finishAuth(); err != nil {
		return err
	}

	c.state = stateConnectionEstablished
	return nil
}

// readInitialHandshake decodes the server's Protocol::Handshake v10
// packet (spec 3, "Initial handshake").
func (c *Conn) readInitialHandshake() error {
	data, err := c.readPacket()
	if err != nil {
		return err
	}
	if data[0] == iERR {
		return c.fail(c.handleErrorPacket(data))
	}
	if data[0] < minProtocolVersion {
		return c.fail(newClientErr(KindUnsupported, "unsupported protocol version %d", data[0]))
	}

	pos := 1
	version, n := readNulString(data[pos:])
	c.serverVersion = string(version)
	pos += n

	c.connectionID = readUint32(data[pos : pos+4])
	pos += 4

	salt := make([]byte, 8, 20)
	copy(salt, data[pos:pos+8])
	pos += 8 + 1 // cipher part 1, then the 0x00 filler

	c.flags = capabilityFlag(readUint16(data[pos : pos+2]))
	pos += 2

	if len(data) <= pos {
		c.salt = salt
		return nil
	}

	// charset [1], status [2], capability upper [2], auth-plugin-data-length [1], reserved [10]
	pos += 1
	c.status = statusFlag(readUint16(data[pos : pos+2]))
	pos += 2
	c.flags |= capabilityFlag(readUint16(data[pos:pos+2])) << 16
	pos += 2
	authDataLen := int(data[pos])
	pos += 1 + 10

	if c.flags&clientSecureConnection != 0 {
		rest := authDataLen - 8
		if rest < 13 {
			rest = 13
		}
		part2 := data[pos : pos+rest-1] // last byte is the NUL terminator
		pos += rest
		salt = append(salt, part2...)
	}
	c.salt = salt

	if c.flags&clientPluginAuth != 0 && pos < len(data) {
		name, n := readNulString(data[pos:])
		c.authPluginName = string(name)
		pos += n
	}
	if c.authPluginName == "" {
		c.authPluginName = authNativePassword
	}
	return nil
}

// writeSSLRequest sends the abbreviated SSLRequest packet (spec 4.3).
// The handshake response's sequence id is bumped by this packet, per
// spec 3's invariant: "if TLS is used, the SSLRequest occupies seq 1
// and the handshake response becomes seq 2".
func (c *Conn) writeSSLRequest() error {
	capability := c.clientCapabilities()
	body := make([]byte, 4+4+1+23)
	putUint32(body[0:4], uint32(capability))
	putUint32(body[4:8], uint32(c.settings.MaxPacketSize))
	body[8] = c.settings.Collation
	return c.writePacket(body)
}

func (c *Conn) clientCapabilities() capabilityFlag {
	caps := baseClientCapabilities
	if c.endpoint.Database != "" {
		caps |= clientConnectWithDB
	}
	if c.endpoint.Secure {
		caps |= clientSSL
	}
	return caps
}

// writeHandshakeResponse sends HandshakeResponse41 (spec 4.3).
func (c *Conn) writeHandshakeResponse() error {
	if !authPluginSupported(c.authPluginName) {
		return c.fail(newClientErr(KindUnsupported, "auth plugin %q is not supported", c.authPluginName))
	}

	authResponse, err := computeAuthResponse(c.authPluginName, c.salt, c.endpoint.Password)
	if err != nil {
		return c.fail(err)
	}

	capability := c.clientCapabilities()

	data := make([]byte, 4+4+1+23, 64+len(authResponse))
	putUint32(data[0:4], uint32(capability))
	putUint32(data[4:8], uint32(c.settings.MaxPacketSize))
	data[8] = c.settings.Collation

	data = append(data, c.endpoint.Username...)
	data = append(data, 0x00)
	data = appendLengthEncodedString(data, authResponse)
	if c.endpoint.Database != "" {
		data = append(data, c.endpoint.Database...)
		data = append(data, 0x00)
	}
	data = append(data, authPluginResponseName(c.authPluginName)...)
	data = append(data, 0x00)

	return c.writePacket(data)
}

func authPluginSupported(name string) bool {
	return name == authNativePassword || name == authCachingSHA2
}

func authPluginResponseName(name string) string {
	if name == authCachingSHA2 {
		return authCachingSHA2
	}
	return authNativePassword
}

// finishAuth reads whatever follows the handshake response: OK, ERR,
// AuthSwitchRequest, or (for caching_sha2_password) ExtraAuthData
// (spec 4.3, 4.6).
func (c *Conn) finishAuth() error {
	data, err := c.readPacket()
	if err != nil {
		return err
	}

	switch {
	case data[0] == iOK:
		return c.handleOkPacket(data)
	case data[0] == iERR:
		return c.fail(c.handleErrorPacket(data))
	case data[0] == iEOF && len(data) >= 9:
		return c.handleAuthSwitch(data)
	case data[0] == iExtraAuth:
		return c.handleExtraAuthData(data)
	default:
		return c.fail(newClientErr(KindUnexpectedPacket, "unexpected packet during authentication"))
	}
}

// handleAuthSwitch implements the AuthSwitchRequest re-auth flow
// (spec 4.3: "Any other switch target is fatal (unsupported)").
func (c *Conn) handleAuthSwitch(data []byte) error {
	rest := data[1:]
	nameBytes, n := readNulString(rest)
	name := string(nameBytes)
	challenge := rest[n:]

	errLog.Print(logEntry(logrus.Fields{
		"connectionID": c.connectionID,
		"authPlugin":   name,
	}, "mysqlclient: auth switch requested"))

	if name != authNativePassword {
		return c.fail(newClientErr(KindUnsupported, "auth switch to %q is not supported", name))
	}

	c.authPluginName = name
	response := scrambleNativePassword(challenge, []byte(c.endpoint.Password))
	if err := c.writePacket(response); err != nil {
		return err
	}
	return c.finishAuth()
}

// handleExtraAuthData implements the caching_sha2_password fast/full
// auth dance (spec 4.3).
func (c *Conn) handleExtraAuthData(data []byte) error {
	if len(data) < 2 {
		return c.fail(newClientErr(KindUnexpectedPayload, "truncated extra auth data packet"))
	}
	switch data[1] {
	case cacheSHA2FastAuth:
		return c.finishAuth()
	case cacheSHA2FullAuth:
		if c.raw.transportIsTLS() {
			pw := append([]byte(c.endpoint.Password), 0x00)
			if err := c.writePacket(pw); err != nil {
				return err
			}
			return c.finishAuth()
		}
		return c.fail(newClientErr(KindUnexpectedState, "caching_sha2_password full authentication requires TLS"))
	default:
		return c.fail(newClientErr(KindUnsupported, "unknown caching_sha2_password status byte 0x%02x", data[1]))
	}
}
