// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

// readPacket reads one logical packet (re-assembling continuation
// frames when the payload is exactly maxPacketSize bytes long) and
// validates the sequence id (spec 3 invariants).
func (c *Conn) readPacket() ([]byte, error) {
	var payload []byte
	for {
		frame, err := c.raw.nextFrame()
		if err != nil {
			return nil, c.fail(err)
		}

		pktLen := len(frame) - 4
		seq := frame[3]
		if seq != c.seq {
			if seq > c.seq {
				return nil, c.fail(newClientErr(KindUnexpectedPacket, "packet sequence ahead: want %d got %d", c.seq, seq))
			}
			return nil, c.fail(newClientErr(KindUnexpectedPacket, "packet sequence behind: want %d got %d", c.seq, seq))
		}
		c.seq++

		body := frame[4:]
		isLast := pktLen < maxPacketSize
		if isLast && payload == nil {
			return body, nil
		}
		payload = append(payload, body...)
		if isLast {
			return payload, nil
		}
	}
}

// writePacket frames and writes data (spec 3, "Packet frame"). Per
// spec, outbound payloads are capped at 50 MiB and this client never
// emits a continuation frame.
func (c *Conn) writePacket(body []byte) error {
	if len(body) > c.settings.MaxPacketSize {
		return errPacketTooLarge
	}
	frame := make([]byte, 4+len(body))
	putUint24(frame[0:3], uint32(len(body)))
	frame[3] = c.seq
	copy(frame[4:], body)
	c.seq++
	if err := c.raw.write(frame); err != nil {
		return c.fail(err)
	}
	return nil
}

// writeCommandPacket resets the sequence for a new command and sends
// a bare command byte (e.g. COM_QUIT).
func (c *Conn) writeCommandPacket(command byte) error {
	c.seq = 0
	return c.writePacket([]byte{command})
}

// writeCommandPacketStr resets the sequence and sends a command byte
// followed by an EOF-terminated string argument (spec 4.2: InitDB,
// Query, StmtPrepare).
func (c *Conn) writeCommandPacketStr(command byte, arg string) error {
	c.seq = 0
	body := make([]byte, 1+len(arg))
	body[0] = command
	copy(body[1:], arg)
	return c.writePacket(body)
}

// writeCommandPacketUint32 resets the sequence and sends a command
// byte followed by a u32 LE argument (spec 4.2: StmtClose).
func (c *Conn) writeCommandPacketUint32(command byte, arg uint32) error {
	c.seq = 0
	body := make([]byte, 1+4)
	body[0] = command
	putUint32(body[1:5], arg)
	return c.writePacket(body)
}

func isEOFPacket(data []byte) bool {
	return len(data) > 0 && data[0] == iEOF && len(data) < 9
}
