// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

import (
	"encoding/binary"
)

// Byte primitives (spec 4.1). MySQL packets are little-endian
// throughout; these helpers mirror the teacher's inline encode/decode
// style instead of reaching for encoding/binary.Read on every field.

func readUint16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func readUint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func readUint64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

func readUint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func putUint16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func putUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func putUint64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }

func putUint24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// readLengthEncodedInteger decodes a MySQL length-encoded integer
// (spec 4.1). It returns the value, whether the encoding was the
// 0xfb NULL marker, and the number of bytes consumed.
func readLengthEncodedInteger(b []byte) (value uint64, isNull bool, n int) {
	if len(b) == 0 {
		return 0, false, 0
	}
	switch b[0] {
	case 0xfb:
		return 0, true, 1
	case 0xfc:
		return uint64(readUint16(b[1:3])), false, 3
	case 0xfd:
		return uint64(readUint24(b[1:4])), false, 4
	case 0xfe:
		return readUint64(b[1:9]), false, 9
	default:
		return uint64(b[0]), false, 1
	}
}

// appendLengthEncodedInteger appends the wire encoding of v to b.
func appendLengthEncodedInteger(b []byte, v uint64) []byte {
	switch {
	case v < 0xfb:
		return append(b, byte(v))
	case v <= 0xffff:
		return append(b, 0xfc, byte(v), byte(v>>8))
	case v <= 0xffffff:
		return append(b, 0xfd, byte(v), byte(v>>8), byte(v>>16))
	default:
		return append(b, 0xfe,
			byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
			byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
	}
}

// lengthEncodedIntegerSize returns how many bytes appendLengthEncodedInteger
// would emit for v, without allocating.
func lengthEncodedIntegerSize(v uint64) int {
	switch {
	case v < 0xfb:
		return 1
	case v <= 0xffff:
		return 3
	case v <= 0xffffff:
		return 4
	default:
		return 9
	}
}

// readLengthEncodedString decodes a length-encoded string: a
// length-encoded integer followed by that many bytes.
func readLengthEncodedString(b []byte) (data []byte, isNull bool, n int, err error) {
	length, isNull, n := readLengthEncodedInteger(b)
	if isNull {
		return nil, true, n, nil
	}
	if n+int(length) > len(b) {
		return nil, false, n, errMalformedPacket
	}
	return b[n : n+int(length)], false, n + int(length), nil
}

// skipLengthEncodedString advances past a length-encoded string
// without copying it, returning the number of bytes consumed.
func skipLengthEncodedString(b []byte) (int, error) {
	length, isNull, n := readLengthEncodedInteger(b)
	if isNull {
		return n, nil
	}
	if n+int(length) > len(b) {
		return n, errMalformedPacket
	}
	return n + int(length), nil
}

func appendLengthEncodedString(b []byte, s []byte) []byte {
	b = appendLengthEncodedInteger(b, uint64(len(s)))
	return append(b, s...)
}

// readNulString reads bytes up to and including the first 0x00,
// returning the bytes before it and the total length consumed.
func readNulString(b []byte) (data []byte, n int) {
	for i, c := range b {
		if c == 0x00 {
			return b[:i], i + 1
		}
	}
	return b, len(b)
}

func uint64ToString(v uint64) []byte {
	var buf [20]byte
	pos := len(buf)
	if v == 0 {
		return []byte{'0'}
	}
	for v > 0 {
		pos--
		buf[pos] = byte('0' + v%10)
		v /= 10
	}
	return append([]byte(nil), buf[pos:]...)
}
