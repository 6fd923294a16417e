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
	"time"

	pcerrors "github.com/pingcap/errors"
)

// ErrorKind enumerates the stable client error tags (spec section 7).
type ErrorKind string

const (
	KindInvalidArgument   ErrorKind = "invalidArgument"
	KindUnexpectedState   ErrorKind = "unexpectedState"
	KindUnexpectedPacket  ErrorKind = "unexpectedPacket"
	KindUnexpectedPayload ErrorKind = "unexpectedPayload"
	KindUnsupported       ErrorKind = "unsupported"
	KindTimeout           ErrorKind = "timeout"
	KindClosedConnection  ErrorKind = "closedConnection"
	KindBrokenConnection  ErrorKind = "brokenConnection"
)

// ClientError is the library's own error, distinct from a ServerError
// (an ERR packet from the server). The cause is wrapped with
// pingcap/errors so a stack trace survives from the call site, per
// spec 7 ("every error carries ... a preserved stack trace").
type ClientError struct {
	Kind    ErrorKind
	Message string
	Timeout time.Duration // set only for KindTimeout
	cause   error
}

func (e *ClientError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("mysqlclient: %s: %s (after %s)", e.Kind, e.Message, e.Timeout)
	}
	return fmt.Sprintf("mysqlclient: %s: %s", e.Kind, e.Message)
}

func (e *ClientError) Unwrap() error { return e.cause }

func newClientErr(kind ErrorKind, format string, args ...interface{}) *ClientError {
	msg := fmt.Sprintf(format, args...)
	return &ClientError{Kind: kind, Message: msg, cause: pcerrors.Errorf("%s: %s", kind, msg)}
}

func newTimeoutErr(d time.Duration, format string, args ...interface{}) *ClientError {
	msg := fmt.Sprintf(format, args...)
	return &ClientError{Kind: KindTimeout, Message: msg, Timeout: d, cause: pcerrors.Errorf("timeout: %s", msg)}
}

// IsKind reports whether err is a *ClientError of the given kind,
// following pingcap/errors' Cause chain through any wrapping. ErrorKind
// is not itself an error, so errors.Is cannot match on it.
func IsKind(err error, kind ErrorKind) bool {
	var ce *ClientError
	for err != nil {
		if c, ok := err.(*ClientError); ok {
			ce = c
			break
		}
		cause := pcerrors.Cause(err)
		if cause == err {
			break
		}
		err = cause
	}
	return ce != nil && ce.Kind == kind
}

// ServerError is a MySQL ERR packet surfaced to the caller (spec 7).
// The connection that produced it remains usable.
type ServerError struct {
	Code     uint16
	Message  string
	SQLState string
	Query    string
	Params   map[string]interface{}
}

func (e *ServerError) Error() string {
	if e.SQLState != "" {
		return fmt.Sprintf("mysql error %d (%s): %s", e.Code, e.SQLState, e.Message)
	}
	return fmt.Sprintf("mysql error %d: %s", e.Code, e.Message)
}

// framing/low-level sentinel errors, kept close to the teacher's
// naming so wire-level failures stay easy to grep for.
var (
	errMalformedPacket = newClientErr(KindUnexpectedPacket, "malformed packet")
	errPacketSync      = newClientErr(KindUnexpectedPacket, "commands out of sync, packet sequence mismatch")
	errPacketTooLarge  = newClientErr(KindInvalidArgument, "payload exceeds the %d byte cap", maxPayloadSize)
	errBufferOverflow  = newClientErr(KindUnexpectedPacket, "incomplete packet buffer exceeded %d bytes", maxIncompleteBuffer)
)

// Warning is a single row from SHOW WARNINGS.
type Warning struct {
	Level   string
	Code    string
	Message string
}

// Warnings is a group of one or more MySQL warnings, itself an error.
type Warnings []Warning

func (ws Warnings) Error() string {
	var msg string
	for i, w := range ws {
		if i > 0 {
			msg += "\r\n"
		}
		msg += fmt.Sprintf("%s %s: %s", w.Level, w.Code, w.Message)
	}
	return msg
}

var errLoggerNil = errors.New("logger is nil")
