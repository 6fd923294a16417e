// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

import (
	"testing"
	"time"
)

func TestClientErrorMessage(t *testing.T) {
	err := newClientErr(KindInvalidArgument, "bad value %d", 7)
	want := "mysqlclient: invalidArgument: bad value 7"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := newTimeoutErr(5*time.Second, "waiting for %s", "handshake")
	want := "mysqlclient: timeout: waiting for handshake (after 5s)"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if err.Kind != KindTimeout {
		t.Errorf("got Kind=%v, want KindTimeout", err.Kind)
	}
}

func TestIsKind(t *testing.T) {
	err := newClientErr(KindBrokenConnection, "socket reset")
	if !IsKind(err, KindBrokenConnection) {
		t.Error("expected IsKind to match the error's own kind")
	}
	if IsKind(err, KindTimeout) {
		t.Error("expected IsKind to reject an unrelated kind")
	}
	if IsKind(nil, KindTimeout) {
		t.Error("expected IsKind(nil, ...) to be false")
	}
}

func TestServerErrorMessage(t *testing.T) {
	err := &ServerError{Code: 1146, Message: "Table doesn't exist", SQLState: "42S02"}
	want := "mysql error 1146 (42S02): Table doesn't exist"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}

	bare := &ServerError{Code: 1045, Message: "Access denied"}
	want = "mysql error 1045: Access denied"
	if bare.Error() != want {
		t.Errorf("got %q, want %q", bare.Error(), want)
	}
}

func TestAttachQueryContext(t *testing.T) {
	se := &ServerError{Code: 1064, Message: "syntax error"}
	got := attachQueryContext(se, "SELECT 1", map[string]interface{}{"id": 1})
	if got != se || se.Query != "SELECT 1" || se.Params["id"] != 1 {
		t.Errorf("attachQueryContext did not populate the ServerError: %+v", se)
	}

	ce := newClientErr(KindInvalidArgument, "bad")
	if attachQueryContext(ce, "SELECT 1", nil) != ce {
		t.Error("attachQueryContext should pass a *ClientError through unchanged")
	}
}

func TestWarningsError(t *testing.T) {
	ws := Warnings{
		{Level: "Warning", Code: "1265", Message: "Data truncated"},
		{Level: "Note", Code: "1051", Message: "Unknown table"},
	}
	want := "Warning 1265: Data truncated\r\nNote 1051: Unknown table"
	if ws.Error() != want {
		t.Errorf("got %q, want %q", ws.Error(), want)
	}
}

func TestSetLoggerRejectsNil(t *testing.T) {
	if err := SetLogger(nil); err == nil {
		t.Error("expected an error when setting a nil logger")
	}
}

type recordingLogger struct{ last string }

func (l *recordingLogger) Print(v ...interface{}) {
	if len(v) > 0 {
		if s, ok := v[0].(string); ok {
			l.last = s
		}
	}
}

func TestSetLoggerInstallsCustomLogger(t *testing.T) {
	original := errLog
	defer func() { errLog = original }()

	rec := &recordingLogger{}
	if err := SetLogger(rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	errLog.Print("hello")
	if rec.last != "hello" {
		t.Errorf("custom logger did not receive the message: got %q", rec.last)
	}
}
