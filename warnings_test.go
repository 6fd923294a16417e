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

// buildColumnPacket assembles a minimal column-definition packet body
// (spec 3, "Column definition") naming only the column.
func buildColumnPacket(name string) []byte {
	var body []byte
	body = appendLengthEncodedString(body, []byte("def")) // catalog
	body = appendLengthEncodedString(body, nil)            // schema
	body = appendLengthEncodedString(body, nil)            // table
	body = appendLengthEncodedString(body, nil)            // org_table
	body = appendLengthEncodedString(body, []byte(name))
	body = appendLengthEncodedString(body, []byte(name)) // org_name
	body = append(body, 0x0c)                            // filler
	body = append(body, 0x21, 0x00)                       // charset
	body = append(body, 0x00, 0x00, 0x00, 0x00)           // column length
	body = append(body, byte(fieldTypeVarString))
	body = append(body, 0x00, 0x00) // flags
	body = append(body, 0x00)       // decimals
	body = append(body, 0x00, 0x00) // filler
	return body
}

// serveShowWarnings drives a fake server side of a net.Pipe through
// one SHOW WARNINGS round trip: it reads and discards the query
// command packet, then replies with a 3-column result set carrying a
// single warning row.
func serveShowWarnings(t *testing.T, server net.Conn, level, code, message string) {
	t.Helper()
	buf := make([]byte, 4096)
	if _, err := server.Read(buf); err != nil {
		t.Errorf("server: reading SHOW WARNINGS command: %v", err)
		return
	}

	seq := byte(1)
	write := func(body []byte) {
		if _, err := server.Write(framePacket(seq, body)); err != nil {
			t.Errorf("server: write: %v", err)
		}
		seq++
	}

	write(appendLengthEncodedInteger(nil, 3)) // column count
	write(buildColumnPacket("Level"))
	write(buildColumnPacket("Code"))
	write(buildColumnPacket("Message"))
	write([]byte{iEOF, 0x00, 0x00, 0x00, 0x00})

	row := appendLengthEncodedString(nil, []byte(level))
	row = appendLengthEncodedString(row, []byte(code))
	row = appendLengthEncodedString(row, []byte(message))
	write(row)
	write([]byte{iEOF, 0x00, 0x00, 0x00, 0x00})
}

func TestApplyOkEscalatesWarningsUnderStrict(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go serveShowWarnings(t, server, "Warning", "1264", "Out of range value for column 'x'")

	settings := DefaultSettings()
	settings.Strict = true
	c := &Conn{
		raw:      newRawConn(client),
		settings: settings,
		state:    stateWaitingCommandResponse,
	}

	err := c.applyOk(lastOK{status: 0, warnings: 1})
	ws, ok := err.(Warnings)
	if !ok {
		t.Fatalf("got error %v (%T), want a Warnings value", err, err)
	}
	if len(ws) != 1 {
		t.Fatalf("got %d warnings, want 1", len(ws))
	}
	if ws[0].Level != "Warning" || ws[0].Code != "1264" {
		t.Errorf("got warning %+v, want Level=Warning Code=1264", ws[0])
	}
}

func TestApplyOkIgnoresWarningsWhenNotStrict(t *testing.T) {
	c := &Conn{settings: Settings{Strict: false}, state: stateWaitingCommandResponse}
	if err := c.applyOk(lastOK{warnings: 5}); err != nil {
		t.Errorf("expected no escalation without Strict, got %v", err)
	}
}

func TestApplyOkIgnoresWarningsOutsideCommandResponse(t *testing.T) {
	c := &Conn{settings: Settings{Strict: true}, state: stateConnectionEstablished}
	if err := c.applyOk(lastOK{warnings: 5}); err != nil {
		t.Errorf("expected no escalation outside WaitingCommandResponse, got %v", err)
	}
}
