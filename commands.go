// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

import "context"

// execQuery runs a non-empty COM_QUERY and assembles its result set
// (spec 4.2, 4.7). It is the shared body behind Conn.Execute and the
// post-connect session-charset statement.
func (c *Conn) execQuery(ctx context.Context, query string, streaming bool) (*ResultSet, error) {
	if query == "" {
		return nil, newClientErr(KindInvalidArgument, "query must not be empty")
	}
	release, err := c.beginCommand(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.writeCommandPacketStr(comQuery, query); err != nil {
		release()
		return nil, err
	}
	if c.settings.Debug {
		c.debugf("query", "q=%q streaming=%v", query, streaming)
	}

	rs, err := c.readResultSet(decodeTextRow, streaming, release)
	c.endCommand()
	return rs, attachQueryContext(err, query, nil)
}

// attachQueryContext fills in a *ServerError's Query/Params fields
// (spec 7: "the originating query/params for diagnostics"), leaving
// any other error untouched.
func attachQueryContext(err error, query string, params map[string]interface{}) error {
	if se, ok := err.(*ServerError); ok {
		se.Query = query
		se.Params = params
	}
	return err
}

// checkWarnings escalates a non-zero warning count into a Warnings
// error by issuing SHOW WARNINGS on the same connection (spec 4.9's
// opt-in Settings.Strict flag; teacher's conn.getWarnings). It is
// only ever called with the operation lock already held by the
// in-flight command and the wire already drained of that command's
// packets, so it talks to the connection directly instead of going
// through beginCommand/execQuery.
func (c *Conn) checkWarnings() error {
	if err := c.writeCommandPacketStr(comQuery, "SHOW WARNINGS"); err != nil {
		return err
	}
	rs, err := c.readResultSetBody(decodeTextRow, false)
	if err != nil {
		return err
	}
	if len(rs.rows) == 0 {
		return nil
	}
	warnings := make(Warnings, 0, len(rs.rows))
	for _, row := range rs.rows {
		level, _, _ := row.ColAt(0)
		code, _, _ := row.ColAt(1)
		message, _, _ := row.ColAt(2)
		warnings = append(warnings, Warning{Level: level, Code: code, Message: message})
	}
	return warnings
}

// execInitDB runs COM_INIT_DB (spec 4.2). It expects a bare OK.
func (c *Conn) execInitDB(ctx context.Context, schema string) error {
	release, err := c.beginCommand(ctx)
	if err != nil {
		return err
	}
	defer c.endCommand()
	defer release()

	if err := c.writeCommandPacketStr(comInitDB, schema); err != nil {
		return err
	}
	data, err := c.readPacket()
	if err != nil {
		return err
	}
	if data[0] == iERR {
		return c.handleErrorPacket(data)
	}
	return c.handleOkPacket(data)
}

// beginCommand enforces spec 4.6's "command packets may be sent only
// while ConnectionEstablished" invariant, acquires the operation
// lock, and advances the state to WaitingCommandResponse.
func (c *Conn) beginCommand(ctx context.Context) (release func(), err error) {
	if err := c.requireState(stateConnectionEstablished); err != nil {
		return nil, err
	}
	release, err = c.acquireOp(ctx)
	if err != nil {
		return nil, err
	}
	c.state = stateWaitingCommandResponse
	return release, nil
}

// endCommand returns the state to ConnectionEstablished once the
// final response packet for the in-flight command has been seen.
// Streaming commands call this immediately since only the *Conn*
// state machine (not the operation lock) is freed here — the lock
// itself is released later by the stream's release callback.
func (c *Conn) endCommand() {
	if c.state == stateWaitingCommandResponse {
		c.state = stateConnectionEstablished
	}
}

// writeStmtPreparePacket sends COM_STMT_PREPARE (spec 4.2).
func (c *Conn) writeStmtPreparePacket(query string) error {
	return c.writeCommandPacketStr(comStmtPrepare, query)
}

// writeStmtClosePacket sends COM_STMT_CLOSE; the server sends no
// reply (spec 4.2, 4.8).
func (c *Conn) writeStmtClosePacket(stmtID uint32) error {
	return c.writeCommandPacketUint32(comStmtClose, stmtID)
}

// writeStmtExecutePacket encodes COM_STMT_EXECUTE's body (spec 4.2).
// Every non-null parameter is marshaled as its UTF-8 textual form
// under type VAR_STRING (design note 9: "the client never uses typed
// binary parameter encoding").
func (c *Conn) writeStmtExecutePacket(stmtID uint32, params []interface{}) error {
	c.seq = 0
	n := len(params)
	body := make([]byte, 0, 10+(n+7)/8+n*2+16)
	body = append(body, comStmtExecute)

	var stmtIDBuf [4]byte
	putUint32(stmtIDBuf[:], stmtID)
	body = append(body, stmtIDBuf[:]...)
	body = append(body, 0x00) // flags: CURSOR_TYPE_NO_CURSOR

	var iterBuf [4]byte
	putUint32(iterBuf[:], 1)
	body = append(body, iterBuf[:]...)

	texts := make([]string, n)
	nulls := make([]bool, n)
	if n > 0 {
		nullBitmap := make([]byte, (n+7)/8)
		for i, p := range params {
			text, isNull, err := toSQLText(p)
			if err != nil {
				return err
			}
			texts[i], nulls[i] = text, isNull
			if isNull {
				nullBitmap[i/8] |= 1 << uint(i%8)
			}
		}
		body = append(body, nullBitmap...)
		body = append(body, 0x01) // new-params-bound flag

		for _, isNull := range nulls {
			if isNull {
				body = append(body, byte(fieldTypeNULL), 0x00)
			} else {
				body = append(body, byte(fieldTypeVarString), 0x00)
			}
		}
		for i, text := range texts {
			if nulls[i] {
				continue
			}
			body = appendLengthEncodedString(body, []byte(text))
		}
	}

	return c.writePacket(body)
}
