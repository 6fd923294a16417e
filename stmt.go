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
	"strconv"
)

// PreparedStmt is the client-side handle for one prepared statement
// (spec 3, "Prepared statement descriptor"; spec 4.8).
type PreparedStmt struct {
	conn       *Conn
	id         uint32
	query      string
	numParams  int
	numColumns int
	columns    []Column
}

func (s *PreparedStmt) NumOfParams() int  { return s.numParams }
func (s *PreparedStmt) NumOfColumns() int { return s.numColumns }

// Prepare sends COM_STMT_PREPARE and assembles the descriptor (spec
// 4.8).
func (c *Conn) Prepare(ctx context.Context, query string) (*PreparedStmt, error) {
	if query == "" {
		return nil, newClientErr(KindInvalidArgument, "query must not be empty")
	}
	release, err := c.beginCommand(ctx)
	if err != nil {
		return nil, err
	}
	defer c.endCommand()
	defer release()

	if err := c.writeStmtPreparePacket(query); err != nil {
		return nil, err
	}
	stmt, err := c.readPrepareResult()
	if err != nil {
		return nil, attachQueryContext(err, query, nil)
	}
	stmt.conn = c
	stmt.query = query
	c.stmts[stmt.id] = stmt
	return stmt, nil
}

// readPrepareResult reads the OK-prepare response plus any
// parameter-def and column-def packets. Each non-empty group of defs
// is followed by one EOF, so it reads 2 EOFs when both num_params and
// num_columns are > 0, 1 when only one is, and none when both are 0.
func (c *Conn) readPrepareResult() (*PreparedStmt, error) {
	data, err := c.readPacket()
	if err != nil {
		return nil, err
	}
	if data[0] == iERR {
		return nil, c.handleErrorPacket(data)
	}
	if data[0] != iOK || len(data) < 12 {
		return nil, errMalformedPacket
	}

	stmtID := readUint32(data[1:5])
	numColumns := int(readUint16(data[5:7]))
	numParams := int(readUint16(data[7:9]))

	stmt := &PreparedStmt{id: stmtID, numParams: numParams, numColumns: numColumns}

	if numParams > 0 {
		if _, err := c.readColumns(numParams); err != nil {
			return nil, err
		}
		if _, err := c.readPacket(); err != nil {
			return nil, err
		}
	}
	if numColumns > 0 {
		cols, err := c.readColumns(numColumns)
		if err != nil {
			return nil, err
		}
		stmt.columns = cols
		if _, err := c.readPacket(); err != nil {
			return nil, err
		}
	}

	// Warning count [2 bytes] at offset 10, only present once MySQL
	// > 4.1 (teacher's readPrepareResultPacket).
	if c.settings.Strict && len(data) >= 12 && readUint16(data[10:12]) > 0 {
		if err := c.checkWarnings(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// Execute marshals params as VAR_STRING text and runs the binary
// result-set assembler (spec 4.8). len(params) must equal
// NumOfParams.
func (s *PreparedStmt) Execute(ctx context.Context, params []interface{}, streaming bool) (*ResultSet, error) {
	if s.conn == nil {
		return nil, newClientErr(KindClosedConnection, "statement has been deallocated")
	}
	if len(params) != s.numParams {
		return nil, newClientErr(KindInvalidArgument, "statement expects %d parameters, got %d", s.numParams, len(params))
	}

	conn := s.conn
	release, err := conn.beginCommand(ctx)
	if err != nil {
		return nil, err
	}

	if err := conn.writeStmtExecutePacket(s.id, params); err != nil {
		release()
		conn.endCommand()
		return nil, err
	}
	if conn.settings.Debug {
		conn.debugf("stmt_execute", "stmt_id=%d params=%d streaming=%v", s.id, len(params), streaming)
	}

	rs, err := conn.readResultSet(decodeBinaryRow, streaming, release)
	conn.endCommand()
	return rs, attachQueryContext(err, s.query, positionalParams(params))
}

// positionalParams renders a prepared statement's positional
// arguments as a map (ServerError.Params' shape) for diagnostics.
func positionalParams(params []interface{}) map[string]interface{} {
	if len(params) == 0 {
		return nil
	}
	m := make(map[string]interface{}, len(params))
	for i, p := range params {
		m[strconv.Itoa(i)] = p
	}
	return m
}

// Deallocate sends COM_STMT_CLOSE and removes the statement from the
// connection's active set (spec 4.8). The server sends no reply.
// Idempotent: deallocating twice is a no-op.
func (s *PreparedStmt) Deallocate(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	conn := s.conn

	release, err := conn.beginCommand(ctx)
	if err != nil {
		return err
	}
	err = conn.writeStmtClosePacket(s.id)
	conn.endCommand()
	release()

	delete(conn.stmts, s.id)
	s.conn = nil
	return err
}
