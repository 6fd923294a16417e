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
	"testing"
)

func TestPrepareRejectsEmptyQuery(t *testing.T) {
	c := &Conn{}
	_, err := c.Prepare(context.Background(), "")
	if !IsKind(err, KindInvalidArgument) {
		t.Errorf("expected KindInvalidArgument, got %v", err)
	}
}

func TestPreparedStmtExecuteRejectsParamCountMismatch(t *testing.T) {
	stmt := &PreparedStmt{conn: &Conn{}, numParams: 2}
	_, err := stmt.Execute(context.Background(), []interface{}{1}, false)
	if !IsKind(err, KindInvalidArgument) {
		t.Errorf("expected KindInvalidArgument for a parameter count mismatch, got %v", err)
	}
}

func TestPreparedStmtExecuteRejectsAfterDeallocate(t *testing.T) {
	stmt := &PreparedStmt{}
	_, err := stmt.Execute(context.Background(), nil, false)
	if !IsKind(err, KindClosedConnection) {
		t.Errorf("expected KindClosedConnection for a deallocated statement, got %v", err)
	}
}

func TestPreparedStmtDeallocateIsIdempotent(t *testing.T) {
	stmt := &PreparedStmt{}
	if err := stmt.Deallocate(context.Background()); err != nil {
		t.Errorf("deallocating an already-deallocated statement should be a no-op, got %v", err)
	}
}

func TestPositionalParams(t *testing.T) {
	m := positionalParams([]interface{}{"a", "b"})
	if m["0"] != "a" || m["1"] != "b" {
		t.Errorf("got %v, want {0:a 1:b}", m)
	}
	if positionalParams(nil) != nil {
		t.Errorf("expected nil for no params")
	}
}

func TestNumOfParamsAndColumns(t *testing.T) {
	stmt := &PreparedStmt{numParams: 2, numColumns: 3}
	if stmt.NumOfParams() != 2 || stmt.NumOfColumns() != 3 {
		t.Errorf("got (%d, %d), want (2, 3)", stmt.NumOfParams(), stmt.NumOfColumns())
	}
}
