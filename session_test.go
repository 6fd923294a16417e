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

	"github.com/stretchr/testify/require"
)

func TestSessionInterfaceSatisfiedByConn(t *testing.T) {
	var _ Session = (*Conn)(nil)
}

func TestExecuteRejectsEmptyQuery(t *testing.T) {
	c := &Conn{}
	_, err := c.Execute(context.Background(), "", nil, false)
	require.True(t, IsKind(err, KindInvalidArgument))
}

func TestExecuteRequiresConnectionEstablished(t *testing.T) {
	// A zero-value Conn is stateFresh: Execute must fail on the state
	// check before ever touching the network.
	c := &Conn{}
	_, err := c.Execute(context.Background(), "SELECT 1", nil, false)
	require.True(t, IsKind(err, KindUnexpectedState))
}

func TestExecuteRejectsUnknownParamBeforeDialing(t *testing.T) {
	c := &Conn{}
	_, err := c.Execute(context.Background(), "SELECT :missing", map[string]interface{}{"present": 1}, false)
	require.True(t, IsKind(err, KindInvalidArgument))
}
