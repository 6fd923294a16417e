// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

import "context"

// Session is the unifying API spec 6 names for callers and for the
// pool's delegate: usable identically by a bare Conn and by a
// connection checked out of a Pool.
type Session interface {
	Execute(ctx context.Context, query string, params map[string]interface{}, streaming bool) (*ResultSet, error)
	Prepare(ctx context.Context, query string) (*PreparedStmt, error)
	Transactional(ctx context.Context, body func(*Conn) (interface{}, error)) (interface{}, error)
	Close() error
	IsOpen() bool
	Closed() <-chan struct{}
	OnClose(cb func())
}

var _ Session = (*Conn)(nil)

// Execute substitutes :name parameters (spec 4.5) and runs the query
// (spec 4.2, 4.7). An empty query fails with invalidArgument.
func (c *Conn) Execute(ctx context.Context, query string, params map[string]interface{}, streaming bool) (*ResultSet, error) {
	if query == "" {
		return nil, newClientErr(KindInvalidArgument, "query must not be empty")
	}
	rewritten, err := substituteParams(query, params)
	if err != nil {
		return nil, err
	}
	rs, err := c.execQuery(ctx, rewritten, streaming)
	return rs, attachQueryContext(err, query, params)
}
