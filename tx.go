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
	"fmt"
)

// Transactional runs body under a transaction held for the whole
// call (spec 4.10). Nested transactions are rejected; on any error
// from body, ROLLBACK is attempted (its own error is swallowed, the
// original is preserved) before re-raising.
func (c *Conn) Transactional(ctx context.Context, body func(*Conn) (interface{}, error)) (interface{}, error) {
	if c.inTx {
		return nil, newClientErr(KindUnexpectedState, "transactional calls cannot be nested")
	}

	release, err := c.acquireOp(ctx)
	if err != nil {
		return nil, err
	}
	c.inTx = true
	c.txHolder = true
	defer func() {
		c.inTx = false
		c.txHolder = false
		release()
	}()

	if _, err := c.execQuery(ctx, "START TRANSACTION", false); err != nil {
		return nil, err
	}

	result, bodyErr := body(c)
	if bodyErr != nil {
		if _, rbErr := c.execQuery(ctx, "ROLLBACK", false); rbErr != nil {
			errLog.Print(fmt.Sprintf("mysqlclient: rollback after transaction body error also failed: %v", rbErr))
		}
		return nil, bodyErr
	}

	if _, err := c.execQuery(ctx, "COMMIT", false); err != nil {
		return nil, err
	}
	return result, nil
}
