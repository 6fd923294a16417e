// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
)

// debugf traces a command as it is sent (kind "query" or
// "stmt_execute") through the installed Logger when Settings.Debug is
// set (SPEC_FULL.md section D). It is a no-op
// unless Debug is on, so the spew dump cost is never paid otherwise.
// Arguments are rendered with spew's %v-compatible formatter so byte
// slices (auth challenges, row payloads) print as readable dumps
// rather than raw escaped bytes.
func (c *Conn) debugf(kind string, format string, args ...interface{}) {
	if !c.settings.Debug {
		return
	}
	msg := logEntry(logrus.Fields{
		"connection_id": c.connectionID,
		"state":         c.state.String(),
		"kind":          kind,
	}, spew.Sprintf(format, args...))
	errLog.Print(msg)
}
