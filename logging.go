// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Logger is used to log critical, non-fatal diagnostic messages:
// auth-plugin switches, pool eviction, and the like. Callers can
// SetLogger to route these anywhere; the default writes through a
// package-owned logrus logger tagged component=mysqlclient.
type Logger interface {
	Print(v ...interface{})
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l logrusLogger) Print(v ...interface{}) {
	l.entry.Print(v...)
}

func newDefaultLogger() Logger {
	base := logrus.New()
	return logrusLogger{entry: base.WithField("component", "mysqlclient")}
}

var errLog = newDefaultLogger()

// SetLogger installs logger as the destination for critical
// diagnostic messages. The initial logger is a logrus.New() instance
// writing to logrus's default output.
func SetLogger(logger Logger) error {
	if logger == nil {
		return errLoggerNil
	}
	errLog = logger
	return nil
}

// logEntry renders structured context (connection id, state, command)
// into a single log line for the minimal Logger interface, so call
// sites can attach fields without depending on logrus directly.
func logEntry(fields logrus.Fields, msg string) string {
	out := msg
	for k, v := range fields {
		out += fmt.Sprintf(" %s=%v", k, v)
	}
	return out
}
