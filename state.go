// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

// connState is the explicit tagged state of a Conn (spec 3,
// "Connection state"). Prefer switching on this tag over scattering
// boolean flags across the connection.
type connState int

const (
	stateFresh connState = iota
	stateWaitInitialHandshake
	stateInitialHandshakeResponseSent
	stateConnectionEstablished
	stateWaitingCommandResponse
	stateQuitCommandSent
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateFresh:
		return "Fresh"
	case stateWaitInitialHandshake:
		return "WaitInitialHandshake"
	case stateInitialHandshakeResponseSent:
		return "InitialHandshakeResponseSent"
	case stateConnectionEstablished:
		return "ConnectionEstablished"
	case stateWaitingCommandResponse:
		return "WaitingCommandResponse"
	case stateQuitCommandSent:
		return "QuitCommandSent"
	case stateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
