// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

// Package mysqlclient implements the MySQL client/server wire
// protocol directly, without going through database/sql: packet
// framing, handshake and authentication (mysql_native_password,
// caching_sha2_password), text and binary result sets, prepared
// statements, transactions, and a bounded connection pool.
//
// Dial opens a single connection, which satisfies Session; Pool
// multiplexes work across a bounded set of reused connections and
// hands out those *Conn values through Acquire and WithConnection.
package mysqlclient
