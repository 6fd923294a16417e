// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

// protocol limits
const (
	defaultPort          = 3306
	minProtocolVersion   = 10
	maxPacketSize        = 1<<24 - 1 // a single framed packet body
	maxPayloadSize       = 50 * 1024 * 1024
	maxIncompleteBuffer  = 16 * 1024 * 1024
	defaultConnectWindow = 15 // seconds, overridden by Settings.ConnectTimeout
)

// capabilityFlag is the 32-bit capability mask negotiated at handshake.
type capabilityFlag uint32

const (
	clientLongPassword capabilityFlag = 1 << iota
	clientFoundRows
	clientLongFlag
	clientConnectWithDB
	clientNoSchema
	clientCompress
	clientODBC
	clientLocalFiles
	clientIgnoreSpace
	clientProtocol41
	clientInteractive
	clientSSL
	clientIgnoreSigPipe
	clientTransactions
	clientReserved
	clientSecureConnection
	clientMultiStatements
	clientMultiResults
	clientPSMultiResults
	clientPluginAuth
	clientConnectAttrs
	clientPluginAuthLenencClientData
)

// baseClientCapabilities is what this client always advertises (spec 3).
const baseClientCapabilities = clientProtocol41 |
	clientSecureConnection |
	clientPluginAuth |
	clientPluginAuthLenencClientData |
	clientMultiStatements |
	clientMultiResults

// statusFlag mirrors the server's 16-bit status bitmap.
type statusFlag uint16

const (
	statusInTrans statusFlag = 1 << iota
	statusInAutocommit
	_
	statusMoreResultsExists
	statusNoGoodIndexUsed
	statusNoIndexUsed
	statusCursorExists
	statusLastRowSent
	statusDBDropped
	statusNoBackslashEscapes
	statusMetadataChanged
	statusQueryWasSlow
	statusPSOutParams
	statusInTransReadonly
	statusSessionStateChanged
)

// generic response packet indicator bytes
const (
	iOK          byte = 0x00
	iLocalInFile byte = 0xfb
	iEOF         byte = 0xfe
	iERR         byte = 0xff
	iExtraAuth   byte = 0x01
)

// command bytes (spec 4.2)
const (
	comQuit        byte = 0x01
	comInitDB      byte = 0x02
	comQuery       byte = 0x03
	comStmtPrepare byte = 0x16
	comStmtExecute byte = 0x17
	comStmtClose   byte = 0x19
)

// fieldType is the MySQL column type enum (spec 3, "MySQL column type").
type fieldType byte

const (
	fieldTypeDecimal fieldType = iota
	fieldTypeTiny
	fieldTypeShort
	fieldTypeLong
	fieldTypeFloat
	fieldTypeDouble
	fieldTypeNULL
	fieldTypeTimestamp
	fieldTypeLongLong
	fieldTypeInt24
	fieldTypeDate
	fieldTypeTime
	fieldTypeDateTime
	fieldTypeYear
	fieldTypeNewDate
	fieldTypeVarChar
	fieldTypeBit
)

const (
	fieldTypeNewDecimal fieldType = iota + 0xf6
	fieldTypeEnum
	fieldTypeSet
	fieldTypeTinyBLOB
	fieldTypeMediumBLOB
	fieldTypeLongBLOB
	fieldTypeBLOB
	fieldTypeVarString
	fieldTypeString
	fieldTypeGeometry
)

// fieldFlag mirrors the column-definition flags bitmap.
type fieldFlag uint16

const (
	flagNotNULL fieldFlag = 1 << iota
	flagPriKey
	flagUniqueKey
	flagMultipleKey
	flagBLOB
	flagUnsigned
	flagZeroFill
	flagBinary
	flagEnum
	flagAutoIncrement
	flagTimestamp
	flagSet
)

// default wire settings (spec 6, "Wire defaults")
const (
	defaultCollation = 33 // utf8_general_ci
	utf8mb4Collation = 45 // utf8mb4_general_ci, selectable by name in a DSN
)

// auth plugin names (spec 1, "Non-goals": only these two are supported)
const (
	authNativePassword  = "mysql_native_password"
	authCachingSHA2     = "caching_sha2_password"
	authClearPassword   = "mysql_clear_password"
	cacheSHA2FastAuth   = 0x03
	cacheSHA2FullAuth   = 0x04
)
