// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

// Column is the standard protocol-41 column-definition packet (spec
// 3, "Column definition"), trimmed to the fields callers need.
type Column struct {
	Schema    string
	Table     string
	Name      string
	OrgName   string
	Type      fieldType
	Flags     fieldFlag
	Decimals  byte
}

// lastOK carries the fields out of an OK packet for the caller of
// whatever command produced it (spec 4.2's OK packet layout).
type lastOK struct {
	affectedRows uint64
	lastInsertID uint64
	status       statusFlag
	warnings     uint16
}

// handleOkPacket parses an OK packet and updates connection status
// flags (spec 4.2).
func (c *Conn) handleOkPacket(data []byte) error {
	ok, err := parseOkPacket(data)
	if err != nil {
		return err
	}
	return c.applyOk(ok)
}

// applyOk updates status from a parsed OK packet and, under
// Settings.Strict, escalates a non-zero warning count into an error
// (spec 4.9's "opt-in Strict flag resolved in the settings merge";
// teacher's conn.strict). Escalation only applies to a command's own
// OK, not the post-auth one, since the wire is only guaranteed clear
// of that command's remaining packets at that point.
func (c *Conn) applyOk(ok lastOK) error {
	c.status = ok.status
	if c.settings.Strict && ok.warnings > 0 && c.state == stateWaitingCommandResponse {
		return c.checkWarnings()
	}
	return nil
}

func parseOkPacket(data []byte) (lastOK, error) {
	if len(data) < 7 || data[0] != iOK {
		return lastOK{}, errMalformedPacket
	}
	pos := 1
	affected, _, n := readLengthEncodedInteger(data[pos:])
	pos += n
	insertID, _, n := readLengthEncodedInteger(data[pos:])
	pos += n
	if pos+4 > len(data) {
		return lastOK{}, errMalformedPacket
	}
	status := statusFlag(readUint16(data[pos : pos+2]))
	warnings := readUint16(data[pos+2 : pos+4])
	return lastOK{affectedRows: affected, lastInsertID: insertID, status: status, warnings: warnings}, nil
}

// handleErrorPacket decodes an ERR packet into a *ServerError (spec
// 4.2, 7). The connection itself stays usable; only the command
// fails.
func (c *Conn) handleErrorPacket(data []byte) error {
	if len(data) == 0 || data[0] != iERR {
		return errMalformedPacket
	}
	code := readUint16(data[1:3])
	pos := 3
	sqlState := ""
	if len(data) > 3 && data[3] == '#' {
		if len(data) < 9 {
			return errMalformedPacket
		}
		sqlState = string(data[4:9])
		pos = 9
	}
	return &ServerError{Code: code, Message: string(data[pos:]), SQLState: sqlState}
}

// readColumns reads count column-definition packets (spec 3, "Column
// definition").
func (c *Conn) readColumns(count int) ([]Column, error) {
	columns := make([]Column, count)
	for i := 0; i < count; i++ {
		data, err := c.readPacket()
		if err != nil {
			return nil, err
		}
		col, err := parseColumnDef(data)
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}
	return columns, nil
}

func parseColumnDef(data []byte) (Column, error) {
	pos, err := skipLengthEncodedString(data) // catalog
	if err != nil {
		return Column{}, err
	}
	schema, _, n, err := readLengthEncodedString(data[pos:])
	if err != nil {
		return Column{}, err
	}
	pos += n

	table, _, n, err := readLengthEncodedString(data[pos:])
	if err != nil {
		return Column{}, err
	}
	pos += n

	n, err = skipLengthEncodedString(data[pos:]) // org_table
	if err != nil {
		return Column{}, err
	}
	pos += n

	name, _, n, err := readLengthEncodedString(data[pos:])
	if err != nil {
		return Column{}, err
	}
	pos += n

	orgName, _, n, err := readLengthEncodedString(data[pos:])
	if err != nil {
		return Column{}, err
	}
	pos += n

	// fixed-length fields block: filler(1) + charset(2) + length(4)
	pos += 1 + 2 + 4

	if pos+2 > len(data) {
		return Column{}, errMalformedPacket
	}
	ftype := fieldType(data[pos])
	pos++
	flags := fieldFlag(readUint16(data[pos : pos+2]))
	pos += 2
	decimals := data[pos]

	return Column{
		Schema:   string(schema),
		Table:    string(table),
		Name:     string(name),
		OrgName:  string(orgName),
		Type:     ftype,
		Flags:    flags,
		Decimals: decimals,
	}, nil
}

// readResultSetHeader reads the first body byte of a command's
// response and classifies it (spec 4.7, "From Initial").
//
// It returns columnCount > 0 to continue into HaveColumnCount, or
// ok != nil for an empty (OK) result, with err set for ERR / the
// LOCAL INFILE marker (KindUnsupported: LOAD DATA LOCAL is not
// implemented).
func (c *Conn) readResultSetHeader() (columnCount int, ok *lastOK, err error) {
	data, err := c.readPacket()
	if err != nil {
		return 0, nil, err
	}
	switch data[0] {
	case iOK:
		parsed, perr := parseOkPacket(data)
		if perr != nil {
			return 0, nil, perr
		}
		if err := c.applyOk(parsed); err != nil {
			return 0, nil, err
		}
		return 0, &parsed, nil
	case iERR:
		return 0, nil, c.handleErrorPacket(data)
	case iLocalInFile:
		return 0, nil, newClientErr(KindUnsupported, "LOAD DATA LOCAL is not implemented")
	}

	count, _, n := readLengthEncodedInteger(data)
	if n != len(data) {
		return 0, nil, errMalformedPacket
	}
	return int(count), nil, nil
}
