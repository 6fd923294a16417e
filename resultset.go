// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

import (
	"strings"
)

// streamBufferSize bounds the back-pressure channel for streaming
// result sets (design note 9: "a bounded channel with blocking
// semantics so a slow consumer cannot consume unbounded memory").
const streamBufferSize = 32

// rowValue is one column's decoded value within a ResultSetRow.
type rowValue struct {
	text   string
	isNull bool
}

// ResultSetRow is one row of a ResultSet (spec 6, "ResultSetRow").
type ResultSetRow struct {
	cols   []Column
	byName map[string]int // lowercased name -> index, built lazily
	values []rowValue
}

func newResultSetRow(cols []Column, values []rowValue) *ResultSetRow {
	return &ResultSetRow{cols: cols, values: values}
}

// ColAt returns column i's canonical text and whether it was SQL
// NULL.
func (r *ResultSetRow) ColAt(i int) (string, bool, error) {
	if i < 0 || i >= len(r.values) {
		return "", false, newClientErr(KindInvalidArgument, "column index %d out of range", i)
	}
	v := r.values[i]
	return v.text, v.isNull, nil
}

// BytesAt is the binary-safe escape hatch named in design note 9 for
// columns whose bytes may not be valid UTF-8 (e.g. BLOB).
func (r *ResultSetRow) BytesAt(i int) ([]byte, bool, error) {
	text, isNull, err := r.ColAt(i)
	if err != nil {
		return nil, false, err
	}
	return []byte(text), isNull, nil
}

func (r *ResultSetRow) indexOf(name string) int {
	if r.byName == nil {
		r.byName = make(map[string]int, len(r.cols))
		for i, c := range r.cols {
			r.byName[strings.ToLower(c.Name)] = i
		}
	}
	i, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return -1
	}
	return i
}

// ColByName looks a column up case-insensitively (spec 6).
func (r *ResultSetRow) ColByName(name string) (string, bool, error) {
	i := r.indexOf(name)
	if i < 0 {
		return "", false, newClientErr(KindInvalidArgument, "no such column %q", name)
	}
	return r.ColAt(i)
}

// Assoc renders the row as a name->text map. NULL columns map to the
// empty string; use ColAt or ColByName to tell NULL from an empty
// value.
func (r *ResultSetRow) Assoc() map[string]string {
	out := make(map[string]string, len(r.cols))
	for i, c := range r.cols {
		out[c.Name] = r.values[i].text
	}
	return out
}

func (r *ResultSetRow) BoolAt(i int) (bool, error) {
	if i < 0 || i >= len(r.cols) {
		return false, newClientErr(KindInvalidArgument, "column index %d out of range", i)
	}
	if r.values[i].isNull {
		return false, newClientErr(KindInvalidArgument, "column %q is NULL", r.cols[i].Name)
	}
	return r.cols[i].asBool(r.values[i].text)
}

func (r *ResultSetRow) IntAt(i int) (int64, error) {
	if i < 0 || i >= len(r.cols) {
		return 0, newClientErr(KindInvalidArgument, "column index %d out of range", i)
	}
	if r.values[i].isNull {
		return 0, newClientErr(KindInvalidArgument, "column %q is NULL", r.cols[i].Name)
	}
	return r.cols[i].asInt(r.values[i].text)
}

func (r *ResultSetRow) FloatAt(i int) (float64, error) {
	if i < 0 || i >= len(r.cols) {
		return 0, newClientErr(KindInvalidArgument, "column index %d out of range", i)
	}
	if r.values[i].isNull {
		return 0, newClientErr(KindInvalidArgument, "column %q is NULL", r.cols[i].Name)
	}
	return r.cols[i].asFloat(r.values[i].text)
}

// DateTimeTextAt returns the canonical date/time text, still subject
// to 4.4's strict type check.
func (r *ResultSetRow) DateTimeTextAt(i int) (string, error) {
	if i < 0 || i >= len(r.cols) {
		return "", newClientErr(KindInvalidArgument, "column index %d out of range", i)
	}
	if r.values[i].isNull {
		return "", newClientErr(KindInvalidArgument, "column %q is NULL", r.cols[i].Name)
	}
	return r.cols[i].asDateTime(r.values[i].text)
}

// DurationAt decomposes a TIME column (open question in design note
// 9).
func (r *ResultSetRow) DurationAt(i int) (Duration, error) {
	if i < 0 || i >= len(r.cols) {
		return Duration{}, newClientErr(KindInvalidArgument, "column index %d out of range", i)
	}
	if r.values[i].isNull {
		return Duration{}, newClientErr(KindInvalidArgument, "column %q is NULL", r.cols[i].Name)
	}
	return r.cols[i].asDuration(r.values[i].text)
}

// RowStream is the streaming-mode row sink (spec 4.7, "rowsStream").
// Next blocks until a row is available, the stream ends, or a
// terminal error occurs.
type RowStream struct {
	rows chan *ResultSetRow
	errc chan error
}

func newRowStream() *RowStream {
	return &RowStream{
		rows: make(chan *ResultSetRow, streamBufferSize),
		errc: make(chan error, 1),
	}
}

// Next returns the next row, or (nil, nil) at a clean end of stream,
// or (nil, err) if the producer failed.
func (s *RowStream) Next() (*ResultSetRow, error) {
	row, ok := <-s.rows
	if ok {
		return row, nil
	}
	select {
	case err := <-s.errc:
		return nil, err
	default:
		return nil, nil
	}
}

func (s *RowStream) push(row *ResultSetRow) { s.rows <- row }

func (s *RowStream) finish(err error) {
	if err != nil {
		s.errc <- err
	}
	close(s.rows)
}

// ResultSet is the outcome of execute(Query) or StmtExecute (spec 6).
// Buffered result sets chain through Next for MORE_RESULTS_EXIST;
// streaming result sets are always single, single-pass, and never
// report NumOfRows.
type ResultSet struct {
	Columns      []Column
	AffectedRows uint64
	LastInsertID uint64

	rows      []*ResultSetRow
	streaming bool
	stream    *RowStream
	next      *ResultSet
}

// NumOfColumns is spec 6's numOfColumns.
func (rs *ResultSet) NumOfColumns() int { return len(rs.Columns) }

// NumOfRows fails fast on a streaming result set (design note 9,
// open question: "numOfRows is undefined for streaming result sets
// and must fail-fast; no silent defaulting").
func (rs *ResultSet) NumOfRows() (int, error) {
	if rs.streaming {
		return 0, newClientErr(KindUnsupported, "numOfRows is undefined for a streaming result set")
	}
	return len(rs.rows), nil
}

// Rows returns the buffered rows; empty (never nil) for a streaming
// result set.
func (rs *ResultSet) Rows() []*ResultSetRow {
	if rs.rows == nil {
		return []*ResultSetRow{}
	}
	return rs.rows
}

// Stream returns the streaming-mode row sink, or nil for a buffered
// result set.
func (rs *ResultSet) Stream() *RowStream { return rs.stream }

// Next is the link to the following result set in a multi-statement
// response (spec 6: "a next link for multi-result queries"), nil at
// the end of the chain. Only buffered result sets chain.
func (rs *ResultSet) Next() *ResultSet { return rs.next }

// rowDecoder reads one row's worth of column values off data,
// either as the text protocol (COM_QUERY) or the binary protocol
// (COM_STMT_EXECUTE), per spec 4.2/4.4.
type rowDecoder func(cols []Column, data []byte) ([]rowValue, error)

func decodeTextRow(cols []Column, data []byte) ([]rowValue, error) {
	values := make([]rowValue, len(cols))
	pos := 0
	for i := range cols {
		if pos >= len(data) {
			return nil, errMalformedPacket
		}
		if data[pos] == 0xfb {
			values[i] = rowValue{isNull: true}
			pos++
			continue
		}
		raw, isNull, n, err := readLengthEncodedString(data[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		values[i] = rowValue{text: string(raw), isNull: isNull}
	}
	return values, nil
}

func decodeBinaryRow(cols []Column, data []byte) ([]rowValue, error) {
	if len(data) == 0 || data[0] != 0x00 {
		return nil, errMalformedPacket
	}
	bitmapLen := (len(cols) + 9) / 8
	if 1+bitmapLen > len(data) {
		return nil, errMalformedPacket
	}
	bitmap := data[1 : 1+bitmapLen]
	pos := 1 + bitmapLen

	values := make([]rowValue, len(cols))
	for i, col := range cols {
		bytePos := (i + 2) / 8
		bitPos := uint((i + 2) % 8)
		if (bitmap[bytePos]>>bitPos)&1 == 1 {
			values[i] = rowValue{isNull: true}
			continue
		}
		text, n, err := decodeBinaryValue(col, data[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		values[i] = rowValue{text: text}
	}
	return values, nil
}

// readResultSet drives the 5-state assembler (spec 4.7). decode picks
// the text or binary row layout. release is the operation-lock
// releaser: for buffered results it runs before this call returns
// (the whole chain was read synchronously); for streaming results it
// runs once the background pump reaches EOF or a fatal error, or at
// once when the response was a bare OK with no rows to pump.
func (c *Conn) readResultSet(decode rowDecoder, streaming bool, release func()) (*ResultSet, error) {
	if streaming {
		rs, err := c.readResultSetBody(decode, true)
		if err != nil {
			release()
			return nil, err
		}
		if rs.stream == nil {
			release()
			return rs, nil
		}
		go c.pumpRowStream(rs, decode, release)
		return rs, nil
	}

	defer release()
	return c.readResultSetBody(decode, false)
}

// readResultSetBody implements the Initial/HaveColumnCount/HaveDefs
// states shared by both modes (spec 4.7), without any operation-lock
// bookkeeping (the caller owns that).
func (c *Conn) readResultSetBody(decode rowDecoder, streaming bool) (*ResultSet, error) {
	columnCount, ok, err := c.readResultSetHeader()
	if err != nil {
		return nil, err
	}
	if ok != nil {
		return &ResultSet{AffectedRows: ok.affectedRows, LastInsertID: ok.lastInsertID}, nil
	}

	cols, err := c.readColumns(columnCount)
	if err != nil {
		return nil, err
	}
	if _, err := c.readPacket(); err != nil { // EOF after column defs
		return nil, err
	}

	rs := &ResultSet{Columns: cols, streaming: streaming}
	if streaming {
		rs.stream = newRowStream()
		return rs, nil
	}
	if err := c.readBufferedRows(rs, decode); err != nil {
		return nil, err
	}
	return rs, nil
}

// readBufferedRows fills rs.rows and, on MORE_RESULTS_EXIST, recurses
// to build the linked chain (spec 4.7, "buffered mode").
func (c *Conn) readBufferedRows(rs *ResultSet, decode rowDecoder) error {
	for {
		data, err := c.readPacket()
		if err != nil {
			return err
		}
		if isEOFPacket(data) {
			status := statusFlag(readUint16(data[3:5]))
			c.status = status
			if status&statusMoreResultsExists != 0 {
				next, err := c.readResultSetBody(decode, false)
				if err != nil {
					return err
				}
				rs.next = next
			}
			return nil
		}
		if data[0] == iERR {
			return c.handleErrorPacket(data)
		}
		values, err := decode(rs.Columns, data)
		if err != nil {
			return err
		}
		rs.rows = append(rs.rows, newResultSetRow(rs.Columns, values))
	}
}

// pumpRowStream is the producer side of streaming mode: it owns the
// connection's read loop until EOF and pushes rows through the
// bounded channel, which blocks when the consumer falls behind. It
// releases the operation lock once the stream ends, successfully or
// not, since no further packets belonging to this command will
// arrive.
func (c *Conn) pumpRowStream(rs *ResultSet, decode rowDecoder, release func()) {
	defer release()
	for {
		data, err := c.readPacket()
		if err != nil {
			rs.stream.finish(err)
			return
		}
		if isEOFPacket(data) {
			c.status = statusFlag(readUint16(data[3:5]))
			rs.stream.finish(nil)
			return
		}
		if data[0] == iERR {
			rs.stream.finish(c.handleErrorPacket(data))
			return
		}
		values, err := decode(rs.Columns, data)
		if err != nil {
			rs.stream.finish(err)
			return
		}
		rs.stream.push(newResultSetRow(rs.Columns, values))
	}
}
