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
	"math"
	"strconv"
	"strings"
)

// decodeBinaryValue renders one binary-protocol column value as its
// canonical text form (spec 4.4). It returns the number of wire
// bytes consumed so the caller can advance through the row.
func decodeBinaryValue(col Column, data []byte) (text string, n int, err error) {
	switch col.Type {
	case fieldTypeTiny:
		if col.Flags&flagUnsigned != 0 {
			return strconv.FormatUint(uint64(data[0]), 10), 1, nil
		}
		return strconv.FormatInt(int64(int8(data[0])), 10), 1, nil

	case fieldTypeShort, fieldTypeYear:
		v := readUint16(data[0:2])
		if col.Flags&flagUnsigned != 0 {
			return strconv.FormatUint(uint64(v), 10), 2, nil
		}
		return strconv.FormatInt(int64(int16(v)), 10), 2, nil

	case fieldTypeInt24, fieldTypeLong:
		v := readUint32(data[0:4])
		if col.Flags&flagUnsigned != 0 {
			return strconv.FormatUint(uint64(v), 10), 4, nil
		}
		return strconv.FormatInt(int64(int32(v)), 10), 4, nil

	case fieldTypeLongLong:
		v := readUint64(data[0:8])
		if col.Flags&flagUnsigned != 0 {
			return strconv.FormatUint(v, 10), 8, nil
		}
		return strconv.FormatInt(int64(v), 10), 8, nil

	case fieldTypeFloat:
		f := float64(math.Float32frombits(readUint32(data[0:4])))
		return strconv.FormatFloat(f, 'g', -1, 32), 4, nil

	case fieldTypeDouble:
		f := math.Float64frombits(readUint64(data[0:8]))
		return strconv.FormatFloat(f, 'g', -1, 64), 8, nil

	case fieldTypeDate, fieldTypeNewDate, fieldTypeDateTime, fieldTypeTimestamp:
		return decodeBinaryDateTime(data)

	case fieldTypeTime:
		return decodeBinaryTime(data)

	default:
		raw, isNull, consumed, err := readLengthEncodedString(data)
		if err != nil {
			return "", 0, err
		}
		if isNull {
			return "", consumed, errMalformedPacket // callers check the null bitmap first
		}
		return string(raw), consumed, nil
	}
}

// decodeBinaryDateTime handles DATE/DATETIME/TIMESTAMP (spec 4.4): a
// length byte followed by that many fields, zero-filled below it.
func decodeBinaryDateTime(data []byte) (string, int, error) {
	length := int(data[0])
	n := 1

	var year, month, day, hour, min, sec int
	var micros uint32

	if length >= 4 {
		year = int(readUint16(data[n : n+2]))
		month = int(data[n+2])
		day = int(data[n+3])
		n += 4
	}
	if length >= 7 {
		hour = int(data[n])
		min = int(data[n+1])
		sec = int(data[n+2])
		n += 3
	}
	if length >= 11 {
		micros = readUint32(data[n : n+4])
		n += 4
	}
	if length != 0 && length != 4 && length != 7 && length != 11 {
		return "", 0, newClientErr(KindUnexpectedPayload, "illegal date/time length byte %d", length)
	}

	text := fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%06d", year, month, day, hour, min, sec, micros)
	return text, n, nil
}

// decodeBinaryTime handles TIME (spec 4.4): is_negative, days, h, m,
// s, and an optional microseconds field.
func decodeBinaryTime(data []byte) (string, int, error) {
	length := int(data[0])
	n := 1

	if length == 0 {
		return "00:00:00.000000", n, nil
	}
	if length != 8 && length != 12 {
		return "", 0, newClientErr(KindUnexpectedPayload, "illegal time length byte %d", length)
	}

	negative := data[n] != 0
	days := readUint32(data[n+1 : n+5])
	hour := int(data[n+5])
	min := int(data[n+6])
	sec := int(data[n+7])
	n += 8

	var micros uint32
	if length == 12 {
		micros = readUint32(data[n : n+4])
		n += 4
	}

	totalHours := int(days)*24 + hour
	sign := ""
	if negative {
		sign = "-"
	}
	text := fmt.Sprintf("%s%02d:%02d:%02d.%06d", sign, totalHours, min, sec, micros)
	return text, n, nil
}

// ToSQLTexter lets a caller-defined type supply its own param
// encoding (spec section 9, "ToSqlText capability interface").
type ToSQLTexter interface {
	ToSQLText() (text string, isNull bool)
}

// toSQLText reduces v to its UTF-8 textual form for StmtExecute
// VAR_STRING parameter encoding (spec 4.2, design note 9: "the
// client never uses typed binary parameter encoding").
func toSQLText(v interface{}) (text string, isNull bool, err error) {
	switch x := v.(type) {
	case nil:
		return "", true, nil
	case ToSQLTexter:
		t, null := x.ToSQLText()
		return t, null, nil
	case bool:
		if x {
			return "1", false, nil
		}
		return "0", false, nil
	case string:
		return x, false, nil
	case []byte:
		if x == nil {
			return "", true, nil
		}
		return string(x), false, nil
	case int:
		return strconv.FormatInt(int64(x), 10), false, nil
	case int8:
		return strconv.FormatInt(int64(x), 10), false, nil
	case int16:
		return strconv.FormatInt(int64(x), 10), false, nil
	case int32:
		return strconv.FormatInt(int64(x), 10), false, nil
	case int64:
		return strconv.FormatInt(x, 10), false, nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), false, nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), false, nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), false, nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), false, nil
	case uint64:
		return strconv.FormatUint(x, 10), false, nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), false, nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), false, nil
	default:
		return "", false, newClientErr(KindInvalidArgument, "unsupported parameter type %T", v)
	}
}

// asBool converts a TINY column's text to bool; only "0" and "1"
// convert. Column does not record the display length, so every TINY
// column qualifies, not only TINY(1).
func (col Column) asBool(text string) (bool, error) {
	if col.Type != fieldTypeTiny {
		return false, newClientErr(KindInvalidArgument, "column %q of type %d is not convertible to bool", col.Name, col.Type)
	}
	switch text {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, newClientErr(KindInvalidArgument, "column %q TINY value %q is not 0/1", col.Name, text)
	}
}

func (col Column) isIntegerType() bool {
	switch col.Type {
	case fieldTypeTiny, fieldTypeShort, fieldTypeYear, fieldTypeInt24, fieldTypeLong, fieldTypeLongLong:
		return true
	}
	return false
}

// asInt applies 4.4's rule: int only from integer column types.
func (col Column) asInt(text string) (int64, error) {
	if !col.isIntegerType() {
		return 0, newClientErr(KindInvalidArgument, "column %q of type %d is not convertible to int", col.Name, col.Type)
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		if col.Flags&flagUnsigned != 0 {
			u, uerr := strconv.ParseUint(text, 10, 64)
			if uerr == nil {
				return int64(u), nil
			}
		}
		return 0, newClientErr(KindInvalidArgument, "column %q value %q is not an integer", col.Name, text)
	}
	return v, nil
}

// asFloat applies 4.4's rule: float from integer+FLOAT+DOUBLE.
func (col Column) asFloat(text string) (float64, error) {
	if !col.isIntegerType() && col.Type != fieldTypeFloat && col.Type != fieldTypeDouble {
		return 0, newClientErr(KindInvalidArgument, "column %q of type %d is not convertible to float", col.Name, col.Type)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, newClientErr(KindInvalidArgument, "column %q value %q is not a float", col.Name, text)
	}
	return v, nil
}

func (col Column) isDateTimeType() bool {
	switch col.Type {
	case fieldTypeDate, fieldTypeNewDate, fieldTypeDateTime, fieldTypeTimestamp, fieldTypeTime:
		return true
	}
	return false
}

// asDateTime applies 4.4's rule: date-time only from date/time
// column types; it hands back the canonical text unchanged since the
// caller picks its own parsing layout (date-only vs date-time vs time).
func (col Column) asDateTime(text string) (string, error) {
	if !col.isDateTimeType() {
		return "", newClientErr(KindInvalidArgument, "column %q of type %d is not convertible to a date/time", col.Name, col.Type)
	}
	return text, nil
}

// Duration decomposes a TIME column's canonical text back into its
// days/hours split (open question in design note 9: "preserve or
// decompose is unspecified — flag both").
type Duration struct {
	Negative bool
	Days     int
	Hour     int
	Min      int
	Sec      int
	Micros   int
}

func (col Column) asDuration(text string) (Duration, error) {
	if col.Type != fieldTypeTime {
		return Duration{}, newClientErr(KindInvalidArgument, "column %q of type %d is not a TIME column", col.Name, col.Type)
	}
	neg := strings.HasPrefix(text, "-")
	text = strings.TrimPrefix(text, "-")

	var hours, min, sec, micros int
	if _, err := fmt.Sscanf(text, "%d:%d:%d.%d", &hours, &min, &sec, &micros); err != nil {
		return Duration{}, newClientErr(KindInvalidArgument, "malformed TIME text %q", text)
	}
	return Duration{Negative: neg, Days: hours / 24, Hour: hours % 24, Min: min, Sec: sec, Micros: micros}, nil
}
