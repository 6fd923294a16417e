// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

import "testing"

func TestDecodeBinaryValueIntegers(t *testing.T) {
	cases := []struct {
		name string
		col  Column
		data []byte
		want string
		n    int
	}{
		{"tiny signed", Column{Type: fieldTypeTiny}, []byte{0xff}, "-1", 1},
		{"tiny unsigned", Column{Type: fieldTypeTiny, Flags: flagUnsigned}, []byte{0xff}, "255", 1},
		{"short signed", Column{Type: fieldTypeShort}, []byte{0xff, 0xff}, "-1", 2},
		{"long signed", Column{Type: fieldTypeLong}, []byte{0xff, 0xff, 0xff, 0xff}, "-1", 4},
		{"longlong unsigned", Column{Type: fieldTypeLongLong, Flags: flagUnsigned},
			[]byte{0, 0, 0, 0, 0, 0, 0, 0x80}, "9223372036854775808", 8},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			text, n, err := decodeBinaryValue(c.col, c.data)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if text != c.want || n != c.n {
				t.Errorf("got (%q, %d), want (%q, %d)", text, n, c.want, c.n)
			}
		})
	}
}

func TestDecodeBinaryDateTime(t *testing.T) {
	data := []byte{11, 0xdc, 0x07, 6, 15, 10, 20, 30, 1, 0, 0, 0}
	text, n, err := decodeBinaryDateTime(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "2012-06-15 10:20:30.000001"; text != want {
		t.Errorf("got %q, want %q", text, want)
	}
	if n != 12 {
		t.Errorf("consumed %d bytes, want 12", n)
	}
}

func TestDecodeBinaryDateTimeZeroLength(t *testing.T) {
	text, n, err := decodeBinaryDateTime([]byte{0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "0000-00-00 00:00:00.000000"; text != want {
		t.Errorf("got %q, want %q", text, want)
	}
	if n != 1 {
		t.Errorf("consumed %d bytes, want 1", n)
	}
}

func TestDecodeBinaryTime(t *testing.T) {
	// negative, 1 day, 02:03:04, no micros
	data := []byte{8, 1, 1, 0, 0, 0, 2, 3, 4}
	text, n, err := decodeBinaryTime(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "-26:03:04.000000"; text != want {
		t.Errorf("got %q, want %q", text, want)
	}
	if n != 9 {
		t.Errorf("consumed %d bytes, want 9", n)
	}
}

func TestDecodeBinaryTimeZero(t *testing.T) {
	text, n, err := decodeBinaryTime([]byte{0})
	if err != nil || text != "00:00:00.000000" || n != 1 {
		t.Errorf("got (%q, %d, %v), want (\"00:00:00.000000\", 1, nil)", text, n, err)
	}
}

func TestToSQLText(t *testing.T) {
	cases := []struct {
		in       interface{}
		wantText string
		wantNull bool
	}{
		{nil, "", true},
		{true, "1", false},
		{false, "0", false},
		{"hi", "hi", false},
		{42, "42", false},
		{uint32(7), "7", false},
		{3.5, "3.5", false},
		{[]byte(nil), "", true},
		{[]byte("blob"), "blob", false},
	}
	for _, c := range cases {
		text, isNull, err := toSQLText(c.in)
		if err != nil {
			t.Fatalf("toSQLText(%#v): unexpected error: %v", c.in, err)
		}
		if text != c.wantText || isNull != c.wantNull {
			t.Errorf("toSQLText(%#v) = (%q, %v), want (%q, %v)", c.in, text, isNull, c.wantText, c.wantNull)
		}
	}
}

type customTexter struct{ v string }

func (c customTexter) ToSQLText() (string, bool) { return c.v, false }

func TestToSQLTextCustomTexter(t *testing.T) {
	text, isNull, err := toSQLText(customTexter{v: "custom"})
	if err != nil || isNull || text != "custom" {
		t.Errorf("got (%q, %v, %v), want (\"custom\", false, nil)", text, isNull, err)
	}
}

func TestToSQLTextUnsupported(t *testing.T) {
	_, _, err := toSQLText(struct{}{})
	if !IsKind(err, KindInvalidArgument) {
		t.Errorf("expected KindInvalidArgument, got %v", err)
	}
}

func TestColumnAsBool(t *testing.T) {
	col := Column{Name: "flag", Type: fieldTypeTiny}
	v, err := col.asBool("1")
	if err != nil || !v {
		t.Errorf("asBool(\"1\") = (%v, %v), want (true, nil)", v, err)
	}
	if _, err := col.asBool("2"); err == nil {
		t.Error("expected an error for an out-of-range TINY bool value")
	}
	wrongType := Column{Name: "n", Type: fieldTypeLong}
	if _, err := wrongType.asBool("1"); !IsKind(err, KindInvalidArgument) {
		t.Errorf("expected KindInvalidArgument for a non-TINY column, got %v", err)
	}
}

func TestColumnAsInt(t *testing.T) {
	col := Column{Name: "n", Type: fieldTypeLong}
	v, err := col.asInt("-5")
	if err != nil || v != -5 {
		t.Errorf("asInt(\"-5\") = (%d, %v), want (-5, nil)", v, err)
	}
	notInt := Column{Name: "s", Type: fieldTypeVarString}
	if _, err := notInt.asInt("5"); !IsKind(err, KindInvalidArgument) {
		t.Errorf("expected KindInvalidArgument for a non-integer column type, got %v", err)
	}
}

func TestColumnAsFloat(t *testing.T) {
	col := Column{Name: "f", Type: fieldTypeDouble}
	v, err := col.asFloat("3.25")
	if err != nil || v != 3.25 {
		t.Errorf("asFloat(\"3.25\") = (%v, %v), want (3.25, nil)", v, err)
	}
}

func TestColumnAsDuration(t *testing.T) {
	col := Column{Name: "t", Type: fieldTypeTime}
	d, err := col.asDuration("-26:03:04.000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Duration{Negative: true, Days: 1, Hour: 2, Min: 3, Sec: 4, Micros: 1}
	if d != want {
		t.Errorf("asDuration got %+v, want %+v", d, want)
	}
}
