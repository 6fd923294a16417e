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

// substituteParams rewrites every active `:name` occurrence in query
// with its formatted value (spec 4.5). An occurrence is active iff
// the number of `'` and `"` seen before it are both even - i.e. it
// is not inside a string literal.
func substituteParams(query string, params map[string]interface{}) (string, error) {
	if len(params) == 0 {
		return query, nil
	}

	var out strings.Builder
	singleQuotes, doubleQuotes := 0, 0
	i := 0
	for i < len(query) {
		ch := query[i]
		switch ch {
		case '\'':
			singleQuotes++
			out.WriteByte(ch)
			i++
			continue
		case '"':
			doubleQuotes++
			out.WriteByte(ch)
			i++
			continue
		case ':':
			active := singleQuotes%2 == 0 && doubleQuotes%2 == 0
			name, length := scanIdentifier(query[i+1:])
			if active && length > 0 {
				v, ok := params[name]
				if !ok {
					return "", newClientErr(KindInvalidArgument, "unknown parameter %q", name)
				}
				text, err := formatSQLLiteral(v)
				if err != nil {
					return "", err
				}
				out.WriteString(text)
				i += 1 + length
				continue
			}
		}
		out.WriteByte(ch)
		i++
	}
	return out.String(), nil
}

// scanIdentifier reads a leading run of word characters (the `:name`
// identifier grammar in spec 4.5).
func scanIdentifier(s string) (name string, length int) {
	for length < len(s) && isWordChar(s[length]) {
		length++
	}
	return s[:length], length
}

func isWordChar(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// formatSQLLiteral renders v as a SQL literal per spec 4.5: null ->
// NULL, numeric -> decimal, boolean -> TRUE/FALSE, everything else
// -> a quoted, escaped string.
func formatSQLLiteral(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		text, _, err := toSQLText(x)
		return text, err
	case string:
		return quoteSQLString(x), nil
	case []byte:
		if x == nil {
			return "NULL", nil
		}
		return quoteSQLString(string(x)), nil
	default:
		if texter, ok := v.(ToSQLTexter); ok {
			text, isNull := texter.ToSQLText()
			if isNull {
				return "NULL", nil
			}
			return quoteSQLString(text), nil
		}
		return "", newClientErr(KindInvalidArgument, "unsupported parameter type %T", v)
	}
}

func quoteSQLString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`''`)
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('\'')
	return b.String()
}
