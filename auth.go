// mysqlclient - A MySQL protocol client library for Go
//
// Copyright 2016 The gmysql Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysqlclient

import (
	"crypto/sha1"
	"crypto/sha256"
)

// computeAuthResponse dispatches to the scramble formula for the
// negotiated auth plugin (spec 4.3). Only mysql_native_password and
// caching_sha2_password are supported, per spec 1's Non-goals.
func computeAuthResponse(plugin string, challenge []byte, password string) ([]byte, error) {
	switch plugin {
	case authNativePassword:
		return scrambleNativePassword(challenge, []byte(password)), nil
	case authCachingSHA2:
		return scrambleCachingSHA2(challenge, []byte(password)), nil
	default:
		return nil, newClientErr(KindUnsupported, "auth plugin %q is not supported", plugin)
	}
}

// scrambleNativePassword implements mysql_native_password (spec 4.3):
// SHA1(pw) XOR SHA1(challenge || SHA1(SHA1(pw))).
func scrambleNativePassword(challenge, password []byte) []byte {
	if len(password) == 0 {
		return nil
	}
	stage1 := sha1.Sum(password)
	stage2 := sha1.Sum(stage1[:])

	h := sha1.New()
	h.Write(challenge)
	h.Write(stage2[:])
	scramble := h.Sum(nil)

	out := make([]byte, len(stage1))
	for i := range out {
		out[i] = stage1[i] ^ scramble[i]
	}
	return out
}

// scrambleCachingSHA2 implements caching_sha2_password's initial
// response (spec 4.3): SHA256(pw) XOR SHA256(SHA256(SHA256(pw)) || challenge).
func scrambleCachingSHA2(challenge, password []byte) []byte {
	if len(password) == 0 {
		return nil
	}
	stage1 := sha256.Sum256(password)
	stage2 := sha256.Sum256(stage1[:])

	h := sha256.New()
	h.Write(stage2[:])
	h.Write(challenge)
	scramble := h.Sum(nil)

	out := make([]byte, len(stage1))
	for i := range out {
		out[i] = stage1[i] ^ scramble[i]
	}
	return out
}
