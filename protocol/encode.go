// go-siterm
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-siterm.
//
// go-siterm is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-siterm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-siterm; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package protocol

import (
	"strconv"
	"strings"
	"unicode"
)

// EncodeCommand turns a command line such as "i2c read 0x50 0x00 2" into
// wire bytes.
func EncodeCommand(input string) ([]byte, error) {
	out := make([]byte, 0, len(input)+2)
	return EncodeCommandInto(input, out)
}

// EncodeCommandInto is like EncodeCommand but appends to dst[:0] and returns
// the resulting slice.
func EncodeCommandInto(input string, dst []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, &EncodeError{Kind: ErrEncodeEmpty}
	}

	methodKeyword, rest := splitFirst(trimmed)
	method, ok := ParseMethod(methodKeyword)
	if !ok {
		return nil, &EncodeError{Kind: ErrEncodeUnknownMethod, Token: methodKeyword}
	}

	operation := OperationWrite
	if method != MethodEcho {
		if rest == "" {
			return nil, &EncodeError{Kind: ErrMissingOperation, Method: method}
		}
		var opKeyword string
		opKeyword, rest = splitFirst(rest)
		operation, ok = ParseOperation(opKeyword)
		if !ok {
			return nil, &EncodeError{Kind: ErrEncodeUnknownOp, Token: opKeyword, Method: method}
		}
	}

	if _, ok := Lookup(method, operation); !ok {
		return nil, &EncodeError{Kind: ErrEncodeUnsupported, Method: method, Operation: operation}
	}

	out := append(dst[:0], byte(method), byte(operation))

	switch {
	case method == MethodEcho:
		return append(out, rest...), nil
	case method == MethodI2C && operation == OperationRead:
		return encodeI2CRead(rest, out)
	case method == MethodI2C && operation == OperationWrite:
		return encodeI2CWrite(rest, out)
	default:
		return nil, &EncodeError{Kind: ErrEncodeUnsupported, Method: method, Operation: operation}
	}
}

// encodeI2CRead encodes "<address> <register> [<length>]"; length defaults to 1.
func encodeI2CRead(args string, out []byte) ([]byte, error) {
	const maxArgs = 3

	tokens := strings.Fields(args)
	if len(tokens) < 2 {
		return nil, &EncodeError{Kind: ErrMissingArgument, Index: len(tokens)}
	}
	if len(tokens) > maxArgs {
		return nil, &EncodeError{Kind: ErrUnexpectedArgument, Index: maxArgs}
	}

	address, err := ParseByte(tokens[0], 0)
	if err != nil {
		return nil, err
	}
	register, err := ParseByte(tokens[1], 1)
	if err != nil {
		return nil, err
	}
	length := byte(1)
	if len(tokens) == maxArgs {
		if length, err = ParseByte(tokens[2], 2); err != nil {
			return nil, err
		}
	}

	return append(out, address, register, length), nil
}

// encodeI2CWrite encodes "<address> <register> <byte> [<byte> ...]".
func encodeI2CWrite(args string, out []byte) ([]byte, error) {
	tokens := strings.Fields(args)
	if len(tokens) < 3 {
		return nil, &EncodeError{Kind: ErrMissingArgument, Index: len(tokens)}
	}

	for i, token := range tokens {
		b, err := ParseByte(token, i)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// ParseByte parses a decimal, 0x-hex or 0b-binary token into a byte. index
// is reported in the returned *EncodeError.
func ParseByte(token string, index int) (byte, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, &EncodeError{Kind: ErrMissingArgument, Index: index}
	}

	base, digits := 10, token
	switch {
	case strings.HasPrefix(token, "0x"), strings.HasPrefix(token, "0X"):
		base, digits = 16, token[2:]
	case strings.HasPrefix(token, "0b"), strings.HasPrefix(token, "0B"):
		base, digits = 2, token[2:]
	}
	if digits == "" || strings.HasPrefix(digits, "+") || strings.HasPrefix(digits, "-") {
		return 0, &EncodeError{Kind: ErrInvalidArgument, Index: index, Token: token}
	}

	v, err := strconv.ParseUint(digits, base, 8)
	if err != nil {
		return 0, &EncodeError{Kind: ErrInvalidArgument, Index: index, Token: token}
	}
	return byte(v), nil
}

// splitFirst splits s at the first whitespace and drops the whitespace run
// that separates head from rest.
func splitFirst(s string) (head, rest string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}
