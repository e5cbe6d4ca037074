// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package transport carries one Frame out over a raw TCP connection and
// reads exactly one Response back, then closes the connection. There is
// no retry at this layer: a connection refused resolves immediately to a
// failed Response, and any retry policy belongs to the caller (the
// overlay's seek/maintenance logic).
package transport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/jonhillmtl/pckr/frame"
	"github.com/jonhillmtl/pckr/internal/pckrerr"
)

// DefaultDialTimeout bounds how long Send waits to establish the TCP
// connection before giving up.
const DefaultDialTimeout = 5 * time.Second

// Send opens a connection to addr, writes f as a single newline-terminated
// JSON line, reads back exactly one JSON response line, and closes the
// connection. A dial failure (including connection refused) is reported
// as a Response with Success=false rather than an error, matching the
// "resolves immediately, no retry" transport behavior.
func Send(addr string, f frame.Frame) (frame.Response, error) {
	conn, err := net.DialTimeout("tcp", addr, DefaultDialTimeout)
	if err != nil {
		return frame.Fail(f.FrameID, dialFailureReason(err)), nil
	}
	defer conn.Close()

	return SendOverConn(conn, f)
}

// SendOverConn writes f and reads back one response over an
// already-established connection, useful for tests that use an in-memory
// pipe instead of a real socket.
func SendOverConn(conn net.Conn, f frame.Frame) (frame.Response, error) {
	data, err := frame.Encode(f)
	if err != nil {
		return frame.Response{}, pckrerr.Decode("encode frame", err)
	}
	data = append(data, '\n')

	if _, err := conn.Write(data); err != nil {
		return frame.Response{}, pckrerr.Transport("write frame", err)
	}

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return frame.Response{}, pckrerr.Transport("read response", err)
	}

	var resp frame.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return frame.Response{}, pckrerr.Decode("decode response", err)
	}
	return resp, nil
}

// dialFailureReason renders a dial error into the short reason string a
// failed Response carries, e.g. "connection refused".
func dialFailureReason(err error) string {
	var opErr *net.OpError
	if ok := asOpError(err, &opErr); ok {
		return opErr.Err.Error()
	}
	return fmt.Sprintf("dial failed: %v", err)
}

func asOpError(err error, target **net.OpError) bool {
	for err != nil {
		if opErr, ok := err.(*net.OpError); ok {
			*target = opErr
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
