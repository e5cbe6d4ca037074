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

package transport

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonhillmtl/pckr/frame"
)

func TestSendAndHandlePingRoundTrip(t *testing.T) {
	surface, err := Listen("127.0.0.1", 19001, 5, func(f frame.Frame) frame.Response {
		require.Equal(t, frame.ActionPing, f.Action)
		return frame.Ok(f.FrameID, nil)
	}, nil)
	require.NoError(t, err)
	defer surface.Close()
	go surface.Serve()

	time.Sleep(20 * time.Millisecond)

	resp, err := Send(surface.Addr().String(), frame.New(frame.ActionPing, nil))
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestSendConnectionRefusedResolvesImmediately(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	start := time.Now()
	resp, err := Send(addr, frame.New(frame.ActionPing, nil))
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Less(t, elapsed, 2*time.Second, "connection refused must not incur a retry delay")
}

func TestSurfaceRejectsMalformedFrameWithoutMutatingState(t *testing.T) {
	called := false
	surface, err := Listen("127.0.0.1", 19010, 5, func(f frame.Frame) frame.Response {
		called = true
		return frame.Ok(f.FrameID, nil)
	}, nil)
	require.NoError(t, err)
	defer surface.Close()
	go surface.Serve()

	time.Sleep(20 * time.Millisecond)

	conn, err := net.Dial("tcp", surface.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not json at all\n"))
	require.NoError(t, err)

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	require.NoError(t, err)

	var resp frame.Response
	require.NoError(t, unmarshalResponse(buf[:n], &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
	assert.False(t, called, "the handler must never run for a frame that failed to decode")
}

func TestListenRetriesOnPortInUse(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:19020")
	require.NoError(t, err)
	defer occupied.Close()

	surface, err := Listen("127.0.0.1", 19020, 3, func(f frame.Frame) frame.Response {
		return frame.Ok(f.FrameID, nil)
	}, nil)
	require.NoError(t, err)
	defer surface.Close()

	_, portStr, err := net.SplitHostPort(surface.Addr().String())
	require.NoError(t, err)
	assert.NotEqual(t, "19020", portStr)
}

func unmarshalResponse(data []byte, resp *frame.Response) error {
	return resp.UnmarshalJSON(trimNewline(data))
}

func trimNewline(data []byte) []byte {
	for len(data) > 0 && (data[len(data)-1] == '\n' || data[len(data)-1] == '\r') {
		data = data[:len(data)-1]
	}
	return data
}

func TestDialFailureReasonIsHumanReadable(t *testing.T) {
	resp, err := Send(fmt.Sprintf("127.0.0.1:%d", 1), frame.New(frame.ActionPing, nil))
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}
