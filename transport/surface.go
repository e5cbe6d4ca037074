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
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/jonhillmtl/pckr/frame"
	"github.com/jonhillmtl/pckr/internal/logger"
)

// Handler processes one decoded frame and returns the response to write
// back. It never holds the connection open past this single exchange.
type Handler func(f frame.Frame) frame.Response

// Surface is the TCP listener every pckr identity binds: one accept
// loop, one handler goroutine per connection, one frame in and one
// response out per connection.
type Surface struct {
	listener    net.Listener
	handler     Handler
	log         logger.Logger
	readTimeout time.Duration
}

// SetReadTimeout bounds how long a connection's single frame read may
// take before it's abandoned; zero (the default) waits indefinitely.
func (s *Surface) SetReadTimeout(d time.Duration) {
	s.readTimeout = d
}

// Listen binds to host with the given preferred port, incrementing the
// port and retrying on "address already in use" up to maxAttempts times
// before giving up.
func Listen(host string, preferredPort, maxAttempts int, handler Handler, log logger.Logger) (*Surface, error) {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		port := preferredPort + attempt
		addr := fmt.Sprintf("%s:%d", host, port)
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			log.Info("surface listening", logger.String("addr", addr))
			return &Surface{listener: ln, handler: handler, log: log}, nil
		}
		lastErr = err
		log.Warn("bind failed, retrying next port", logger.String("addr", addr), logger.Error(err))
	}
	return nil, fmt.Errorf("transport: no free port after %d attempts: %w", maxAttempts, lastErr)
}

// Addr returns the bound address.
func (s *Surface) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops accepting new connections.
func (s *Surface) Close() error {
	return s.listener.Close()
}

// Serve runs the accept loop until the listener is closed. Each
// connection is handled by its own goroutine that reads one frame,
// writes one response, and returns — no handler holds a socket across
// multiple frames.
func (s *Surface) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Surface) handleConn(conn net.Conn) {
	defer conn.Close()

	if s.readTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		s.log.Warn("connection closed before a frame arrived", logger.Error(err))
		return
	}

	f, reason, ok := frame.Decode(line)
	var resp frame.Response
	if !ok {
		resp = frame.Fail("", reason)
	} else {
		resp = s.handler(f)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("failed to marshal response", logger.Error(err))
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.log.Warn("failed to write response", logger.Error(err))
	}
}
