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

// Package overlay is the Incoming handler and the originating client
// operations (seek, challenge, pulse, messaging) that ride on top of
// frame and transport. It dispatches on action as a closed, exhaustive
// switch rather than a dynamic string lookup, and treats every identity
// concern as a capability injected via identity.Store.
package overlay

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/jonhillmtl/pckr/crypto"
	"github.com/jonhillmtl/pckr/frame"
	"github.com/jonhillmtl/pckr/identity"
	"github.com/jonhillmtl/pckr/internal/logger"
	"github.com/jonhillmtl/pckr/internal/metrics"
	"github.com/jonhillmtl/pckr/transport"
)

// Sender abstracts transport.Send so tests can substitute an in-memory
// fake instead of opening real sockets.
type Sender func(addr string, f frame.Frame) (frame.Response, error)

// Engine holds the identity store and outbound collaborators every
// overlay operation needs: where to send frames, how to log, what our
// own bound address is.
type Engine struct {
	Store    identity.Store
	Send     Sender
	Log      logger.Logger
	SelfIP   string
	SelfPort int
	// ChunkSize overrides defaultChunkSize for SendMessage when positive.
	ChunkSize int
	// MaintenanceMinInterval/MaintenanceMaxInterval override
	// MinMaintenanceInterval/MaxMaintenanceInterval for
	// RunMaintenanceLoop when both are set to a sane span.
	MaintenanceMinInterval time.Duration
	MaintenanceMaxInterval time.Duration
}

// New builds an Engine. send defaults to transport.Send; log defaults to
// the package default logger.
func New(store identity.Store, selfIP string, selfPort int, send Sender, log logger.Logger) *Engine {
	if send == nil {
		send = transport.Send
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Engine{Store: store, Send: send, Log: log, SelfIP: selfIP, SelfPort: selfPort}
}

// Handle dispatches an inbound frame to its handler. Every member of
// frame.KnownActions has a case here; an unrecognized action is a
// Decode-class error, not a crash.
func (e *Engine) Handle(f frame.Frame) frame.Response {
	start := time.Now()
	ctx := logger.ContextWithFrameID(context.Background(), f.FrameID)
	e.Log.WithContext(ctx).Debug("dispatching frame", logger.String("action", string(f.Action)))
	resp := e.dispatch(f)
	metrics.FrameProcessingDuration.WithLabelValues(string(f.Action)).Observe(time.Since(start).Seconds())
	status := "failure"
	if resp.Success {
		status = "success"
	}
	metrics.FramesReceived.WithLabelValues(string(f.Action), status).Inc()
	return resp
}

func (e *Engine) dispatch(f frame.Frame) frame.Response {
	switch f.Action {
	case frame.ActionPing:
		return e.handlePing(f)
	case frame.ActionSurfaceUser:
		return e.handleSurfaceUser(f)
	case frame.ActionRequestPublicKey:
		return e.handleRequestPublicKey(f)
	case frame.ActionPublicKeyResponse:
		return e.handlePublicKeyResponse(f)
	case frame.ActionChallengeUserPK:
		return e.handleChallengeUserPK(f)
	case frame.ActionChallengeUserHasPK:
		return e.handleChallengeUserHasPK(f)
	case frame.ActionSeekUser:
		return e.handleSeekUser(f)
	case frame.ActionSeekUserResponse:
		return e.handleSeekUserResponse(f)
	case frame.ActionPulseNetwork:
		return e.handlePulseNetwork(f)
	case frame.ActionCheckNetTopo:
		return e.handleCheckNetTopo(f)
	case frame.ActionNetTopoDamaged:
		return e.handleNetTopoDamaged(f)
	case frame.ActionSendMessageKey:
		return e.handleSendMessageKey(f)
	case frame.ActionSendMessage:
		return e.handleSendMessage(f)
	case frame.ActionSendMessageTerm:
		return e.handleSendMessageTerm(f)
	default:
		return frame.Fail(f.FrameID, fmt.Sprintf("unknown action: %s", f.Action))
	}
}

// sendToUsername resolves username via the address book and sends f,
// returning a Transport-class failure response if the peer is unknown
// or unreachable.
func (e *Engine) sendToUsername(username string, f frame.Frame) frame.Response {
	peer, ok := e.Store.IPCacheGet(username)
	if !ok {
		return frame.Fail(f.FrameID, "unknown peer: "+username)
	}
	addr := fmt.Sprintf("%s:%d", peer.IP, peer.Port)
	resp, err := e.Send(addr, f)
	if err != nil {
		return frame.Fail(f.FrameID, err.Error())
	}
	return resp
}

// peerPublicKey looks up and decodes a known peer's public key.
func (e *Engine) peerPublicKey(username string) (*rsa.PublicKey, bool) {
	pemText, ok := e.Store.PublicKeyGet(username)
	if !ok {
		return nil, false
	}
	pub, err := decodePublicKeyPEM(pemText)
	if err != nil {
		return nil, false
	}
	return pub, true
}

// ownKeyPair is a small accessor so handlers read Engine.Store.KeyPair()
// through one spelling.
func (e *Engine) ownKeyPair() crypto.KeyPair {
	return e.Store.KeyPair()
}

// selfAddr returns the coordinates we advertise to peers in host_info.
// The persisted value a bound Surface wrote via SaveCurrentIPPort wins
// over the in-memory SelfIP/SelfPort the Engine was constructed with,
// since a process can build an Engine (e.g. a one-shot CLI command)
// without ever binding a listener itself; falling back to the last
// address a "surface" run actually bound to is more trustworthy than a
// stale --ip/--port default.
func (e *Engine) selfAddr() (string, int) {
	if ip, port, err := e.Store.LoadCurrentIPPort(); err == nil {
		return ip, port
	}
	return e.SelfIP, e.SelfPort
}
