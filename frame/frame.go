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

// Package frame defines the wire envelope every pckr connection carries:
// one JSON frame in, one JSON response out. Action is a closed,
// enumerated set rather than an open string, so dispatch over it is
// exhaustive rather than a dynamic lookup.
package frame

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Action identifies the kind of request a Frame carries.
type Action string

// The full action vocabulary the overlay protocol defines.
const (
	ActionPing                Action = "ping"
	ActionRequestPublicKey    Action = "request_public_key"
	ActionPublicKeyResponse   Action = "public_key_response"
	ActionChallengeUserPK     Action = "challenge_user_pk"
	ActionChallengeUserHasPK  Action = "challenge_user_has_pk"
	ActionSeekUser            Action = "seek_user"
	ActionSeekUserResponse    Action = "seek_user_response"
	ActionSurfaceUser         Action = "surface_user"
	ActionPulseNetwork        Action = "pulse_network"
	ActionCheckNetTopo        Action = "check_net_topo"
	ActionNetTopoDamaged      Action = "net_topo_damaged"
	ActionSendMessageKey      Action = "send_message_key"
	ActionSendMessage         Action = "send_message"
	ActionSendMessageTerm     Action = "send_message_term"
)

// KnownActions lists every action the protocol recognizes, for
// validation and for tests that assert exhaustive dispatch.
var KnownActions = []Action{
	ActionPing,
	ActionRequestPublicKey,
	ActionPublicKeyResponse,
	ActionChallengeUserPK,
	ActionChallengeUserHasPK,
	ActionSeekUser,
	ActionSeekUserResponse,
	ActionSurfaceUser,
	ActionPulseNetwork,
	ActionCheckNetTopo,
	ActionNetTopoDamaged,
	ActionSendMessageKey,
	ActionSendMessage,
	ActionSendMessageTerm,
}

// IsKnown reports whether a is one of KnownActions.
func (a Action) IsKnown() bool {
	for _, k := range KnownActions {
		if k == a {
			return true
		}
	}
	return false
}

// Frame is the envelope carried over a single connection: one frame,
// one response, then the connection closes.
type Frame struct {
	FrameID string                 `json:"frame_id"`
	Action  Action                 `json:"action"`
	Payload map[string]interface{} `json:"payload"`
}

// New builds a Frame with a freshly minted frame_id.
func New(action Action, payload map[string]interface{}) Frame {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return Frame{
		FrameID: uuid.NewString(),
		Action:  action,
		Payload: payload,
	}
}

// Encode renders a Frame as its wire JSON form.
func Encode(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

// Decode parses wire JSON into a Frame. A frame missing action or
// frame_id is reported via ok=false rather than an error, matching the
// requirement that a malformed frame becomes {success:false,
// error:<reason>} without ever panicking the connection handler.
func Decode(data []byte) (f Frame, reason string, ok bool) {
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, "invalid json: " + err.Error(), false
	}
	if f.FrameID == "" {
		return Frame{}, "missing frame_id", false
	}
	if f.Action == "" {
		return Frame{}, "missing action", false
	}
	if f.Payload == nil {
		f.Payload = map[string]interface{}{}
	}
	return f, "", true
}

// Response is the single JSON object written back on every connection,
// whether the frame was valid or not.
type Response struct {
	Success         bool                   `json:"success"`
	ResponseToFrame string                 `json:"response_to_frame,omitempty"`
	Error           string                 `json:"error,omitempty"`
	Fields          map[string]interface{} `json:"-"`
}

// Ok builds a successful Response, echoing the originating frame_id and
// merging in action-specific fields.
func Ok(responseToFrame string, fields map[string]interface{}) Response {
	return Response{Success: true, ResponseToFrame: responseToFrame, Fields: fields}
}

// Fail builds a failed Response carrying a human-readable reason.
func Fail(responseToFrame string, reason string) Response {
	return Response{Success: false, ResponseToFrame: responseToFrame, Error: reason}
}

// MarshalJSON flattens Fields alongside the fixed Success/ResponseToFrame/
// Error keys into one JSON object.
func (r Response) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"success": r.Success,
	}
	if r.ResponseToFrame != "" {
		out["response_to_frame"] = r.ResponseToFrame
	}
	if r.Error != "" {
		out["error"] = r.Error
	}
	for k, v := range r.Fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads success/response_to_frame/error into their fixed
// fields and everything else into Fields.
func (r *Response) UnmarshalJSON(data []byte) error {
	raw := map[string]interface{}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["success"].(bool); ok {
		r.Success = v
	}
	if v, ok := raw["response_to_frame"].(string); ok {
		r.ResponseToFrame = v
	}
	if v, ok := raw["error"].(string); ok {
		r.Error = v
	}
	delete(raw, "success")
	delete(raw, "response_to_frame")
	delete(raw, "error")
	r.Fields = raw
	return nil
}
