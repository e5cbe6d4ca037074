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

package overlay

import (
	"crypto/md5" //nolint:gosec // digest is a content-integrity checksum, not a security primitive
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jonhillmtl/pckr/frame"
	"github.com/jonhillmtl/pckr/identity"
	"github.com/jonhillmtl/pckr/internal/logger"
	"github.com/jonhillmtl/pckr/internal/metrics"
)

// defaultChunkSize is the plaintext size of every send_message chunk
// when the Engine wasn't given an explicit ChunkSize.
const defaultChunkSize = 4096

// chunkSize returns the plaintext size SendMessage splits content into.
func (e *Engine) chunkSize() int {
	if e.ChunkSize > 0 {
		return e.ChunkSize
	}
	return defaultChunkSize
}

// binaryMimeTypes are the mime types disposed of as binary rather than
// text when a chunk is appended to its staged blob.
var binaryMimeTypes = map[string]bool{
	"image/png": true,
	"image/jpg": true,
}

type messageKeyPayload struct {
	Password  string `json:"password"`
	MessageID string `json:"message_id"`
	Filename  string `json:"filename"`
	Length    int    `json:"length"`
	MD5       string `json:"md5"`
}

type messageChunkMeta struct {
	MessageID string `json:"message_id"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
}

// SendMessage uploads content to peerUsername as filename/mimeType in
// the three-phase key/chunk.../term sequence, each frame awaiting its
// response before the next is sent so per-peer ordering is preserved.
func (e *Engine) SendMessage(peerUsername, filename, mimeType string, content []byte) error {
	peerPub, ok := e.peerPublicKey(peerUsername)
	if !ok {
		return fmt.Errorf("overlay: no public key on file for %s", peerUsername)
	}

	start := time.Now()
	messageID := uuid.NewString()
	sum := md5.Sum(content) //nolint:gosec
	// Hex-encoded so the password survives the JSON key payload intact.
	chunkPassword := []byte(hex.EncodeToString(randomPassword()))

	keyJSON, err := json.Marshal(messageKeyPayload{
		Password:  string(chunkPassword),
		MessageID: messageID,
		Filename:  filename,
		Length:    len(content),
		MD5:       hex.EncodeToString(sum[:]),
	})
	if err != nil {
		return err
	}

	pw1 := randomPassword()
	keyEncrypted, err := symmetricEncryptHex(keyJSON, pw1)
	if err != nil {
		return err
	}
	pw1Encrypted, err := rsaEncryptHex(pw1, peerPub)
	if err != nil {
		return err
	}

	keyFrame := frame.New(frame.ActionSendMessageKey, map[string]interface{}{
		"key":      keyEncrypted,
		"password": pw1Encrypted,
	})
	if resp := e.sendToUsername(peerUsername, keyFrame); !resp.Success {
		return fmt.Errorf("send_message_key rejected: %s", resp.Error)
	}

	size := e.chunkSize()
	for offset := 0; offset < len(content); offset += size {
		end := offset + size
		if end > len(content) {
			end = len(content)
		}
		chunk := content[offset:end]

		pw2 := randomPassword()
		contentEncrypted, err := symmetricEncryptHex(chunk, chunkPassword)
		if err != nil {
			return err
		}
		metaJSON, err := json.Marshal(messageChunkMeta{MessageID: messageID, Filename: filename, MimeType: mimeType})
		if err != nil {
			return err
		}
		metaEncrypted, err := symmetricEncryptHex(metaJSON, pw2)
		if err != nil {
			return err
		}
		pw2Encrypted, err := rsaEncryptHex(pw2, peerPub)
		if err != nil {
			return err
		}

		chunkFrame := frame.New(frame.ActionSendMessage, map[string]interface{}{
			"password": pw2Encrypted,
			"meta":     metaEncrypted,
			"content":  contentEncrypted,
		})
		if resp := e.sendToUsername(peerUsername, chunkFrame); !resp.Success {
			return fmt.Errorf("send_message chunk rejected: %s", resp.Error)
		}
		metrics.MessageChunkSize.Observe(float64(len(chunk)))
	}

	pw3 := randomPassword()
	termJSON, err := json.Marshal(messageChunkMeta{MessageID: messageID, Filename: filename, MimeType: mimeType})
	if err != nil {
		return err
	}
	termEncrypted, err := symmetricEncryptHex(termJSON, pw3)
	if err != nil {
		return err
	}
	pw3Encrypted, err := rsaEncryptHex(pw3, peerPub)
	if err != nil {
		return err
	}

	termFrame := frame.New(frame.ActionSendMessageTerm, map[string]interface{}{
		"term":     termEncrypted,
		"password": pw3Encrypted,
	})
	resp := e.sendToUsername(peerUsername, termFrame)
	disposition := "text"
	if binaryMimeTypes[mimeType] {
		disposition = "binary"
	}
	status := "failure"
	if resp.Success {
		status = "success"
	}
	metrics.MessagesTransferred.WithLabelValues(disposition, status).Inc()
	metrics.MessageTransferDuration.Observe(time.Since(start).Seconds())
	if !resp.Success {
		return fmt.Errorf("send_message_term rejected: %s", resp.Error)
	}
	return nil
}

func (e *Engine) handleSendMessageKey(f frame.Frame) frame.Response {
	passwordHex, _ := f.Payload["password"].(string)
	keyHex, _ := f.Payload["key"].(string)

	pw1, err := rsaDecryptHex(e.ownKeyPair(), passwordHex)
	if err != nil {
		return frame.Fail(f.FrameID, "decrypt failed")
	}
	keyJSON, err := symmetricDecryptHex(keyHex, pw1)
	if err != nil {
		return frame.Fail(f.FrameID, "corrupt key")
	}
	var payload messageKeyPayload
	if err := json.Unmarshal(keyJSON, &payload); err != nil {
		return frame.Fail(f.FrameID, "malformed key")
	}

	err = e.Store.MessageKeyStore(payload.MessageID, identity.MessageKey{
		Password:  payload.Password,
		MessageID: payload.MessageID,
		Filename:  payload.Filename,
		Length:    payload.Length,
		MD5:       payload.MD5,
	})
	if err != nil {
		return frame.Fail(f.FrameID, "failed to stage message key")
	}
	return frame.Ok(f.FrameID, map[string]interface{}{"message": "key staged"})
}

func (e *Engine) handleSendMessage(f frame.Frame) frame.Response {
	passwordHex, _ := f.Payload["password"].(string)
	metaHex, _ := f.Payload["meta"].(string)
	contentHex, _ := f.Payload["content"].(string)

	pw2, err := rsaDecryptHex(e.ownKeyPair(), passwordHex)
	if err != nil {
		return frame.Fail(f.FrameID, "decrypt failed")
	}
	metaJSON, err := symmetricDecryptHex(metaHex, pw2)
	if err != nil {
		return frame.Fail(f.FrameID, "corrupt meta")
	}
	var meta messageChunkMeta
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return frame.Fail(f.FrameID, "malformed meta")
	}

	key, err := e.Store.MessageKeyLoad(meta.MessageID)
	if err != nil {
		return frame.Fail(f.FrameID, "chunk before key")
	}

	chunk, err := symmetricDecryptHex(contentHex, []byte(key.Password))
	if err != nil {
		return frame.Fail(f.FrameID, "corrupt chunk")
	}

	binary := binaryMimeTypes[meta.MimeType]
	if err := e.Store.MessageAppendChunk(meta.MessageID, filepath.Base(key.Filename), binary, chunk); err != nil {
		return frame.Fail(f.FrameID, "failed to append chunk")
	}
	metrics.MessageChunksReceived.Inc()
	return frame.Ok(f.FrameID, map[string]interface{}{"filename": key.Filename})
}

func (e *Engine) handleSendMessageTerm(f frame.Frame) frame.Response {
	passwordHex, _ := f.Payload["password"].(string)
	termHex, _ := f.Payload["term"].(string)

	pw3, err := rsaDecryptHex(e.ownKeyPair(), passwordHex)
	if err != nil {
		return frame.Fail(f.FrameID, "decrypt failed")
	}
	termJSON, err := symmetricDecryptHex(termHex, pw3)
	if err != nil {
		return frame.Fail(f.FrameID, "corrupt term")
	}
	var term messageChunkMeta
	if err := json.Unmarshal(termJSON, &term); err != nil {
		return frame.Fail(f.FrameID, "malformed term")
	}

	e.Log.Info("message complete",
		logger.MessageID(term.MessageID),
		logger.Filename(term.Filename),
		logger.MimeType(term.MimeType),
	)
	return frame.Ok(f.FrameID, map[string]interface{}{"filename": term.Filename})
}
