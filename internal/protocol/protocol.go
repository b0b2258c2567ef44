// Package protocol defines the messages exchanged on the record stream.
//
// The client opens the stream with a start message. The server answers with
// one JSON object per message: a FileRecord, or an error frame {"error": "..."}.
// The stream ends with a websocket close frame whose code tells a finished scan
// (1000) from a rejected start (1003) or a failed scan (1011).
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/Ning0612/Filegraph/internal/domain"
)

// TypeStart is the only message type a client sends
const TypeStart = "start"

// Close codes used by the server
const (
	CloseDone        = websocket.CloseNormalClosure
	CloseBadStart    = websocket.CloseUnsupportedData
	CloseScanFailure = websocket.CloseInternalServerErr
	CloseGoingAway   = websocket.CloseGoingAway
)

// Start asks the server to scan Root
type Start struct {
	Type string `json:"type"`
	Root string `json:"root"`

	// Watch keeps the stream open after the initial walk and pushes new files
	Watch bool `json:"watch,omitempty"`
}

// NewStart builds a start message for root
func NewStart(root string, watch bool) Start {
	return Start{Type: TypeStart, Root: root, Watch: watch}
}

// ParseStart decodes the first client message.
// Anything other than {"type":"start","root":<non-empty>} is ErrBadStart.
func ParseStart(data []byte) (Start, error) {
	var s Start
	if err := json.Unmarshal(data, &s); err != nil {
		return Start{}, fmt.Errorf("%w: %v", domain.ErrBadStart, err)
	}
	if s.Type != TypeStart || s.Root == "" {
		return Start{}, domain.ErrBadStart
	}
	return s, nil
}

// ErrorFrame reports a protocol-level failure to the client
type ErrorFrame struct {
	Error string `json:"error"`
}

// BadStartMessage is the error frame text for a rejected start message
const BadStartMessage = "Expected message of type 'start' with 'root'"

// InvalidDirectoryMessage formats the error frame text for a root that cannot be scanned
func InvalidDirectoryMessage(root string) string {
	return "Invalid directory: " + root
}

// Frame is one decoded server message: exactly one of Record and Error is set
type Frame struct {
	Record *domain.FileRecord
	Error  string
}

// IsError reports whether the frame carries an error message
func (f Frame) IsError() bool {
	return f.Record == nil
}

// DecodeFrame decodes a server message.
// Objects with an "error" key are error frames; everything else must be a record.
func DecodeFrame(data []byte) (Frame, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}
	if raw, ok := probe["error"]; ok {
		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil {
			msg = string(bytes.Trim(raw, `"`))
		}
		return Frame{Error: msg}, nil
	}

	var rec domain.FileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}
	return Frame{Record: &rec}, nil
}

// FoldersResponse is the body of GET /folders
type FoldersResponse struct {
	Folders []string `json:"folders"`
}

// IndexResponse is the body of GET /
type IndexResponse struct {
	Status     string `json:"status"`
	WSEndpoint string `json:"ws_endpoint"`
}

// CleanClose reports whether a close error from the websocket reader is a normal closure
func CleanClose(err error) bool {
	return websocket.IsCloseError(err, CloseDone)
}
