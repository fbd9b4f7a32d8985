package websocket

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeRequest MessageType = "request"
	MessageTypeResult  MessageType = "result"
	MessageTypePing    MessageType = "ping"
	MessageTypePong    MessageType = "pong"
	MessageTypeError   MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id,omitempty"`
}

// RequestMessage asks for one pipeline run. Audio is base64 encoded.
type RequestMessage struct {
	BaseMessage
	Kind      entities.RequestKind `json:"kind"`
	Text      string               `json:"text,omitempty"`
	AudioData string               `json:"audio_data,omitempty"`
	Container string               `json:"container,omitempty"`
}

// ResultMessage carries a successful run back to the client
type ResultMessage struct {
	BaseMessage
	RequestID  string               `json:"request_id"`
	Kind       entities.RequestKind `json:"kind"`
	Transcript string               `json:"transcript,omitempty"`
	Text       string               `json:"text,omitempty"`
	AudioData  string               `json:"audio_data,omitempty"`
	MIMEType   string               `json:"mime_type,omitempty"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// ErrorMessage represents an error response. Code is the error kind.
type ErrorMessage struct {
	BaseMessage
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"error_code"`
	Message   string `json:"message"`
}

// MessageValidator provides validation for WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage parses an incoming text frame
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeRequest:
		var msg RequestMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid request message: %w", err)
		}
		if err := v.validateRequest(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

func (v *MessageValidator) validateRequest(msg *RequestMessage) error {
	if !msg.Kind.Valid() {
		return fmt.Errorf("kind must be one of: transcribe, voice_chat, chat, synthesize")
	}
	if msg.Kind.NeedsAudio() && msg.AudioData == "" {
		return fmt.Errorf("audio_data is required for %s", msg.Kind)
	}
	if !msg.Kind.NeedsAudio() && strings.TrimSpace(msg.Text) == "" {
		return fmt.Errorf("text is required for %s", msg.Kind)
	}
	return nil
}

// PipelineRequest converts the message into a pipeline request
func (m *RequestMessage) PipelineRequest() (entities.PipelineRequest, error) {
	req := entities.PipelineRequest{
		ID:   m.MessageID,
		Kind: m.Kind,
		Text: m.Text,
	}
	if m.AudioData != "" {
		data, err := base64.StdEncoding.DecodeString(m.AudioData)
		if err != nil {
			return entities.PipelineRequest{}, fmt.Errorf("audio_data is not valid base64: %w", err)
		}
		req.Audio = &entities.RawAudio{Data: data, Container: entities.Container(strings.ToLower(m.Container))}
	}
	return req, nil
}

// CreateResultMessage builds the response for a pipeline result. A failed
// result becomes an ErrorMessage.
func CreateResultMessage(result entities.PipelineResult) interface{} {
	if result.Failed() {
		msg := CreateErrorMessage(string(result.Err.Kind), result.Err.Message)
		msg.RequestID = result.RequestID
		return msg
	}

	msg := &ResultMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeResult,
			Timestamp: time.Now().Format(time.RFC3339),
			MessageID: result.RequestID,
		},
		RequestID: result.RequestID,
		Kind:      result.Kind,
		Text:      result.Text(),
	}
	if result.Transcript != nil {
		msg.Transcript = result.Transcript.Text
	}
	if result.Audio != nil {
		msg.AudioData = base64.StdEncoding.EncodeToString(result.Audio.Data)
		msg.MIMEType = result.Audio.MIMEType
	}
	return msg
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeError,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Code:    code,
		Message: message,
	}
}

// CreateValidationError wraps a malformed-message error
func CreateValidationError(err error) *ErrorMessage {
	return CreateErrorMessage(string(domain.KindValidation), err.Error())
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePong,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Data: data,
	}
}
