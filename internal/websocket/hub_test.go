package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
)

type fakeProcessor struct {
	mu       sync.Mutex
	requests []entities.PipelineRequest
	result   func(req entities.PipelineRequest) entities.PipelineResult
}

func (f *fakeProcessor) Process(ctx context.Context, req entities.PipelineRequest) entities.PipelineResult {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.result != nil {
		return f.result(req)
	}
	return entities.PipelineResult{
		RequestID: req.ID,
		Kind:      req.Kind,
		Reply:     &entities.CompletionReply{Text: "reply to " + req.Text},
		Audio:     &entities.SynthesizedAudio{Data: []byte("mp3"), MIMEType: entities.MIMETypeMP3},
	}
}

func (f *fakeProcessor) last() entities.PipelineRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func setupServer(t *testing.T, processor Processor) (*Hub, string) {
	t.Helper()
	hub := NewHub(processor, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(hub, c)
	})
	srv := httptest.NewServer(e)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_ChatRequest(t *testing.T) {
	processor := &fakeProcessor{}
	_, url := setupServer(t, processor)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":       "request",
		"message_id": "req-1",
		"kind":       "chat",
		"text":       "hello",
	}))

	msg := readJSON(t, conn)
	assert.Equal(t, "result", msg["type"])
	assert.Equal(t, "req-1", msg["request_id"])
	assert.Equal(t, "reply to hello", msg["text"])
	assert.Equal(t, "bXAz", msg["audio_data"])
	assert.Equal(t, entities.KindChat, processor.last().Kind)
}

func TestHub_BinaryFrameIsVoiceChat(t *testing.T) {
	processor := &fakeProcessor{}
	_, url := setupServer(t, processor)
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("RIFF....WAVE")))

	msg := readJSON(t, conn)
	assert.Equal(t, "result", msg["type"])
	req := processor.last()
	assert.Equal(t, entities.KindVoiceChat, req.Kind)
	assert.Equal(t, []byte("RIFF....WAVE"), req.Audio.Data)
}

func TestHub_FailedResult(t *testing.T) {
	processor := &fakeProcessor{result: func(req entities.PipelineRequest) entities.PipelineResult {
		return entities.PipelineResult{
			RequestID: req.ID,
			Err:       domain.NewPipelineError(domain.StageSynthesize, domain.ErrUnknownVoice),
		}
	}}
	_, url := setupServer(t, processor)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "request", "kind": "synthesize", "text": "hi"}))

	msg := readJSON(t, conn)
	assert.Equal(t, "error", msg["type"])
	assert.Equal(t, string(domain.KindUnknownVoice), msg["error_code"])
}

func TestHub_InvalidMessages(t *testing.T) {
	processor := &fakeProcessor{}
	_, url := setupServer(t, processor)
	conn := dial(t, url)

	for _, raw := range []string{
		`not json`,
		`{"type": "request", "kind": "chat"}`,
		`{"type": "request", "kind": "transcribe", "audio_data": "%%%"}`,
	} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
		msg := readJSON(t, conn)
		assert.Equal(t, "error", msg["type"], raw)
		assert.Equal(t, string(domain.KindValidation), msg["error_code"], raw)
	}
	assert.Empty(t, processor.requests)
}

func TestHub_Ping(t *testing.T) {
	_, url := setupServer(t, &fakeProcessor{})
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping", "data": "42"}))

	msg := readJSON(t, conn)
	assert.Equal(t, "pong", msg["type"])
	assert.Equal(t, "42", msg["data"])
}

func TestHub_TracksClients(t *testing.T) {
	hub, url := setupServer(t, &fakeProcessor{})

	first := dial(t, url)
	second := dial(t, url)
	assert.Eventually(t, func() bool { return hub.ActiveClients() == 2 }, 2*time.Second, 10*time.Millisecond)

	first.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	first.Close()
	assert.Eventually(t, func() bool { return hub.ActiveClients() == 1 }, 2*time.Second, 10*time.Millisecond)

	second.Close()
	assert.Eventually(t, func() bool { return hub.ActiveClients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_DisconnectCancelsInflightRequest(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	processor := &fakeProcessor{result: func(req entities.PipelineRequest) entities.PipelineResult {
		return entities.PipelineResult{}
	}}
	blocking := processorFunc(func(ctx context.Context, req entities.PipelineRequest) entities.PipelineResult {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return processor.Process(ctx, req)
	})
	_, url := setupServer(t, blocking)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "request", "kind": "chat", "text": "long story"}))
	<-started
	conn.Close()

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight request was not cancelled")
	}
}

type processorFunc func(ctx context.Context, req entities.PipelineRequest) entities.PipelineResult

func (f processorFunc) Process(ctx context.Context, req entities.PipelineRequest) entities.PipelineResult {
	return f(ctx, req)
}
