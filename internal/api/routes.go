package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/internal/websocket"
)

// audioField is the multipart field carrying uploads
const audioField = "audio"

// Service is the pipeline the handlers drive
type Service interface {
	Process(ctx context.Context, req entities.PipelineRequest) entities.PipelineResult
	Settings(ctx context.Context) (entities.Settings, error)
	UpdateSettings(ctx context.Context, update entities.Settings) (entities.Settings, error)
}

// Dependencies are the collaborators of the HTTP layer. Hub, Metrics and
// StaticDir are optional.
type Dependencies struct {
	Service   Service
	Hub       *websocket.Hub
	Metrics   http.Handler
	StaticDir string
	Logger    *zap.Logger
}

type handler struct {
	service Service
	logger  *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Dependencies) {
	h := &handler{service: deps.Service, logger: deps.Logger}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "suara",
		})
	})

	e.POST("/speech-to-text", h.speechToText)
	e.POST("/text-to-speech", h.textToSpeech)
	e.POST("/send-to-chatgpt", h.sendToChat)
	e.POST("/voice-chat", h.voiceChat)
	e.POST("/update-settings", h.updateSettings)
	e.GET("/settings", h.getSettings)

	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics))
	}
	if deps.Hub != nil {
		e.GET("/ws", func(c echo.Context) error {
			return websocket.HandleWebSocket(deps.Hub, c)
		})
	}
	if deps.StaticDir != "" {
		e.Static("/", deps.StaticDir)
	}
}

func (h *handler) speechToText(c echo.Context) error {
	audio, err := readUpload(c)
	if err != nil {
		return h.invalid(c, err)
	}
	result := h.service.Process(c.Request().Context(), entities.PipelineRequest{
		ID:    requestID(c),
		Kind:  entities.KindTranscribe,
		Audio: &audio,
	})
	if result.Failed() {
		return h.failure(c, result)
	}
	return c.JSON(http.StatusOK, TextResponse{Text: result.Text()})
}

func (h *handler) textToSpeech(c echo.Context) error {
	text, err := readText(c)
	if err != nil {
		return h.invalid(c, err)
	}
	result := h.service.Process(c.Request().Context(), entities.PipelineRequest{
		ID:   requestID(c),
		Kind: entities.KindSynthesize,
		Text: text,
	})
	if result.Failed() {
		return h.failure(c, result)
	}
	return audioResponse(c, result, false)
}

func (h *handler) sendToChat(c echo.Context) error {
	text, err := readText(c)
	if err != nil {
		return h.invalid(c, err)
	}
	result := h.service.Process(c.Request().Context(), entities.PipelineRequest{
		ID:   requestID(c),
		Kind: entities.KindChat,
		Text: text,
	})
	if result.Failed() {
		return h.failure(c, result)
	}
	return audioResponse(c, result, true)
}

func (h *handler) voiceChat(c echo.Context) error {
	audio, err := readUpload(c)
	if err != nil {
		return h.invalid(c, err)
	}
	result := h.service.Process(c.Request().Context(), entities.PipelineRequest{
		ID:    requestID(c),
		Kind:  entities.KindVoiceChat,
		Audio: &audio,
	})
	if result.Failed() {
		return h.failure(c, result)
	}
	return audioResponse(c, result, true)
}

func (h *handler) updateSettings(c echo.Context) error {
	var req SettingsRequest
	if err := c.Bind(&req); err != nil {
		return h.invalid(c, err)
	}

	stored, err := h.service.UpdateSettings(c.Request().Context(), req.settings())
	if err != nil {
		kind := domain.KindOf(err)
		h.logger.Warn("Settings update rejected", zap.String("errorKind", string(kind)), zap.Error(err))
		return c.JSON(StatusForKind(kind), ErrorResponse{
			Error:     domain.UserMessage(kind, domain.StageValidate, err),
			Kind:      string(kind),
			RequestID: requestID(c),
		})
	}
	return c.JSON(http.StatusOK, SettingsResponse{Status: "ok", Settings: stored})
}

func (h *handler) getSettings(c echo.Context) error {
	current, err := h.service.Settings(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to load settings", zap.Error(err))
		kind := domain.KindOf(err)
		return c.JSON(StatusForKind(kind), ErrorResponse{Error: err.Error(), Kind: string(kind)})
	}
	return c.JSON(http.StatusOK, current)
}

// audioResponse writes the synthesized audio. attachment marks the body as a
// download named response.mp3.
func audioResponse(c echo.Context, result entities.PipelineResult, attachment bool) error {
	header := c.Response().Header()
	for name, value := range result.MetadataHeaders() {
		header.Set(name, value)
	}
	if attachment {
		header.Set(echo.HeaderContentDisposition, "attachment; filename=response.mp3")
	}
	return c.Blob(http.StatusOK, result.Audio.MIMEType, result.Audio.Data)
}

func (h *handler) failure(c echo.Context, result entities.PipelineResult) error {
	return c.JSON(StatusForKind(result.Err.Kind), ErrorResponse{
		Error:     result.Err.Message,
		Kind:      string(result.Err.Kind),
		RequestID: result.RequestID,
	})
}

func (h *handler) invalid(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     domain.UserMessage(domain.KindValidation, domain.StageValidate, err),
		Kind:      string(domain.KindValidation),
		RequestID: requestID(c),
	})
}

func readUpload(c echo.Context) (entities.RawAudio, error) {
	file, err := c.FormFile(audioField)
	if err != nil {
		return entities.RawAudio{}, errors.New("multipart field \"audio\" is required")
	}
	src, err := file.Open()
	if err != nil {
		return entities.RawAudio{}, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return entities.RawAudio{}, err
	}

	container := entities.ContainerFromMIME(file.Header.Get(echo.HeaderContentType))
	if container == entities.ContainerUnknown {
		container = entities.ContainerFromFilename(file.Filename)
	}
	return entities.RawAudio{Data: data, Container: container}, nil
}

// readText accepts the text as JSON, form value or query parameter
func readText(c echo.Context) (string, error) {
	var req TextRequest
	if err := c.Bind(&req); err != nil {
		return "", err
	}
	text := req.Text
	if text == "" {
		text = c.QueryParam("text")
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("text is required")
	}
	return text, nil
}

func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
