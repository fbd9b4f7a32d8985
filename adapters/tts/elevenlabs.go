package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

const (
	elevenLabsBackend   = "elevenlabs"
	defaultAPIBaseURL   = "https://api.elevenlabs.io/v1"
	defaultFemaleVoice  = "21m00Tcm4TlvDq8ikWAM"   // Rachel voice
	defaultMaleVoice    = "pNInz6obpgDQGcFmaJgB"   // Adam voice
	defaultOutputFormat = "mp3_44100_128"          // MP3 so responses stream as audio/mpeg
	defaultModelID      = "eleven_multilingual_v2" // Default model ID
	defaultStability    = 0.5                      // Default voice stability
	defaultClarity      = 0.75                     // Default voice clarity/similarity_boost
	defaultHTTPTimeout  = 60 * time.Second
)

// ElevenLabsConfig holds configuration for the ElevenLabsTTS adapter
// Required fields:
// - APIKey: Your Eleven Labs API key
// Optional fields with defaults:
// - APIBaseURL: The base URL for the Eleven Labs API (default: "https://api.elevenlabs.io/v1")
// - FemaleVoiceID / MaleVoiceID: provider voices for each identity (default: Rachel / Adam)
// - ModelID: The model ID to use (default: "eleven_multilingual_v2")
// - OutputFormat: An mp3 output format (default: "mp3_44100_128")
// - Stability: Voice stability value between 0 and 1 (default: 0.5)
// - Clarity: Voice clarity/similarity boost value between 0 and 1 (default: 0.75)
type ElevenLabsConfig struct {
	APIKey        string
	APIBaseURL    string
	FemaleVoiceID string
	MaleVoiceID   string
	ModelID       string
	OutputFormat  string
	Stability     float64
	Clarity       float64
}

// ElevenLabsTTS implements TextToSpeech interface using Eleven Labs API
type ElevenLabsTTS struct {
	apiKey       string
	apiBaseURL   string
	voices       voiceTable
	modelID      string
	outputFormat string
	stability    float64
	clarity      float64
	httpClient   *http.Client
	logger       *zap.Logger
}

// Ensure ElevenLabsTTS implements the TextToSpeech interface
var _ repositories.TextToSpeech = (*ElevenLabsTTS)(nil)

// ElevenLabsVoiceSettings represents voice settings for Eleven Labs API
type ElevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

// ElevenLabsRequest represents the request payload for Eleven Labs TTS API
type ElevenLabsRequest struct {
	Text                   string                  `json:"text"`
	ModelID                string                  `json:"model_id"`
	VoiceSettings          ElevenLabsVoiceSettings `json:"voice_settings"`
	ApplyTextNormalization string                  `json:"apply_text_normalization,omitempty"`
}

// ValidateElevenLabsConfig validates the ElevenLabsConfig
func ValidateElevenLabsConfig(config ElevenLabsConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("eleven labs API key is required")
	}

	if config.Stability != 0 && (config.Stability < 0 || config.Stability > 1) {
		return fmt.Errorf("stability must be between 0 and 1, got %f", config.Stability)
	}

	if config.Clarity != 0 && (config.Clarity < 0 || config.Clarity > 1) {
		return fmt.Errorf("clarity must be between 0 and 1, got %f", config.Clarity)
	}

	return nil
}

// NewElevenLabsTTS creates a new Eleven Labs TTS instance
func NewElevenLabsTTS(config ElevenLabsConfig, logger *zap.Logger) (*ElevenLabsTTS, error) {
	if err := ValidateElevenLabsConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}

	female := config.FemaleVoiceID
	if female == "" {
		female = defaultFemaleVoice
	}
	male := config.MaleVoiceID
	if male == "" {
		male = defaultMaleVoice
	}

	modelID := config.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}

	outputFormat := config.OutputFormat
	if outputFormat == "" {
		outputFormat = defaultOutputFormat
	}

	stability := config.Stability
	if stability == 0 {
		stability = defaultStability
	}

	clarity := config.Clarity
	if clarity == 0 {
		clarity = defaultClarity
	}

	logger.Info("Configured Eleven Labs TTS",
		zap.String("apiBaseURL", apiBaseURL),
		zap.String("modelID", modelID),
		zap.String("outputFormat", outputFormat))

	return &ElevenLabsTTS{
		apiKey:     config.APIKey,
		apiBaseURL: apiBaseURL,
		voices: voiceTable{
			entities.VoiceFemale: female,
			entities.VoiceMale:   male,
		},
		modelID:      modelID,
		outputFormat: outputFormat,
		stability:    stability,
		clarity:      clarity,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		logger:       logger,
	}, nil
}

func (e *ElevenLabsTTS) Name() string {
	return elevenLabsBackend
}

// Synthesize converts text to speech using Eleven Labs API
func (e *ElevenLabsTTS) Synthesize(ctx context.Context, text string, voice entities.VoiceID, language string) (entities.SynthesizedAudio, error) {
	if err := validateText(text); err != nil {
		return entities.SynthesizedAudio{}, err
	}
	voiceID, err := e.voices.lookup(elevenLabsBackend, voice)
	if err != nil {
		return entities.SynthesizedAudio{}, err
	}

	e.logger.Info("Converting text to speech",
		zap.Int("textLength", len(text)),
		zap.String("voiceID", voiceID),
		zap.String("modelID", e.modelID))

	requestBody, err := json.Marshal(ElevenLabsRequest{
		Text:                   text,
		ModelID:                e.modelID,
		ApplyTextNormalization: "auto",
		VoiceSettings: ElevenLabsVoiceSettings{
			Stability:       e.stability,
			SimilarityBoost: e.clarity,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return entities.SynthesizedAudio{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s&enable_logging=false",
		e.apiBaseURL, voiceID, e.outputFormat)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return entities.SynthesizedAudio{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", entities.MIMETypeMP3)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return entities.SynthesizedAudio{}, ctx.Err()
		}
		return entities.SynthesizedAudio{}, domain.NewBackendError(elevenLabsBackend, "", "request failed", err, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := statusError(elevenLabsBackend, resp)
		e.logger.Error("Eleven Labs API returned error", zap.Int("statusCode", resp.StatusCode), zap.Error(err))
		return entities.SynthesizedAudio{}, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return entities.SynthesizedAudio{}, domain.NewBackendError(elevenLabsBackend, "", "failed to read audio", err, true)
	}

	e.logger.Debug("Received audio from Eleven Labs API",
		zap.String("contentType", resp.Header.Get("Content-Type")),
		zap.Int("totalBytes", len(data)))

	return entities.SynthesizedAudio{
		Data:     data,
		MIMEType: entities.MIMETypeMP3,
		Voice:    voice,
	}, nil
}

// NewElevenLabsConfigFromEnv creates a new ElevenLabsConfig from environment variables
func NewElevenLabsConfigFromEnv() ElevenLabsConfig {
	config := ElevenLabsConfig{
		APIKey:        os.Getenv("ELEVEN_LABS_API_KEY"),
		APIBaseURL:    os.Getenv("ELEVEN_LABS_API_BASE_URL"),
		FemaleVoiceID: os.Getenv("ELEVEN_LABS_FEMALE_VOICE_ID"),
		MaleVoiceID:   os.Getenv("ELEVEN_LABS_MALE_VOICE_ID"),
		ModelID:       os.Getenv("ELEVEN_LABS_MODEL_ID"),
		OutputFormat:  os.Getenv("ELEVEN_LABS_OUTPUT_FORMAT"),
	}

	if stabilityStr := os.Getenv("ELEVEN_LABS_STABILITY"); stabilityStr != "" {
		if stability, err := strconv.ParseFloat(stabilityStr, 64); err == nil && stability >= 0 && stability <= 1 {
			config.Stability = stability
		}
	}

	if clarityStr := os.Getenv("ELEVEN_LABS_CLARITY"); clarityStr != "" {
		if clarity, err := strconv.ParseFloat(clarityStr, 64); err == nil && clarity >= 0 && clarity <= 1 {
			config.Clarity = clarity
		}
	}

	return config
}
