package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

const (
	phraseBackend        = "phrase-tts"
	defaultPhraseBaseURL = "https://translate.google.com/translate_tts"
	defaultPhraseLength  = 100
)

// PhraseConfig holds configuration for the phrase-based synthesizer
type PhraseConfig struct {
	BaseURL string
	// Language selects the spoken accent. The provider has a single voice
	// per language.
	Language string
	// MaxPhraseLength is the largest phrase, in characters, sent per request.
	MaxPhraseLength int
	Timeout         time.Duration
}

// DefaultPhraseConfig returns default configuration
func DefaultPhraseConfig() PhraseConfig {
	return PhraseConfig{
		BaseURL:         defaultPhraseBaseURL,
		Language:        "en",
		MaxPhraseLength: defaultPhraseLength,
		Timeout:         30 * time.Second,
	}
}

// PhraseTTS synthesizes text by splitting it into provider-sized phrases,
// fetching one MP3 per phrase and concatenating the frames.
type PhraseTTS struct {
	config     PhraseConfig
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.TextToSpeech = (*PhraseTTS)(nil)

// NewPhraseTTS creates a new phrase-based synthesizer
func NewPhraseTTS(config PhraseConfig, logger *zap.Logger) *PhraseTTS {
	defaults := DefaultPhraseConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	config.Language = baseLanguage(config.Language, defaults.Language)
	if config.MaxPhraseLength <= 0 {
		config.MaxPhraseLength = defaults.MaxPhraseLength
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	return &PhraseTTS{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

func (p *PhraseTTS) Name() string {
	return phraseBackend
}

// Synthesize implements repositories.TextToSpeech. The voice only gates
// access; both identities speak with the language's voice. An empty lang
// speaks the configured language.
func (p *PhraseTTS) Synthesize(ctx context.Context, text string, voice entities.VoiceID, lang string) (entities.SynthesizedAudio, error) {
	if err := validateText(text); err != nil {
		return entities.SynthesizedAudio{}, err
	}
	if !voice.Known() {
		return entities.SynthesizedAudio{}, fmt.Errorf("%s: %w: %q", phraseBackend, domain.ErrUnknownVoice, voice)
	}

	tl := baseLanguage(lang, p.config.Language)
	phrases := splitPhrases(text, p.config.MaxPhraseLength)
	p.logger.Info("Converting text to speech",
		zap.Int("textLength", len(text)),
		zap.Int("phrases", len(phrases)),
		zap.String("language", tl))

	var audio []byte
	for i, phrase := range phrases {
		chunk, err := p.fetch(ctx, phrase, tl, i, len(phrases))
		if err != nil {
			return entities.SynthesizedAudio{}, err
		}
		audio = append(audio, chunk...)
	}

	return entities.SynthesizedAudio{
		Data:     audio,
		MIMEType: entities.MIMETypeMP3,
		Voice:    voice,
	}, nil
}

func (p *PhraseTTS) fetch(ctx context.Context, phrase, tl string, idx, total int) ([]byte, error) {
	query := url.Values{}
	query.Set("ie", "UTF-8")
	query.Set("q", phrase)
	query.Set("tl", tl)
	query.Set("client", "tw-ob")
	query.Set("idx", fmt.Sprint(idx))
	query.Set("total", fmt.Sprint(total))
	query.Set("textlen", fmt.Sprint(utf8.RuneCountInString(phrase)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Referer", "http://translate.google.com/")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewBackendError(phraseBackend, "", "request failed", err, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(phraseBackend, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewBackendError(phraseBackend, "", "failed to read audio", err, true)
	}
	return data, nil
}

// baseLanguage reduces a BCP 47 tag to the base language the provider
// expects, e.g. "en-US" to "en". Empty or unparsable tags yield fallback.
func baseLanguage(tag, fallback string) string {
	if tag == "" {
		return fallback
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return fallback
	}
	base, _ := parsed.Base()
	return base.String()
}

// splitPhrases breaks text into pieces of at most max runes, preferring
// punctuation, then whitespace, then a hard cut.
func splitPhrases(text string, max int) []string {
	var phrases []string
	for _, sentence := range splitAfterPunctuation(text) {
		sentence = strings.TrimSpace(sentence)
		for utf8.RuneCountInString(sentence) > max {
			runes := []rune(sentence)
			cut := max
			for i := max; i > 0; i-- {
				if unicode.IsSpace(runes[i]) {
					cut = i
					break
				}
			}
			phrases = append(phrases, strings.TrimSpace(string(runes[:cut])))
			sentence = strings.TrimSpace(string(runes[cut:]))
		}
		if sentence != "" {
			phrases = append(phrases, sentence)
		}
	}
	return phrases
}

func splitAfterPunctuation(text string) []string {
	var (
		parts []string
		start int
	)
	for i, r := range text {
		switch r {
		case '.', '!', '?', ';', ':', ',', '\n', '。', '、':
			end := i + utf8.RuneLen(r)
			parts = append(parts, text[start:end])
			start = end
		}
	}
	if start < len(text) {
		parts = append(parts, text[start:])
	}
	return parts
}
