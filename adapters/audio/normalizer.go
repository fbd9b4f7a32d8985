package audio

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

// NormalizerConfig holds configuration for the audio normalizer
type NormalizerConfig struct {
	// MaxInputBytes bounds the accepted upload size. Zero means unlimited.
	MaxInputBytes int
}

// Normalizer decodes uploads to 16 kHz mono 16-bit PCM WAV. WAV input is
// decoded in process, every other container goes through the transcoder.
type Normalizer struct {
	config     NormalizerConfig
	transcoder Transcoder
	logger     *zap.Logger
}

var _ repositories.AudioNormalizer = (*Normalizer)(nil)

// NewNormalizer creates a new audio normalizer
func NewNormalizer(config NormalizerConfig, transcoder Transcoder, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		config:     config,
		transcoder: transcoder,
		logger:     logger,
	}
}

// Normalize implements repositories.AudioNormalizer.
func (n *Normalizer) Normalize(ctx context.Context, raw entities.RawAudio) (entities.NormalizedAudio, error) {
	if len(raw.Data) == 0 {
		return entities.NormalizedAudio{}, fmt.Errorf("%w: empty input", domain.ErrDecode)
	}
	if n.config.MaxInputBytes > 0 && len(raw.Data) > n.config.MaxInputBytes {
		return entities.NormalizedAudio{}, fmt.Errorf("%w: input of %d bytes exceeds limit of %d", domain.ErrValidation, len(raw.Data), n.config.MaxInputBytes)
	}

	// Browsers mislabel recordings, so the content decides.
	container := sniff(raw.Data)
	if container == entities.ContainerUnknown {
		container = raw.Container
	}
	if container != raw.Container && raw.Container != entities.ContainerUnknown {
		n.logger.Debug("Container tag does not match content",
			zap.String("declared", string(raw.Container)),
			zap.String("detected", string(container)),
		)
	}

	wav := raw.Data
	switch container {
	case entities.ContainerWAV:
	case entities.ContainerUnknown:
		return entities.NormalizedAudio{}, fmt.Errorf("%w: unrecognized container", domain.ErrDecode)
	default:
		if container == entities.ContainerOgg {
			info, err := probeOgg(raw.Data)
			if err != nil {
				return entities.NormalizedAudio{}, err
			}
			n.logger.Debug("Probed ogg stream",
				zap.Bool("opus", info.opus),
				zap.Uint8("channels", info.channels),
				zap.Uint32("sampleRate", info.sampleRate),
				zap.Int("pages", info.pages),
			)
		}
		if n.transcoder == nil {
			return entities.NormalizedAudio{}, fmt.Errorf("%w: no transcoder for %s", domain.ErrDecode, container)
		}
		transcoded, err := n.transcoder.Transcode(ctx, raw.Data, container)
		if err != nil {
			return entities.NormalizedAudio{}, fmt.Errorf("transcode %s: %w", container, err)
		}
		wav = transcoded
	}

	clip, err := decodeWAV(wav)
	if err != nil {
		return entities.NormalizedAudio{}, err
	}

	mono := downmix(clip.samples, clip.channels)
	samples := resample(mono, clip.sampleRate, entities.CanonicalSampleRate)

	n.logger.Debug("Normalized audio",
		zap.String("container", string(container)),
		zap.Int("inputSampleRate", clip.sampleRate),
		zap.Int("inputChannels", clip.channels),
		zap.Int("samples", len(samples)),
	)

	return entities.NormalizedAudio{
		WAV:        encodeWAV(samples, entities.CanonicalSampleRate, entities.CanonicalChannels),
		DataOffset: wavHeaderSize,
	}, nil
}
