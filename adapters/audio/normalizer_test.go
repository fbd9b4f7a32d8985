package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os/exec"
	"testing"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3/pkg/media/oggwriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
)

type fakeTranscoder struct {
	calls  int
	from   entities.Container
	output []byte
	err    error
}

func (f *fakeTranscoder) Transcode(_ context.Context, _ []byte, from entities.Container) ([]byte, error) {
	f.calls++
	f.from = from
	return f.output, f.err
}

// buildWAV writes a minimal WAV with an extra LIST chunk before the data.
func buildWAV(format uint16, channels, sampleRate, bits int, payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(4+8+16+8+4+8+len(payload)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, format)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*bits/8))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels*bits/8))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bits))

	buf.WriteString("LIST")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(4))
	buf.WriteString("INFO")

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

func sineSamples(n, rate, channels int) []int16 {
	out := make([]int16, n*channels)
	for i := 0; i < n; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		for c := 0; c < channels; c++ {
			out[i*channels+c] = v
		}
	}
	return out
}

func pcmBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func assertCanonical(t *testing.T, audio entities.NormalizedAudio) {
	t.Helper()
	clip, err := decodeWAV(audio.WAV)
	require.NoError(t, err)
	assert.Equal(t, entities.CanonicalSampleRate, clip.sampleRate)
	assert.Equal(t, entities.CanonicalChannels, clip.channels)
	assert.Equal(t, uint16(entities.CanonicalBitDepth), binary.LittleEndian.Uint16(audio.WAV[34:36]))
	assert.Equal(t, wavHeaderSize, audio.DataOffset)
}

func TestNormalizeResamplesAndDownmixes(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{}, nil, zaptest.NewLogger(t))
	input := buildWAV(wavFormatPCM, 2, 44100, 16, pcmBytes(sineSamples(44100, 44100, 2)))

	out, err := n.Normalize(context.Background(), entities.RawAudio{Data: input, Container: entities.ContainerWAV})
	require.NoError(t, err)

	assertCanonical(t, out)
	assert.Len(t, out.PCM(), 16000*2)
	assert.InDelta(t, 8000, out.Peak(), 50)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{}, nil, zaptest.NewLogger(t))
	input := buildWAV(wavFormatPCM, 1, 22050, 16, pcmBytes(sineSamples(2205, 22050, 1)))

	once, err := n.Normalize(context.Background(), entities.RawAudio{Data: input, Container: entities.ContainerWAV})
	require.NoError(t, err)
	twice, err := n.Normalize(context.Background(), entities.RawAudio{Data: once.WAV, Container: entities.ContainerWAV})
	require.NoError(t, err)

	assert.Equal(t, once.WAV, twice.WAV)
}

func TestNormalizeSampleFormats(t *testing.T) {
	float := make([]byte, 0, 16000*4)
	for _, s := range sineSamples(16000, 16000, 1) {
		float = binary.LittleEndian.AppendUint32(float, math.Float32bits(float32(s)/math.MaxInt16))
	}

	eightBit := make([]byte, 8000)
	for i := range eightBit {
		eightBit[i] = 128
	}
	eightBit[10] = 255

	tests := []struct {
		name    string
		input   []byte
		samples int
	}{
		{"float32", buildWAV(wavFormatFloat, 1, 16000, 32, float), 16000},
		{"unsigned 8-bit", buildWAV(wavFormatPCM, 1, 8000, 8, eightBit), 16000},
		{"24-bit stereo", buildWAV(wavFormatPCM, 2, 16000, 24, make([]byte, 16000*2*3)), 16000},
	}

	n := NewNormalizer(NormalizerConfig{}, nil, zaptest.NewLogger(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := n.Normalize(context.Background(), entities.RawAudio{Data: tt.input})
			require.NoError(t, err)
			assertCanonical(t, out)
			assert.Len(t, out.PCM(), tt.samples*2)
		})
	}
}

func TestNormalizeCorruptInput(t *testing.T) {
	valid := buildWAV(wavFormatPCM, 1, 16000, 16, make([]byte, 320))
	noData := valid[:len(valid)-320-8]

	badFormat := buildWAV(0x0055, 1, 16000, 16, make([]byte, 320))
	lowRate := buildWAV(wavFormatPCM, 1, 1, 16, make([]byte, 8000))
	highRate := buildWAV(wavFormatPCM, 1, 1_000_000, 16, make([]byte, 320))
	manyChannels := buildWAV(wavFormatPCM, 64, 16000, 16, make([]byte, 1280))

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"random bytes", []byte("definitely not audio at all")},
		{"truncated header", valid[:10]},
		{"missing data chunk", noData},
		{"unsupported encoding", badFormat},
		{"implausibly low sample rate", lowRate},
		{"implausibly high sample rate", highRate},
		{"too many channels", manyChannels},
	}

	transcoder := &fakeTranscoder{}
	n := NewNormalizer(NormalizerConfig{MaxInputBytes: 25 << 20}, transcoder, zaptest.NewLogger(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(context.Background(), entities.RawAudio{Data: tt.data, Container: entities.ContainerWAV})
			assert.ErrorIs(t, err, domain.ErrDecode)
			assert.Equal(t, domain.KindDecode, domain.KindOf(err))
		})
	}
	assert.Zero(t, transcoder.calls)
}

func TestNormalizeRejectsOversizedInput(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{MaxInputBytes: 100}, nil, zaptest.NewLogger(t))
	input := buildWAV(wavFormatPCM, 1, 16000, 16, make([]byte, 320))

	_, err := n.Normalize(context.Background(), entities.RawAudio{Data: input})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func buildOgg(t *testing.T, packets int) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer, err := oggwriter.NewWith(&buf, 48000, 1)
	require.NoError(t, err)
	for i := 0; i < packets; i++ {
		err := writer.WriteRTP(&rtp.Packet{
			Header: rtp.Header{
				SequenceNumber: uint16(i),
				Timestamp:      uint32(i * 960),
			},
			// Opus TOC byte for a silent 20 ms frame followed by padding.
			Payload: []byte{0xf8, 0xff, 0xfe},
		})
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func TestNormalizeOggGoesThroughTranscoder(t *testing.T) {
	transcoder := &fakeTranscoder{
		output: buildWAV(wavFormatPCM, 1, 48000, 16, pcmBytes(sineSamples(4800, 48000, 1))),
	}
	n := NewNormalizer(NormalizerConfig{}, transcoder, zaptest.NewLogger(t))

	// Declared as webm, content is ogg.
	out, err := n.Normalize(context.Background(), entities.RawAudio{Data: buildOgg(t, 5), Container: entities.ContainerWebM})
	require.NoError(t, err)

	assert.Equal(t, 1, transcoder.calls)
	assert.Equal(t, entities.ContainerOgg, transcoder.from)
	assertCanonical(t, out)
	assert.Len(t, out.PCM(), 1600*2)
}

func TestProbeOgg(t *testing.T) {
	data := buildOgg(t, 5)

	info, err := probeOgg(data)
	require.NoError(t, err)
	assert.True(t, info.opus)
	assert.Equal(t, uint8(1), info.channels)
	assert.Equal(t, uint32(48000), info.sampleRate)
	assert.GreaterOrEqual(t, info.pages, 6)

	corrupt := append([]byte(nil), data...)
	corrupt[len(corrupt)-1] ^= 0xFF
	_, err = probeOgg(corrupt)
	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestNormalizeCorruptOggSkipsTranscoder(t *testing.T) {
	data := buildOgg(t, 3)
	data[len(data)-1] ^= 0xFF

	transcoder := &fakeTranscoder{}
	n := NewNormalizer(NormalizerConfig{}, transcoder, zaptest.NewLogger(t))

	_, err := n.Normalize(context.Background(), entities.RawAudio{Data: data, Container: entities.ContainerOgg})
	assert.ErrorIs(t, err, domain.ErrDecode)
	assert.Zero(t, transcoder.calls)
}

func TestNormalizeTranscoderFailure(t *testing.T) {
	webm := append([]byte{0x1A, 0x45, 0xDF, 0xA3}, make([]byte, 64)...)

	tests := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{"unclassified", errors.New("boom"), domain.KindBackendUnavailable},
		{"decode error", domain.ErrDecode, domain.KindDecode},
		{"missing binary", domain.NewBackendError("ffmpeg", "not_found", "ffmpeg", ErrFFmpegNotFound, false), domain.KindBackendUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(NormalizerConfig{}, &fakeTranscoder{err: tt.err}, zaptest.NewLogger(t))
			_, err := n.Normalize(context.Background(), entities.RawAudio{Data: webm, Container: entities.ContainerWebM})
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.KindOf(err))
		})
	}
}

func TestFFmpegTranscoderMissingBinary(t *testing.T) {
	transcoder := NewFFmpegTranscoder(FFmpegConfig{Path: "/nonexistent/ffmpeg"}, zaptest.NewLogger(t))

	_, err := transcoder.Transcode(context.Background(), []byte("data"), entities.ContainerWebM)
	assert.ErrorIs(t, err, ErrFFmpegNotFound)
	assert.Equal(t, domain.KindBackendUnavailable, domain.KindOf(err))
}

func TestFFmpegTranscoderRoundTrip(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	transcoder := NewFFmpegTranscoder(DefaultFFmpegConfig(), zaptest.NewLogger(t))
	input := buildWAV(wavFormatPCM, 2, 44100, 16, pcmBytes(sineSamples(4410, 44100, 2)))

	out, err := transcoder.Transcode(context.Background(), input, entities.ContainerWAV)
	require.NoError(t, err)

	clip, err := decodeWAV(out)
	require.NoError(t, err)
	assert.Equal(t, 16000, clip.sampleRate)
	assert.Equal(t, 1, clip.channels)

	_, err = transcoder.Transcode(context.Background(), []byte("garbage"), entities.ContainerWebM)
	assert.ErrorIs(t, err, domain.ErrDecode)
}
