package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/satriahrh/suara/domain"
)

const wavHeaderSize = 44

const (
	wavFormatPCM        = 0x0001
	wavFormatFloat      = 0x0003
	wavFormatExtensible = 0xFFFE
)

// Bounds on declared WAV parameters. Resampling to the canonical rate scales
// the clip by canonicalRate/sampleRate, so the lower bound caps that growth.
const (
	minSampleRate = 4000
	maxSampleRate = 384000
	maxChannels   = 8
)

// pcmClip is decoded audio as interleaved signed 16-bit samples.
type pcmClip struct {
	sampleRate int
	channels   int
	samples    []int16
}

type wavFormat struct {
	format        uint16
	channels      int
	sampleRate    int
	bitsPerSample int
}

// decodeWAV parses a RIFF/WAVE file. Unknown chunks are skipped and a data
// chunk whose declared size runs past the end of the file is truncated, as
// streaming recorders leave the size unset.
func decodeWAV(data []byte) (pcmClip, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return pcmClip{}, fmt.Errorf("%w: not a RIFF/WAVE file", domain.ErrDecode)
	}

	var (
		format  *wavFormat
		payload []byte
	)
	for pos := 12; pos+8 <= len(data); {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		end := body + size
		if size < 0 || end > len(data) || end < body {
			end = len(data)
		}

		switch id {
		case "fmt ":
			f, err := parseFormatChunk(data[body:end])
			if err != nil {
				return pcmClip{}, err
			}
			format = &f
		case "data":
			payload = data[body:end]
		}

		pos = end
		if size%2 == 1 {
			pos++
		}
	}

	if format == nil {
		return pcmClip{}, fmt.Errorf("%w: missing fmt chunk", domain.ErrDecode)
	}
	if payload == nil {
		return pcmClip{}, fmt.Errorf("%w: missing data chunk", domain.ErrDecode)
	}

	samples, err := toInt16(payload, *format)
	if err != nil {
		return pcmClip{}, err
	}
	return pcmClip{
		sampleRate: format.sampleRate,
		channels:   format.channels,
		samples:    samples,
	}, nil
}

func parseFormatChunk(chunk []byte) (wavFormat, error) {
	if len(chunk) < 16 {
		return wavFormat{}, fmt.Errorf("%w: fmt chunk too short", domain.ErrDecode)
	}
	f := wavFormat{
		format:        binary.LittleEndian.Uint16(chunk[0:2]),
		channels:      int(binary.LittleEndian.Uint16(chunk[2:4])),
		sampleRate:    int(binary.LittleEndian.Uint32(chunk[4:8])),
		bitsPerSample: int(binary.LittleEndian.Uint16(chunk[14:16])),
	}
	if f.format == wavFormatExtensible {
		if len(chunk) < 26 {
			return wavFormat{}, fmt.Errorf("%w: extensible fmt chunk too short", domain.ErrDecode)
		}
		// The first two bytes of the sub-format GUID hold the format code.
		f.format = binary.LittleEndian.Uint16(chunk[24:26])
	}
	if f.channels == 0 || f.channels > maxChannels ||
		f.sampleRate < minSampleRate || f.sampleRate > maxSampleRate {
		return wavFormat{}, fmt.Errorf("%w: %d channels at %d Hz", domain.ErrDecode, f.channels, f.sampleRate)
	}
	return f, nil
}

func toInt16(payload []byte, f wavFormat) ([]int16, error) {
	width := f.bitsPerSample / 8
	switch {
	case f.format == wavFormatPCM && (width == 1 || width == 2 || width == 3 || width == 4):
	case f.format == wavFormatFloat && (width == 4 || width == 8):
	default:
		return nil, fmt.Errorf("%w: unsupported encoding %#04x with %d bits", domain.ErrDecode, f.format, f.bitsPerSample)
	}

	n := len(payload) / width
	// Drop a trailing partial frame.
	n -= n % f.channels
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		b := payload[i*width : (i+1)*width]
		switch {
		case f.format == wavFormatFloat && width == 4:
			out[i] = floatToInt16(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
		case f.format == wavFormatFloat:
			out[i] = floatToInt16(math.Float64frombits(binary.LittleEndian.Uint64(b)))
		case width == 1:
			// 8-bit WAV is unsigned.
			out[i] = int16(int(b[0])-128) << 8
		case width == 2:
			out[i] = int16(binary.LittleEndian.Uint16(b))
		default:
			// Keep the two most significant bytes.
			out[i] = int16(uint16(b[width-2]) | uint16(b[width-1])<<8)
		}
	}
	return out, nil
}

func floatToInt16(v float64) int16 {
	if math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int16(v * math.MaxInt16)
}

// encodeWAV wraps 16-bit PCM samples in a 44-byte canonical header.
func encodeWAV(samples []int16, sampleRate, channels int) []byte {
	const bitsPerSample = 16
	dataSize := len(samples) * 2
	wav := make([]byte, wavHeaderSize+dataSize)

	copy(wav[0:4], "RIFF")
	binary.LittleEndian.PutUint32(wav[4:8], uint32(36+dataSize))
	copy(wav[8:12], "WAVE")

	copy(wav[12:16], "fmt ")
	binary.LittleEndian.PutUint32(wav[16:20], 16)
	binary.LittleEndian.PutUint16(wav[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(wav[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(wav[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(wav[28:32], uint32(sampleRate*channels*bitsPerSample/8))
	binary.LittleEndian.PutUint16(wav[32:34], uint16(channels*bitsPerSample/8))
	binary.LittleEndian.PutUint16(wav[34:36], bitsPerSample)

	copy(wav[36:40], "data")
	binary.LittleEndian.PutUint32(wav[40:44], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(wav[wavHeaderSize+i*2:], uint16(s))
	}
	return wav
}

// EncodePCM16 wraps interleaved 16-bit samples as a WAV file.
func EncodePCM16(samples []int16, sampleRate, channels int) []byte {
	return encodeWAV(samples, sampleRate, channels)
}
