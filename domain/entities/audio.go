package entities

import (
	"path/filepath"
	"strings"
	"time"
)

// Container identifies the encoding of uploaded audio.
type Container string

const (
	ContainerWAV     Container = "wav"
	ContainerWebM    Container = "webm"
	ContainerOgg     Container = "ogg"
	ContainerMP3     Container = "mp3"
	ContainerM4A     Container = "m4a"
	ContainerFLAC    Container = "flac"
	ContainerUnknown Container = ""
)

// ContainerFromMIME maps a MIME type to a container tag.
func ContainerFromMIME(mimeType string) Container {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	switch mimeType {
	case "audio/wav", "audio/wave", "audio/x-wav", "audio/vnd.wave":
		return ContainerWAV
	case "audio/webm", "video/webm":
		return ContainerWebM
	case "audio/ogg", "application/ogg", "audio/opus":
		return ContainerOgg
	case "audio/mpeg", "audio/mp3":
		return ContainerMP3
	case "audio/mp4", "audio/m4a", "audio/x-m4a", "audio/aac":
		return ContainerM4A
	case "audio/flac", "audio/x-flac":
		return ContainerFLAC
	}
	return ContainerUnknown
}

// ContainerFromFilename maps a file extension to a container tag.
func ContainerFromFilename(name string) Container {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "wav", "wave":
		return ContainerWAV
	case "webm":
		return ContainerWebM
	case "ogg", "oga", "opus":
		return ContainerOgg
	case "mp3":
		return ContainerMP3
	case "m4a", "mp4", "aac":
		return ContainerM4A
	case "flac":
		return ContainerFLAC
	}
	return ContainerUnknown
}

// RawAudio is audio as uploaded by the client.
type RawAudio struct {
	Data      []byte
	Container Container
}

// Canonical PCM parameters produced by normalization.
const (
	CanonicalSampleRate = 16000
	CanonicalChannels   = 1
	CanonicalBitDepth   = 16
)

// NormalizedAudio is a RIFF/WAVE file holding 16 kHz mono 16-bit
// little-endian PCM.
type NormalizedAudio struct {
	// WAV is the complete file, header included.
	WAV []byte

	// DataOffset is the index of the first PCM byte in WAV.
	DataOffset int
}

// PCM returns the sample bytes without the header.
func (a NormalizedAudio) PCM() []byte {
	if a.DataOffset <= 0 || a.DataOffset > len(a.WAV) {
		return nil
	}
	return a.WAV[a.DataOffset:]
}

// Duration returns the length of the clip.
func (a NormalizedAudio) Duration() time.Duration {
	samples := len(a.PCM()) / 2
	return time.Duration(samples) * time.Second / CanonicalSampleRate
}

// Peak returns the largest absolute sample value in the clip.
func (a NormalizedAudio) Peak() int {
	pcm := a.PCM()
	peak := 0
	for i := 0; i+1 < len(pcm); i += 2 {
		v := int(int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8))
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}
