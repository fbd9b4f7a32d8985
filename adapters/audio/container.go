package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pion/webrtc/v3/pkg/media/oggreader"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
)

var ebmlMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}

// sniff identifies the container from its leading bytes.
func sniff(data []byte) entities.Container {
	switch {
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return entities.ContainerWAV
	case bytes.HasPrefix(data, []byte("OggS")):
		return entities.ContainerOgg
	case bytes.HasPrefix(data, ebmlMagic):
		return entities.ContainerWebM
	case bytes.HasPrefix(data, []byte("fLaC")):
		return entities.ContainerFLAC
	case len(data) >= 8 && bytes.Equal(data[4:8], []byte("ftyp")):
		return entities.ContainerM4A
	case bytes.HasPrefix(data, []byte("ID3")), len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return entities.ContainerMP3
	}
	return entities.ContainerUnknown
}

// oggInfo describes an Ogg stream found by probeOgg.
type oggInfo struct {
	opus       bool
	channels   uint8
	sampleRate uint32
	pages      int
}

// probeOgg walks every page of an Ogg stream, verifying checksums when the
// stream carries Opus. Other codecs are left to the transcoder.
func probeOgg(data []byte) (oggInfo, error) {
	if !bytes.HasPrefix(data, []byte("OggS")) {
		return oggInfo{}, fmt.Errorf("%w: missing ogg capture pattern", domain.ErrDecode)
	}

	reader, header, err := oggreader.NewWith(bytes.NewReader(data))
	if err != nil {
		// Vorbis and FLAC-in-Ogg have no OpusHead page.
		return oggInfo{}, nil
	}

	info := oggInfo{
		opus:       true,
		channels:   header.Channels,
		sampleRate: header.SampleRate,
		pages:      1,
	}
	for {
		_, _, err := reader.ParseNextPage()
		if errors.Is(err, io.EOF) {
			return info, nil
		}
		if err != nil {
			return info, fmt.Errorf("%w: ogg page %d: %v", domain.ErrDecode, info.pages+1, err)
		}
		info.pages++
	}
}
