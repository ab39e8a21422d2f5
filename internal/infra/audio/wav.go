package audio

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"strings"
)

type wavHeader struct {
	Riff          [4]byte
	FileSize      uint32
	Wave          [4]byte
	Fmt           [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          [4]byte
	DataSize      uint32
}

// EncodeWAV wraps mono 16-bit PCM samples in a RIFF container.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	dataSize := uint32(len(samples) * 2)
	header := wavHeader{
		Riff:          [4]byte{'R', 'I', 'F', 'F'},
		FileSize:      36 + dataSize,
		Wave:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1,
		Channels:      1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * 2),
		BlockAlign:    2,
		BitsPerSample: 16,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataSize,
	}

	var buf bytes.Buffer
	buf.Grow(44 + int(dataSize))
	_ = binary.Write(&buf, binary.LittleEndian, header)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// DetectMIME sniffs the container format of a recorded clip. Unknown data is
// reported as WAV since that is what the microphone produces.
func DetectMIME(clip []byte) string {
	switch {
	case len(clip) >= 12 && string(clip[0:4]) == "RIFF" && string(clip[8:12]) == "WAVE":
		return "audio/wav"
	case len(clip) >= 4 && string(clip[0:4]) == "OggS":
		return "audio/ogg"
	case len(clip) >= 4 && bytes.Equal(clip[0:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return "audio/webm"
	case len(clip) >= 3 && string(clip[0:3]) == "ID3":
		return "audio/mpeg"
	case len(clip) >= 2 && clip[0] == 0xFF && clip[1]&0xE0 == 0xE0:
		return "audio/mpeg"
	case len(clip) >= 8 && string(clip[4:8]) == "ftyp":
		return "audio/mp4"
	}
	return "audio/wav"
}

var extensionMIME = map[string]string{
	".wav":  "audio/wav",
	".webm": "audio/webm",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
}

func mimeForFile(name string) (string, bool) {
	m, ok := extensionMIME[strings.ToLower(filepath.Ext(name))]
	return m, ok
}
