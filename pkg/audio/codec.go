package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// Codec converts captured chunks to the transport-safe encoding (base64 of
// a WAV container) and inbound synthesized audio back to playable bytes.
type Codec struct{}

// Encoding and container names reported on the wire alongside encoded data.
const (
	Encoding  = "base64"
	Container = "wav"
)

type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// Encode wraps a chunk's PCM16 bytes in a WAV container and base64-encodes
// the result.
func (Codec) Encode(c Chunk) (string, error) {
	if len(c.PCM) == 0 {
		return "", fmt.Errorf("audio: cannot encode empty chunk %s", c.ID)
	}
	rate := c.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	channels := uint16(c.Channels)
	if channels == 0 {
		channels = 1
	}
	const bitsPerSample = 16
	dataSize := uint32(len(c.PCM))

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   channels,
		SampleRate:    uint32(rate),
		ByteRate:      uint32(rate) * uint32(channels) * bitsPerSample / 8,
		BlockAlign:    channels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(c.PCM)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return "", fmt.Errorf("audio: write wav header: %w", err)
	}
	buf.Write(c.PCM)
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode converts inbound base64 audio data back to playable bytes.
func (Codec) Decode(data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("audio: decode chunk data: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("audio: decoded chunk is empty")
	}
	return raw, nil
}
