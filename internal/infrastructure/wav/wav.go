// Package wav encodes and inspects minimal RIFF/WAVE PCM containers.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	HeaderSize    = 44
	formatPCM     = 1
	bitsPerSample = 16
)

var ErrInvalidHeader = errors.New("invalid wav header")

// Header holds the fields of a canonical 44-byte PCM header.
type Header struct {
	ChunkSize     uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// Encode wraps 16-bit samples in a WAV container.
func Encode(samples []int16, sampleRate, channels int) []byte {
	dataSize := len(samples) * 2
	blockAlign := channels * bitsPerSample / 8

	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+dataSize))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(formatPCM))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	_ = binary.Write(buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// Tone renders a mono sine wave.
func Tone(frequency, seconds float64, sampleRate int, amplitude float64) []int16 {
	n := int(seconds * float64(sampleRate))
	if n < 0 {
		n = 0
	}
	samples := make([]int16, n)
	for i := range samples {
		v := amplitude * math.Sin(2*math.Pi*frequency*float64(i)/float64(sampleRate))
		samples[i] = int16(v * math.MaxInt16)
	}
	return samples
}

// Parse reads a canonical PCM header and checks that its size fields agree
// with the payload actually present.
func Parse(data []byte) (Header, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return h, fmt.Errorf("%w: missing RIFF/WAVE tags", ErrInvalidHeader)
	}
	if string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		return h, fmt.Errorf("%w: unexpected chunk layout", ErrInvalidHeader)
	}

	le := binary.LittleEndian
	h = Header{
		ChunkSize:     le.Uint32(data[4:8]),
		AudioFormat:   le.Uint16(data[20:22]),
		Channels:      le.Uint16(data[22:24]),
		SampleRate:    le.Uint32(data[24:28]),
		ByteRate:      le.Uint32(data[28:32]),
		BlockAlign:    le.Uint16(data[32:34]),
		BitsPerSample: le.Uint16(data[34:36]),
		DataSize:      le.Uint32(data[40:44]),
	}

	payload := len(data) - HeaderSize
	if int(h.DataSize) != payload {
		return h, fmt.Errorf("%w: data size %d, payload %d", ErrInvalidHeader, h.DataSize, payload)
	}
	if int(h.ChunkSize) != 36+payload {
		return h, fmt.Errorf("%w: riff size %d, expected %d", ErrInvalidHeader, h.ChunkSize, 36+payload)
	}
	if h.AudioFormat != formatPCM || h.Channels == 0 {
		return h, fmt.Errorf("%w: not linear pcm", ErrInvalidHeader)
	}
	if h.BlockAlign != h.Channels*h.BitsPerSample/8 || h.ByteRate != h.SampleRate*uint32(h.BlockAlign) {
		return h, fmt.Errorf("%w: inconsistent rate fields", ErrInvalidHeader)
	}
	return h, nil
}

// Seconds is the playback length described by the header.
func (h Header) Seconds() float64 {
	if h.ByteRate == 0 {
		return 0
	}
	return float64(h.DataSize) / float64(h.ByteRate)
}

// Info describes a RIFF/WAVE file found by walking its chunks. It tolerates
// extra chunks (LIST, fact) that encoders add before the samples.
type Info struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	Payload       []byte
}

// Inspect locates the fmt and data chunks. A data chunk whose declared size
// runs past the end of the buffer, as streaming encoders write, is clamped.
func Inspect(data []byte) (Info, error) {
	var info Info
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return info, fmt.Errorf("%w: missing RIFF/WAVE tags", ErrInvalidHeader)
	}

	le := binary.LittleEndian
	haveFmt := false
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(le.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return info, fmt.Errorf("%w: short fmt chunk", ErrInvalidHeader)
			}
			info.AudioFormat = le.Uint16(data[body : body+2])
			info.Channels = le.Uint16(data[body+2 : body+4])
			info.SampleRate = le.Uint32(data[body+4 : body+8])
			info.BitsPerSample = le.Uint16(data[body+14 : body+16])
			haveFmt = true
		case "data":
			if !haveFmt {
				return info, fmt.Errorf("%w: data before fmt", ErrInvalidHeader)
			}
			end := body + size
			if size < 0 || end > len(data) {
				end = len(data)
			}
			info.Payload = data[body:end]
			return info, nil
		}
		// Chunks are word aligned.
		pos = body + size + size%2
	}
	return info, fmt.Errorf("%w: no data chunk", ErrInvalidHeader)
}
