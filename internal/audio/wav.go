package audio

import (
	"bytes"
	"encoding/binary"
)

// Narration output format: single channel, 24kHz, 16-bit PCM. This matches
// what the speech synthesis endpoint emits, so the concatenated stream can be
// wrapped without resampling.
const (
	NumChannels   = 1
	SampleRate    = 24000
	BitsPerSample = 16
)

// EncodeWAV wraps raw PCM bytes in a standard RIFF/WAVE container using the
// narration output format.
func EncodeWAV(pcm []byte) []byte {
	return append(WAVHeader(len(pcm), NumChannels, SampleRate, BitsPerSample), pcm...)
}

// WAVHeader builds the 44-byte canonical PCM WAVE header for a data chunk of
// the given byte length.
func WAVHeader(dataLen, channels, sampleRate, bitsPerSample int) []byte {
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(44)
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	return buf.Bytes()
}
