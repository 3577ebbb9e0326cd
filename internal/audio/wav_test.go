package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeWAV(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	wav := EncodeWAV(pcm)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("len = %d, want %d", len(wav), 44+len(pcm))
	}
	if !bytes.Equal(wav[:4], []byte("RIFF")) || !bytes.Equal(wav[8:12], []byte("WAVE")) {
		t.Fatalf("missing RIFF/WAVE markers")
	}
	if !bytes.Equal(wav[44:], pcm) {
		t.Fatalf("pcm payload corrupted")
	}

	if got := binary.LittleEndian.Uint32(wav[4:8]); got != uint32(36+len(pcm)) {
		t.Fatalf("riff size = %d, want %d", got, 36+len(pcm))
	}
	if got := binary.LittleEndian.Uint16(wav[22:24]); got != NumChannels {
		t.Fatalf("channels = %d, want %d", got, NumChannels)
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != SampleRate {
		t.Fatalf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint16(wav[34:36]); got != BitsPerSample {
		t.Fatalf("bits per sample = %d, want %d", got, BitsPerSample)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(pcm)) {
		t.Fatalf("data size = %d, want %d", got, len(pcm))
	}
}

func TestWAVHeaderByteRate(t *testing.T) {
	header := WAVHeader(0, 2, 44100, 16)
	wantByteRate := uint32(44100 * 2 * 16 / 8)
	if got := binary.LittleEndian.Uint32(header[28:32]); got != wantByteRate {
		t.Fatalf("byte rate = %d, want %d", got, wantByteRate)
	}
	if got := binary.LittleEndian.Uint16(header[32:34]); got != 4 {
		t.Fatalf("block align = %d, want 4", got)
	}
}
