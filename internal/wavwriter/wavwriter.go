// Package wavwriter encodes an interleaved PCM buffer to a canonical WAV
// container. There is no third-party WAV encoder anywhere in the retrieved
// reference pack, so this is a deliberate standard-library component (see
// the project's DESIGN.md).
package wavwriter

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

const (
	formatPCM   = 1
	formatFloat = 3
)

// Source is the minimal shape wavwriter needs from a rendered buffer;
// spa.Buffer satisfies it without this package importing the spa package.
type Source struct {
	SampleRate int
	Channels   int
	Samples    []float32 // interleaved
}

// WriteFile encodes src to path. bitsPerSample must be 16 (signed PCM,
// clamped) or 32 (IEEE float, written as-is).
func WriteFile(path string, src Source, bitsPerSample int) error {
	if bitsPerSample != 16 && bitsPerSample != 32 {
		return fmt.Errorf("wavwriter: unsupported bits per sample %d", bitsPerSample)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	defer f.Close()

	bytesPerSample := bitsPerSample / 8
	blockAlign := src.Channels * bytesPerSample
	byteRate := src.SampleRate * blockAlign
	dataSize := len(src.Samples) * bytesPerSample
	riffSize := 36 + dataSize

	audioFormat := uint16(formatPCM)
	if bitsPerSample == 32 {
		audioFormat = formatFloat
	}

	if err := writeHeader(f, header{
		riffSize:      uint32(riffSize),
		audioFormat:   audioFormat,
		channels:      uint16(src.Channels),
		sampleRate:    uint32(src.SampleRate),
		byteRate:      uint32(byteRate),
		blockAlign:    uint16(blockAlign),
		bitsPerSample: uint16(bitsPerSample),
		dataSize:      uint32(dataSize),
	}); err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}

	if bitsPerSample == 16 {
		return writeInt16Samples(f, src.Samples)
	}
	return writeFloat32Samples(f, src.Samples)
}

type header struct {
	riffSize      uint32
	audioFormat   uint16
	channels      uint16
	sampleRate    uint32
	byteRate      uint32
	blockAlign    uint16
	bitsPerSample uint16
	dataSize      uint32
}

func writeHeader(f *os.File, h header) error {
	buf := make([]byte, 44)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], h.riffSize)
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], h.audioFormat)
	binary.LittleEndian.PutUint16(buf[22:24], h.channels)
	binary.LittleEndian.PutUint32(buf[24:28], h.sampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], h.byteRate)
	binary.LittleEndian.PutUint16(buf[32:34], h.blockAlign)
	binary.LittleEndian.PutUint16(buf[34:36], h.bitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], h.dataSize)
	_, err := f.Write(buf)
	return err
}

func writeInt16Samples(f *os.File, samples []float32) error {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := clampFloat32(s)
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(v*32767)))
	}
	_, err := f.Write(buf)
	return err
}

func writeFloat32Samples(f *os.File, samples []float32) error {
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	_, err := f.Write(buf)
	return err
}

func clampFloat32(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
