// mixer.go - top-level mix, master gain, peak normalization and channel
// expansion
//
// The top-level render call treats the document's top-level nodes as a
// single implicit group: render each to its own mono-or-stereo buffer, find
// the longest in one pass, sum into a destination of that length, apply
// master gain, optionally normalize, then expand to the requested channel
// count. The max-then-sum loop is deliberately iterative rather than a
// variadic spread: buffers routinely run past a hundred thousand samples,
// and a vocabulary primitive whose arity is the buffer length risks a stack
// or argument-count failure.

package spa

import "math"

// RenderOptions configures a Render call. The zero value is not valid;
// use DefaultRenderOptions.
type RenderOptions struct {
	SampleRate   int
	Channels     int
	Normalize    bool
	MasterVolume float64
}

// DefaultRenderOptions matches §6: 48000 Hz, stereo, normalization on,
// unity master volume.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		SampleRate:   48000,
		Channels:     2,
		Normalize:    true,
		MasterVolume: 1.0,
	}
}

// Buffer is the PCM result of Render: Samples is interleaved per channel
// (frame 0's channels, then frame 1's, ...), sample values in [-1,1] once
// normalized.
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Frames returns the number of sample frames (Samples per channel).
func (b Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Channel returns a fresh copy of a single channel's samples.
func (b Buffer) Channel(ch int) []float32 {
	frames := b.Frames()
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		out[i] = b.Samples[i*b.Channels+ch]
	}
	return out
}

func renderDocument(doc *Document, opts RenderOptions) (Buffer, error) {
	sr := opts.SampleRate
	if sr <= 0 {
		sr = 48000
	}
	channels := opts.Channels
	if channels <= 0 {
		channels = 2
	}

	maxLen := 0
	rendered := make([]stereoBuf, 0, len(doc.Nodes))
	for _, node := range doc.Nodes {
		s, err := renderNode(node, sr)
		if err != nil {
			return Buffer{}, err
		}
		rendered = append(rendered, s)
		if len(s.L) > maxLen {
			maxLen = len(s.L)
		}
	}

	mixL := make([]float32, maxLen)
	mixR := make([]float32, maxLen)
	for _, s := range rendered {
		for i := range s.L {
			mixL[i] += s.L[i]
			mixR[i] += s.R[i]
		}
	}

	gain := float32(opts.MasterVolume)
	for i := range mixL {
		mixL[i] *= gain
		mixR[i] *= gain
	}

	if opts.Normalize {
		mixL, mixR = normalizePeakStereo(mixL, mixR)
	}

	samples := expandChannels(mixL, mixR, channels)

	return Buffer{SampleRate: sr, Channels: channels, Samples: samples}, nil
}

// normalizePeakStereo finds the peak absolute value across both channels in
// a single pass and divides both by it when the peak exceeds 1.0, leaving
// the buffers untouched otherwise. Idempotent: a buffer whose peak is
// already <= 1.0 is returned unchanged.
func normalizePeakStereo(l, r []float32) ([]float32, []float32) {
	peak := float32(0)
	for i := range l {
		if a := absF32(l[i]); a > peak {
			peak = a
		}
		if a := absF32(r[i]); a > peak {
			peak = a
		}
	}
	if peak <= 1.0 {
		return l, r
	}
	inv := 1.0 / peak
	for i := range l {
		l[i] *= inv
		r[i] *= inv
	}
	return l, r
}

// normalizePeak is the mono convenience form of normalizePeakStereo.
func normalizePeak(buf []float32) []float32 {
	out := make([]float32, len(buf))
	copy(out, buf)
	l, _ := normalizePeakStereo(out, make([]float32, len(out)))
	return l
}

// expandChannels interleaves the stereo mix into the requested channel
// count. Two channels pass the stereo pair straight through; any other
// count downmixes to mono and duplicates it across every channel, matching
// §4.6's "duplicate the signal" rule for the non-stereo case.
func expandChannels(left, right []float32, channels int) []float32 {
	n := len(left)
	out := make([]float32, n*channels)

	if channels == 2 {
		for i := 0; i < n; i++ {
			out[i*2] = left[i]
			out[i*2+1] = right[i]
		}
		return out
	}

	for i := 0; i < n; i++ {
		mono := (left[i] + right[i]) / 2
		base := i * channels
		for c := 0; c < channels; c++ {
			out[base+c] = mono
		}
	}
	return out
}

func absF32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
