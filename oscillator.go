// oscillator.go - waveform generation
//
// Each waveform is a pure function of a normalized phase φ ∈ [0,1). An
// oscillator advances phase by Δφ = f / sampleRate each sample, wrapping
// modulo 1. Phase state never outlives a single leaf render.

package spa

import "math"

// waveformAt evaluates a waveform at normalized phase phi in [0,1).
func waveformAt(w Waveform, phi float64) float64 {
	switch w {
	case WaveSine:
		return math.Sin(2 * math.Pi * phi)
	case WaveSquare:
		if phi < 0.5 {
			return 1
		}
		return -1
	case WaveTriangle:
		switch {
		case phi < 0.25:
			return 4 * phi
		case phi < 0.75:
			return 2 - 4*phi
		default:
			return 4*phi - 4
		}
	case WaveSaw:
		return 2*phi - 1
	case WavePulse:
		return pulseAt(phi, 0.25)
	default:
		return 0
	}
}

// pulseAt evaluates a pulse wave of the given duty width in (0,1).
func pulseAt(phi, width float64) float64 {
	if phi < width {
		return 1
	}
	return -1
}

// oscillator holds per-render phase state for one tone leaf. It is
// stack-local: a fresh oscillator is created for every renderTone call and
// discarded once the buffer is produced.
type oscillator struct {
	wave  Waveform
	phase float64
}

func newOscillator(wave Waveform, initialPhase float64) *oscillator {
	return &oscillator{wave: wave, phase: wrapPhase(initialPhase)}
}

func wrapPhase(phi float64) float64 {
	phi = math.Mod(phi, 1)
	if phi < 0 {
		phi += 1
	}
	return phi
}

// next returns the current sample and advances phase by deltaPhase (freq /
// sampleRate), wrapping modulo 1. deltaPhase may vary sample to sample for a
// frequency sweep; this preserves phase continuity across the sweep because
// phase is an accumulator, not re-derived from elapsed time each sample.
func (o *oscillator) next(deltaPhase float64) float64 {
	v := waveformAt(o.wave, o.phase)
	o.phase = wrapPhase(o.phase + deltaPhase)
	return v
}

// renderOscillator produces n samples for a tone. If freq is a curve, the
// instantaneous delta-phase at each sample is derived from the curve value
// at progress = i/n; otherwise the phase at sample i is initialPhase +
// i*f/sampleRate, computed directly rather than accumulated so that rounding
// cannot shift a waveform edge by a sample.
func renderOscillator(wave Waveform, freq Parameter, n int, sampleRate int, initialPhase float64) []float32 {
	out := make([]float32, n)
	osc := newOscillator(wave, initialPhase)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = float32(waveformAt(wave, osc.phase))
		return out
	}
	sr := float64(sampleRate)
	if freq.Curve == nil {
		for i := 0; i < n; i++ {
			out[i] = float32(waveformAt(wave, wrapPhase(osc.phase+float64(i)*freq.Scalar/sr)))
		}
		return out
	}
	for i := 0; i < n; i++ {
		progress := float64(i) / float64(n)
		f := freq.ValueAt(progress)
		out[i] = float32(osc.next(f / sr))
	}
	return out
}
