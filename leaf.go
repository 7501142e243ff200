// leaf.go - tone and noise leaf rendering
//
// A leaf goes through oscillator/noise generation, envelope, amplitude,
// filter and repeat, in that order. Pan and the container-level `at` offset
// are applied by the container, not here - leaves always produce mono
// buffers.

package spa

// renderTone renders a single Tone leaf to a mono buffer.
func renderTone(t *Tone, sampleRate int) ([]float32, error) {
	if t.Dur <= 0 {
		return nil, newErr(ErrInvalidValue, "tone", "dur", "duration must be > 0, got %v", t.Dur)
	}
	if t.Freq.Curve == nil && t.Freq.Scalar <= 0 {
		return nil, newErr(ErrInvalidValue, "tone", "freq", "frequency must be > 0, got %v", t.Freq.Scalar)
	}

	n := secondsToSamples(t.Dur, sampleRate)
	buf := renderOscillator(t.Wave, t.Freq, n, sampleRate, t.Phase)

	if t.Envelope != nil {
		applyEnvelope(buf, *t.Envelope, sampleRate)
	}

	if t.HasAmp {
		applyAmp(buf, t.Amp)
	}

	if t.Filter != nil {
		applyFilter(buf, *t.Filter, sampleRate)
	}

	if t.Repeat != nil {
		expanded, _ := applyRepeat(buf, *t.Repeat, sampleRate, true)
		buf = expanded
	}

	return buf, nil
}

// renderNoise renders a single Noise leaf to a mono buffer.
func renderNoise(noise *Noise, sampleRate int) ([]float32, error) {
	if noise.Dur <= 0 {
		return nil, newErr(ErrInvalidValue, "noise", "dur", "duration must be > 0, got %v", noise.Dur)
	}

	n := secondsToSamples(noise.Dur, sampleRate)
	buf := generateNoiseSamples(noise.Color, n)

	if noise.Envelope != nil {
		applyEnvelope(buf, *noise.Envelope, sampleRate)
	}

	if noise.HasAmp {
		applyAmp(buf, noise.Amp)
	}

	if noise.Filter != nil {
		applyFilter(buf, *noise.Filter, sampleRate)
	}

	if noise.Repeat != nil {
		expanded, _ := applyRepeat(buf, *noise.Repeat, sampleRate, false)
		buf = expanded
	}

	return buf, nil
}

// applyAmp multiplies buf in place by a scalar or per-sample curve amplitude.
func applyAmp(buf []float32, amp Parameter) {
	if amp.Curve == nil {
		g := float32(amp.Scalar)
		for i := range buf {
			buf[i] *= g
		}
		return
	}
	n := len(buf)
	for i := range buf {
		progress := 0.0
		if n > 1 {
			progress = float64(i) / float64(n-1)
		}
		buf[i] *= float32(amp.ValueAt(progress))
	}
}

// effectiveDuration is the layout duration used by a sequence (see §4.5):
// the leaf dur for tones/noises, the max child duration for groups, the
// total duration for nested sequences, extended by any repeat block.
func effectiveDuration(n Node) float64 {
	switch v := n.(type) {
	case *Tone:
		return extendByRepeat(v.Dur, v.Repeat)
	case *Noise:
		return extendByRepeat(v.Dur, v.Repeat)
	case *Group:
		max := 0.0
		for _, c := range v.Children {
			if d := effectiveDuration(c); d > max {
				max = d
			}
		}
		return extendByRepeat(max, v.Repeat)
	case *Sequence:
		return sequenceTotalDuration(v)
	default:
		return 0
	}
}

// extendByRepeat adds the repeat-expanded tail length to a leaf/group's own
// duration: dur + (R-1)*(dur+I) + D.
func extendByRepeat(dur float64, r *RepeatBlock) float64 {
	if r == nil {
		return dur
	}
	count := resolvedRepeatCount(r.Count)
	if count <= 1 || r.Interval <= 0 {
		return dur
	}
	return dur + float64(count-1)*(dur+r.Interval) + r.Delay
}
