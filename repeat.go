// repeat.go - repeat expansion
//
// Expands a rendered leaf or group buffer into a decayed, optionally
// pitch-shifted series. A repeat-generated buffer is bounded at 60 seconds
// worth of samples; anything non-finite, negative or over that bound is a
// diagnostic, not a crash - the buffer is returned unchanged.

package spa

import "math"

const (
	maxRepeatCount     = 100
	maxRepeatSeconds   = 60
)

// repeatDiagnostic is populated by applyRepeat when it has to skip an
// expansion; callers that care about REPEAT_BOUND warnings can inspect it.
type repeatDiagnostic struct {
	Code    ErrorCode
	Message string
}

// resolvedRepeatCount turns the XML "infinite" token (already normalized to
// RepeatCountInfinite by the parser) into the capped repetition count.
func resolvedRepeatCount(count int) int {
	if count == RepeatCountInfinite {
		return maxRepeatCount
	}
	if count < 1 {
		return 1
	}
	return count
}

// applyRepeat expands buf per r, returning the expanded buffer and an
// optional diagnostic describing why expansion was skipped. pitchAllowed is
// false for noise leaves, where pitch shift is not applicable.
func applyRepeat(buf []float32, r RepeatBlock, sampleRate int, pitchAllowed bool) ([]float32, *repeatDiagnostic) {
	repCount := resolvedRepeatCount(r.Count)
	intervalSamples := secondsToSamples(r.Interval, sampleRate)
	delaySamples := secondsToSamples(r.Delay, sampleRate)
	l := len(buf)

	if intervalSamples == 0 || repCount <= 1 {
		return buf, nil
	}

	totalF := float64(delaySamples) + float64(l) + float64(repCount-1)*(float64(l)+float64(intervalSamples))
	if math.IsNaN(totalF) || math.IsInf(totalF, 0) || totalF < 0 || totalF > float64(maxRepeatSeconds*sampleRate) {
		return buf, &repeatDiagnostic{
			Code:    ErrRepeatBound,
			Message: "repeat expansion would exceed the safety limit, skipping",
		}
	}
	total := int(totalF)

	out := make([]float32, total)

	// original placed at offset delaySamples
	copyAddInto(out, buf, delaySamples, 1)

	semitones := r.PitchShift
	if !pitchAllowed {
		semitones = 0
	}

	for k := 1; k < repCount; k++ {
		offset := delaySamples + k*(l+intervalSamples)
		gain := math.Pow(1-r.Decay, float64(k))

		if semitones == 0 {
			copyAddInto(out, buf, offset, gain)
			continue
		}
		ratio := math.Pow(2, semitones*float64(k)/12)
		shifted := resample(buf, ratio)
		copyAddInto(out, shifted, offset, gain)
	}

	return out, nil
}

// copyAddInto additively mixes src*gain into dst starting at offset,
// discarding any samples that would land beyond dst's length.
func copyAddInto(dst []float32, src []float32, offset int, gain float64) {
	if offset >= len(dst) {
		return
	}
	g := float32(gain)
	for i, v := range src {
		di := offset + i
		if di < 0 {
			continue
		}
		if di >= len(dst) {
			break
		}
		dst[di] += v * g
	}
}

// resample reads src at ratio-scaled positions, producing floor(len(src)/ratio)
// samples. Used for the per-repetition pitch shift in §4.3.
func resample(src []float32, ratio float64) []float32 {
	if ratio <= 0 {
		return nil
	}
	n := int(float64(len(src)) / ratio)
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		srcIdx := int(float64(i) * ratio)
		if srcIdx >= len(src) {
			srcIdx = len(src) - 1
		}
		out[i] = src[srcIdx]
	}
	return out
}
