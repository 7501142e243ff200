// envelope.go - ADSR amplitude shaping
//
// Given a buffer of N samples and durations A, D, R (seconds) with sustain
// level S: attack ramps 0→1 over Na samples, decay ramps 1→S over Nd,
// sustain holds S for Ns = max(0, N-Na-Nd-Nr), release ramps S→0 over Nr.
// If Na+Nd+Nr >= N the sustain phase has zero length and the remaining
// phases are simply truncated in order (attack, then decay, then release,
// whatever fits).

package spa

func secondsToSamples(seconds float64, sampleRate int) int {
	n := int(seconds * float64(sampleRate))
	if n < 0 {
		n = 0
	}
	return n
}

// envelopeBounds are the (possibly truncated) phase boundaries for a buffer
// of length n, computed once per render.
type envelopeBounds struct {
	attackEnd  int
	decayEnd   int
	sustainEnd int
	na, nd, nr int // original, untruncated phase lengths - used as ramp rates
	sustain    float64
}

func newEnvelopeBounds(env ADSR, n, sampleRate int) envelopeBounds {
	na := secondsToSamples(env.Attack, sampleRate)
	nd := secondsToSamples(env.Decay, sampleRate)
	nr := secondsToSamples(env.Release, sampleRate)

	actualNa := minInt(na, n)
	actualNd := minInt(nd, n-actualNa)
	actualNr := minInt(nr, n-actualNa-actualNd)

	return envelopeBounds{
		attackEnd:  actualNa,
		decayEnd:   actualNa + actualNd,
		sustainEnd: n - actualNr,
		na:         na,
		nd:         nd,
		nr:         nr,
		sustain:    env.Sustain,
	}
}

func (b envelopeBounds) gainAt(i int) float64 {
	switch {
	case i < b.attackEnd:
		if b.na == 0 {
			return 1
		}
		return float64(i) / float64(b.na)
	case i < b.decayEnd:
		if b.nd == 0 {
			return b.sustain
		}
		p := float64(i-b.attackEnd) / float64(b.nd)
		return 1 - (1-b.sustain)*p
	case i < b.sustainEnd:
		// When Na==Nd==0 this includes sample 0: attack and decay both have
		// zero length, so the envelope enters sustain immediately at level S
		// rather than visiting gain 1.0 first, resolving the zero-length
		// attack/decay corner the ADSR narrative above doesn't spell out.
		return b.sustain
	default:
		if b.nr == 0 {
			return 0
		}
		p := float64(i-b.sustainEnd) / float64(b.nr)
		g := b.sustain * (1 - p)
		if g < 0 {
			g = 0
		}
		return g
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// applyEnvelope multiplies buf in place by the ADSR gain curve.
func applyEnvelope(buf []float32, env ADSR, sampleRate int) {
	bounds := newEnvelopeBounds(env, len(buf), sampleRate)
	for i := range buf {
		buf[i] *= float32(bounds.gainAt(i))
	}
}
