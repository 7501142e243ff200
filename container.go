// container.go - group (parallel) and sequence (timed) rendering
//
// Internally every node renders to a stereo (L, R) pair rather than a bare
// mono buffer: pan has to be folded in somewhere between the leaf and the
// final mixdown, and doing it per-node keeps a group's own pan and a
// sequence child's pan composable without a second tree walk. A node that
// never sets pan produces L == R, which is exactly the "duplicate the mono
// signal" behaviour the top-level mixer documents as its default.

package spa

import "math"

type stereoBuf struct {
	L, R []float32
}

func monoStereo(buf []float32) stereoBuf {
	l := make([]float32, len(buf))
	r := make([]float32, len(buf))
	copy(l, buf)
	copy(r, buf)
	return stereoBuf{L: l, R: r}
}

// panGains implements the equal-power pan law from the pan open question:
// left = cos((p+1)*pi/4), right = sin((p+1)*pi/4), p in [-1,1].
func panGains(pan float64) (float64, float64) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	angle := (pan + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}

func applyPan(s stereoBuf, pan float64) stereoBuf {
	gl, gr := panGains(pan)
	for i := range s.L {
		s.L[i] *= float32(gl)
		s.R[i] *= float32(gr)
	}
	return s
}

// renderNode dispatches on the node's concrete type - the set of variants is
// closed, so a type switch (not a virtual call) is the whole dispatch
// mechanism.
func renderNode(n Node, sampleRate int) (stereoBuf, error) {
	switch v := n.(type) {
	case *Tone:
		buf, err := renderTone(v, sampleRate)
		if err != nil {
			return stereoBuf{}, err
		}
		s := monoStereo(buf)
		if v.HasPan {
			s = applyPan(s, v.Pan)
		}
		return s, nil

	case *Noise:
		buf, err := renderNoise(v, sampleRate)
		if err != nil {
			return stereoBuf{}, err
		}
		s := monoStereo(buf)
		if v.HasPan {
			s = applyPan(s, v.Pan)
		}
		return s, nil

	case *Group:
		return renderGroup(v, sampleRate)

	case *Sequence:
		return renderSequence(v, sampleRate)

	default:
		return stereoBuf{}, newErr(ErrInvalidValue, "", "", "unknown node type")
	}
}

// renderGroup renders each child in parallel starting at index 0, mixing
// additively into a buffer sized to the longest child. The group's own `at`
// offset is a container-placement concern handled by the parent sequence
// (if any); groups never reinterpret their children's `at`.
func renderGroup(g *Group, sampleRate int) (stereoBuf, error) {
	children := make([]stereoBuf, 0, len(g.Children))
	maxLen := 0
	for _, c := range g.Children {
		cs, err := renderNode(c, sampleRate)
		if err != nil {
			return stereoBuf{}, err
		}
		children = append(children, cs)
		if len(cs.L) > maxLen {
			maxLen = len(cs.L)
		}
	}

	out := stereoBuf{L: make([]float32, maxLen), R: make([]float32, maxLen)}
	for _, cs := range children {
		for i := range cs.L {
			out.L[i] += cs.L[i]
			out.R[i] += cs.R[i]
		}
	}

	if g.HasAmp {
		gain := float32(g.Amp)
		for i := range out.L {
			out.L[i] *= gain
			out.R[i] *= gain
		}
	}

	if g.Repeat != nil {
		if expL, _ := applyRepeat(out.L, *g.Repeat, sampleRate, false); expL != nil {
			expR, _ := applyRepeat(out.R, *g.Repeat, sampleRate, false)
			out = stereoBuf{L: expL, R: expR}
		}
	}

	if g.HasPan {
		out = applyPan(out, g.Pan)
	}

	return out, nil
}

// sequenceChildOffsetSeconds converts a child's raw `at` value to seconds,
// re-interpreting it as a beat count when the sequence carries a tempo.
func sequenceChildOffsetSeconds(seq *Sequence, child Node) float64 {
	at := child.startOffset()
	if seq.HasTempo && seq.Tempo > 0 {
		return at * (60 / seq.Tempo)
	}
	return at
}

// sequenceTotalDuration is max over children of (child_at + child_duration),
// both already in seconds.
func sequenceTotalDuration(seq *Sequence) float64 {
	max := 0.0
	for _, c := range seq.Children {
		at := sequenceChildOffsetSeconds(seq, c)
		d := at + effectiveDuration(c)
		if d > max {
			max = d
		}
	}
	return max
}

// renderSequence lays children out along a time axis via each child's own
// `at` offset, truncating any tail that would exceed the allocated length.
func renderSequence(seq *Sequence, sampleRate int) (stereoBuf, error) {
	total := sequenceTotalDuration(seq)
	n := secondsToSamples(total, sampleRate)
	out := stereoBuf{L: make([]float32, n), R: make([]float32, n)}

	for _, c := range seq.Children {
		cs, err := renderNode(c, sampleRate)
		if err != nil {
			return stereoBuf{}, err
		}
		offset := secondsToSamples(sequenceChildOffsetSeconds(seq, c), sampleRate)
		mixAddStereo(out, cs, offset)
	}

	return out, nil
}

func mixAddStereo(dst, src stereoBuf, offset int) {
	for i := range src.L {
		di := offset + i
		if di < 0 {
			continue
		}
		if di >= len(dst.L) {
			break
		}
		dst.L[di] += src.L[i]
		dst.R[di] += src.R[i]
	}
}
