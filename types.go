// types.go - document model: sound nodes, envelopes, automation and filters

package spa

// Waveform selects the oscillator function used by a Tone.
type Waveform string

const (
	WaveSine     Waveform = "sine"
	WaveSquare   Waveform = "square"
	WaveTriangle Waveform = "triangle"
	WaveSaw      Waveform = "saw"
	WavePulse    Waveform = "pulse"
)

// NoiseColor selects the PRNG shaping used by a Noise node.
type NoiseColor string

const (
	ColorWhite  NoiseColor = "white"
	ColorPink   NoiseColor = "pink"
	ColorBrown  NoiseColor = "brown"
	ColorBlue   NoiseColor = "blue"
	ColorViolet NoiseColor = "violet"
	ColorGrey   NoiseColor = "grey"
)

// normalizeWaveform accepts the "sawtooth" alias for saw.
func normalizeWaveform(s string) (Waveform, bool) {
	switch s {
	case "sine", "square", "triangle", "saw", "pulse":
		return Waveform(s), true
	case "sawtooth":
		return WaveSaw, true
	}
	return "", false
}

// normalizeNoiseColor accepts the "red"/"purple"/"gray" aliases.
func normalizeNoiseColor(s string) (NoiseColor, bool) {
	switch s {
	case "white", "pink", "brown", "blue", "violet", "grey":
		return NoiseColor(s), true
	case "red":
		return ColorBrown, true
	case "purple":
		return ColorViolet, true
	case "gray":
		return ColorGrey, true
	}
	return "", false
}

// CurveKind selects the interpolation shape used by an automated Parameter.
type CurveKind string

const (
	CurveLinear   CurveKind = "linear"
	CurveExp      CurveKind = "exp"
	CurveLog      CurveKind = "log"
	CurveSmooth   CurveKind = "smooth"
	CurveEaseIn   CurveKind = "ease-in"
	CurveEaseOut  CurveKind = "ease-out"
	CurveStep     CurveKind = "step"
)

// Curve describes an automated sweep from Start to End evaluated at a
// progress p in [0,1].
type Curve struct {
	Start float64
	End   float64
	Kind  CurveKind
}

// Parameter is a scalar-or-curve value. Curve is nil for a plain scalar.
// This is a sum, not a sentinel: the zero Parameter{} is the scalar 0, and
// the presence of Curve is what selects automation, never a magic value of
// Scalar.
type Parameter struct {
	Scalar float64
	Curve  *Curve
}

func scalarParam(v float64) Parameter { return Parameter{Scalar: v} }

// ValueAt evaluates the parameter at progress p in [0,1]. For a scalar
// parameter the value is constant regardless of p.
func (p Parameter) ValueAt(progress float64) float64 {
	if p.Curve == nil {
		return p.Scalar
	}
	return evalCurve(*p.Curve, progress)
}

// ADSR is an attack-decay-sustain-release amplitude envelope. Attack, Decay
// and Release are durations in seconds; Sustain is a level in [0,1].
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// FilterType selects the biquad topology applied to a leaf.
type FilterType string

const (
	FilterLowpass  FilterType = "lowpass"
	FilterHighpass FilterType = "highpass"
	FilterBandpass FilterType = "bandpass"
)

// FilterConfig describes a single biquad stage. Cutoff and Resonance may
// each be automated.
type FilterConfig struct {
	Type       FilterType
	Cutoff     Parameter
	Resonance  Parameter
	GainDB     float64
	Detune     float64
}

// RepeatCountInfinite is the token value used for the XML "infinite" count;
// see RepeatBlock.Count.
const RepeatCountInfinite = -1

// RepeatBlock describes the decayed, optionally pitch-shifted repetition of
// a rendered leaf or group buffer. Count is a positive integer, or
// RepeatCountInfinite for the "infinite" token (capped at maxRepeatCount).
type RepeatBlock struct {
	Count      int
	Interval   float64
	Delay      float64
	Decay      float64
	PitchShift float64 // semitones, tones only
}

// Node is a sound node: one of *Tone, *Noise, *Group, *Sequence. Dispatch is
// by type switch, never by virtual call - the set of variants is closed.
type Node interface {
	startOffset() float64
}

// Tone is an oscillator-driven leaf.
type Tone struct {
	Wave     Waveform
	Freq     Parameter
	Dur      float64
	Amp      Parameter
	HasAmp   bool
	Envelope *ADSR
	Pan      float64
	HasPan   bool
	Filter   *FilterConfig
	Phase    float64
	Repeat   *RepeatBlock
	At       float64
}

func (t *Tone) startOffset() float64 { return t.At }

// Noise is a PRNG-driven leaf.
type Noise struct {
	Color    NoiseColor
	Dur      float64
	Amp      Parameter
	HasAmp   bool
	Envelope *ADSR
	Pan      float64
	HasPan   bool
	Filter   *FilterConfig
	Repeat   *RepeatBlock
	At       float64
}

func (n *Noise) startOffset() float64 { return n.At }

// Group mixes its children in parallel, starting all of them at time zero.
type Group struct {
	Children []Node
	Amp      float64
	HasAmp   bool
	Pan      float64
	HasPan   bool
	Repeat   *RepeatBlock
	At       float64
}

func (g *Group) startOffset() float64 { return g.At }

// Sequence lays its children out along a time axis via each child's own At
// offset, optionally re-interpreting those offsets as beats when Tempo is
// set.
type Sequence struct {
	Children []Node
	Tempo    float64
	HasTempo bool
	At       float64
}

func (s *Sequence) startOffset() float64 { return s.At }

// Definitions maps an envelope id (without the leading "#") to its ADSR
// record.
type Definitions map[string]ADSR

// Document is the immutable result of Parse.
type Document struct {
	Version   string
	Namespace string
	Defs      Definitions
	Nodes     []Node
}
