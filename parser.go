// parser.go - XML text to typed document tree
//
// The root element must be named `spa` and carry a `version` attribute.
// Recognized child elements at any depth where sound nodes are legal are
// tone, noise, group, sequence, defs. Reference resolution against the
// defs table happens here, at parse time, by default - downstream code
// (leaf.go, container.go) only ever sees a resolved *ADSR, never a `#id`
// string.

package spa

import (
	"strconv"
	"strings"
)

// ParseOptions configures Parse. Validate and Strict are reserved for a
// future strict-mode pass and currently have no effect.
type ParseOptions struct {
	Validate          bool
	ResolveReferences bool
	Strict            bool
	AllowComments     bool
}

// DefaultParseOptions matches §6: resolveReferences and allowComments on.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		ResolveReferences: true,
		AllowComments:     true,
	}
}

// Parse converts xml text into an immutable Document. The first fatal error
// encountered aborts the whole parse; see errors.go for the error taxonomy.
func Parse(xmlText string, opts ParseOptions) (*Document, error) {
	root, err := buildXMLTree([]byte(xmlText), opts.AllowComments)
	if err != nil {
		return nil, err
	}
	return buildDocument(root, opts)
}

// ParseDefault is Parse with DefaultParseOptions.
func ParseDefault(xmlText string) (*Document, error) {
	return Parse(xmlText, DefaultParseOptions())
}

func buildDocument(root *xmlElem, opts ParseOptions) (*Document, error) {
	if root.Name != "spa" {
		return nil, newErr(ErrInvalidRoot, root.Name, "", "root element must be <spa>, got <%s>", root.Name)
	}
	version, ok := root.Attrs["version"]
	if !ok || version == "" {
		return nil, newErr(ErrMissingVersion, "spa", "version", "root element is missing required version attribute")
	}

	doc := &Document{
		Version:   version,
		Namespace: root.Attrs["xmlns"],
		Defs:      Definitions{},
	}

	for _, child := range root.Children {
		if child.Name == "defs" {
			if err := parseDefs(child, doc.Defs); err != nil {
				return nil, err
			}
		}
	}

	for _, child := range root.Children {
		switch child.Name {
		case "defs":
			continue
		case "tone", "noise", "group", "sequence":
			node, err := buildNode(child, doc.Defs, opts)
			if err != nil {
				return nil, err
			}
			doc.Nodes = append(doc.Nodes, node)
		default:
			// unknown top-level elements are a validator concern, not fatal
		}
	}

	return doc, nil
}

func parseDefs(defsEl *xmlElem, defs Definitions) error {
	for _, e := range defsEl.Children {
		if e.Name != "envelope" {
			continue
		}
		id, ok := e.Attrs["id"]
		if !ok || id == "" {
			return newErr(ErrMissingID, "envelope", "id", "envelope in <defs> is missing required id attribute")
		}
		adsr, err := parseEnvelopeComponents(e.Attrs, "envelope")
		if err != nil {
			return err
		}
		defs[id] = adsr
	}
	return nil
}

func parseEnvelopeComponents(attrs map[string]string, element string) (ADSR, error) {
	attack, err := parseOptionalFloat(attrs, "attack", element, 0)
	if err != nil {
		return ADSR{}, err
	}
	decay, err := parseOptionalFloat(attrs, "decay", element, 0)
	if err != nil {
		return ADSR{}, err
	}
	sustain, err := parseOptionalFloat(attrs, "sustain", element, 1)
	if err != nil {
		return ADSR{}, err
	}
	release, err := parseOptionalFloat(attrs, "release", element, 0)
	if err != nil {
		return ADSR{}, err
	}
	return ADSR{Attack: attack, Decay: decay, Sustain: sustain, Release: release}, nil
}

func buildNode(el *xmlElem, defs Definitions, opts ParseOptions) (Node, error) {
	switch el.Name {
	case "tone":
		return buildTone(el, defs, opts)
	case "noise":
		return buildNoise(el, defs, opts)
	case "group":
		return buildGroup(el, defs, opts)
	case "sequence":
		return buildSequence(el, defs, opts)
	default:
		return nil, newErr(ErrUnknownElement, el.Name, "", "unrecognized sound node <%s>", el.Name)
	}
}

func buildTone(el *xmlElem, defs Definitions, opts ParseOptions) (Node, error) {
	waveStr, ok := el.Attrs["wave"]
	if !ok {
		return nil, newErr(ErrMissingAttribute, "tone", "wave", "tone is missing required wave attribute")
	}
	wave, ok := normalizeWaveform(waveStr)
	if !ok {
		return nil, newErr(ErrInvalidValue, "tone", "wave", "unrecognized waveform %q", waveStr)
	}

	freq, hasFreq, err := parseParameter(el.Attrs, "freq")
	if err != nil {
		return nil, err
	}
	if !hasFreq {
		return nil, newErr(ErrMissingAttribute, "tone", "freq", "tone is missing required freq attribute")
	}
	if freq.Curve == nil && freq.Scalar <= 0 {
		return nil, newErr(ErrInvalidValue, "tone", "freq", "freq must be > 0 Hz, got %v", freq.Scalar)
	}

	dur, err := parseRequiredFloat(el.Attrs, "dur", "tone")
	if err != nil {
		return nil, err
	}
	if dur <= 0 {
		return nil, newErr(ErrInvalidValue, "tone", "dur", "dur must be > 0, got %v", dur)
	}

	t := &Tone{Wave: wave, Freq: freq, Dur: dur}

	amp, hasAmp, err := parseParameter(el.Attrs, "amp")
	if err != nil {
		return nil, err
	}
	if hasAmp {
		if err := checkAmpRange(amp, "tone"); err != nil {
			return nil, err
		}
	}
	t.Amp, t.HasAmp = amp, hasAmp

	env, err := parseEnvelopeAttr(el.Attrs, "tone", defs, opts.ResolveReferences)
	if err != nil {
		return nil, err
	}
	t.Envelope = env

	if pan, has, err := parseOptionalSignedUnit(el.Attrs, "pan", "tone"); err != nil {
		return nil, err
	} else if has {
		t.Pan, t.HasPan = pan, true
	}

	filter, err := parseFilterAttr(el.Attrs, "tone")
	if err != nil {
		return nil, err
	}
	t.Filter = filter

	if phase, has, err := parsePhaseAttr(el.Attrs, "tone"); err != nil {
		return nil, err
	} else if has {
		t.Phase = phase
	}

	rep, err := parseRepeatAttr(el.Attrs, "tone", true)
	if err != nil {
		return nil, err
	}
	t.Repeat = rep

	at, err := parseOptionalNonNegFloat(el.Attrs, "at", "tone")
	if err != nil {
		return nil, err
	}
	t.At = at

	return t, nil
}

func buildNoise(el *xmlElem, defs Definitions, opts ParseOptions) (Node, error) {
	colorStr, ok := el.Attrs["color"]
	if !ok {
		return nil, newErr(ErrMissingAttribute, "noise", "color", "noise is missing required color attribute")
	}
	color, ok := normalizeNoiseColor(colorStr)
	if !ok {
		return nil, newErr(ErrInvalidValue, "noise", "color", "unrecognized noise colour %q", colorStr)
	}

	dur, err := parseRequiredFloat(el.Attrs, "dur", "noise")
	if err != nil {
		return nil, err
	}
	if dur <= 0 {
		return nil, newErr(ErrInvalidValue, "noise", "dur", "dur must be > 0, got %v", dur)
	}

	no := &Noise{Color: color, Dur: dur}

	amp, hasAmp, err := parseParameter(el.Attrs, "amp")
	if err != nil {
		return nil, err
	}
	if hasAmp {
		if err := checkAmpRange(amp, "noise"); err != nil {
			return nil, err
		}
	}
	no.Amp, no.HasAmp = amp, hasAmp

	env, err := parseEnvelopeAttr(el.Attrs, "noise", defs, opts.ResolveReferences)
	if err != nil {
		return nil, err
	}
	no.Envelope = env

	if pan, has, err := parseOptionalSignedUnit(el.Attrs, "pan", "noise"); err != nil {
		return nil, err
	} else if has {
		no.Pan, no.HasPan = pan, true
	}

	filter, err := parseFilterAttr(el.Attrs, "noise")
	if err != nil {
		return nil, err
	}
	no.Filter = filter

	rep, err := parseRepeatAttr(el.Attrs, "noise", false)
	if err != nil {
		return nil, err
	}
	no.Repeat = rep

	at, err := parseOptionalNonNegFloat(el.Attrs, "at", "noise")
	if err != nil {
		return nil, err
	}
	no.At = at

	return no, nil
}

func buildGroup(el *xmlElem, defs Definitions, opts ParseOptions) (Node, error) {
	g := &Group{}
	for _, c := range el.Children {
		child, err := buildNode(c, defs, opts)
		if err != nil {
			if isUnknownElementErr(err) {
				continue
			}
			return nil, err
		}
		g.Children = append(g.Children, child)
	}

	if amp, has, err := parseOptionalUnit(el.Attrs, "amp", "group"); err != nil {
		return nil, err
	} else if has {
		g.Amp, g.HasAmp = amp, true
	}

	if pan, has, err := parseOptionalSignedUnit(el.Attrs, "pan", "group"); err != nil {
		return nil, err
	} else if has {
		g.Pan, g.HasPan = pan, true
	}

	rep, err := parseRepeatAttr(el.Attrs, "group", false)
	if err != nil {
		return nil, err
	}
	g.Repeat = rep

	at, err := parseOptionalNonNegFloat(el.Attrs, "at", "group")
	if err != nil {
		return nil, err
	}
	g.At = at

	return g, nil
}

func buildSequence(el *xmlElem, defs Definitions, opts ParseOptions) (Node, error) {
	s := &Sequence{}

	if tempoStr, ok := el.Attrs["tempo"]; ok {
		tempo, err := strconv.ParseFloat(tempoStr, 64)
		if err != nil {
			return nil, newErr(ErrInvalidValue, "sequence", "tempo", "malformed tempo %q", tempoStr)
		}
		if tempo <= 0 {
			return nil, newErr(ErrInvalidValue, "sequence", "tempo", "tempo must be > 0 bpm, got %v", tempo)
		}
		s.Tempo, s.HasTempo = tempo, true
	}

	for _, c := range el.Children {
		child, err := buildNode(c, defs, opts)
		if err != nil {
			if isUnknownElementErr(err) {
				continue
			}
			return nil, err
		}
		if child.startOffset() < 0 {
			return nil, newErr(ErrInvalidValue, c.Name, "at", "sequence child start offset must be >= 0")
		}
		s.Children = append(s.Children, child)
	}

	at, err := parseOptionalNonNegFloat(el.Attrs, "at", "sequence")
	if err != nil {
		return nil, err
	}
	s.At = at

	return s, nil
}

func isUnknownElementErr(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == ErrUnknownElement
}

// --- attribute-level helpers -------------------------------------------------

func parseParameter(attrs map[string]string, name string) (Parameter, bool, error) {
	startStr, hasStart := attrs[name+".start"]
	endStr, hasEnd := attrs[name+".end"]
	if hasStart && hasEnd {
		start, err := strconv.ParseFloat(startStr, 64)
		if err != nil {
			return Parameter{}, false, newErr(ErrInvalidValue, "", name+".start", "malformed number %q", startStr)
		}
		end, err := strconv.ParseFloat(endStr, 64)
		if err != nil {
			return Parameter{}, false, newErr(ErrInvalidValue, "", name+".end", "malformed number %q", endStr)
		}
		kind := CurveLinear
		if k, ok := attrs[name+".curve"]; ok {
			kind = CurveKind(k)
			if !validCurveKind(kind) {
				return Parameter{}, false, newErr(ErrInvalidValue, "", name+".curve", "unknown curve kind %q", k)
			}
		}
		return Parameter{Curve: &Curve{Start: start, End: end, Kind: kind}}, true, nil
	}

	if v, ok := attrs[name]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Parameter{}, false, newErr(ErrInvalidValue, "", name, "malformed number %q", v)
		}
		return scalarParam(f), true, nil
	}

	return Parameter{}, false, nil
}

func validCurveKind(k CurveKind) bool {
	switch k {
	case CurveLinear, CurveExp, CurveLog, CurveSmooth, CurveEaseIn, CurveEaseOut, CurveStep:
		return true
	}
	return false
}

func parseRequiredFloat(attrs map[string]string, name, element string) (float64, error) {
	v, ok := attrs[name]
	if !ok {
		return 0, newErr(ErrMissingAttribute, element, name, "%s is missing required %s attribute", element, name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, newErr(ErrInvalidValue, element, name, "malformed number %q", v)
	}
	return f, nil
}

func parseOptionalFloat(attrs map[string]string, name, element string, def float64) (float64, error) {
	v, ok := attrs[name]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, newErr(ErrInvalidValue, element, name, "malformed number %q", v)
	}
	return f, nil
}

func parseOptionalNonNegFloat(attrs map[string]string, name, element string) (float64, error) {
	f, err := parseOptionalFloat(attrs, name, element, 0)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, newErr(ErrInvalidValue, element, name, "%s must be >= 0, got %v", name, f)
	}
	return f, nil
}

func parseOptionalUnit(attrs map[string]string, name, element string) (float64, bool, error) {
	v, ok := attrs[name]
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, newErr(ErrInvalidValue, element, name, "malformed number %q", v)
	}
	if f < 0 || f > 1 {
		return 0, false, newErr(ErrInvalidValue, element, name, "%s must be in [0,1], got %v", name, f)
	}
	return f, true, nil
}

// checkAmpRange enforces amp's [0,1] range for a scalar amp value; the start
// and end values of an automated amp are not range-checked. Shared by the
// parser and the validator so both agree on what counts as out of range.
func checkAmpRange(amp Parameter, element string) error {
	if amp.Curve == nil && (amp.Scalar < 0 || amp.Scalar > 1) {
		return newErr(ErrInvalidValue, element, "amp", "amp must be in [0,1], got %v", amp.Scalar)
	}
	return nil
}

// parsePhaseAttr parses the optional `phase` attribute, in [0,1) turns.
func parsePhaseAttr(attrs map[string]string, element string) (float64, bool, error) {
	v, ok := attrs["phase"]
	if !ok {
		return 0, false, nil
	}
	phase, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, newErr(ErrInvalidValue, element, "phase", "malformed phase %q", v)
	}
	if phase < 0 || phase >= 1 {
		return 0, false, newErr(ErrInvalidValue, element, "phase", "phase must be in [0,1), got %v", phase)
	}
	return phase, true, nil
}

func parseOptionalSignedUnit(attrs map[string]string, name, element string) (float64, bool, error) {
	v, ok := attrs[name]
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, newErr(ErrInvalidValue, element, name, "malformed number %q", v)
	}
	if f < -1 || f > 1 {
		return 0, false, newErr(ErrInvalidValue, element, name, "%s must be in [-1,1], got %v", name, f)
	}
	return f, true, nil
}

// parseEnvelopeAttr parses the `envelope` attribute: a 4-tuple inline ADSR,
// or a "#id" reference resolved against defs. When resolveRefs is false, a
// reference is left unresolved - this renderer has no representation for a
// dangling reference downstream of parsing, so the envelope is simply
// omitted rather than carried as a string (see DESIGN.md).
func parseEnvelopeAttr(attrs map[string]string, element string, defs Definitions, resolveRefs bool) (*ADSR, error) {
	v, ok := attrs["envelope"]
	if !ok {
		return nil, nil
	}

	if strings.HasPrefix(v, "#") {
		id := strings.TrimPrefix(v, "#")
		if !resolveRefs {
			return nil, nil
		}
		env, found := defs[id]
		if !found {
			return nil, newErr(ErrReferenceUnresolved, element, "envelope", "envelope reference #%s does not resolve against <defs>", id)
		}
		return &env, nil
	}

	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return nil, newErr(ErrInvalidValue, element, "envelope", "inline envelope must have 4 comma-separated values, got %d", len(parts))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, newErr(ErrInvalidValue, element, "envelope", "malformed envelope value %q", p)
		}
		vals[i] = f
	}
	return &ADSR{Attack: vals[0], Decay: vals[1], Sustain: vals[2], Release: vals[3]}, nil
}

// parseFilterAttr parses the `filter`/`cutoff`/`resonance` group. Presence
// of `filter` requires `cutoff`; `resonance` defaults to 1.0.
func parseFilterAttr(attrs map[string]string, element string) (*FilterConfig, error) {
	v, ok := attrs["filter"]
	if !ok {
		return nil, nil
	}

	var ft FilterType
	switch v {
	case "lowpass":
		ft = FilterLowpass
	case "highpass":
		ft = FilterHighpass
	case "bandpass":
		ft = FilterBandpass
	default:
		return nil, newErr(ErrInvalidValue, element, "filter", "unrecognized filter type %q", v)
	}

	cutoff, hasCutoff, err := parseParameter(attrs, "cutoff")
	if err != nil {
		return nil, err
	}
	if !hasCutoff {
		return nil, newErr(ErrMissingAttribute, element, "cutoff", "filter requires a cutoff attribute")
	}

	resonance, hasResonance, err := parseParameter(attrs, "resonance")
	if err != nil {
		return nil, err
	}
	if !hasResonance {
		resonance = scalarParam(1.0)
	}
	if resonance.Curve == nil && resonance.Scalar < 0.1 {
		return nil, newErr(ErrInvalidValue, element, "resonance", "resonance must be >= 0.1, got %v", resonance.Scalar)
	}

	gainDB, err := parseOptionalFloat(attrs, "filter.gain", element, 0)
	if err != nil {
		return nil, err
	}
	detune, err := parseOptionalFloat(attrs, "filter.detune", element, 0)
	if err != nil {
		return nil, err
	}

	return &FilterConfig{Type: ft, Cutoff: cutoff, Resonance: resonance, GainDB: gainDB, Detune: detune}, nil
}

// parseRepeatAttr parses the `repeat`/`repeat.interval`/`repeat.delay`/
// `repeat.decay`/`repeat.pitch` group. pitchAllowed is false for noise and
// group nodes, where pitch shift has no meaning.
func parseRepeatAttr(attrs map[string]string, element string, pitchAllowed bool) (*RepeatBlock, error) {
	v, ok := attrs["repeat"]
	if !ok {
		return nil, nil
	}

	var count int
	if v == "infinite" {
		count = RepeatCountInfinite
	} else {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, newErr(ErrInvalidValue, element, "repeat", "repeat count must be a positive integer or %q, got %q", "infinite", v)
		}
		count = n
	}

	interval, err := parseRequiredFloat(attrs, "repeat.interval", element)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, newErr(ErrInvalidValue, element, "repeat.interval", "repeat.interval must be > 0, got %v", interval)
	}

	delay, err := parseOptionalNonNegFloat(attrs, "repeat.delay", element)
	if err != nil {
		return nil, err
	}

	decay, err := parseOptionalFloat(attrs, "repeat.decay", element, 0)
	if err != nil {
		return nil, err
	}
	if decay < 0 || decay >= 1 {
		return nil, newErr(ErrInvalidValue, element, "repeat.decay", "repeat.decay must be in [0,1), got %v", decay)
	}

	pitch, err := parseOptionalFloat(attrs, "repeat.pitch", element, 0)
	if err != nil {
		return nil, err
	}
	if pitch != 0 {
		if !pitchAllowed {
			pitch = 0
		} else if pitch < -12 || pitch > 12 {
			return nil, newErr(ErrInvalidValue, element, "repeat.pitch", "repeat.pitch must be in [-12,12] semitones, got %v", pitch)
		}
	}

	return &RepeatBlock{Count: count, Interval: interval, Delay: delay, Decay: decay, PitchShift: pitch}, nil
}
