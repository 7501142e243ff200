// validator.go - non-fatal structural validation pass
//
// Validate never panics and never returns an error value: every problem it
// finds becomes a Diagnostic, sorted into Errors (the document could not
// meaningfully render) or Warnings (the document renders but the result is
// probably not what the author intended, e.g. an empty group).

package spa

import "strconv"

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	Valid    bool
	Errors   []Diagnostic
	Warnings []Diagnostic
}

func (r *ValidationResult) addError(d Diagnostic) {
	r.Errors = append(r.Errors, d)
	r.Valid = false
}

func (r *ValidationResult) addWarning(d Diagnostic) {
	r.Warnings = append(r.Warnings, d)
}

// Validate runs the structural checks from the format notes against raw xml
// text, independent of Parse - it tolerates malformed documents that Parse
// would reject outright, reporting them as diagnostics instead.
func Validate(xmlText string) ValidationResult {
	result := ValidationResult{Valid: true}

	root, err := buildXMLTree([]byte(xmlText), true)
	if err != nil {
		result.addError(Diagnostic{Code: ErrParseError, Message: err.Error()})
		return result
	}

	if root.Name != "spa" {
		result.addError(Diagnostic{Code: ErrInvalidRoot, Message: "root element must be <spa>", Element: root.Name})
		return result
	}
	if v, ok := root.Attrs["version"]; !ok || v == "" {
		result.addError(Diagnostic{Code: ErrMissingVersion, Message: "root element is missing required version attribute", Element: "spa"})
	}

	definedIDs := map[string]bool{}
	for _, child := range root.Children {
		if child.Name == "defs" {
			validateDefs(child, &result, definedIDs)
		}
	}

	sawSoundNode := false
	for _, child := range root.Children {
		switch child.Name {
		case "defs":
			continue
		case "tone", "noise", "group", "sequence":
			sawSoundNode = true
			validateElement(child, &result, definedIDs)
		default:
			result.addWarning(Diagnostic{Code: ErrUnknownElement, Message: "unrecognized top-level element", Element: child.Name})
		}
	}
	if !sawSoundNode {
		result.addWarning(Diagnostic{Code: ErrEmptyGroup, Message: "document has no sound nodes", Element: "spa"})
	}

	return result
}

func validateDefs(defsEl *xmlElem, result *ValidationResult, ids map[string]bool) {
	for _, e := range defsEl.Children {
		if e.Name != "envelope" {
			result.addWarning(Diagnostic{Code: ErrUnknownElement, Message: "unrecognized element inside <defs>", Element: e.Name})
			continue
		}
		id, ok := e.Attrs["id"]
		if !ok || id == "" {
			result.addError(Diagnostic{Code: ErrMissingID, Message: "envelope definition is missing required id attribute", Element: "envelope"})
			continue
		}
		ids[id] = true
	}
}

func validateElement(el *xmlElem, result *ValidationResult, definedIDs map[string]bool) {
	switch el.Name {
	case "tone":
		validateTone(el, result, definedIDs)
	case "noise":
		validateNoise(el, result, definedIDs)
	case "group":
		validateGroup(el, result, definedIDs)
	case "sequence":
		validateSequence(el, result, definedIDs)
	default:
		result.addWarning(Diagnostic{Code: ErrUnknownElement, Message: "unrecognized element", Element: el.Name})
	}
}

func validateTone(el *xmlElem, result *ValidationResult, definedIDs map[string]bool) {
	if v, ok := el.Attrs["wave"]; !ok {
		result.addError(Diagnostic{Code: ErrMissingAttribute, Message: "tone is missing required wave attribute", Element: "tone", Attribute: "wave"})
	} else if _, ok := normalizeWaveform(v); !ok {
		result.addError(Diagnostic{Code: ErrInvalidValue, Message: "unrecognized waveform " + v, Element: "tone", Attribute: "wave"})
	}

	_, hasFreq := el.Attrs["freq"]
	_, hasFreqStart := el.Attrs["freq.start"]
	if !hasFreq && !hasFreqStart {
		result.addError(Diagnostic{Code: ErrMissingAttribute, Message: "tone is missing required freq attribute", Element: "tone", Attribute: "freq"})
	}

	validateDur(el, "tone", result)
	validateEnvelopeRef(el, "tone", result, definedIDs)
	validateAmp(el, "tone", result)
	validatePan(el, "tone", result)
	validatePhase(el, "tone", result)
	validateFilter(el, "tone", result)
	validateRepeat(el, "tone", result, true)
	validateAt(el, "tone", result)
}

func validateNoise(el *xmlElem, result *ValidationResult, definedIDs map[string]bool) {
	if v, ok := el.Attrs["color"]; !ok {
		result.addError(Diagnostic{Code: ErrMissingAttribute, Message: "noise is missing required color attribute", Element: "noise", Attribute: "color"})
	} else if _, ok := normalizeNoiseColor(v); !ok {
		result.addError(Diagnostic{Code: ErrInvalidValue, Message: "unrecognized noise colour " + v, Element: "noise", Attribute: "color"})
	}

	validateDur(el, "noise", result)
	validateEnvelopeRef(el, "noise", result, definedIDs)
	validateAmp(el, "noise", result)
	validatePan(el, "noise", result)
	validateFilter(el, "noise", result)
	validateRepeat(el, "noise", result, false)
	validateAt(el, "noise", result)
}

// addIfErr records err (when non-nil) as an Errors-level diagnostic. The
// parser's attribute helpers (parser.go) return *Error with a Code already
// set, so the validator reuses them directly rather than re-deriving the
// same range rules a second time.
func addIfErr(result *ValidationResult, err error) {
	if err == nil {
		return
	}
	if e, ok := err.(*Error); ok {
		result.addError(Diagnostic{Code: e.Code, Message: e.Message, Element: e.Element, Attribute: e.Attribute})
		return
	}
	result.addError(Diagnostic{Code: ErrInvalidValue, Message: err.Error()})
}

func validateAmp(el *xmlElem, element string, result *ValidationResult) {
	amp, has, err := parseParameter(el.Attrs, "amp")
	if err != nil {
		addIfErr(result, err)
		return
	}
	if has {
		addIfErr(result, checkAmpRange(amp, element))
	}
}

func validatePan(el *xmlElem, element string, result *ValidationResult) {
	_, _, err := parseOptionalSignedUnit(el.Attrs, "pan", element)
	addIfErr(result, err)
}

func validatePhase(el *xmlElem, element string, result *ValidationResult) {
	_, _, err := parsePhaseAttr(el.Attrs, element)
	addIfErr(result, err)
}

func validateFilter(el *xmlElem, element string, result *ValidationResult) {
	_, err := parseFilterAttr(el.Attrs, element)
	addIfErr(result, err)
}

func validateRepeat(el *xmlElem, element string, result *ValidationResult, pitchAllowed bool) {
	_, err := parseRepeatAttr(el.Attrs, element, pitchAllowed)
	addIfErr(result, err)
}

func validateAt(el *xmlElem, element string, result *ValidationResult) {
	_, err := parseOptionalNonNegFloat(el.Attrs, "at", element)
	addIfErr(result, err)
}

func validateDur(el *xmlElem, element string, result *ValidationResult) {
	v, ok := el.Attrs["dur"]
	if !ok {
		result.addError(Diagnostic{Code: ErrMissingAttribute, Message: element + " is missing required dur attribute", Element: element, Attribute: "dur"})
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		result.addError(Diagnostic{Code: ErrInvalidValue, Message: "dur must be a positive number", Element: element, Attribute: "dur"})
	}
}

func validateEnvelopeRef(el *xmlElem, element string, result *ValidationResult, definedIDs map[string]bool) {
	v, ok := el.Attrs["envelope"]
	if !ok || len(v) == 0 || v[0] != '#' {
		return
	}
	id := v[1:]
	if !definedIDs[id] {
		result.addError(Diagnostic{Code: ErrReferenceUnresolved, Message: "envelope reference #" + id + " does not resolve against <defs>", Element: element, Attribute: "envelope"})
	}
}

func validateGroup(el *xmlElem, result *ValidationResult, definedIDs map[string]bool) {
	if len(el.Children) == 0 {
		result.addWarning(Diagnostic{Code: ErrEmptyGroup, Message: "group has no children", Element: "group"})
	}
	for _, c := range el.Children {
		validateElement(c, result, definedIDs)
	}

	if _, _, err := parseOptionalUnit(el.Attrs, "amp", "group"); err != nil {
		addIfErr(result, err)
	}
	validatePan(el, "group", result)
	validateRepeat(el, "group", result, false)
	validateAt(el, "group", result)
}

func validateSequence(el *xmlElem, result *ValidationResult, definedIDs map[string]bool) {
	if len(el.Children) == 0 {
		result.addWarning(Diagnostic{Code: ErrEmptyGroup, Message: "sequence has no children", Element: "sequence"})
	}
	for _, c := range el.Children {
		validateElement(c, result, definedIDs)
	}

	if tempoStr, ok := el.Attrs["tempo"]; ok {
		tempo, err := strconv.ParseFloat(tempoStr, 64)
		if err != nil {
			result.addError(Diagnostic{Code: ErrInvalidValue, Message: "malformed tempo " + tempoStr, Element: "sequence", Attribute: "tempo"})
		} else if tempo <= 0 {
			result.addError(Diagnostic{Code: ErrInvalidValue, Message: "tempo must be > 0 bpm", Element: "sequence", Attribute: "tempo"})
		}
	}
	validateAt(el, "sequence", result)
}
