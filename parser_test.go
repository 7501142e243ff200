package spa

import "testing"

func TestParse_MinimalDocument(t *testing.T) {
	doc, err := ParseDefault(`<spa version="1.0"><tone wave="sine" freq="440" dur="0.5"/></spa>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Version != "1.0" {
		t.Errorf("Version = %q, want 1.0", doc.Version)
	}
	if len(doc.Nodes) != 1 {
		t.Fatalf("len(Nodes) = %d, want 1", len(doc.Nodes))
	}
	tone, ok := doc.Nodes[0].(*Tone)
	if !ok {
		t.Fatalf("Nodes[0] is %T, want *Tone", doc.Nodes[0])
	}
	if tone.Wave != WaveSine || tone.Freq.Scalar != 440 || tone.Dur != 0.5 {
		t.Errorf("tone = %+v, unexpected fields", tone)
	}
}

func TestParse_MissingRoot(t *testing.T) {
	_, err := ParseDefault(`<notspa version="1.0"/>`)
	if err == nil {
		t.Fatal("expected error for wrong root element")
	}
	if e, ok := err.(*Error); !ok || e.Code != ErrInvalidRoot {
		t.Errorf("err = %v, want INVALID_ROOT", err)
	}
}

func TestParse_MissingVersion(t *testing.T) {
	_, err := ParseDefault(`<spa><tone wave="sine" freq="440" dur="0.5"/></spa>`)
	if err == nil {
		t.Fatal("expected error for missing version")
	}
	if e, ok := err.(*Error); !ok || e.Code != ErrMissingVersion {
		t.Errorf("err = %v, want MISSING_VERSION", err)
	}
}

func TestParse_ToneMissingWave(t *testing.T) {
	_, err := ParseDefault(`<spa version="1.0"><tone freq="440" dur="0.5"/></spa>`)
	if err == nil {
		t.Fatal("expected error for missing wave")
	}
	if e, ok := err.(*Error); !ok || e.Code != ErrMissingAttribute {
		t.Errorf("err = %v, want MISSING_ATTRIBUTE", err)
	}
}

func TestParse_ToneInvalidWave(t *testing.T) {
	_, err := ParseDefault(`<spa version="1.0"><tone wave="bogus" freq="440" dur="0.5"/></spa>`)
	if err == nil {
		t.Fatal("expected error for invalid wave")
	}
	if e, ok := err.(*Error); !ok || e.Code != ErrInvalidValue {
		t.Errorf("err = %v, want INVALID_VALUE", err)
	}
}

func TestParse_AutomatedFrequency(t *testing.T) {
	doc, err := ParseDefault(`<spa version="1.0"><tone wave="sine" freq.start="220" freq.end="880" freq.curve="exp" dur="0.5"/></spa>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tone := doc.Nodes[0].(*Tone)
	if tone.Freq.Curve == nil {
		t.Fatal("expected automated freq, got scalar")
	}
	if tone.Freq.Curve.Start != 220 || tone.Freq.Curve.End != 880 || tone.Freq.Curve.Kind != CurveExp {
		t.Errorf("curve = %+v, unexpected fields", tone.Freq.Curve)
	}
}

func TestParse_InlineEnvelope(t *testing.T) {
	doc, err := ParseDefault(`<spa version="1.0"><tone wave="sine" freq="440" dur="0.5" envelope="0.01,0.02,0.5,0.03"/></spa>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tone := doc.Nodes[0].(*Tone)
	if tone.Envelope == nil {
		t.Fatal("expected envelope, got nil")
	}
	want := ADSR{Attack: 0.01, Decay: 0.02, Sustain: 0.5, Release: 0.03}
	if *tone.Envelope != want {
		t.Errorf("envelope = %+v, want %+v", *tone.Envelope, want)
	}
}

func TestParse_EnvelopeReference(t *testing.T) {
	xml := `<spa version="1.0">
		<defs><envelope id="pluck" attack="0.01" decay="0.05" sustain="0.3" release="0.1"/></defs>
		<tone wave="sine" freq="440" dur="0.5" envelope="#pluck"/>
	</spa>`
	doc, err := ParseDefault(xml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tone := doc.Nodes[0].(*Tone)
	if tone.Envelope == nil {
		t.Fatal("expected resolved envelope, got nil")
	}
	want := ADSR{Attack: 0.01, Decay: 0.05, Sustain: 0.3, Release: 0.1}
	if *tone.Envelope != want {
		t.Errorf("envelope = %+v, want %+v", *tone.Envelope, want)
	}
}

func TestParse_EnvelopeReferenceUnresolved(t *testing.T) {
	xml := `<spa version="1.0"><tone wave="sine" freq="440" dur="0.5" envelope="#missing"/></spa>`
	_, err := ParseDefault(xml)
	if err == nil {
		t.Fatal("expected error for unresolved reference")
	}
	if e, ok := err.(*Error); !ok || e.Code != ErrReferenceUnresolved {
		t.Errorf("err = %v, want REFERENCE_UNRESOLVED", err)
	}
}

func TestParse_EnvelopeReferenceNotResolvedWhenDisabled(t *testing.T) {
	xml := `<spa version="1.0"><tone wave="sine" freq="440" dur="0.5" envelope="#missing"/></spa>`
	opts := DefaultParseOptions()
	opts.ResolveReferences = false
	doc, err := Parse(xml, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tone := doc.Nodes[0].(*Tone)
	if tone.Envelope != nil {
		t.Errorf("envelope = %+v, want nil (unresolved, not fatal) when ResolveReferences is false", tone.Envelope)
	}
}

func TestParse_FilterRequiresCutoff(t *testing.T) {
	xml := `<spa version="1.0"><tone wave="sine" freq="440" dur="0.5" filter="lowpass"/></spa>`
	_, err := ParseDefault(xml)
	if err == nil {
		t.Fatal("expected error for filter without cutoff")
	}
	if e, ok := err.(*Error); !ok || e.Code != ErrMissingAttribute {
		t.Errorf("err = %v, want MISSING_ATTRIBUTE", err)
	}
}

func TestParse_FilterDefaultsResonance(t *testing.T) {
	xml := `<spa version="1.0"><tone wave="sine" freq="440" dur="0.5" filter="lowpass" cutoff="1000"/></spa>`
	doc, err := ParseDefault(xml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tone := doc.Nodes[0].(*Tone)
	if tone.Filter == nil {
		t.Fatal("expected filter, got nil")
	}
	if tone.Filter.Resonance.Scalar != 1.0 {
		t.Errorf("default resonance = %v, want 1.0", tone.Filter.Resonance.Scalar)
	}
}

func TestParse_RepeatInfiniteToken(t *testing.T) {
	xml := `<spa version="1.0"><tone wave="sine" freq="440" dur="0.1" repeat="infinite" repeat.interval="0.1"/></spa>`
	doc, err := ParseDefault(xml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tone := doc.Nodes[0].(*Tone)
	if tone.Repeat == nil || tone.Repeat.Count != RepeatCountInfinite {
		t.Errorf("Repeat = %+v, want Count = RepeatCountInfinite", tone.Repeat)
	}
}

func TestParse_GroupAndSequence(t *testing.T) {
	xml := `<spa version="1.0">
		<sequence tempo="120">
			<group at="0">
				<tone wave="sine" freq="440" dur="0.1"/>
				<noise color="white" dur="0.1"/>
			</group>
		</sequence>
	</spa>`
	doc, err := ParseDefault(xml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq, ok := doc.Nodes[0].(*Sequence)
	if !ok {
		t.Fatalf("Nodes[0] is %T, want *Sequence", doc.Nodes[0])
	}
	if !seq.HasTempo || seq.Tempo != 120 {
		t.Errorf("seq tempo = %+v, want 120", seq)
	}
	group, ok := seq.Children[0].(*Group)
	if !ok {
		t.Fatalf("seq child is %T, want *Group", seq.Children[0])
	}
	if len(group.Children) != 2 {
		t.Errorf("len(group.Children) = %d, want 2", len(group.Children))
	}
}

func TestParse_UnknownTopLevelElementIsNotFatal(t *testing.T) {
	xml := `<spa version="1.0"><unknown/><tone wave="sine" freq="440" dur="0.1"/></spa>`
	doc, err := ParseDefault(xml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Nodes) != 1 {
		t.Errorf("len(Nodes) = %d, want 1 (unknown element skipped)", len(doc.Nodes))
	}
}

func TestParse_MalformedXML(t *testing.T) {
	_, err := ParseDefault(`<spa version="1.0"><tone wave="sine"`)
	if err == nil {
		t.Fatal("expected parse error for malformed xml")
	}
	if e, ok := err.(*Error); !ok || e.Code != ErrParseError {
		t.Errorf("err = %v, want PARSE_ERROR", err)
	}
}

func TestParse_CommentsStrippedByDefault(t *testing.T) {
	xml := `<spa version="1.0"><!-- a comment --><tone wave="sine" freq="440" dur="0.1"/></spa>`
	doc, err := ParseDefault(xml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Nodes) != 1 {
		t.Errorf("len(Nodes) = %d, want 1", len(doc.Nodes))
	}
}
