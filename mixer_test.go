package spa

import (
	"math"
	"testing"
)

func TestRenderDocument_E1(t *testing.T) {
	doc, err := ParseDefault(`<spa version="1.0"><tone wave="sine" freq="440" dur="0.1"/></spa>`)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	opts := DefaultRenderOptions()
	buf, err := renderDocument(doc, opts)
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if buf.Frames() != 4800 {
		t.Errorf("Frames() = %d, want 4800", buf.Frames())
	}
	if buf.Channels != 2 {
		t.Errorf("Channels = %d, want 2", buf.Channels)
	}
	for _, v := range buf.Samples {
		if v > 1.0001 || v < -1.0001 {
			t.Fatalf("sample %v out of [-1,1]", v)
		}
	}
}

// TestRenderDocument_Property1: buffer length equals the max over top-level
// nodes of their effective duration in samples.
func TestRenderDocument_Property1(t *testing.T) {
	doc, err := ParseDefault(`<spa version="1.0">
		<tone wave="sine" freq="440" dur="0.05"/>
		<tone wave="sine" freq="220" dur="0.2"/>
	</spa>`)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	buf, err := renderDocument(doc, DefaultRenderOptions())
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	want := secondsToSamples(0.2, 48000)
	if buf.Frames() != want {
		t.Errorf("Frames() = %d, want %d", buf.Frames(), want)
	}
}

// TestNormalize_Property4: normalization is idempotent.
func TestNormalize_Property4(t *testing.T) {
	raw := make([]float32, 100)
	for i := range raw {
		raw[i] = float32(2 * math.Sin(2*math.Pi*float64(i)/20))
	}
	norm1 := normalizePeak(raw)
	norm2 := normalizePeak(norm1)
	for i := range norm1 {
		if math.Abs(float64(norm1[i]-norm2[i])) > 1e-6 {
			t.Fatalf("normalize not idempotent at %d: %v vs %v", i, norm1[i], norm2[i])
		}
	}
}

// TestNormalize_Property5: peak of the normalized buffer <= 1.0.
func TestNormalize_Property5(t *testing.T) {
	raw := []float32{-3, 1, 2, -0.5}
	norm := normalizePeak(raw)
	peak := float32(0)
	for _, v := range norm {
		if absF32(v) > peak {
			peak = absF32(v)
		}
	}
	if peak > 1.0001 {
		t.Errorf("peak = %v, want <= 1.0", peak)
	}
}

func TestExpandChannels_Stereo(t *testing.T) {
	l := []float32{1, 2}
	r := []float32{3, 4}
	out := expandChannels(l, r, 2)
	want := []float32{1, 3, 2, 4}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestExpandChannels_Mono(t *testing.T) {
	l := []float32{1, 3}
	r := []float32{3, 5}
	out := expandChannels(l, r, 1)
	want := []float32{2, 4}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestBuffer_Channel(t *testing.T) {
	b := Buffer{SampleRate: 48000, Channels: 2, Samples: []float32{1, 2, 3, 4}}
	left := b.Channel(0)
	right := b.Channel(1)
	if left[0] != 1 || left[1] != 3 {
		t.Errorf("left = %v, want [1 3]", left)
	}
	if right[0] != 2 || right[1] != 4 {
		t.Errorf("right = %v, want [2 4]", right)
	}
}
