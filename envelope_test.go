package spa

import (
	"math"
	"testing"
)

// TestApplyEnvelope_E4 matches format notes scenario E4: envelope="0,0,1,0.05",
// dur=0.1s, sr=48000 -> full amplitude through sample 2400, linear decay to
// ~0 by sample 4799.
func TestApplyEnvelope_E4(t *testing.T) {
	n := 4800
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = 1
	}
	env := ADSR{Attack: 0, Decay: 0, Sustain: 1, Release: 0.05}
	applyEnvelope(buf, env, 48000)

	if buf[0] != 1 {
		t.Errorf("buf[0] = %v, want 1 (sustain held before release)", buf[0])
	}
	if buf[2400] != 1 {
		t.Errorf("buf[2400] = %v, want 1", buf[2400])
	}
	if buf[n-1] > 0.05 {
		t.Errorf("buf[last] = %v, want near 0", buf[n-1])
	}
	for i := 2401; i < n; i++ {
		if buf[i] > buf[i-1]+1e-6 {
			t.Fatalf("release ramp not monotonically non-increasing at %d: %v -> %v", i, buf[i-1], buf[i])
		}
	}
}

// TestApplyEnvelope_Property3: for A+D+R < d, gain is 1.0 at Na, S at
// Na+Nd, ~0 at N-1.
func TestApplyEnvelope_Property3(t *testing.T) {
	sr := 48000
	env := ADSR{Attack: 0.01, Decay: 0.01, Sustain: 0.5, Release: 0.01}
	n := secondsToSamples(0.2, sr)
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = 1
	}
	applyEnvelope(buf, env, sr)

	na := secondsToSamples(env.Attack, sr)
	nd := secondsToSamples(env.Decay, sr)

	if math.Abs(float64(buf[na])-1.0) > 0.01 {
		t.Errorf("gain at Na = %v, want ~1.0", buf[na])
	}
	if math.Abs(float64(buf[na+nd])-env.Sustain) > 0.01 {
		t.Errorf("gain at Na+Nd = %v, want ~%v", buf[na+nd], env.Sustain)
	}
	if buf[n-1] > 0.05 {
		t.Errorf("gain at N-1 = %v, want ~0", buf[n-1])
	}
}

// TestApplyEnvelope_Truncated covers A+D+R >= dur, with a buffer no longer
// than the attack phase alone: gain must never be negative.
func TestApplyEnvelope_Truncated(t *testing.T) {
	sr := 48000
	env := ADSR{Attack: 0.05, Decay: 0.05, Sustain: 0.5, Release: 0.05}
	n := secondsToSamples(0.05, sr) // shorter than A alone
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = 1
	}
	applyEnvelope(buf, env, sr)

	for i, v := range buf {
		if v < 0 {
			t.Fatalf("buf[%d] = %v, negative gain", i, v)
		}
	}
}

func TestSecondsToSamples(t *testing.T) {
	if n := secondsToSamples(0.1, 48000); n != 4800 {
		t.Errorf("secondsToSamples(0.1, 48000) = %d, want 4800", n)
	}
	if n := secondsToSamples(-1, 48000); n != 0 {
		t.Errorf("secondsToSamples(-1, 48000) = %d, want 0 (clamped)", n)
	}
}
