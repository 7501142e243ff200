//go:build !headless

// Package hostaudio wraps github.com/ebitengine/oto/v3 directly, in the
// same shape as a ring-buffer-backed chip player, generalized to play a
// single finite rendered buffer to completion rather than a continuous
// stream.
package hostaudio

import (
	"sync"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// Player streams one pre-rendered interleaved float32 buffer through oto
// until exhausted, then reports silence.
type Player struct {
	ctx     *oto.Context
	player  *oto.Player
	samples []float32
	pos     int
	started bool
	mutex   sync.Mutex
}

// NewPlayer opens an oto context for the given sample rate and channel
// count and readies samples (interleaved) for playback.
func NewPlayer(sampleRate, channels int, samples []float32) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	p := &Player{ctx: ctx, samples: samples}
	p.player = ctx.NewPlayer(p)
	return p, nil
}

// Read implements io.Reader, the pull interface oto's player drives.
func (p *Player) Read(b []byte) (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	numSamples := len(b) / 4
	remaining := len(p.samples) - p.pos
	if remaining <= 0 {
		for i := range b {
			b[i] = 0
		}
		return len(b), nil
	}
	if numSamples > remaining {
		numSamples = remaining
	}
	if numSamples == 0 {
		for i := range b {
			b[i] = 0
		}
		return len(b), nil
	}

	chunk := p.samples[p.pos : p.pos+numSamples]
	p.pos += numSamples
	copy(b, (*[1 << 30]byte)(unsafe.Pointer(&chunk[0]))[:numSamples*4])
	for i := numSamples * 4; i < len(b); i++ {
		b[i] = 0
	}
	return len(b), nil
}

// Start begins playback; it is idempotent.
func (p *Player) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.started {
		p.player.Play()
		p.started = true
	}
}

// Done reports whether every sample has been handed to the device.
func (p *Player) Done() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.pos >= len(p.samples)
}

// Close stops and releases the underlying oto player.
func (p *Player) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.player != nil {
		p.player.Close()
		p.player = nil
	}
}
