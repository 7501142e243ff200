// Command spaplay renders an XML sound-effects document and plays it
// through the host audio device using beep's speaker, falling back to a
// direct oto player when the speaker cannot be initialized.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/noiseflood/spa-sub000"
	"github.com/noiseflood/spa-sub000/internal/hostaudio"
)

func main() {
	in := flag.String("in", "", "input xml document path")
	rate := flag.Int("rate", 48000, "sample rate in Hz")
	volume := flag.Float64("volume", 1.0, "master volume")
	flag.Parse()

	if *in == "" {
		log.Fatal("spaplay: -in is required")
	}

	xmlBytes, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("spaplay: reading %s: %v", *in, err)
	}

	opts := spa.DefaultRenderOptions()
	opts.SampleRate = *rate
	opts.Channels = 2
	opts.MasterVolume = *volume

	buf, err := spa.Render(string(xmlBytes), opts)
	if err != nil {
		log.Fatalf("spaplay: render: %v", err)
	}

	sr := beep.SampleRate(buf.SampleRate)
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		log.Printf("spaplay: beep speaker init failed (%v), falling back to direct oto playback", err)
		playViaOto(buf)
		return
	}

	streamer := newBufferStreamer(buf)
	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))
	<-done
}

// bufferStreamer adapts a rendered spa.Buffer (interleaved, any channel
// count) to beep's pull-based, always-stereo Streamer interface.
type bufferStreamer struct {
	buf   spa.Buffer
	frame int
}

func newBufferStreamer(buf spa.Buffer) *bufferStreamer {
	return &bufferStreamer{buf: buf}
}

func (s *bufferStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	total := s.buf.Frames()
	for n = 0; n < len(samples); n++ {
		if s.frame >= total {
			return n, n > 0
		}
		base := s.frame * s.buf.Channels
		left := float64(s.buf.Samples[base])
		right := left
		if s.buf.Channels > 1 {
			right = float64(s.buf.Samples[base+1])
		}
		samples[n][0] = left
		samples[n][1] = right
		s.frame++
	}
	return n, true
}

func (s *bufferStreamer) Err() error { return nil }

func playViaOto(buf spa.Buffer) {
	player, err := hostaudio.NewPlayer(buf.SampleRate, buf.Channels, buf.Samples)
	if err != nil {
		log.Fatalf("spaplay: oto fallback: %v", err)
	}
	defer player.Close()

	player.Start()
	for !player.Done() {
		time.Sleep(20 * time.Millisecond)
	}
}
