// Command spawav renders an XML sound-effects document to a WAV file.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/noiseflood/spa-sub000"
	"github.com/noiseflood/spa-sub000/internal/wavwriter"
)

func main() {
	in := flag.String("in", "", "input xml document path")
	out := flag.String("out", "", "output wav file path")
	rate := flag.Int("rate", 48000, "sample rate in Hz")
	channels := flag.Int("channels", 2, "output channel count")
	bits := flag.Int("bits", 16, "bits per sample (16 or 32)")
	volume := flag.Float64("volume", 1.0, "master volume")
	noNormalize := flag.Bool("no-normalize", false, "disable peak normalization")
	flag.Parse()

	if *in == "" || *out == "" {
		log.Fatal("spawav: -in and -out are required")
	}

	xmlBytes, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("spawav: reading %s: %v", *in, err)
	}

	opts := spa.DefaultRenderOptions()
	opts.SampleRate = *rate
	opts.Channels = *channels
	opts.MasterVolume = *volume
	opts.Normalize = !*noNormalize

	buf, err := spa.Render(string(xmlBytes), opts)
	if err != nil {
		log.Fatalf("spawav: render: %v", err)
	}

	src := wavwriter.Source{SampleRate: buf.SampleRate, Channels: buf.Channels, Samples: buf.Samples}
	if err := wavwriter.WriteFile(*out, src, *bits); err != nil {
		log.Fatalf("spawav: writing %s: %v", *out, err)
	}

	log.Printf("spawav: wrote %d frames to %s", buf.Frames(), *out)
}
