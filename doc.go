// doc.go - package overview

/*
Package spa renders a declarative, XML-based description of synthetic sound
effects into a pulse-code-modulated sample buffer.

A document enumerates oscillator tones, noise generators, groups and timed
sequences. Parse turns XML text into a typed, immutable document tree;
Validate runs structural and value-range checks without rendering; Render
walks the tree and produces a fixed-rate floating-point sample buffer.

The package is single-threaded and synchronous: Parse and Validate are pure
functions of their input, Render produces a buffer in one call and performs
no I/O. Oscillator phase, filter state and PRNG state never outlive a single
leaf render.
*/
package spa
