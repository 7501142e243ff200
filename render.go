// render.go - public entry point tying Parse and the render tree together

package spa

// Render accepts either xml text (string) or an already-parsed *Document and
// produces a fixed-rate PCM buffer. Passing a *Document skips parsing
// entirely, which is how a caller re-renders the same document under
// different RenderOptions without re-parsing.
func Render(input any, opts RenderOptions) (Buffer, error) {
	var doc *Document

	switch v := input.(type) {
	case *Document:
		doc = v
	case string:
		parsed, err := Parse(v, DefaultParseOptions())
		if err != nil {
			return Buffer{}, err
		}
		doc = parsed
	case []byte:
		parsed, err := Parse(string(v), DefaultParseOptions())
		if err != nil {
			return Buffer{}, err
		}
		doc = parsed
	default:
		return Buffer{}, newErr(ErrParseError, "", "", "render input must be xml text or a *Document, got %T", input)
	}

	return renderDocument(doc, opts)
}

// RenderXML is a convenience wrapper for the common case of rendering xml
// text with DefaultRenderOptions.
func RenderXML(xmlText string) (Buffer, error) {
	return Render(xmlText, DefaultRenderOptions())
}
