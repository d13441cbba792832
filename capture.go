package pagecache

import (
	"bytes"
	"context"
	"image"
	"image/png"
)

// ErrorText is the fixed human-readable text stored in a sentinel capture.
const ErrorText = "⚠️ This URL could not be loaded (navigation error)."

// Capture is the result of one page capture operation.
type Capture struct {
	// Text is the readable plain-text form of the rendered page.
	Text string

	// Screenshot is the full-page raster image.
	Screenshot []byte

	// Title is the page title, best effort; may be empty.
	Title string

	// Failed marks a sentinel capture: all attempts were exhausted and
	// Text/Screenshot hold the fixed failure content instead of page data.
	Failed bool
}

// SentinelCapture returns the fixed failure result: a blank 1×1 transparent
// image and a fixed navigation-error text. Downstream consumers always get
// renderable content and never need to special-case "no content".
func SentinelCapture() *Capture {
	return &Capture{
		Text:       ErrorText,
		Screenshot: blankPNG(),
		Failed:     true,
	}
}

// blankPNG encodes a 1×1 fully transparent pixel.
func blankPNG() []byte {
	var buf bytes.Buffer
	// Encoding an in-memory 1×1 image cannot fail.
	_ = png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	return buf.Bytes()
}

// Capturer produces the rendered content of a single URL.
//
// Capture never returns an error: navigation and render failures are
// retried internally, and exhausted retries yield a sentinel result with
// Failed set. Callers decide whether a sentinel is persisted (the crawl
// orchestrator does not persist them, so a later run retries the URL).
type Capturer interface {
	Capture(ctx context.Context, url string) *Capture

	// Close releases browser resources.
	Close() error
}

// TextConverter converts rendered HTML to readable plain text.
// The conversion has no side effects and is deterministic for a given
// input.
type TextConverter interface {
	Convert(html string) (string, error)
}

// TitleExtractor pulls a human-readable title out of rendered HTML.
type TitleExtractor interface {
	Title(html string) (string, error)
}
