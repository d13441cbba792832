package fs

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"log/slog"

	_ "image/gif"
	_ "image/png"
)

// convertToJPEG re-encodes raster bytes as JPEG at the given quality,
// compositing any alpha channel onto a white background. Bytes that do
// not decode as a known raster format are stored unchanged.
func convertToJPEG(data []byte, quality int, logger *slog.Logger) []byte {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Warn("screenshot not re-encoded, storing raw bytes", "error", err)
		return data
	}

	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
		logger.Warn("screenshot encoding failed, storing raw bytes", "format", format, "error", err)
		return data
	}
	return buf.Bytes()
}
