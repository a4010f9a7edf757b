package capture

import (
	"bytes"
	"image"
	"image/jpeg"

	_ "image/png"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const (
	maxEdge     = 1024
	jpegQuality = 85
)

// preprocess normalizes a receipt image for the vision backends: downscale so
// the longer edge is at most maxEdge and re-encode as JPEG. Preprocessing is
// best-effort; on any failure the original bytes pass through unmodified so a
// bad encode never sinks the whole extraction.
func preprocess(raw []byte) ([]byte, string) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		zap.L().Warn("image preprocessing failed, using original bytes", zap.Error(err))
		return raw, "image/jpeg"
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if longer := max(w, h); longer > maxEdge {
		scale := float64(maxEdge) / float64(longer)
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		zap.L().Warn("image re-encode failed, using original bytes", zap.Error(err))
		return raw, "image/jpeg"
	}
	return buf.Bytes(), "image/jpeg"
}
