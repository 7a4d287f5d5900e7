package media

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/yungbote/affirmpost-backend/internal/pkg/ctxutil"
)

// ComposeImage draws the layout plan over a still background and writes a
// JPEG. Used for carousel frames, so the canvas is typically 1080x1350.
func (r *renderer) ComposeImage(ctx context.Context, req ImageRequest) (string, error) {
	_ = ctxutil.Default(ctx)

	if req.OutPath == "" {
		return "", fmt.Errorf("outPath required")
	}
	if req.Style.FontPath == "" {
		return "", fmt.Errorf("fontPath required for image composition")
	}

	f, err := os.Open(req.BackgroundPath)
	if err != nil {
		return "", fmt.Errorf("background asset not found at %s: %w", req.BackgroundPath, err)
	}
	src, _, err := image.Decode(f)
	_ = f.Close()
	if err != nil {
		return "", fmt.Errorf("failed to decode background %s: %w", req.BackgroundPath, err)
	}

	w := req.Plan.CanvasWidth
	h := req.Plan.CanvasHeight

	// Stretch to the exact canvas with high-quality resampling.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	size := req.Style.FontSize
	if size <= 0 {
		size = 65
	}
	face, err := loadFontFace(req.Style.FontPath, size)
	if err != nil {
		return "", err
	}

	dc := gg.NewContextForRGBA(dst)
	dc.SetFontFace(face)
	dc.SetColor(textColor(req.Style.Color))

	for _, row := range req.Plan.Rows {
		dc.DrawStringAnchored(row.Text, float64(w)/2, row.Y, 0.5, 0.5)
	}

	if err := os.MkdirAll(filepath.Dir(req.OutPath), 0o755); err != nil {
		return "", fmt.Errorf("mkdir outPath dir: %w", err)
	}
	out, err := os.Create(req.OutPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", req.OutPath, err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, dc.Image(), &jpeg.Options{Quality: 95}); err != nil {
		return "", fmt.Errorf("failed to encode JPEG: %w", err)
	}

	r.log.Info("Composed carousel frame", "path", req.OutPath, "rows", len(req.Plan.Rows))
	return req.OutPath, nil
}

func textColor(name string) color.Color {
	switch name {
	case "black":
		return color.Black
	default:
		return color.White
	}
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
