package plugins

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/msahib/blog/content"
	"github.com/msahib/blog/manifest"
)

// transformerSharp only marks that image nodes may be queried. The work is
// done by the sharp processor it requires.
type transformerSharp struct {
	named
}

func newTransformerSharp(*manifest.Manifest, manifest.Options) (Plugin, error) {
	return &transformerSharp{named: TransformerSharp}, nil
}

type sharpOptions struct {
	quality int
}

func parseSharpOptions(o manifest.Options) (sharpOptions, error) {
	q, err := o.Int("quality", 80)
	if err != nil {
		return sharpOptions{}, err
	}
	if q < 1 || q > 100 {
		return sharpOptions{}, fmt.Errorf("%w: quality must be between 1 and 100", manifest.ErrInvalidOptions)
	}
	return sharpOptions{quality: q}, nil
}

// pluginSharp resizes image assets and emits them as JPEG.
type pluginSharp struct {
	named
	opts sharpOptions
}

func newPluginSharp(_ *manifest.Manifest, o manifest.Options) (Plugin, error) {
	so, err := parseSharpOptions(o)
	if err != nil {
		return nil, err
	}
	return &pluginSharp{named: PluginSharp, opts: so}, nil
}

func (p *pluginSharp) Finalize(ctx context.Context, site *Site) error {
	for _, a := range site.Assets(content.AssetImage) {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := os.Open(a.Source)
		if err != nil {
			return fmt.Errorf("open image: %w", err)
		}
		data, w, h, err := ResizeJPEG(f, a.MaxWidth, p.opts.quality)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", a.Source, err)
		}
		site.Emit(a.Target, data)
		site.Logger.Debug("image processed", zap.String("target", a.Target), zap.Int("width", w), zap.Int("height", h))
	}
	return nil
}

// ResizeJPEG decodes an image from src, scales it down to maxWidth when it
// is wider (0 keeps the size), and encodes it as JPEG.
func ResizeJPEG(src io.Reader, maxWidth, quality int) ([]byte, int, int, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if maxWidth > 0 && w > maxWidth {
		newH := h * maxWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), w, h, nil
}
