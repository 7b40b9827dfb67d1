// Package rasterio reads and writes heightmaps and textures as image files
// (16-bit PNG, 8-bit PNG, TIFF, BMP) and as a lossless CBOR raster.
//
// Image formats store the field normalized to its own value range; the
// CBOR format stores the float32 values as they are. Rows are written
// top-down with the last heightmap row first, so north is up.
package rasterio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
)

// Format is a raster file format.
type Format int

const (
	PNG16 Format = iota
	PNG8
	TIFF
	BMP
	Raw
)

// Formats maps format labels to formats, for choice attributes.
var Formats = map[string]int{
	"png16": int(PNG16),
	"png8":  int(PNG8),
	"tiff":  int(TIFF),
	"bmp":   int(BMP),
	"raw":   int(Raw),
}

func (f Format) String() string {
	for k, v := range Formats {
		if v == int(f) {
			return k
		}
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the file extension of f, with the dot.
func (f Format) Ext() string {
	switch f {
	case TIFF:
		return ".tiff"
	case BMP:
		return ".bmp"
	case Raw:
		return ".cbor"
	default:
		return ".png"
	}
}

// ErrUnsupported is returned for formats that cannot carry the data.
var ErrUnsupported = errors.New("unsupported raster format")

// FormatFromPath picks a format from a file extension. ".png" maps to
// PNG16.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG16, nil
	case ".tif", ".tiff":
		return TIFF, nil
	case ".bmp":
		return BMP, nil
	case ".cbor", ".raw":
		return Raw, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(path))
}

// rawRaster is the CBOR document of the Raw format.
type rawRaster struct {
	Width  int       `cbor:"width"`
	Height int       `cbor:"height"`
	Data   []float32 `cbor:"data"`
}

// ---------------------------------------------------------------------------
// Heightmaps
// ---------------------------------------------------------------------------

// Encode writes a in format f.
func Encode(w io.Writer, a *hmap.Array, f Format) error {
	if f == Raw {
		return cbor.NewEncoder(w).Encode(rawRaster{Width: a.Shape.X, Height: a.Shape.Y, Data: a.Vector})
	}
	img := grayImage(a, f == PNG16 || f == TIFF)
	switch f {
	case PNG16, PNG8:
		return png.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case BMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("encode: %w: %v", ErrUnsupported, f)
}

// grayImage normalizes a into a 16-bit or 8-bit grayscale image.
func grayImage(a *hmap.Array, wide bool) image.Image {
	lo, hi := a.Min(), a.Max()
	scale := float32(0)
	if hi > lo {
		scale = 1 / (hi - lo)
	}
	rect := image.Rect(0, 0, a.Shape.X, a.Shape.Y)
	if wide {
		img := image.NewGray16(rect)
		for j := 0; j < a.Shape.Y; j++ {
			for i := 0; i < a.Shape.X; i++ {
				v := (a.At(i, j) - lo) * scale
				img.SetGray16(i, a.Shape.Y-1-j, color.Gray16{Y: uint16(v*65535 + 0.5)})
			}
		}
		return img
	}
	img := image.NewGray(rect)
	for j := 0; j < a.Shape.Y; j++ {
		for i := 0; i < a.Shape.X; i++ {
			v := (a.At(i, j) - lo) * scale
			img.SetGray(i, a.Shape.Y-1-j, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}
	return img
}

// Decode reads a heightmap in format f. Image formats decode to [0, 1].
func Decode(r io.Reader, f Format) (*hmap.Array, error) {
	if f == Raw {
		var raw rawRaster
		if err := cbor.NewDecoder(r).Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode raw raster: %w", err)
		}
		if raw.Width < 1 || raw.Height < 1 || len(raw.Data) != raw.Width*raw.Height {
			return nil, fmt.Errorf("decode raw raster: %dx%d with %d values", raw.Width, raw.Height, len(raw.Data))
		}
		a := hmap.NewArray(geom.V2(raw.Width, raw.Height))
		copy(a.Vector, raw.Data)
		return a, nil
	}

	var img image.Image
	var err error
	switch f {
	case PNG16, PNG8:
		img, err = png.Decode(r)
	case TIFF:
		img, err = tiff.Decode(r)
	case BMP:
		img, err = bmp.Decode(r)
	default:
		return nil, fmt.Errorf("decode: %w: %v", ErrUnsupported, f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %v: %w", f, err)
	}
	return fromImage(img), nil
}

func fromImage(img image.Image) *hmap.Array {
	b := img.Bounds()
	a := hmap.NewArray(geom.V2(b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			a.Set(x-b.Min.X, b.Max.Y-1-y, float32(g.Y)/65535)
		}
	}
	return a
}

// WriteFile encodes a into path, choosing the format from the extension.
func WriteFile(path string, a *hmap.Array) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error { return Encode(w, a, f) })
}

// ReadFile decodes the heightmap stored at path.
func ReadFile(path string) (*hmap.Array, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read raster: %w", err)
	}
	defer file.Close()
	return Decode(file, f)
}

func writeFile(path string, enc func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write raster: %w", err)
	}
	if err := enc(file); err != nil {
		file.Close()
		return fmt.Errorf("write raster %s: %w", path, err)
	}
	return file.Close()
}

// ---------------------------------------------------------------------------
// Textures
// ---------------------------------------------------------------------------

// EncodeRGBA writes four [0, 1] channels as an 8-bit color image. The Raw
// format cannot carry textures.
func EncodeRGBA(w io.Writer, ch [4]*hmap.Array, f Format) error {
	shape := ch[0].Shape
	img := image.NewNRGBA(image.Rect(0, 0, shape.X, shape.Y))
	for j := 0; j < shape.Y; j++ {
		for i := 0; i < shape.X; i++ {
			img.SetNRGBA(i, shape.Y-1-j, color.NRGBA{
				R: unit8(ch[0].At(i, j)),
				G: unit8(ch[1].At(i, j)),
				B: unit8(ch[2].At(i, j)),
				A: unit8(ch[3].At(i, j)),
			})
		}
	}
	switch f {
	case PNG16, PNG8:
		return png.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case BMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("encode texture: %w: %v", ErrUnsupported, f)
}

// WriteRGBAFile encodes a texture into path.
func WriteRGBAFile(path string, ch [4]*hmap.Array) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error { return EncodeRGBA(w, ch, f) })
}

func unit8(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}
