// Package imageio reads just enough of an image file to identify it: its
// format and its pixel dimensions. Pixel data is never decoded.
package imageio

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	// registered decoders, header reading only
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// FormatUnknown is returned for files no registered decoder recognizes.
const FormatUnknown = ""

// supportedExtensions are the file extensions accepted for dataset resources,
// matching the formats ReadHeader can parse.
var supportedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"bmp":  true,
	"tif":  true,
	"tiff": true,
	"webp": true,
}

// HasSupportedExtension reports whether path carries a supported image
// extension, compared case-insensitively.
func HasSupportedExtension(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return supportedExtensions[ext]
}

// Format sniffs the image format of the file at path ("jpeg", "png", ...).
// It returns FormatUnknown when the file cannot be opened or no registered
// decoder recognizes its content.
func Format(path string) string {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown
	}
	defer utils.UncheckedErrorFunc(f.Close)
	_, format, err := image.DecodeConfig(f)
	if err != nil {
		return FormatUnknown
	}
	return format
}

// ReadHeader returns the pixel dimensions of the image at path without
// decoding pixel data.
func ReadHeader(path string) (width, height int, err error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "cannot open image %q", path)
	}
	defer utils.UncheckedErrorFunc(f.Close)
	config, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "cannot read image header of %q", path)
	}
	return config.Width, config.Height, nil
}
