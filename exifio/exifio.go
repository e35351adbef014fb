// Package exifio reads the camera metadata embedded in image files.
//
// Absent or unparseable Exif is not an error here: the image simply carries no
// metadata, and the caller decides what that means for the run.
package exifio

import (
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"go.viam.com/utils"
)

// Tags is the camera metadata read from one image file.
type Tags struct {
	// HasExif reports whether any Exif block was present and decodable.
	HasExif bool

	Brand      string
	Model      string
	Serial     string
	LensSerial string

	// FocalMM is the focal length in millimeters, -1 when absent.
	FocalMM float64

	// StatedWidth and StatedHeight are the image dimensions claimed by the
	// metadata, 0 when absent. They may disagree with the decoded dimensions.
	StatedWidth  int
	StatedHeight int

	DateTime   string
	SubSecTime string

	// All carries every readable tag, keyed by snake_cased field name. It is
	// attached verbatim to the views of the camera.
	All map[string]string
}

// Camera bodies and lenses expose serial numbers under different tag names
// depending on the Exif vintage.
var (
	bodySerialFields = []exif.FieldName{"BodySerialNumber", "SerialNumber", "CameraSerialNumber"}
	lensSerialFields = []exif.FieldName{"LensSerialNumber"}
)

// ReadTags reads the Exif metadata of the image at path. A missing or
// undecodable Exif block yields HasExif=false with zero tags, not an error.
func ReadTags(path string) (Tags, error) {
	tags := Tags{FocalMM: -1, All: map[string]string{}}

	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return tags, errors.Wrapf(err, "cannot open image %q", path)
	}
	defer utils.UncheckedErrorFunc(f.Close)

	x, err := exif.Decode(f)
	if err != nil {
		return tags, nil
	}
	tags.HasExif = true

	tags.Brand = stringField(x, exif.Make)
	tags.Model = stringField(x, exif.Model)
	tags.Serial = firstStringField(x, bodySerialFields)
	tags.LensSerial = firstStringField(x, lensSerialFields)
	tags.FocalMM = ratField(x, exif.FocalLength)

	if w := intField(x, exif.PixelXDimension); w > 0 {
		tags.StatedWidth = w
	} else {
		tags.StatedWidth = intField(x, exif.ImageWidth)
	}
	if h := intField(x, exif.PixelYDimension); h > 0 {
		tags.StatedHeight = h
	} else {
		tags.StatedHeight = intField(x, exif.ImageLength)
	}

	if dt := stringField(x, exif.DateTimeOriginal); dt != "" {
		tags.DateTime = dt
	} else {
		tags.DateTime = stringField(x, exif.DateTime)
	}
	if ss := stringField(x, exif.SubSecTimeOriginal); ss != "" {
		tags.SubSecTime = ss
	} else {
		tags.SubSecTime = stringField(x, exif.SubSecTime)
	}

	collector := &tagCollector{all: tags.All}
	utils.UncheckedError(x.Walk(collector))
	if tags.StatedWidth > 0 {
		tags.All["image_width"] = strconv.Itoa(tags.StatedWidth)
	}
	if tags.StatedHeight > 0 {
		tags.All["image_height"] = strconv.Itoa(tags.StatedHeight)
	}

	return tags, nil
}

type tagCollector struct {
	all map[string]string
}

func (c *tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if v := tagValue(tag); v != "" {
		c.all[snakeCase(string(name))] = v
	}
	return nil
}

func tagValue(tag *tiff.Tag) string {
	if s, err := tag.StringVal(); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.Trim(tag.String(), `"`)
}

func stringField(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func firstStringField(x *exif.Exif, names []exif.FieldName) string {
	for _, name := range names {
		if s := stringField(x, name); s != "" {
			return s
		}
	}
	return ""
}

func intField(x *exif.Exif, name exif.FieldName) int {
	tag, err := x.Get(name)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return v
}

func ratField(x *exif.Exif, name exif.FieldName) float64 {
	tag, err := x.Get(name)
	if err != nil {
		return -1
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return -1
	}
	return float64(num) / float64(den)
}

func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
