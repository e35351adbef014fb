package metadata

import (
	"math"
	"path/filepath"
	"strconv"

	"github.com/sfmstack/camerainit/camera"
	"github.com/sfmstack/camerainit/exifio"
	"github.com/sfmstack/camerainit/logging"
	"github.com/sfmstack/camerainit/sensordb"
)

// customBrand is the stand-in identity for images without brand or model
// metadata.
const customBrand = "Custom"

// customFocalMM is the focal length in mm credited to unknown cameras.
const customFocalMM = 1.2

// shortFocalMM is the threshold below which a wide angle lens is assumed to
// need a fisheye model.
const shortFocalMM = 15.0

const unknownSensorMM = -1.0

// An Override adjusts one aspect of an inference before the estimate is
// computed. Overrides are applied in the order given; each is independent
// and optional.
type Override func(*builder) error

// WithModelKind forces the camera model instead of inferring one.
func WithModelKind(kind camera.ModelKind) Override {
	return func(b *builder) error {
		b.forcedKind = kind
		return nil
	}
}

// WithKMatrix fixes the focal length and principal point from a K matrix
// string of the form "f;0;ppx;0;f;ppy;0;0;1". A malformed matrix fails the
// inference outright.
func WithKMatrix(matrix string) Override {
	return func(b *builder) error {
		focal, ppx, ppy, err := camera.ParseKMatrix(matrix)
		if err != nil {
			return err
		}
		b.est.FocalPx = focal
		b.est.Ppx = ppx
		b.est.Ppy = ppy
		return nil
	}
}

// WithFocalPx fixes the pixel focal length directly.
func WithFocalPx(focal float64) Override {
	return func(b *builder) error {
		b.est.FocalPx = focal
		return nil
	}
}

// WithSensorWidthMM fixes the physical sensor width, skipping the sensor
// database lookup. The width is recorded in the tag mapping.
func WithSensorWidthMM(width float64) Override {
	return func(b *builder) error {
		b.setSensorWidth(width)
		b.explicitSensor = true
		return nil
	}
}

// Infer reconciles the EXIF tags and decoded dimensions of one image with
// the given overrides into an Estimate. The sensor database is consulted
// only when no explicit sensor width override is given. Inference is pure
// given its inputs: the same tags, dimensions and overrides always yield the
// same Estimate.
func Infer(
	path string,
	width, height int,
	tags exifio.Tags,
	db *sensordb.Database,
	logger logging.Logger,
	overrides ...Override,
) (Estimate, error) {
	b := newBuilder(path, width, height, tags, logger)
	for _, override := range overrides {
		if err := override(b); err != nil {
			return Estimate{}, err
		}
	}
	b.resolveSensorWidth(db)
	b.resolveFocal()
	b.resolveModelKind()
	b.checkComplete()
	return b.est, nil
}

type builder struct {
	est            Estimate
	logger         logging.Logger
	forcedKind     camera.ModelKind
	explicitSensor bool
}

func newBuilder(path string, width, height int, tags exifio.Tags, logger logging.Logger) *builder {
	est := Estimate{
		Path:     path,
		Width:    width,
		Height:   height,
		Brand:    tags.Brand,
		Model:    tags.Model,
		Serial:   tags.Serial + tags.LensSerial,
		FocalPx:  camera.UnknownFocal,
		FocalMM:  tags.FocalMM,
		SensorMM: unknownSensorMM,
		Ppx:      float64(width) / 2.0,
		Ppy:      float64(height) / 2.0,
		Tags:     map[string]string{},

		HasValidMetadata: tags.HasExif && tags.Brand != "" && tags.Model != "",
	}

	if !tags.HasExif {
		logger.Warnf("no EXIF metadata in image %q", filepath.Base(path))
	} else if tags.Brand == "" || tags.Model == "" {
		logger.Warnf("no brand or model in EXIF metadata of image %q", filepath.Base(path))
	}

	if est.Brand == "" || est.Model == "" {
		est.Brand = customBrand
		est.Model = camera.DefaultModelKind.String()
		est.FocalMM = customFocalMM
	}

	if est.HasValidMetadata {
		for k, v := range tags.All {
			est.Tags[k] = v
		}
	}

	est.MetaWidth, est.MetaHeight = width, height
	if est.HasValidMetadata {
		if tags.StatedWidth > 0 {
			est.MetaWidth = tags.StatedWidth
		}
		if tags.StatedHeight > 0 {
			est.MetaHeight = tags.StatedHeight
		}
		// transposed dimensions mean rotation, not resizing
		if est.MetaWidth == height && est.MetaHeight == width {
			est.MetaWidth, est.MetaHeight = width, height
		}
	}
	est.Resized = est.MetaWidth != width || est.MetaHeight != height
	if est.Resized {
		logger.Warnf("resized image detected for %q: real size %dx%d, size from metadata %dx%d",
			filepath.Base(path), width, height, est.MetaWidth, est.MetaHeight)
	}

	return &builder{est: est, logger: logger}
}

func (b *builder) setSensorWidth(width float64) {
	b.est.SensorMM = width
	if _, ok := b.est.Tags["sensor_width"]; !ok {
		b.est.Tags["sensor_width"] = strconv.FormatFloat(width, 'f', 6, 64)
	}
}

// resolveSensorWidth fills the sensor width from the database unless an
// override already fixed it. A miss alone is not fatal: it is recorded only
// when the metadata was valid and no usable focal length exists, in which
// case the run report escalates it.
func (b *builder) resolveSensorWidth(db *sensordb.Database) {
	if b.explicitSensor {
		return
	}
	if !b.est.HasValidMetadata {
		b.logger.Warnf("no metadata in image %q, using default sensor width", filepath.Base(b.est.Path))
	}
	if entry, ok := db.Lookup(b.est.Brand, b.est.Model); ok {
		b.setSensorWidth(entry.WidthMM)
		return
	}
	if b.est.HasValidMetadata && b.est.FocalPx == camera.UnknownFocal {
		b.est.UnknownSensor = true
	}
}

// resolveFocal converts the metadata focal length from mm to pixels once the
// sensor width is known. An unresolvable focal stays at the unknown
// sentinel.
func (b *builder) resolveFocal() {
	if b.est.FocalPx != camera.UnknownFocal {
		return
	}
	if b.est.FocalMM <= 0 {
		b.logger.Warnf("image %q has no focal length (mm) metadata, cannot compute focal length (px)",
			filepath.Base(b.est.Path))
		return
	}
	if b.est.SensorMM == unknownSensorMM {
		return
	}
	larger := math.Max(float64(b.est.MetaWidth), float64(b.est.MetaHeight))
	b.est.FocalPx = larger * b.est.FocalMM / b.est.SensorMM
}

// resolveModelKind picks the camera model unless an override forced one.
func (b *builder) resolveModelKind() {
	if b.forcedKind != "" {
		b.est.Kind = b.forcedKind
		return
	}
	b.est.Kind = camera.DefaultModelKind
	switch {
	case b.est.Brand == customBrand:
		kind, err := camera.ParseModelKind(b.est.Model)
		if err != nil {
			b.logger.Warnf("cannot parse camera model %q, keeping %q", b.est.Model, b.est.Kind)
			return
		}
		b.est.Kind = kind
	case b.est.Resized:
		// a resized image is assumed to have been undistorted already
		b.est.Kind = camera.Pinhole
	case b.est.FocalMM > 0 && b.est.FocalMM < shortFocalMM:
		// a short focal fits the fisheye model better
		b.est.Kind = camera.Fisheye4
	}
}

func (b *builder) checkComplete() {
	if b.est.FocalPx > 0 && b.est.Ppx > 0 && b.est.Ppy > 0 {
		return
	}
	b.logger.Warnf("no intrinsics for %q: width %d, height %d, brand %s, model %s, "+
		"sensor width (mm) %s, focal (mm) %s, focal (px) %s, ppx %s, ppy %s",
		filepath.Base(b.est.Path), b.est.Width, b.est.Height, b.est.Brand, b.est.Model,
		orUnknown(b.est.SensorMM), orUnknown(b.est.FocalMM), orUnknown(b.est.FocalPx),
		orUnknown(b.est.Ppx), orUnknown(b.est.Ppy))
}

func orUnknown(v float64) string {
	if v <= 0 {
		return "unknown"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
