// Package metadata reconciles EXIF tags, decoded image dimensions and user
// overrides into per camera intrinsic estimates.
package metadata

import (
	"github.com/sfmstack/camerainit/camera"
)

// Estimate is the reconciled inference result for one camera: identity,
// dimensions, focal information, the chosen camera model and the raw tag
// mapping carried through to output views. An Estimate is immutable once
// returned by Infer.
type Estimate struct {
	Path   string
	Width  int
	Height int

	Brand  string
	Model  string
	Serial string

	// MetaWidth and MetaHeight are the dimensions stated by the metadata,
	// falling back to the decoded dimensions when absent or transposed.
	MetaWidth  int
	MetaHeight int

	// FocalPx is the pixel focal length, camera.UnknownFocal when it could
	// not be resolved. FocalMM and SensorMM keep the same -1 sentinel.
	FocalPx  float64
	FocalMM  float64
	SensorMM float64
	Ppx      float64
	Ppy      float64

	Kind camera.ModelKind

	// HasValidMetadata is true when EXIF data was present and carried both a
	// brand and a model.
	HasValidMetadata bool
	Resized          bool

	// UnknownSensor marks a camera whose brand and model were valid but
	// missing from the sensor database, leaving the focal length unresolved.
	UnknownSensor bool

	Tags map[string]string
}

// Intrinsic builds the camera intrinsic described by the estimate, seeding
// factory distortion coefficients for known brands. The serial number is
// recorded only when metadata was valid; otherwise disambiguation is left to
// the listing pass.
func (e Estimate) Intrinsic() camera.Intrinsic {
	intrinsic := camera.Intrinsic{
		Width:          e.Width,
		Height:         e.Height,
		FocalPx:        e.FocalPx,
		InitialFocalPx: e.FocalPx,
		Ppx:            e.Ppx,
		Ppy:            e.Ppy,
		Kind:           e.Kind,
		Distortion:     camera.FactoryDistortion(e.Kind, e.Brand),
	}
	if e.HasValidMetadata {
		intrinsic.Serial = e.Serial
	}
	return intrinsic
}
