// Package camera describes the intrinsic camera models attached to views
// during dataset initialization.
package camera

import "github.com/pkg/errors"

// ModelKind is the name of an intrinsic camera model.
type ModelKind string

const (
	// Pinhole is a plain pinhole camera without lens distortion.
	Pinhole = ModelKind("pinhole")
	// Radial1 is a pinhole camera with a one coefficient radial distortion.
	Radial1 = ModelKind("radial1")
	// Radial3 is a pinhole camera with a three coefficient radial distortion.
	Radial3 = ModelKind("radial3")
	// Brown is a pinhole camera with a Brown-Conrady distortion, three radial
	// and two tangential coefficients.
	Brown = ModelKind("brown")
	// Fisheye4 is a fisheye camera with four distortion coefficients.
	Fisheye4 = ModelKind("fisheye4")
	// Fisheye1 is a fisheye camera with a single distortion coefficient.
	Fisheye1 = ModelKind("fisheye1")
)

// DefaultModelKind is the model used when nothing better can be inferred:
// a standard lens with radial distortion.
const DefaultModelKind = Radial3

// ParseModelKind returns the ModelKind named by s.
func ParseModelKind(s string) (ModelKind, error) {
	switch kind := ModelKind(s); kind {
	case Pinhole, Radial1, Radial3, Brown, Fisheye4, Fisheye1:
		return kind, nil
	default:
		return "", errors.Errorf("do not know how to parse %q camera model", s)
	}
}

func (k ModelKind) String() string {
	return string(k)
}

// NbDistortionParams returns the number of distortion coefficients of the model.
func (k ModelKind) NbDistortionParams() int {
	switch k {
	case Pinhole:
		return 0
	case Radial1, Fisheye1:
		return 1
	case Radial3:
		return 3
	case Fisheye4:
		return 4
	case Brown:
		return 5
	}
	return 0
}

// Distortion is a distortion seed: the coefficient vector an intrinsic starts
// from before any later refinement.
type Distortion struct {
	Kind   ModelKind `json:"kind"`
	Params []float64 `json:"params"`
}

// DefaultDistortion returns the all-zero seed for the given model kind.
func DefaultDistortion(kind ModelKind) Distortion {
	return Distortion{Kind: kind, Params: make([]float64, kind.NbDistortionParams())}
}

// GoPro lenses ship with a factory calibration usable as a distortion seed.
var goProSeeds = map[ModelKind][]float64{
	Fisheye4: {0.0524, 0.0094, -0.0037, -0.0004},
	Fisheye1: {1.04},
}

// FactoryDistortion returns a brand specific distortion seed when one is
// known, falling back to the zero seed.
func FactoryDistortion(kind ModelKind, brand string) Distortion {
	if params, ok := goProSeeds[kind]; ok && brand == "GoPro" {
		return Distortion{Kind: kind, Params: append([]float64(nil), params...)}
	}
	return DefaultDistortion(kind)
}
