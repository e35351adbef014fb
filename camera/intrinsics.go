package camera

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// UnknownFocal is the sentinel for a focal length that could not be resolved.
const UnknownFocal = -1.0

// ErrNoIntrinsics is when a camera does not have usable intrinsic parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intrinsics are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrapf(ErrNoIntrinsics, msg)
}

// Intrinsic holds one camera's lens and sensor model: the parameters necessary
// to do a perspective projection of a 3D scene to the 2D plane, plus the
// distortion seed selected for the lens. All frames of one physical camera
// share a single Intrinsic.
type Intrinsic struct {
	Width          int        `json:"width_px"`
	Height         int        `json:"height_px"`
	FocalPx        float64    `json:"focal_px"`
	InitialFocalPx float64    `json:"initial_focal_px"`
	Ppx            float64    `json:"ppx"`
	Ppy            float64    `json:"ppy"`
	Kind           ModelKind  `json:"model"`
	Distortion     Distortion `json:"distortion"`
	Serial         string     `json:"serial_number,omitempty"`
}

// HasFocal reports whether a usable pixel focal length was resolved.
func (params *Intrinsic) HasFocal() bool {
	return params != nil && params.FocalPx > 0
}

// Resolved reports whether focal length and principal point were all derived.
// Unresolved intrinsics are retained but flagged in the run report.
func (params *Intrinsic) Resolved() bool {
	return params != nil && params.FocalPx > 0 && params.Ppx > 0 && params.Ppy > 0
}

// CheckValid checks if the fields for Intrinsic have valid inputs.
func (params *Intrinsic) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("intrinsics do not exist")
	}
	if params.Width == 0 || params.Height == 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.FocalPx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid focal length %#v", params.FocalPx))
	}
	if params.Ppx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid principal X point %#v", params.Ppx))
	}
	if params.Ppy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid principal Y point %#v", params.Ppy))
	}
	return nil
}

// CameraMatrix creates a new camera matrix and returns it.
// Camera matrix:
// [[f 0 ppx],
//
//	[0 f ppy],
//	[0 0   1]]
func (params *Intrinsic) CameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.FocalPx)
	cameraMatrix.Set(1, 1, params.FocalPx)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}

// CalibrationSignature is the identity used to decide whether two intrinsics
// describe the same physical calibration and may be shared between views.
func (params *Intrinsic) CalibrationSignature() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%dx%d:%g:%g:%g:%s",
		params.Kind, params.Width, params.Height, params.FocalPx, params.Ppx, params.Ppy, params.Serial)
	for _, p := range params.Distortion.Params {
		fmt.Fprintf(&b, ":%g", p)
	}
	return b.String()
}
