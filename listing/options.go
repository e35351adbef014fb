package listing

import (
	"github.com/pkg/errors"

	"github.com/sfmstack/camerainit/camera"
)

// GroupPolicy controls how intrinsics may be shared between cameras after
// assignment.
type GroupPolicy int

const (
	// GroupNone keeps one intrinsic per camera.
	GroupNone GroupPolicy = iota
	// GroupShared merges intrinsics with identical calibration signatures.
	GroupShared
	// GroupPerFolder additionally tags metadata-less cameras with their
	// containing folder, so frames extracted from one video end up sharing
	// one intrinsic.
	GroupPerFolder
)

// ParseGroupPolicy validates a numeric policy value.
func ParseGroupPolicy(v int) (GroupPolicy, error) {
	switch policy := GroupPolicy(v); policy {
	case GroupNone, GroupShared, GroupPerFolder:
		return policy, nil
	default:
		return GroupNone, errors.Errorf("unknown camera grouping policy %d, want 0, 1 or 2", v)
	}
}

// Options carries the user overrides applied to every camera, plus the
// grouping policy. Every override is optional; the zero value means
// "infer everything".
type Options struct {
	// KMatrix fixes focal length and principal point from a
	// "f;0;ppx;0;f;ppy;0;0;1" string. Cannot be combined with FocalPx.
	KMatrix string
	// FocalPx fixes the pixel focal length, ignored when <= 0.
	FocalPx float64
	// SensorWidthMM fixes the sensor width and skips the database lookup,
	// ignored when <= 0.
	SensorWidthMM float64
	// ModelKind forces the camera model, empty to infer.
	ModelKind camera.ModelKind

	// RootPath is the directory tree frames are resolved against in
	// directory mode. It is recorded in the dataset so view paths can stay
	// relative; empty in manifest mode, where frames are already absolute.
	RootPath string

	GroupPolicy GroupPolicy
}

// Validate rejects override combinations that cannot be honored.
func (o Options) Validate() error {
	if o.KMatrix != "" && o.FocalPx > 0 {
		return errors.New("cannot combine a K matrix override with a focal length override")
	}
	if o.KMatrix != "" {
		if _, _, _, err := camera.ParseKMatrix(o.KMatrix); err != nil {
			return err
		}
	}
	return nil
}
