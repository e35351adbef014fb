// Package resources resolves image inputs, either a flat directory or a
// manifest document, into the canonical group/camera/frame tree consumed by
// the listing pass.
//
// A group with one camera holding one frame is a plain single image. One
// camera with several frames is an intrinsic group (same camera, varying
// time). A group with more than one camera is a rig.
package resources

import (
	"github.com/pkg/errors"
)

// Camera is an ordered list of frame paths captured by one physical camera.
type Camera struct {
	Frames []string
}

// Group is an ordered list of cameras resolved from one top-level input
// entry.
type Group struct {
	Cameras []Camera
}

// IsRig reports whether the group holds more than one camera.
func (g Group) IsRig() bool {
	return len(g.Cameras) > 1
}

// FrameCount returns the frame count of the group's first camera. Rig
// validation requires every other camera to match it.
func (g Group) FrameCount() int {
	if len(g.Cameras) == 0 {
		return 0
	}
	return len(g.Cameras[0].Frames)
}

// Tree is the resolver output: an ordered list of groups.
type Tree struct {
	Groups []Group
}

// Stats summarizes a resolved tree.
type Stats struct {
	SingleImages    int
	IntrinsicGroups int
	Rigs            int
	TotalImages     int
}

// Stats counts single images, intrinsic groups, rigs and total images in
// resolver order.
func (t *Tree) Stats() Stats {
	var s Stats
	for _, group := range t.Groups {
		nbCameras := len(group.Cameras)
		nbFrames := group.FrameCount()
		switch {
		case nbCameras > 1:
			s.Rigs++
			s.TotalImages += nbCameras * nbFrames
		case nbFrames > 1:
			s.IntrinsicGroups++
			s.TotalImages += nbFrames
		default:
			s.SingleImages++
			s.TotalImages += nbFrames
		}
	}
	return s
}

// Validate checks structural consistency: the tree must hold at least one
// group and every camera of a rig group must contribute the same number of
// frames.
func (t *Tree) Validate() error {
	if len(t.Groups) == 0 {
		return errors.New("no image paths given")
	}
	for gi, group := range t.Groups {
		if !group.IsRig() {
			continue
		}
		want := group.FrameCount()
		for ci, cam := range group.Cameras {
			if len(cam.Frames) != want {
				return errors.Errorf(
					"rig group %d: camera %d supplies %d frames where camera 0 supplies %d; each camera of a rig must have the same number of images",
					gi, ci, len(cam.Frames), want)
			}
		}
	}
	return nil
}
