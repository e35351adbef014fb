package sfm

// RigBinding ties a view to one camera slot of a rig.
type RigBinding struct {
	RigID     uint32 `json:"rig_id"`
	SubPoseID uint32 `json:"sub_pose_id"`
}

// View is one accepted, deduplicated image bound to a pose and an
// intrinsic. A view is never mutated after creation except to attach its
// rig binding.
type View struct {
	Path        string            `json:"path"`
	ViewID      uint64            `json:"view_id"`
	IntrinsicID uint32            `json:"intrinsic_id"`
	PoseID      uint32            `json:"pose_id"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Rig         *RigBinding       `json:"rig,omitempty"`
	Metadata    map[string]string `json:"metadata"`
}

// NewView creates a view for one accepted image.
func NewView(path string, viewID uint64, intrinsicID, poseID uint32, width, height int) *View {
	return &View{
		Path:        path,
		ViewID:      viewID,
		IntrinsicID: intrinsicID,
		PoseID:      poseID,
		Width:       width,
		Height:      height,
		Metadata:    map[string]string{},
	}
}

// SetRigBinding attaches the view to a camera slot of a rig.
func (v *View) SetRigBinding(rigID, subPoseID uint32) {
	v.Rig = &RigBinding{RigID: rigID, SubPoseID: subPoseID}
}

// IsPartOfRig reports whether the view belongs to a rig.
func (v *View) IsPartOfRig() bool {
	return v.Rig != nil
}
