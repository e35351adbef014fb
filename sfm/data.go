// Package sfm holds the dataset produced by camera initialization: the view,
// intrinsic and rig registries, with JSON persistence and the shared
// intrinsics merge pass.
package sfm

import (
	"sort"

	"github.com/sfmstack/camerainit/camera"
)

// Rig describes a fixed multi camera assembly. It owns no image data, only
// its camera count.
type Rig struct {
	NbCameras int `json:"nb_cameras"`
}

// Data is one run's output: three registries populated during a single
// listing pass and read-only afterward. View paths are relative to RootPath
// when it is set, absolute otherwise.
type Data struct {
	RootPath   string                       `json:"root_path"`
	Views      map[uint64]*View             `json:"views"`
	Intrinsics map[uint32]*camera.Intrinsic `json:"intrinsics"`
	Rigs       map[uint32]*Rig              `json:"rigs"`
}

// NewData returns an empty dataset.
func NewData() *Data {
	return &Data{
		Views:      map[uint64]*View{},
		Intrinsics: map[uint32]*camera.Intrinsic{},
		Rigs:       map[uint32]*Rig{},
	}
}

// HasView reports whether a view with the given id is already registered.
func (d *Data) HasView(id uint64) bool {
	_, ok := d.Views[id]
	return ok
}

// ViewsWithoutIntrinsic counts retained views whose intrinsic never resolved
// a focal length and principal point.
func (d *Data) ViewsWithoutIntrinsic() int {
	n := 0
	for _, view := range d.Views {
		intrinsic, ok := d.Intrinsics[view.IntrinsicID]
		if !ok || !intrinsic.Resolved() {
			n++
		}
	}
	return n
}

// GroupSharedIntrinsics coalesces intrinsics sharing the same calibration
// signature, remapping every view to the surviving id. The lowest id of each
// signature survives. Invoked once, after assignment, when the grouping
// policy asks for it.
func GroupSharedIntrinsics(data *Data) {
	ids := make([]uint32, 0, len(data.Intrinsics))
	for id := range data.Intrinsics {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	firstBySignature := map[string]uint32{}
	remap := map[uint32]uint32{}
	for _, id := range ids {
		signature := data.Intrinsics[id].CalibrationSignature()
		if first, ok := firstBySignature[signature]; ok {
			remap[id] = first
			delete(data.Intrinsics, id)
			continue
		}
		firstBySignature[signature] = id
	}
	if len(remap) == 0 {
		return
	}
	for _, view := range data.Views {
		if first, ok := remap[view.IntrinsicID]; ok {
			view.IntrinsicID = first
		}
	}
}
