package listing

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"go.viam.com/test"

	"github.com/sfmstack/camerainit/logging"
	"github.com/sfmstack/camerainit/resources"
	"github.com/sfmstack/camerainit/sfm"
)

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	test.That(t, png.Encode(&buf, img), test.ShouldBeNil)
	test.That(t, os.WriteFile(path, buf.Bytes(), 0o644), test.ShouldBeNil)
}

// rigTree lays out one directory of frames per camera and returns them as a
// single rig group. File names carry the camera index: without metadata the
// view identity falls back to the file name, so same-named frames across
// cameras would collide as duplicates.
func rigTree(t *testing.T, dir string, nbCameras, nbFrames int) *resources.Tree {
	t.Helper()
	group := resources.Group{}
	for c := 0; c < nbCameras; c++ {
		camDir := filepath.Join(dir, fmt.Sprintf("cam%d", c))
		test.That(t, os.Mkdir(camDir, 0o755), test.ShouldBeNil)
		cam := resources.Camera{}
		for f := 0; f < nbFrames; f++ {
			path := filepath.Join(camDir, fmt.Sprintf("cam%d_frame%d.png", c, f))
			writePNG(t, path, 64, 48)
			cam.Frames = append(cam.Frames, path)
		}
		group.Cameras = append(group.Cameras, cam)
	}
	return &resources.Tree{Groups: []resources.Group{group}}
}

func TestBuildRig(t *testing.T) {
	logger := logging.NewTestLogger(t)
	tree := rigTree(t, t.TempDir(), 2, 3)

	data, report, err := Build(tree, nil, Options{FocalPx: 1200}, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, len(data.Views), test.ShouldEqual, 6)
	test.That(t, len(data.Intrinsics), test.ShouldEqual, 2)
	test.That(t, len(data.Rigs), test.ShouldEqual, 1)
	test.That(t, data.Rigs[0].NbCameras, test.ShouldEqual, 2)

	// each rig camera gets its own synthesized serial
	test.That(t, data.Intrinsics[0].Serial, test.ShouldEqual, "no_metadata_rig_0_0")
	test.That(t, data.Intrinsics[1].Serial, test.ShouldEqual, "no_metadata_rig_0_1")
	test.That(t, data.Intrinsics[0].Width, test.ShouldEqual, 64)
	test.That(t, data.Intrinsics[0].Height, test.ShouldEqual, 48)
	test.That(t, data.Intrinsics[0].FocalPx, test.ShouldEqual, 1200.0)
	test.That(t, data.Intrinsics[0].Resolved(), test.ShouldBeTrue)

	// both cameras see poses 0..2: one pose per time index, shared across
	// the rig
	poses := map[uint32][]uint32{}
	for _, view := range data.Views {
		test.That(t, view.IsPartOfRig(), test.ShouldBeTrue)
		test.That(t, view.Rig.RigID, test.ShouldEqual, uint32(0))
		test.That(t, view.IntrinsicID, test.ShouldEqual, view.Rig.SubPoseID)
		poses[view.Rig.SubPoseID] = append(poses[view.Rig.SubPoseID], view.PoseID)
	}
	test.That(t, len(poses), test.ShouldEqual, 2)
	for _, ids := range poses {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		test.That(t, ids, test.ShouldResemble, []uint32{0, 1, 2})
	}

	test.That(t, report.TotalImages, test.ShouldEqual, 6)
	test.That(t, report.ViewsRetained, test.ShouldEqual, 6)
	test.That(t, report.ViewsWithoutIntrinsic, test.ShouldEqual, 0)
	test.That(t, report.IntrinsicsListed, test.ShouldEqual, 2)
	test.That(t, report.RigsListed, test.ShouldEqual, 1)
	test.That(t, report.NoMetadata(), test.ShouldHaveLength, 6)
	test.That(t, report.UnknownSensors(), test.ShouldBeEmpty)
	test.That(t, report.Err(), test.ShouldBeNil)
}

func TestBuildWithoutOverrides(t *testing.T) {
	logger := logging.NewTestLogger(t)
	tree := rigTree(t, t.TempDir(), 2, 3)

	data, report, err := Build(tree, nil, Options{}, logger)
	test.That(t, err, test.ShouldBeNil)

	// without metadata or overrides no focal length can be derived
	test.That(t, data.Intrinsics[0].Resolved(), test.ShouldBeFalse)
	test.That(t, report.ViewsRetained, test.ShouldEqual, 6)
	test.That(t, report.ViewsWithoutIntrinsic, test.ShouldEqual, 6)

	err = report.IntrinsicCoverageErr()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no intrinsic could be resolved for any view")
	test.That(t, report.Err(), test.ShouldNotBeNil)
}

func TestBuildPoseAdvance(t *testing.T) {
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()
	tree := rigTree(t, dir, 2, 2)
	single := filepath.Join(dir, "single.png")
	writePNG(t, single, 64, 48)
	tree.Groups = append(tree.Groups, resources.Group{Cameras: []resources.Camera{{Frames: []string{single}}}})

	data, _, err := Build(tree, nil, Options{FocalPx: 900}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(data.Views), test.ShouldEqual, 5)

	var singleView *sfm.View
	for _, view := range data.Views {
		if view.Path == single {
			singleView = view
		}
	}
	test.That(t, singleView, test.ShouldNotBeNil)
	// the rig holds poses 0 and 1, the next group continues after them
	test.That(t, singleView.PoseID, test.ShouldEqual, uint32(2))
	test.That(t, singleView.IntrinsicID, test.ShouldEqual, uint32(2))
	test.That(t, singleView.IsPartOfRig(), test.ShouldBeFalse)
	// a plain single image gets no synthesized serial
	test.That(t, data.Intrinsics[2].Serial, test.ShouldEqual, "")
}

func TestBuildWithRootPath(t *testing.T) {
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 64, 48)
	writePNG(t, filepath.Join(dir, "b.png"), 64, 48)

	tree, err := resources.FromDirectory(dir)
	test.That(t, err, test.ShouldBeNil)

	data, report, err := Build(tree, nil, Options{FocalPx: 900, RootPath: dir}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.ViewsRetained, test.ShouldEqual, 2)

	// view paths stay relative, the dataset carries the root once
	test.That(t, data.RootPath, test.ShouldEqual, dir)
	paths := make([]string, 0, len(data.Views))
	for _, view := range data.Views {
		paths = append(paths, view.Path)
	}
	sort.Strings(paths)
	test.That(t, paths, test.ShouldResemble, []string{"a.png", "b.png"})
}

func TestBuildDuplicateImage(t *testing.T) {
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "dup.png")
	writePNG(t, path, 64, 48)
	tree := &resources.Tree{Groups: []resources.Group{
		{Cameras: []resources.Camera{{Frames: []string{path}}}},
		{Cameras: []resources.Camera{{Frames: []string{path}}}},
	}}

	data, report, err := Build(tree, nil, Options{FocalPx: 900}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(data.Views), test.ShouldEqual, 1)
	test.That(t, report.TotalImages, test.ShouldEqual, 2)
	test.That(t, report.ViewsRetained, test.ShouldEqual, 1)
	// the duplicate camera still had its intrinsic allocated
	test.That(t, report.IntrinsicsListed, test.ShouldEqual, 2)
	test.That(t, report.Err(), test.ShouldBeNil)
}

func TestBuildRigDimensionMismatch(t *testing.T) {
	logger := logging.NewTestLogger(t)
	tree := rigTree(t, t.TempDir(), 2, 2)
	// regenerate one frame of camera 1 with different dimensions
	writePNG(t, tree.Groups[0].Cameras[1].Frames[1], 32, 24)

	_, _, err := Build(tree, nil, Options{FocalPx: 900}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "rig camera images do not share the same dimensions")
}

func TestBuildIntrinsicGroupDimensionDrift(t *testing.T) {
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 64, 48)
	writePNG(t, b, 32, 24)
	tree := &resources.Tree{Groups: []resources.Group{
		{Cameras: []resources.Camera{{Frames: []string{a, b}}}},
	}}

	// outside a rig mismatched dimensions only warn
	data, report, err := Build(tree, nil, Options{FocalPx: 900}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(data.Views), test.ShouldEqual, 2)
	test.That(t, report.ViewsRetained, test.ShouldEqual, 2)
}

func TestBuildSkipsUnreadable(t *testing.T) {
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()
	garbage := filepath.Join(dir, "broken.png")
	test.That(t, os.WriteFile(garbage, []byte("not an image"), 0o644), test.ShouldBeNil)
	good := filepath.Join(dir, "good.png")
	writePNG(t, good, 64, 48)
	tree := &resources.Tree{Groups: []resources.Group{
		{Cameras: []resources.Camera{{Frames: []string{garbage, good}}}},
	}}

	data, report, err := Build(tree, nil, Options{FocalPx: 900}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(data.Views), test.ShouldEqual, 1)
	test.That(t, report.TotalImages, test.ShouldEqual, 2)
	test.That(t, report.ViewsRetained, test.ShouldEqual, 1)
	// the camera counts as an intrinsic group, its serial says so
	test.That(t, data.Intrinsics[0].Serial, test.ShouldEqual, "no_metadata_intrinsic_group_0")
}

func TestBuildNothingReadable(t *testing.T) {
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()
	garbage := filepath.Join(dir, "broken.png")
	test.That(t, os.WriteFile(garbage, []byte("not an image"), 0o644), test.ShouldBeNil)
	tree := &resources.Tree{Groups: []resources.Group{
		{Cameras: []resources.Camera{{Frames: []string{garbage}}}},
	}}

	data, report, err := Build(tree, nil, Options{FocalPx: 900}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(data.Views), test.ShouldEqual, 0)
	test.That(t, len(data.Intrinsics), test.ShouldEqual, 0)

	err = report.IntrinsicCoverageErr()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no image could be resolved to a view")
}

func TestBuildGroupPerFolder(t *testing.T) {
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "frame0.png")
	b := filepath.Join(dir, "frame1.png")
	c := filepath.Join(dir, "frame2.png")
	writePNG(t, a, 64, 48)
	writePNG(t, b, 64, 48)
	writePNG(t, c, 64, 48)
	tree := &resources.Tree{Groups: []resources.Group{
		{Cameras: []resources.Camera{{Frames: []string{a, b}}}},
		{Cameras: []resources.Camera{{Frames: []string{c}}}},
	}}

	data, _, err := Build(tree, nil, Options{FocalPx: 900, GroupPolicy: GroupPerFolder}, logger)
	test.That(t, err, test.ShouldBeNil)

	// metadata-less cameras are tagged with their folder instead
	test.That(t, data.Intrinsics[0].Serial, test.ShouldEqual, dir)
	test.That(t, data.Intrinsics[1].Serial, test.ShouldEqual, dir)

	// same folder, same calibration: the grouping pass merges them
	sfm.GroupSharedIntrinsics(data)
	test.That(t, len(data.Intrinsics), test.ShouldEqual, 1)
	for _, view := range data.Views {
		test.That(t, view.IntrinsicID, test.ShouldEqual, uint32(0))
	}
}

func TestBuildRejectsBadInputs(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, _, err := Build(&resources.Tree{}, nil, Options{KMatrix: "1;0;0;0;1;0;0;0;1", FocalPx: 900}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot combine a K matrix override")

	_, _, err = Build(&resources.Tree{}, nil, Options{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no image paths given")
}
