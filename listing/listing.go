// Package listing walks a resolved resource tree and builds the output
// dataset: one view per accepted frame, one intrinsic per camera, one rig
// descriptor per multi camera group, plus the run report.
package listing

import (
	"fmt"
	"maps"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/sfmstack/camerainit/exifio"
	"github.com/sfmstack/camerainit/imageio"
	"github.com/sfmstack/camerainit/logging"
	"github.com/sfmstack/camerainit/metadata"
	"github.com/sfmstack/camerainit/resources"
	"github.com/sfmstack/camerainit/sensordb"
	"github.com/sfmstack/camerainit/sfm"
)

// counters is the id allocation state threaded through one listing pass.
// Identifiers depend only on traversal order, so a pass over the same tree
// always reproduces the same ids.
type counters struct {
	rigID       uint32
	poseID      uint32
	intrinsicID uint32
	seen        int
}

type lister struct {
	data   *sfm.Data
	report *Report
	opts   Options
	db     *sensordb.Database
	logger logging.Logger

	counters counters
}

// Build consumes a resolved tree in one deterministic pass and returns the
// dataset together with the run report. The returned error covers conditions
// that abort the pass outright: rig inconsistencies and malformed overrides.
// Conditions that only fail the run after the full pass are reported through
// the Report.
func Build(
	tree *resources.Tree,
	db *sensordb.Database,
	opts Options,
	logger logging.Logger,
) (*sfm.Data, *Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	if err := tree.Validate(); err != nil {
		return nil, nil, err
	}

	stats := tree.Stats()
	logger.Infof("resolved %d single image(s), %d intrinsic group(s), %d rig(s)",
		stats.SingleImages, stats.IntrinsicGroups, stats.Rigs)

	l := &lister{
		data:   sfm.NewData(),
		report: NewReport(stats.TotalImages),
		opts:   opts,
		db:     db,
		logger: logger,
	}
	l.data.RootPath = opts.RootPath
	for groupID, group := range tree.Groups {
		if err := l.listGroup(groupID, group); err != nil {
			return nil, nil, err
		}
	}

	l.report.ViewsRetained = len(l.data.Views)
	l.report.ViewsWithoutIntrinsic = l.data.ViewsWithoutIntrinsic()
	l.report.IntrinsicsListed = len(l.data.Intrinsics)
	l.report.RigsListed = len(l.data.Rigs)
	return l.data, l.report, nil
}

func (l *lister) listGroup(groupID int, group resources.Group) error {
	isRig := group.IsRig()
	if isRig {
		l.data.Rigs[l.counters.rigID] = &sfm.Rig{NbCameras: len(group.Cameras)}
	}
	for cameraID, cam := range group.Cameras {
		if err := l.listCamera(groupID, cameraID, len(group.Cameras), cam, isRig); err != nil {
			return err
		}
	}
	if isRig {
		l.counters.rigID++
		// one pose spans all cameras of the rig at a given time index
		l.counters.poseID += uint32(group.FrameCount())
	}
	return nil
}

// absPath resolves one frame path against the root path. Manifest frames
// are already absolute and pass through unchanged.
func (l *lister) absPath(path string) string {
	if l.opts.RootPath == "" {
		return path
	}
	return filepath.Join(l.opts.RootPath, path)
}

// listCamera allocates the camera's intrinsic id, runs metadata inference on
// its first readable frame and emits one view per accepted frame. Inference
// runs once per camera: metadata is assumed time-invariant within a camera.
func (l *lister) listCamera(groupID, cameraID, nbCameras int, cam resources.Camera, isRig bool) error {
	intrinsicID := l.counters.intrinsicID
	l.counters.intrinsicID++

	isGroup := len(cam.Frames) > 1
	first := true
	var cameraWidth, cameraHeight int
	var cameraMeta map[string]string
	var noMetadata bool

	for frameID, path := range cam.Frames {
		l.counters.seen++
		if isRig {
			l.logger.Debugf("[%d/%d] rig camera [%d/%d] file %q",
				l.counters.seen, l.report.TotalImages, cameraID+1, nbCameras, filepath.Base(path))
		} else {
			l.logger.Debugf("[%d/%d] image file %q",
				l.counters.seen, l.report.TotalImages, filepath.Base(path))
		}

		abs := l.absPath(path)
		if imageio.Format(abs) == imageio.FormatUnknown {
			l.logger.Warnf("unknown image file format for %q, skipping", filepath.Base(path))
			continue
		}
		width, height, err := imageio.ReadHeader(abs)
		if err != nil {
			l.logger.Warnf("cannot read image header of %q, skipping: %v", filepath.Base(path), err)
			continue
		}
		if width <= 0 || height <= 0 {
			l.logger.Warnf("image %q has invalid size %dx%d, skipping", filepath.Base(path), width, height)
			continue
		}

		tags, err := exifio.ReadTags(abs)
		if err != nil {
			l.logger.Warnf("cannot read metadata of %q, skipping: %v", filepath.Base(path), err)
			continue
		}

		if first {
			cameraWidth, cameraHeight = width, height
			est, err := l.inferCamera(abs, width, height, tags, groupID, cameraID, isRig, isGroup, intrinsicID)
			if err != nil {
				return err
			}
			cameraMeta = est.Tags
			noMetadata = !est.HasValidMetadata
			first = false
		} else if width != cameraWidth || height != cameraHeight {
			if isRig {
				return errors.Errorf(
					"rig camera images do not share the same dimensions: %q is %dx%d where the camera's first frame is %dx%d",
					filepath.Base(path), width, height, cameraWidth, cameraHeight)
			}
			l.logger.Warnf("intrinsic group image %q is %dx%d where the camera's first frame is %dx%d",
				filepath.Base(path), width, height, cameraWidth, cameraHeight)
		}

		viewID, err := exifio.ComputeViewID(tags, path)
		if err != nil {
			l.logger.Warnf("cannot compute a view identifier for %q, skipping: %v", filepath.Base(path), err)
			continue
		}
		if l.data.HasView(viewID) {
			l.logger.Warnf("view identifier %d already used, duplicated image in input (%s), skipping", viewID, abs)
			continue
		}

		poseID := l.counters.poseID
		if isRig {
			poseID += uint32(frameID)
		}
		view := sfm.NewView(path, viewID, intrinsicID, poseID, width, height)
		view.Metadata = maps.Clone(cameraMeta)
		if isRig {
			view.SetRigBinding(l.counters.rigID, uint32(cameraID))
		} else {
			// one pose per view outside a rig
			l.counters.poseID++
		}
		l.data.Views[viewID] = view
		if noMetadata {
			l.report.AddNoMetadata(path)
		}
	}
	return nil
}

// inferCamera runs metadata inference for one camera and registers the
// resulting intrinsic. Cameras without valid metadata get a synthesized
// serial so unrelated cameras are never merged by the grouping pass.
func (l *lister) inferCamera(
	path string,
	width, height int,
	tags exifio.Tags,
	groupID, cameraID int,
	isRig, isGroup bool,
	intrinsicID uint32,
) (metadata.Estimate, error) {
	overrides := make([]metadata.Override, 0, 4)
	if l.opts.ModelKind != "" {
		overrides = append(overrides, metadata.WithModelKind(l.opts.ModelKind))
	}
	if l.opts.KMatrix != "" {
		overrides = append(overrides, metadata.WithKMatrix(l.opts.KMatrix))
	}
	if l.opts.FocalPx > 0 {
		overrides = append(overrides, metadata.WithFocalPx(l.opts.FocalPx))
	}
	if l.opts.SensorWidthMM > 0 {
		overrides = append(overrides, metadata.WithSensorWidthMM(l.opts.SensorWidthMM))
	}

	est, err := metadata.Infer(path, width, height, tags, l.db, l.logger, overrides...)
	if err != nil {
		return metadata.Estimate{}, err
	}
	if est.UnknownSensor {
		l.report.AddUnknownSensor(path, est.Brand, est.Model)
	}

	intrinsic := est.Intrinsic()
	if !est.HasValidMetadata {
		switch {
		case l.opts.GroupPolicy == GroupPerFolder:
			// frames extracted from one video share one intrinsic
			intrinsic.Serial = filepath.Dir(path)
		case isRig:
			intrinsic.Serial = fmt.Sprintf("no_metadata_rig_%d_%d", groupID, cameraID)
		case isGroup:
			intrinsic.Serial = fmt.Sprintf("no_metadata_intrinsic_group_%d", groupID)
		}
	}
	l.data.Intrinsics[intrinsicID] = &intrinsic
	return est, nil
}
