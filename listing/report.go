package listing

import (
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// UnknownSensor identifies a camera model absent from the sensor database,
// with the first image it was seen on.
type UnknownSensor struct {
	Path  string
	Brand string
	Model string
}

// Report aggregates the warnings and counts of one listing run and decides
// whether the run can succeed.
type Report struct {
	// TotalImages is the number of images described by the resolved tree,
	// including frames later skipped.
	TotalImages int

	ViewsRetained         int
	ViewsWithoutIntrinsic int
	IntrinsicsListed      int
	RigsListed            int

	noMetadata     []string
	noMetadataSeen map[string]bool

	unknownSensors     []UnknownSensor
	unknownSensorsSeen map[string]bool
}

// NewReport returns an empty report for a run over totalImages images.
func NewReport(totalImages int) *Report {
	return &Report{
		TotalImages:        totalImages,
		noMetadataSeen:     map[string]bool{},
		unknownSensorsSeen: map[string]bool{},
	}
}

// AddNoMetadata records a retained view whose camera carried no usable
// metadata. Paths are deduplicated.
func (r *Report) AddNoMetadata(path string) {
	if r.noMetadataSeen[path] {
		return
	}
	r.noMetadataSeen[path] = true
	r.noMetadata = append(r.noMetadata, path)
}

// NoMetadata returns the recorded metadata-less image paths in first-seen
// order.
func (r *Report) NoMetadata() []string {
	return r.noMetadata
}

// AddUnknownSensor records a camera whose brand and model have no sensor
// database entry. Entries are deduplicated by (brand, model).
func (r *Report) AddUnknownSensor(path, brand, model string) {
	key := brand + ";" + model
	if r.unknownSensorsSeen[key] {
		return
	}
	r.unknownSensorsSeen[key] = true
	r.unknownSensors = append(r.unknownSensors, UnknownSensor{Path: path, Brand: brand, Model: model})
}

// UnknownSensors returns the recorded database misses in first-seen order.
func (r *Report) UnknownSensors() []UnknownSensor {
	return r.unknownSensors
}

// SensorDatabaseErr returns a fatal error when any camera's sensor width was
// missing from the database: no usable focal length can be derived for it,
// and the database has to be extended.
func (r *Report) SensorDatabaseErr() error {
	var errs error
	for _, sensor := range r.unknownSensors {
		errs = multierr.Append(errs, errors.Errorf(
			"no sensor width in the database for camera brand %q model %q (image %q)",
			sensor.Brand, sensor.Model, filepath.Base(sensor.Path)))
	}
	if errs != nil {
		errs = multierr.Append(errs, errors.New("add the missing camera models and sensor widths to the database"))
	}
	return errs
}

// IntrinsicCoverageErr returns a fatal error when no image resolved to a
// view, or when every retained view lacks a resolved intrinsic. Partial
// coverage is only a warning and returns nil.
func (r *Report) IntrinsicCoverageErr() error {
	if r.ViewsRetained == 0 {
		return errors.New("no image could be resolved to a view")
	}
	if r.ViewsWithoutIntrinsic == r.ViewsRetained {
		return errors.New("no intrinsic could be resolved for any view")
	}
	return nil
}

// Err combines every fatal condition of the run.
func (r *Report) Err() error {
	return multierr.Combine(r.SensorDatabaseErr(), r.IntrinsicCoverageErr())
}

// String renders the run summary as a table.
func (r *Report) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Metric", "Count"})
	t.AppendRow([]interface{}{"input images", fmt.Sprintf("%d", r.TotalImages)})
	t.AppendRow([]interface{}{"views listed", fmt.Sprintf("%d", r.ViewsRetained)})
	t.AppendRow([]interface{}{"views without intrinsic", fmt.Sprintf("%d", r.ViewsWithoutIntrinsic)})
	t.AppendRow([]interface{}{"intrinsics listed", fmt.Sprintf("%d", r.IntrinsicsListed)})
	t.AppendRow([]interface{}{"rigs listed", fmt.Sprintf("%d", r.RigsListed)})
	t.AppendRow([]interface{}{"images without metadata", fmt.Sprintf("%d", len(r.noMetadata))})
	t.AppendRow([]interface{}{"unknown sensors", fmt.Sprintf("%d", len(r.unknownSensors))})
	return t.Render()
}
