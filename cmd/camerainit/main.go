// Package main is the camerainit command: it lists an image dataset and
// writes the initial views, camera intrinsics and rigs consumed by later
// reconstruction stages.
package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/sfmstack/camerainit/camera"
	"github.com/sfmstack/camerainit/listing"
	"github.com/sfmstack/camerainit/logging"
	"github.com/sfmstack/camerainit/resources"
	"github.com/sfmstack/camerainit/sensordb"
	"github.com/sfmstack/camerainit/sfm"
)

// outputFileName is the dataset file written into the output directory.
const outputFileName = "sfm_data.json"

const (
	// Flags.
	flagImageFolder      = "image-folder"
	flagManifest         = "manifest"
	flagSensorDatabase   = "sensor-database"
	flagOutput           = "output"
	flagDefaultFocalPx   = "default-focal-px"
	flagDefaultSensorW   = "default-sensor-width"
	flagDefaultKMatrix   = "default-k"
	flagDefaultModel     = "default-camera-model"
	flagGroupCameraModel = "group-camera-model"
	flagLogFile          = "log-file"
	flagDebug            = "debug"
)

var logger logging.Logger

func main() {
	app := &cli.App{
		Name:  "camerainit",
		Usage: "create the initial description of an image dataset: views, camera intrinsics and rigs",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    flagImageFolder,
				Aliases: []string{"i"},
				Usage:   "input image folder",
			},
			&cli.PathFlag{
				Name:    flagManifest,
				Aliases: []string{"j"},
				Usage:   "input manifest listing single images, intrinsic groups and rigs, instead of a folder",
			},
			&cli.PathFlag{
				Name:    flagSensorDatabase,
				Aliases: []string{"s"},
				Usage:   "camera sensor width database path",
			},
			&cli.PathFlag{
				Name:     flagOutput,
				Aliases:  []string{"o"},
				Required: true,
				Usage:    "output directory for the dataset file",
			},
			&cli.Float64Flag{
				Name:  flagDefaultFocalPx,
				Value: -1,
				Usage: "focal length in pixels",
			},
			&cli.Float64Flag{
				Name:  flagDefaultSensorW,
				Value: -1,
				Usage: "sensor width in mm",
			},
			&cli.StringFlag{
				Name:  flagDefaultKMatrix,
				Usage: "intrinsics K matrix \"f;0;ppx;0;f;ppy;0;0;1\"",
			},
			&cli.StringFlag{
				Name:  flagDefaultModel,
				Usage: "camera model type (pinhole, radial1, radial3, brown, fisheye4, fisheye1)",
			},
			&cli.IntFlag{
				Name:  flagGroupCameraModel,
				Value: 1,
				Usage: "intrinsic sharing: 0 one intrinsic per view, 1 shared based on metadata, " +
					"2 shared with grouping by folder when metadata is missing",
			},
			&cli.PathFlag{
				Name:  flagLogFile,
				Usage: "also append logs to this file",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			switch {
			case c.Path(flagLogFile) != "":
				logger = logging.NewFileLogger("camerainit", c.Path(flagLogFile))
			case c.Bool(flagDebug):
				logger = logging.NewDebugLogger("camerainit")
			default:
				logger = logging.NewLogger("camerainit")
			}
			return nil
		},
		Action: runInit,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runInit(c *cli.Context) error {
	imageFolder := c.Path(flagImageFolder)
	manifest := c.Path(flagManifest)

	if imageFolder != "" && manifest != "" {
		return errors.Errorf("cannot combine --%s and --%s", flagImageFolder, flagManifest)
	}
	if imageFolder == "" && manifest == "" {
		return errors.Errorf("either --%s or --%s is required", flagImageFolder, flagManifest)
	}
	if imageFolder != "" {
		info, err := os.Stat(imageFolder)
		if err != nil || !info.IsDir() {
			return errors.Errorf("input image folder %q does not exist", imageFolder)
		}
	}

	outputDir := c.Path(flagOutput)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return errors.Wrapf(err, "cannot create output directory %q", outputDir)
	}

	opts := listing.Options{
		KMatrix:       c.String(flagDefaultKMatrix),
		FocalPx:       c.Float64(flagDefaultFocalPx),
		SensorWidthMM: c.Float64(flagDefaultSensorW),
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if name := c.String(flagDefaultModel); name != "" {
		kind, err := camera.ParseModelKind(name)
		if err != nil {
			return err
		}
		opts.ModelKind = kind
	}
	policy, err := listing.ParseGroupPolicy(c.Int(flagGroupCameraModel))
	if err != nil {
		return err
	}
	opts.GroupPolicy = policy

	var db *sensordb.Database
	if path := c.Path(flagSensorDatabase); path != "" {
		db, err = sensordb.Load(path)
		if err != nil {
			return err
		}
		logger.Infof("loaded %d sensor database entries from %q", db.Len(), path)
	}

	var tree *resources.Tree
	if imageFolder != "" {
		// directory mode keeps view paths relative to the image folder
		opts.RootPath = imageFolder
		tree, err = resources.FromDirectory(imageFolder)
	} else {
		tree, err = resources.FromManifest(manifest)
	}
	if err != nil {
		return err
	}

	data, report, err := listing.Build(tree, db, opts, logger)
	if err != nil {
		return err
	}

	if paths := report.NoMetadata(); len(paths) > 0 {
		logger.Warnf("no metadata in %d image(s):", len(paths))
		for _, path := range paths {
			logger.Warnf("\t- %s", path)
		}
	}
	if err := report.SensorDatabaseErr(); err != nil {
		return err
	}

	if opts.GroupPolicy != listing.GroupNone {
		sfm.GroupSharedIntrinsics(data)
		report.IntrinsicsListed = len(data.Intrinsics)
	}

	outputPath := filepath.Join(outputDir, outputFileName)
	if err := sfm.Save(data, outputPath); err != nil {
		return err
	}
	logger.Infof("dataset written to %q", outputPath)
	logger.Infof("camera initialization report:\n%s", report)

	if err := report.IntrinsicCoverageErr(); err != nil {
		return err
	}
	if n := report.ViewsWithoutIntrinsic; n > 0 {
		logger.Warnf("%d view(s) without resolved intrinsic, reconstruction may fail", n)
	}
	return nil
}
