package exifio

import (
	"path/filepath"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/pkg/errors"
)

// viewIdentity is the content hashed into a view id. Field order is part of
// the id, so it must stay stable across releases.
type viewIdentity struct {
	DateTime   string
	SubSecTime string
	Serial     string
	LensSerial string
	Width      int
	Height     int
	Filename   string
}

// ComputeViewID derives the stable identifier of a view from its Exif content
// and its file name. Two inputs producing the same identifier are the same
// logical view; re-running on the same inputs reproduces identical ids.
func ComputeViewID(tags Tags, path string) (uint64, error) {
	identity := viewIdentity{Filename: filepath.Base(path)}
	if tags.HasExif {
		identity.DateTime = tags.DateTime
		identity.SubSecTime = tags.SubSecTime
		identity.Serial = tags.Serial
		identity.LensSerial = tags.LensSerial
		identity.Width = tags.StatedWidth
		identity.Height = tags.StatedHeight
	}
	id, err := hashstructure.Hash(identity, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot hash view identity for %q", path)
	}
	return id, nil
}
