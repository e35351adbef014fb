package sfm

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Save writes the dataset as indented JSON to path. Registry keys marshal as
// decimal strings, so the output is stable across runs on identical input.
func Save(data *Data, path string) error {
	buf, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot encode dataset")
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return errors.Wrapf(err, "cannot write dataset to %q", path)
	}
	return nil
}

// Load reads a dataset previously written by Save.
func Load(path string) (*Data, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read dataset from %q", path)
	}
	data := NewData()
	if err := json.Unmarshal(buf, data); err != nil {
		return nil, errors.Wrapf(err, "cannot decode dataset %q", path)
	}
	return data, nil
}
