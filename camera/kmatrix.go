package camera

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ParseKMatrix parses a user supplied K matrix of the form
// "f;0;ppx;0;f;ppy;0;0;1" and returns the focal length and principal point it
// fixes. Every field must be a valid number; anything else is an error.
func ParseKMatrix(s string) (focal, ppx, ppy float64, err error) {
	fields := strings.Split(s, ";")
	if len(fields) != 9 {
		return 0, 0, 0, errors.Errorf("K matrix %q: expected 9 ';' separated values, got %d", s, len(fields))
	}
	values := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, convErr := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if convErr != nil {
			return 0, 0, 0, errors.Wrapf(convErr, "K matrix %q: invalid value %q", s, field)
		}
		values = append(values, v)
	}
	k := mat.NewDense(3, 3, values)
	return k.At(0, 0), k.At(0, 2), k.At(1, 2), nil
}
