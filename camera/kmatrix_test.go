package camera

import (
	"testing"

	"go.viam.com/test"
)

func TestParseKMatrix(t *testing.T) {
	focal, ppx, ppy, err := ParseKMatrix("1000;0;500;0;1000;375;0;0;1")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, focal, test.ShouldEqual, 1000.0)
	test.That(t, ppx, test.ShouldEqual, 500.0)
	test.That(t, ppy, test.ShouldEqual, 375.0)

	// spaces around fields are tolerated
	focal, ppx, ppy, err = ParseKMatrix("960; 0; 480; 0; 960; 270; 0; 0; 1")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, focal, test.ShouldEqual, 960.0)
	test.That(t, ppx, test.ShouldEqual, 480.0)
	test.That(t, ppy, test.ShouldEqual, 270.0)
}

func TestParseKMatrixErrors(t *testing.T) {
	_, _, _, err := ParseKMatrix("1000;0;500")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected 9 ';' separated values")

	_, _, _, err = ParseKMatrix("f;0;500;0;1000;375;0;0;1")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `invalid value "f"`)
}
