package camera

import (
	"testing"

	"go.viam.com/test"
)

func TestParseModelKind(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want ModelKind
	}{
		{"pinhole", Pinhole},
		{"radial1", Radial1},
		{"radial3", Radial3},
		{"brown", Brown},
		{"fisheye4", Fisheye4},
		{"fisheye1", Fisheye1},
	} {
		t.Run(tc.in, func(t *testing.T) {
			kind, err := ParseModelKind(tc.in)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, kind, test.ShouldEqual, tc.want)
		})
	}

	_, err := ParseModelKind("equidistant")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `do not know how to parse "equidistant"`)
}

func TestNbDistortionParams(t *testing.T) {
	test.That(t, Pinhole.NbDistortionParams(), test.ShouldEqual, 0)
	test.That(t, Radial1.NbDistortionParams(), test.ShouldEqual, 1)
	test.That(t, Radial3.NbDistortionParams(), test.ShouldEqual, 3)
	test.That(t, Brown.NbDistortionParams(), test.ShouldEqual, 5)
	test.That(t, Fisheye4.NbDistortionParams(), test.ShouldEqual, 4)
	test.That(t, Fisheye1.NbDistortionParams(), test.ShouldEqual, 1)
}

func TestDefaultDistortion(t *testing.T) {
	d := DefaultDistortion(Radial3)
	test.That(t, d.Kind, test.ShouldEqual, Radial3)
	test.That(t, d.Params, test.ShouldResemble, []float64{0, 0, 0})

	test.That(t, DefaultDistortion(Pinhole).Params, test.ShouldHaveLength, 0)
}

func TestFactoryDistortion(t *testing.T) {
	gopro := FactoryDistortion(Fisheye4, "GoPro")
	test.That(t, gopro.Params, test.ShouldResemble, []float64{0.0524, 0.0094, -0.0037, -0.0004})

	single := FactoryDistortion(Fisheye1, "GoPro")
	test.That(t, single.Params, test.ShouldResemble, []float64{1.04})

	// only the fisheye kinds carry a factory seed
	test.That(t, FactoryDistortion(Radial3, "GoPro").Params, test.ShouldResemble, []float64{0, 0, 0})

	// other brands get the zero seed
	test.That(t, FactoryDistortion(Fisheye4, "Canon").Params, test.ShouldResemble, []float64{0, 0, 0, 0})
}
