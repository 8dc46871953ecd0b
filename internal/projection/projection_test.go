package projection

import (
	"errors"
	"math"
	"testing"

	"choromap/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rect struct {
	id                     string
	minLon, minLat, maxLon float64
	maxLat                 float64
}

func rectGeography(rs ...rect) *geo.Geography {
	regions := make([]geo.Region, 0, len(rs))
	for _, r := range rs {
		ring := []geo.Point{
			{Lon: r.minLon, Lat: r.minLat}, {Lon: r.maxLon, Lat: r.minLat},
			{Lon: r.maxLon, Lat: r.maxLat}, {Lon: r.minLon, Lat: r.maxLat},
			{Lon: r.minLon, Lat: r.minLat},
		}
		poly := geo.Polygon{Rings: [][]geo.Point{ring}, BBox: [4]float64{r.minLon, r.minLat, r.maxLon, r.maxLat}}
		regions = append(regions, geo.Region{ID: r.id, Name: r.id, Geometry: geo.Geometry{Kind: geo.KindPolygon, Polygons: []geo.Polygon{poly}}})
	}
	g, _ := geo.NewGeography(regions, geo.FormatGeoJSON)
	return g
}

// 与内置地图库一一对应的简化参考地理
func referenceGeographies() map[string]struct {
	proj Name
	g    *geo.Geography
} {
	type entry = struct {
		proj Name
		g    *geo.Geography
	}
	return map[string]entry{
		"usa-states": {AlbersUSA, rectGeography(
			rect{"CA", -124.4, 32.5, -114.1, 42},
			rect{"ME", -71.1, 43.1, -66.9, 47.4},
			rect{"FL", -82.5, 25, -80, 31},
			rect{"AK", -165, 56, -142, 70},
			rect{"HI", -160.2, 18.9, -154.8, 22.2},
		)},
		"world-countries": {EqualEarth, rectGeography(
			rect{"RUS", 30, 45, 180, 77},
			rect{"USA", -125, 25, -67, 49},
			rect{"ATA", -180, -85, 180, -65},
			rect{"FJI", -180, -21, -178, -16},
		)},
		"europe": {Mercator, rectGeography(rect{"ESP", -9.3, 36, 3.3, 43.8}, rect{"NOR", 4.6, 58, 31, 71.2}, rect{"ISL", -24.5, 63.3, -13.5, 66.6})},
		"africa": {Mercator, rectGeography(rect{"ZAF", 16.4, -34.8, 32.9, -22.1}, rect{"EGY", 24.7, 22, 36.9, 31.7}, rect{"SEN", -17.5, 12.3, -11.4, 16.7})},
		"asia": {Mercator, rectGeography(rect{"JPN", 129.4, 31, 145.5, 45.5}, rect{"IDN", 95, -11, 141, 6}, rect{"TUR", 26, 36, 44.8, 42.1})},
		"south-america": {Mercator, rectGeography(rect{"BRA", -74, -33.8, -34.8, 5.3}, rect{"CHL", -75.6, -55.9, -66.9, -17.5})},
		"north-america": {Albers, rectGeography(rect{"CAN", -141, 41.7, -52.6, 83.1}, rect{"MEX", -117.1, 14.5, -86.7, 32.7}, rect{"PAN", -83, 7.2, -77.2, 9.6})},
		"oceania": {Mercator, rectGeography(rect{"AUS", 113, -43.6, 153.6, -10.7}, rect{"NZL", 166.4, -47.3, 178.6, -34.4}, rect{"PNG", 141, -10.7, 156, -1.3})},
	}
}

func TestParse(t *testing.T) {
	for _, n := range Names() {
		got, err := Parse(string(n))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
	got, err := Parse("ALBERSUSA")
	require.NoError(t, err)
	assert.Equal(t, AlbersUSA, got)

	_, err = Parse("orthographic")
	var upe *UnsupportedProjectionError
	require.True(t, errors.As(err, &upe))
	assert.Equal(t, "orthographic", upe.Name)

	_, err = Fit(Name("gnomonic"), rectGeography(rect{"A", 0, 0, 1, 1}), Size{100, 100}, 0)
	assert.True(t, errors.As(err, &upe))
}

func TestFitKeepsRepresentativePointsInViewport(t *testing.T) {
	const padding = 12
	sizes := []Size{{Width: 960, Height: 600}, {Width: 400, Height: 800}}
	for name, ref := range referenceGeographies() {
		for _, size := range sizes {
			f, err := Fit(ref.proj, ref.g, size, padding)
			require.NoError(t, err, name)
			assert.False(t, f.Degenerate(), name)
			for i := range ref.g.Regions {
				r := &ref.g.Regions[i]
				pt, ok := r.RepresentativePoint()
				require.True(t, ok, "%s/%s", name, r.ID)
				x, y, ok := f.Project(pt.Lon, pt.Lat)
				require.True(t, ok, "%s/%s not placed", name, r.ID)
				assert.True(t, x >= padding-1e-6 && x <= size.Width-padding+1e-6, "%s/%s x=%v", name, r.ID, x)
				assert.True(t, y >= padding-1e-6 && y <= size.Height-padding+1e-6, "%s/%s y=%v", name, r.ID, y)
			}
		}
	}
}

func TestFitFillsOneAxis(t *testing.T) {
	g := rectGeography(rect{"A", -10, -10, 10, 10})
	f, err := Fit(Mercator, g, Size{Width: 500, Height: 300}, 10)
	require.NoError(t, err)
	_, y0, _ := f.Project(0, 10)
	_, y1, _ := f.Project(0, -10)
	assert.InDelta(t, 10, y0, 1e-6)
	assert.InDelta(t, 290, y1, 1e-6)
	x, y, _ := f.Project(0, 0)
	assert.InDelta(t, 250, x, 1e-6)
	assert.InDelta(t, 150, y, 1e-6)
}

func TestRoundTrip(t *testing.T) {
	samples := map[Name][]geo.Point{
		Mercator:   {{Lon: 0, Lat: 0}, {Lon: -73.9, Lat: 40.7}, {Lon: 151.2, Lat: -33.9}, {Lon: 179, Lat: 80}},
		Albers:     {{Lon: -100, Lat: 40}, {Lon: -80, Lat: 25}, {Lon: -120, Lat: 60}},
		AlbersUSA:  {{Lon: -100, Lat: 40}, {Lon: -150, Lat: 61}, {Lon: -157.8, Lat: 21.3}},
		EqualEarth: {{Lon: 0, Lat: 0}, {Lon: 120, Lat: 60}, {Lon: -170, Lat: -75}, {Lon: 10, Lat: -40}},
	}
	g := rectGeography(rect{"W", -179, -80, 179, 80})
	for name, pts := range samples {
		f, err := Fit(name, g, Size{Width: 960, Height: 600}, 0)
		require.NoError(t, err)
		for _, p := range pts {
			x, y, ok := f.Project(p.Lon, p.Lat)
			require.True(t, ok, "%s %v", name, p)
			lon, lat, ok := f.Unproject(x, y)
			require.True(t, ok)
			assert.InDelta(t, p.Lon, lon, 1e-6, "%s %v", name, p)
			assert.InDelta(t, p.Lat, lat, 1e-6, "%s %v", name, p)
		}
	}
}

func TestMercatorClampsLatitude(t *testing.T) {
	_, vPole, _ := mercator{}.forward(0, 90)
	_, vMax, _ := mercator{}.forward(0, mercatorMaxLat)
	assert.Equal(t, vMax, vPole)
	assert.False(t, math.IsInf(vPole, 0))
	assert.InDelta(t, -math.Pi, vPole, 1e-6)
}

func TestAlbersUSARejectsPointsOutsideInsets(t *testing.T) {
	p := newAlbersUSA()
	_, _, ok := p.forward(0, 0)
	assert.False(t, ok)
	_, _, ok = p.forward(2.35, 48.85)
	assert.False(t, ok)

	u, v, ok := p.forward(-150, 61)
	require.True(t, ok)
	assert.True(t, p.alaskaBox.contains(u, v))
	u, v, ok = p.forward(-157.8, 21.3)
	require.True(t, ok)
	assert.True(t, p.hawaiiBox.contains(u, v))
}

func TestFitDegenerateFallsBackToCentred(t *testing.T) {
	size := Size{Width: 300, Height: 200}

	f, err := Fit(Mercator, nil, size, 0)
	require.NoError(t, err)
	assert.True(t, f.Degenerate())
	assert.Equal(t, 1.0, f.Scale())
	tx, ty := f.Translate()
	assert.Equal(t, 150.0, tx)
	assert.Equal(t, 100.0, ty)

	pt := geo.Region{ID: "P", Geometry: geo.Geometry{Kind: geo.KindPoint, Points: []geo.Point{{Lon: 10, Lat: 20}}}}
	g, _ := geo.NewGeography([]geo.Region{pt}, geo.FormatGeoJSON)
	f, err = Fit(EqualEarth, g, size, 5)
	require.NoError(t, err)
	assert.True(t, f.Degenerate())
	x, y, ok := f.Project(10, 20)
	require.True(t, ok)
	assert.InDelta(t, 150, x, 1e-9)
	assert.InDelta(t, 100, y, 1e-9)

	// 全部落在插图之外
	g = rectGeography(rect{"FR", -4, 43, 7, 50})
	f, err = Fit(AlbersUSA, g, size, 0)
	require.NoError(t, err)
	assert.True(t, f.Degenerate())
}

func TestFitRejectsBadSize(t *testing.T) {
	g := rectGeography(rect{"A", 0, 0, 1, 1})
	for _, s := range []Size{{0, 100}, {100, -1}, {20, 20}} {
		_, err := Fit(Mercator, g, s, 10)
		assert.ErrorIs(t, err, ErrInvalidSize, "%v", s)
	}
}

func TestWithSizeRefitsSameBounds(t *testing.T) {
	ref := referenceGeographies()["europe"]
	f, err := Fit(ref.proj, ref.g, Size{Width: 480, Height: 300}, 0)
	require.NoError(t, err)
	big, err := f.WithSize(Size{Width: 960, Height: 600}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 2*f.Scale(), big.Scale(), 1e-9)
	x0, y0, _ := f.Project(10, 50)
	x1, y1, _ := big.Project(10, 50)
	assert.InDelta(t, 2*x0, x1, 1e-6)
	assert.InDelta(t, 2*y0, y1, 1e-6)
	assert.Equal(t, Size{Width: 480, Height: 300}, f.Size(), "receiver untouched")
}

func TestViewComposition(t *testing.T) {
	ref := referenceGeographies()["usa-states"]
	f, err := Fit(ref.proj, ref.g, Size{Width: 960, Height: 600}, 0)
	require.NoError(t, err)
	a := geo.Point{Lon: -119, Lat: 37}
	b := geo.Point{Lon: -69, Lat: 45}

	ax, ay, _ := Screen(f, Identity(), a.Lon, a.Lat)
	bx, by, _ := Screen(f, Identity(), b.Lon, b.Lat)
	v := View{K: 2, X: 10, Y: 10}
	ax2, ay2, _ := Screen(f, v, a.Lon, a.Lat)
	bx2, by2, _ := Screen(f, v, b.Lon, b.Lat)

	assert.InDelta(t, 2*math.Hypot(bx-ax, by-ay), math.Hypot(bx2-ax2, by2-ay2), 1e-9)
	assert.InDelta(t, 2*ax+10, ax2, 1e-9)
	assert.InDelta(t, 2*ay+10, ay2, 1e-9)
	assert.InDelta(t, 2*bx+10, bx2, 1e-9)
	assert.InDelta(t, 2*by+10, by2, 1e-9)

	lon, lat, ok := ScreenInverse(f, v, ax2, ay2)
	require.True(t, ok)
	assert.InDelta(t, a.Lon, lon, 1e-6)
	assert.InDelta(t, a.Lat, lat, 1e-6)
}

func TestViewZoomAndPan(t *testing.T) {
	v := Identity()
	assert.True(t, v.IsIdentity())

	z := v.ZoomAt(2, 100, 50, DefaultExtent)
	assert.Equal(t, 2.0, z.K)
	x, y := z.Apply(100, 50)
	assert.InDelta(t, 100, x, 1e-9, "zoom anchor stays fixed")
	assert.InDelta(t, 50, y, 1e-9)

	assert.Equal(t, 8.0, v.ZoomAt(100, 0, 0, DefaultExtent).K)
	assert.Equal(t, 0.5, v.ZoomAt(0.01, 0, 0, DefaultExtent).K)
	assert.Equal(t, v, v.ZoomAt(0, 0, 0, DefaultExtent))
	assert.Equal(t, v, v.ZoomAt(math.NaN(), 0, 0, DefaultExtent))

	p := z.Pan(5, -5)
	assert.Equal(t, View{K: 2, X: z.X + 5, Y: z.Y - 5}, p)
	assert.Equal(t, 2.0, z.K, "value semantics")

	s := p.ScaleTo(4, 0, 0, DefaultExtent)
	ix, iy := s.Invert(s.Apply(3, 4))
	assert.InDelta(t, 3, ix, 1e-9)
	assert.InDelta(t, 4, iy, 1e-9)
	assert.Equal(t, "translate(10,-10) scale(4)", View{K: 4, X: 10, Y: -10}.String())
}
