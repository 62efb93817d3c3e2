package storage

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Geometry holds the volume (m³) and the boundary surfaces (m²) of a storage. It is computed
// once at construction and never mutated.
type Geometry struct {
	Type    StorageType
	Volume  float64
	STop    float64
	SSide   float64
	SBottom float64

	// Height is the vertical extent used for layering.
	Height float64
	// dims keeps the governing dimensions for layer interpolation.
	dims []float64
}

// TotalSurface returns the sum of the top, side and bottom surfaces.
func (g Geometry) TotalSurface() float64 {
	return g.STop + g.SSide + g.SBottom
}

// CylindricalGeometry returns volume and surfaces of an upright cylinder.
func CylindricalGeometry(radius, height float64) (volume, sTop, sSide, sBottom float64) {
	area := math.Pi * radius * radius
	return area * height, area, 2 * math.Pi * radius * height, area
}

// TruncatedConeGeometry returns volume and surfaces of a frustum of a cone with the wide or
// narrow end on top.
func TruncatedConeGeometry(topR, bottomR, height float64) (volume, sTop, sSide, sBottom float64) {
	volume = math.Pi * height / 3 * (topR*topR + bottomR*bottomR + topR*bottomR)
	slant := math.Hypot(topR-bottomR, height)
	sSide = math.Pi * (topR + bottomR) * slant
	return volume, math.Pi * topR * topR, sSide, math.Pi * bottomR * bottomR
}

// TruncatedTrapezoidGeometry returns volume and surfaces of a frustum of a rectangular
// pyramid. The four side faces are trapezoids.
func TruncatedTrapezoidGeometry(topL, topW, bottomL, bottomW, height float64) (volume, sTop, sSide, sBottom float64) {
	aTop := topL * topW
	aBottom := bottomL * bottomW
	volume = frustumVolume(aTop, aBottom, height)

	// Faces along the length lean by half the width difference and vice versa.
	slantLengthFace := math.Hypot(height, (topW-bottomW)/2)
	slantWidthFace := math.Hypot(height, (topL-bottomL)/2)
	sSide = 2*(topL+bottomL)/2*slantLengthFace + 2*(topW+bottomW)/2*slantWidthFace
	return volume, aTop, sSide, aBottom
}

func frustumVolume(a1, a2, h float64) float64 {
	return h / 3 * (a1 + a2 + math.Sqrt(a1*a2))
}

// NewGeometry computes the geometry for a storage type and its dimensions.
func NewGeometry(t StorageType, dims []float64) (Geometry, error) {
	want := 0
	switch t {
	case CylindricalOverground, CylindricalUnderground:
		want = 2
	case TruncatedCone:
		want = 3
	case TruncatedTrapezoid:
		want = 5
	default:
		return Geometry{}, fmt.Errorf("%w: %q", ErrUnsupportedGeometry, t)
	}
	if len(dims) != want {
		return Geometry{}, fmt.Errorf("%w: %s needs %d dimensions, got %d", ErrInvalidDimensions, t, want, len(dims))
	}
	for i, d := range dims {
		if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return Geometry{}, fmt.Errorf("%w: dimension %d is %v", ErrInvalidDimensions, i, d)
		}
	}

	g := Geometry{Type: t, dims: append([]float64(nil), dims...), Height: dims[len(dims)-1]}
	switch t {
	case CylindricalOverground, CylindricalUnderground:
		g.Volume, g.STop, g.SSide, g.SBottom = CylindricalGeometry(dims[0], dims[1])
	case TruncatedCone:
		g.Volume, g.STop, g.SSide, g.SBottom = TruncatedConeGeometry(dims[0], dims[1], dims[2])
	case TruncatedTrapezoid:
		g.Volume, g.STop, g.SSide, g.SBottom = TruncatedTrapezoidGeometry(dims[0], dims[1], dims[2], dims[3], dims[4])
	}
	return g, nil
}

// Layers describes the uniform vertical split of a storage. Layer 0 is the top layer.
type Layers struct {
	Count     int
	Thickness float64
	Volumes   []float64
	// InterfaceAreas[i] is the horizontal cross-section between layer i and i+1.
	InterfaceAreas []float64
}

// LayerGeometry splits g into n layers of equal thickness.
func LayerGeometry(g Geometry, n int) Layers {
	l := Layers{
		Count:     n,
		Thickness: g.Height / float64(n),
		Volumes:   make([]float64, n),
	}

	switch g.Type {
	case CylindricalOverground, CylindricalUnderground:
		for i := range l.Volumes {
			l.Volumes[i] = g.Volume / float64(n)
		}
	default:
		for i := 0; i < n; i++ {
			upper := g.crossSection(float64(i) / float64(n))
			lower := g.crossSection(float64(i+1) / float64(n))
			l.Volumes[i] = frustumVolume(upper, lower, l.Thickness)
		}
		// The per-layer frustum formula is exact only for similar cross-sections; rescale
		// so the layers always add up to the storage volume.
		if sum := floats.Sum(l.Volumes); sum > 0 {
			floats.Scale(g.Volume/sum, l.Volumes)
		}
	}

	l.InterfaceAreas = interfaceAreas(g, n)
	return l
}

// interfaceAreas returns the n−1 horizontal cross-sections at the internal layer boundaries.
func interfaceAreas(g Geometry, n int) []float64 {
	if n < 2 {
		return nil
	}
	areas := make([]float64, n-1)
	for k := 1; k < n; k++ {
		areas[k-1] = g.crossSection(float64(k) / float64(n))
	}
	return areas
}

// crossSection returns the horizontal area at relative depth f (0 = top, 1 = bottom).
func (g Geometry) crossSection(f float64) float64 {
	lerp := func(top, bottom float64) float64 { return top + (bottom-top)*f }
	switch g.Type {
	case TruncatedCone:
		r := lerp(g.dims[0], g.dims[1])
		return math.Pi * r * r
	case TruncatedTrapezoid:
		return lerp(g.dims[0], g.dims[2]) * lerp(g.dims[1], g.dims[3])
	default:
		return math.Pi * g.dims[0] * g.dims[0]
	}
}

// characteristicBottomLength is the length scale of the soil-contact bottom of pit storages.
func (g Geometry) characteristicBottomLength() float64 {
	switch g.Type {
	case TruncatedCone:
		return g.dims[1]
	case TruncatedTrapezoid:
		return math.Min(g.dims[2], g.dims[3])
	default:
		return g.dims[0]
	}
}

// radius returns the cylinder radius (the first dimension).
func (g Geometry) radius() float64 {
	return g.dims[0]
}
