package storage

import "math"

// LossBreakdown is the heat loss of a storage split by boundary, in kW.
type LossBreakdown struct {
	Top    float64 `json:"top_kw"`
	Side   float64 `json:"side_kw"`
	Bottom float64 `json:"bottom_kw"`
}

// Total returns the summed loss in kW.
func (l LossBreakdown) Total() float64 {
	return l.Top + l.Side + l.Bottom
}

// conductances holds the boundary heat transfer coefficients times area (W/K).
type conductances struct {
	top    float64 // to ambient
	side   float64 // to ambient for overground tanks, to soil otherwise
	bottom float64 // to soil

	sideToSoil bool
	// combined marks underground cylinders where side and bottom share one conductance.
	combined bool
}

// HeatLossModel evaluates the conductive losses of one storage.
type HeatLossModel struct {
	ua conductances
}

// NewHeatLossModel precomputes the boundary conductances. p must have passed Validate.
func NewHeatLossModel(p Params, g Geometry) HeatLossModel {
	var ua conductances

	planar := func(lambda, thickness, area float64) float64 {
		return lambda / thickness * area
	}

	switch g.Type {
	case CylindricalOverground:
		ua.top = planar(p.LambdaTop, p.DtTop, g.STop)
		ua.side = planar(p.LambdaSide, p.DsSide, g.SSide)
		// Bottom insulation in series with hemispherical spreading into the ground.
		rSoil := 4 * g.radius() / (3 * math.Pi * p.LambdaSoil)
		ua.bottom = g.SBottom / (p.DbBottom/p.LambdaBottom + rSoil)

	case CylindricalUnderground:
		ua.top = planar(p.LambdaTop, p.DtTop, g.STop)
		k := 1 / (p.DsSide/p.LambdaSide + 0.52*g.radius()/p.LambdaSoil)
		ua.side = k * g.SSide
		ua.bottom = k * g.SBottom
		ua.sideToSoil = true
		ua.combined = true

	case TruncatedCone, TruncatedTrapezoid:
		// Covered pit: no top boundary, side and bottom lose to the soil.
		b := math.Pi / p.LambdaSoil
		h := g.Height
		a := p.DsSide/p.LambdaSide + math.Pi*h/(2*p.LambdaSoil)
		kSide := math.Log((a+b*h)/a) / (b * h)
		ua.side = kSide * g.SSide

		l := g.characteristicBottomLength()
		c := p.DbBottom/p.LambdaBottom + math.Pi*h/(2*p.LambdaSoil)
		kBottom := math.Log((c+b*l)/c) / (b * l)
		ua.bottom = kBottom * g.SBottom
		ua.sideToSoil = true
	}

	return HeatLossModel{ua: ua}
}

func (m HeatLossModel) sideReference(b Boundary) float64 {
	if m.ua.sideToSoil {
		return b.TSoil
	}
	return b.TAmb
}

// HeatLoss returns the loss of a well-mixed storage at temperature temp.
func (m HeatLossModel) HeatLoss(temp float64, b Boundary) LossBreakdown {
	return LossBreakdown{
		Top:    m.ua.top * (temp - b.TAmb) / 1000,
		Side:   m.ua.side * (temp - m.sideReference(b)) / 1000,
		Bottom: m.ua.bottom * (temp - b.TSoil) / 1000,
	}
}

// StratifiedHeatLoss writes the loss of every layer (kW) into perLayer and returns the total.
// Layer 0 carries the top boundary, the last layer the bottom boundary, and the side boundary
// is shared equally. For underground cylinders the combined side and bottom conductance is
// shared by all layers below the top one.
func (m HeatLossModel) StratifiedHeatLoss(temps []float64, b Boundary, perLayer []float64) float64 {
	n := len(temps)
	last := n - 1
	sideRef := m.sideReference(b)

	for i := range perLayer {
		perLayer[i] = 0
	}
	perLayer[0] += m.ua.top * (temps[0] - b.TAmb)

	if m.ua.combined {
		ground := m.ua.side + m.ua.bottom
		if n == 1 {
			perLayer[0] += ground * (temps[0] - b.TSoil)
		} else {
			share := ground / float64(n-1)
			for i := 1; i < n; i++ {
				perLayer[i] += share * (temps[i] - b.TSoil)
			}
		}
	} else {
		share := m.ua.side / float64(n)
		for i := 0; i < n; i++ {
			perLayer[i] += share * (temps[i] - sideRef)
		}
		perLayer[last] += m.ua.bottom * (temps[last] - b.TSoil)
	}

	var total float64
	for i := range perLayer {
		perLayer[i] /= 1000
		total += perLayer[i]
	}
	return total
}

// TotalConductance returns the summed boundary conductance in W/K.
func (m HeatLossModel) TotalConductance() float64 {
	return m.ua.top + m.ua.side + m.ua.bottom
}
