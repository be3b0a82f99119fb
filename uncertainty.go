/*
Copyright © 2023 the superblockify authors.
This file is part of superblockify.

superblockify is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

superblockify is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with superblockify.  If not, see <http://www.gnu.org/licenses/>.
*/

package superblockify

import (
	"fmt"
	"math"
)

// The raster error model: each population value p is assumed to carry a
// symmetric triangular error distribution of half-width p·mape, which has
// standard deviation p·mape/√6. Areas are treated as exact, so aggregate
// uncertainties follow from the per-cell population uncertainties alone.

// PopulationUncertainty returns the standard deviation of a population value
// p given the raster's mean absolute percentage error.
func PopulationUncertainty(p, mape float64) float64 {
	return p * mape / math.Sqrt(6)
}

// CellStat is the population and area of one road cell, the inputs to the
// aggregate uncertainty rules.
type CellStat struct {
	Population float64
	Area       float64 // m²
}

// DensityUncertainty returns the standard deviation of the aggregated
// population density of a set of cells, propagating the per-cell population
// uncertainties through the weighted sum
//
//	u(ρ) = sqrt(Σ (u(pᵢ)/Aᵢ)²).
//
// It is a pure function of the given cells.
func DensityUncertainty(cells []CellStat, mape float64) (float64, error) {
	var s float64
	for i, c := range cells {
		if c.Area == 0 {
			return 0, fmt.Errorf("%w: cell at index %d", ErrDegenerateGeometry, i)
		}
		u := PopulationUncertainty(c.Population, mape)
		s += (u / c.Area) * (u / c.Area)
	}
	return math.Sqrt(s), nil
}

// AggregateDensityUncertainty is the closed form of DensityUncertainty for a
// uniform mean absolute percentage error: the aggregated density scaled by
// mape/√6.
func AggregateDensityUncertainty(density, mape float64) float64 {
	return density * mape / math.Sqrt(6)
}
