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
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph"
)

// ErrMissingAttributes is returned when a subgraph query encounters an edge
// that has not been annotated. Aggregation never triggers annotation
// implicitly; annotate the full graph once and query afterwards.
var ErrMissingAttributes = errors.New("superblockify: edge lacks population attributes")

// AggregatePopulation sums population and area over the edges of a
// subgraph. Each distinct road cell is counted exactly once no matter how
// many edges of the subgraph reference it; summing per edge instead would
// multiply shared cells by their edge multiplicity.
func AggregatePopulation(edges graph.Edges) (population, area float64, err error) {
	seen := make(map[int]struct{})
	for edges.Next() {
		e, ok := edges.Edge().(*StreetEdge)
		if !ok {
			return 0, 0, fmt.Errorf("superblockify: cannot aggregate edge of type %T", edges.Edge())
		}
		if e.CellID < 0 {
			return 0, 0, fmt.Errorf("%w: edge %d->%d", ErrMissingAttributes,
				e.From().ID(), e.To().ID())
		}
		if _, ok := seen[e.CellID]; ok {
			continue
		}
		seen[e.CellID] = struct{}{}
		population += e.Population
		area += e.Area
	}
	return population, area, nil
}

// Density converts an aggregated (population, area) pair into a population
// density in people per m².
func Density(population, area float64) (float64, error) {
	if area == 0 {
		return 0, ErrDegenerateGeometry
	}
	return population / area, nil
}

// SubgraphDensityUncertainty returns the standard deviation of a subgraph's
// population density, propagating the per-cell uncertainties of its distinct
// road cells through DensityUncertainty.
func SubgraphDensityUncertainty(edges graph.Edges, mape float64) (float64, error) {
	seen := make(map[int]struct{})
	var cells []CellStat
	for edges.Next() {
		e, ok := edges.Edge().(*StreetEdge)
		if !ok {
			return 0, fmt.Errorf("superblockify: cannot aggregate edge of type %T", edges.Edge())
		}
		if e.CellID < 0 {
			return 0, fmt.Errorf("%w: edge %d->%d", ErrMissingAttributes,
				e.From().ID(), e.To().ID())
		}
		if _, ok := seen[e.CellID]; ok {
			continue
		}
		seen[e.CellID] = struct{}{}
		cells = append(cells, CellStat{Population: e.Population, Area: e.Area})
	}
	return DensityUncertainty(cells, mape)
}
