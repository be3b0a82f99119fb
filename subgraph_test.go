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
	"math"
	"testing"

	"gonum.org/v1/gonum/graph/simple"
)

// subgraphFixture builds a graph whose edges already carry cell
// attributes: the street 1↔2 shares cell 0 (40 people, 4000 m²) and edge
// 2→3 has cell 1 (10 people, 1000 m²).
func subgraphFixture() *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	for _, spec := range []struct {
		from, to         int64
		cellID           int
		population, area float64
	}{
		{1, 2, 0, 40, 4000},
		{2, 1, 0, 40, 4000},
		{2, 3, 1, 10, 1000},
	} {
		e := NewStreetEdge(simple.Node(spec.from), simple.Node(spec.to))
		e.CellID = spec.cellID
		e.Population = spec.population
		e.Area = spec.area
		e.Uncertainty = PopulationUncertainty(spec.population, DefaultMAPEUrban)
		g.SetEdge(e)
	}
	return g
}

// Edges that share a cell contribute it once.
func TestAggregatePopulation(t *testing.T) {
	g := subgraphFixture()
	pop, area, err := AggregatePopulation(g.Edges())
	if err != nil {
		t.Fatal(err)
	}
	if different(pop, 50, 1e-9) {
		t.Errorf("population = %g, want 40+10 = 50", pop)
	}
	if different(area, 5000, 1e-9) {
		t.Errorf("area = %g, want 4000+1000 = 5000", area)
	}
	density, err := Density(pop, area)
	if err != nil {
		t.Fatal(err)
	}
	if different(density, 0.01, 1e-9) {
		t.Errorf("density = %g, want 0.01", density)
	}
}

func TestAggregatePopulationUnannotated(t *testing.T) {
	g := simple.NewDirectedGraph()
	g.SetEdge(NewStreetEdge(simple.Node(1), simple.Node(2)))
	if _, _, err := AggregatePopulation(g.Edges()); !errors.Is(err, ErrMissingAttributes) {
		t.Fatalf("got %v, want ErrMissingAttributes", err)
	}
}

func TestAggregatePopulationEmpty(t *testing.T) {
	g := simple.NewDirectedGraph()
	pop, area, err := AggregatePopulation(g.Edges())
	if err != nil {
		t.Fatal(err)
	}
	if pop != 0 || area != 0 {
		t.Errorf("empty graph aggregated to (%g, %g)", pop, area)
	}
}

func TestDensityDegenerate(t *testing.T) {
	if _, err := Density(10, 0); !errors.Is(err, ErrDegenerateGeometry) {
		t.Fatalf("got %v, want ErrDegenerateGeometry", err)
	}
}

// Per-cell uncertainty propagation over a subgraph, counting each cell once.
func TestSubgraphDensityUncertainty(t *testing.T) {
	g := subgraphFixture()
	got, err := SubgraphDensityUncertainty(g.Edges(), DefaultMAPEUrban)
	if err != nil {
		t.Fatal(err)
	}
	u0 := PopulationUncertainty(40, DefaultMAPEUrban) / 4000
	u1 := PopulationUncertainty(10, DefaultMAPEUrban) / 1000
	want := math.Sqrt(u0*u0 + u1*u1)
	if different(got, want, 1e-12) {
		t.Errorf("got %g, want %g", got, want)
	}
}
