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
	"context"
	"testing"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/graph/simple"
)

// annotateFixture builds a 2×2 population raster, a three-node street graph
// and a two-cell tessellation covering it: the street 1↔2 bounds the left
// column (10+30 people), edge 2→3 the right column (20+40 people).
func annotateFixture(t *testing.T) (*simple.DirectedGraph, *Tessellation, *Annotator) {
	f := writeTestRaster(t, [][]float64{
		{10, 20},
		{30, 40},
	}, 0, 0, 100)

	g := simple.NewDirectedGraph()
	for _, e := range [][2]int64{{1, 2}, {2, 1}, {2, 3}} {
		g.SetEdge(NewStreetEdge(simple.Node(e[0]), simple.Node(e[1])))
	}

	left := rect(0, 0, 100, 200)
	right := rect(100, 0, 200, 200)
	tess := NewTessellation(map[EdgeID]geom.Polygonal{
		{From: 1, To: 2}: left,
		{From: 2, To: 1}: left,
		{From: 2, To: 3}: right,
	})
	return g, tess, NewAnnotator(DefaultConfig(), f)
}

func TestAnnotate(t *testing.T) {
	g, tess, a := annotateFixture(t)
	if err := a.Annotate(context.Background(), g, tess); err != nil {
		t.Fatal(err)
	}

	byEdge := make(map[EdgeID]*StreetEdge)
	edges := g.Edges()
	for edges.Next() {
		e := edges.Edge().(*StreetEdge)
		byEdge[EdgeID{From: e.From().ID(), To: e.To().ID()}] = e
	}
	if len(byEdge) != 3 {
		t.Fatalf("got %d edges, want 3", len(byEdge))
	}

	fwd := byEdge[EdgeID{From: 1, To: 2}]
	rev := byEdge[EdgeID{From: 2, To: 1}]
	other := byEdge[EdgeID{From: 2, To: 3}]

	if fwd.CellID < 0 || other.CellID < 0 {
		t.Fatal("edges were not annotated")
	}
	if fwd.CellID != rev.CellID {
		t.Errorf("directions of one street have cell IDs %d and %d", fwd.CellID, rev.CellID)
	}
	if fwd.CellID == other.CellID {
		t.Error("distinct faces share a cell ID")
	}
	if different(fwd.Population, 40, 1e-9) {
		t.Errorf("left column population = %g, want 40", fwd.Population)
	}
	if different(other.Population, 60, 1e-9) {
		t.Errorf("right column population = %g, want 60", other.Population)
	}
	if different(fwd.Area, 20000, 1e-9) {
		t.Errorf("left column area = %g, want 20000", fwd.Area)
	}
	wantU := PopulationUncertainty(40, DefaultMAPEUrban)
	if different(fwd.Uncertainty, wantU, 1e-9) {
		t.Errorf("uncertainty = %g, want %g", fwd.Uncertainty, wantU)
	}
}

// Annotating again overwrites the attributes with identical values.
func TestAnnotateIdempotent(t *testing.T) {
	g, tess, a := annotateFixture(t)
	ctx := context.Background()
	if err := a.Annotate(ctx, g, tess); err != nil {
		t.Fatal(err)
	}
	if err := a.Annotate(ctx, g, tess); err != nil {
		t.Fatal(err)
	}
	edges := g.Edges()
	for edges.Next() {
		e := edges.Edge().(*StreetEdge)
		want := 40.
		if e.CellID == 1 {
			want = 60
		}
		if different(e.Population, want, 1e-9) {
			t.Errorf("edge %d->%d population drifted to %g after re-annotation",
				e.From().ID(), e.To().ID(), e.Population)
		}
	}
}

// The whole-graph aggregate equals the raster total when the tessellation
// covers the full raster, counting the shared cell once.
func TestAnnotateConservation(t *testing.T) {
	g, tess, a := annotateFixture(t)
	if err := a.Annotate(context.Background(), g, tess); err != nil {
		t.Fatal(err)
	}
	pop, area, err := AggregatePopulation(g.Edges())
	if err != nil {
		t.Fatal(err)
	}
	if different(pop, 100, 1e-9) {
		t.Errorf("graph population = %g, want raster total 100", pop)
	}
	if different(area, 40000, 1e-9) {
		t.Errorf("graph area = %g, want 40000", area)
	}
}

func TestAnnotateMissingCell(t *testing.T) {
	g, tess, a := annotateFixture(t)
	g.SetEdge(NewStreetEdge(simple.Node(3), simple.Node(4)))
	if err := a.Annotate(context.Background(), g, tess); err == nil {
		t.Fatal("edge without a tessellation cell should fail annotation")
	}
}

func TestReversedEdge(t *testing.T) {
	e := NewStreetEdge(simple.Node(1), simple.Node(2))
	e.CellID = 5
	r := e.ReversedEdge().(*StreetEdge)
	if r.From().ID() != 2 || r.To().ID() != 1 {
		t.Errorf("reversed edge is %d->%d", r.From().ID(), r.To().ID())
	}
	if r.CellID != 5 {
		t.Error("reversing an edge should keep its cell")
	}
	if e.From().ID() != 1 {
		t.Error("reversing must not modify the original edge")
	}
}
