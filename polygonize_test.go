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
	"sort"
	"testing"
)

func TestPolygonize(t *testing.T) {
	// Two 4-connected regions (value 5 and value 2) and an unpopulated
	// pixel. The L-shaped 5-region connects through its corner pixel.
	w := newTestWindow([][]float64{
		{5, 5, 0},
		{5, 2, 2},
	}, 0, 0, 100)

	polys := w.polygonize()
	if len(polys) != 2 {
		t.Fatalf("got %d raster polygons, want 2", len(polys))
	}
	sort.Slice(polys, func(i, j int) bool { return polys[i].population > polys[j].population })

	if different(polys[0].population, 15, 1e-12) {
		t.Errorf("region population = %g, want 15", polys[0].population)
	}
	if different(polys[0].Area(), 3*100*100, 1e-9) {
		t.Errorf("region area = %g, want 30000", polys[0].Area())
	}
	if different(polys[1].population, 4, 1e-12) {
		t.Errorf("region population = %g, want 4", polys[1].population)
	}
	if different(polys[1].Area(), 2*100*100, 1e-9) {
		t.Errorf("region area = %g, want 20000", polys[1].Area())
	}

	// Polygonization conserves the window's population mass.
	var total float64
	for _, p := range polys {
		total += p.population
	}
	if different(total, w.Total(), 1e-12) {
		t.Errorf("polygon total = %g, window total = %g", total, w.Total())
	}
}

func TestPolygonizeSinglePixels(t *testing.T) {
	// All values distinct: every populated pixel becomes its own polygon.
	w := newTestWindow([][]float64{
		{1, 2},
		{3, 0},
	}, 0, 0, 100)

	polys := w.polygonize()
	if len(polys) != 3 {
		t.Fatalf("got %d raster polygons, want 3", len(polys))
	}
	for _, p := range polys {
		if different(p.Area(), 100*100, 1e-9) {
			t.Errorf("pixel polygon area = %g, want 10000", p.Area())
		}
	}
}

func TestRuns(t *testing.T) {
	got := runs([]int{4, 0, 1, 2, 6, 5})
	want := [][2]int{{0, 2}, {4, 6}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("run %d = %v, want %v", i, got[i], want[i])
		}
	}
}
