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

	"github.com/ctessum/geom"
)

// rasterPolygon is one contiguous region of equal-valued raster pixels.
// population is the total count over the region, i.e. the shared pixel value
// times the number of merged pixels.
type rasterPolygon struct {
	geom.Polygonal
	population float64
}

// polygonize merges 4-connected pixels of equal value into polygons,
// discarding unpopulated regions. The returned polygons are disjoint and
// their populations sum to the window total.
func (w *RasterWindow) polygonize() []*rasterPolygon {
	ny, nx := w.Ny(), w.Nx()
	uf := newUnionFind(ny * nx)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v := w.Data.Get(j, i)
			if i > 0 && w.Data.Get(j, i-1) == v {
				uf.union(j*nx+i, j*nx+i-1)
			}
			if j > 0 && w.Data.Get(j-1, i) == v {
				uf.union(j*nx+i, (j-1)*nx+i)
			}
		}
	}

	regions := make(map[int][]int)
	for p := 0; p < ny*nx; p++ {
		if w.Data.Get1d(p) <= 0 {
			continue
		}
		root := uf.find(p)
		regions[root] = append(regions[root], p)
	}

	polys := make([]*rasterPolygon, 0, len(regions))
	for root, pixels := range regions {
		polys = append(polys, &rasterPolygon{
			Polygonal:  w.regionPolygon(pixels),
			population: w.Data.Get1d(root) * float64(len(pixels)),
		})
	}
	return polys
}

// regionPolygon unions the pixels of one region into a single polygon,
// merging horizontal runs first to keep the number of union operations down.
func (w *RasterWindow) regionPolygon(pixels []int) geom.Polygonal {
	nx := w.Nx()
	rows := make(map[int][]int)
	for _, p := range pixels {
		rows[p/nx] = append(rows[p/nx], p%nx)
	}
	var poly geom.Polygonal
	for j, cols := range rows {
		for _, run := range runs(cols) {
			l := w.Xo + w.Dx*float64(run[0])
			r := w.Xo + w.Dx*float64(run[1]+1)
			b := w.Yo + w.Dy*float64(j)
			u := b + w.Dy
			rect := geom.Polygon{{{X: l, Y: b}, {X: r, Y: b}, {X: r, Y: u}, {X: l, Y: u}, {X: l, Y: b}}}
			if poly == nil {
				poly = rect
			} else {
				poly = poly.Union(rect)
			}
		}
	}
	return poly
}

// runs splits a set of column indices into maximal consecutive [first, last]
// intervals.
func runs(cols []int) [][2]int {
	sort.Ints(cols)
	var o [][2]int
	start, prev := cols[0], cols[0]
	for _, c := range cols[1:] {
		if c == prev+1 {
			prev = c
			continue
		}
		o = append(o, [2]int{start, prev})
		start, prev = c, c
	}
	return append(o, [2]int{start, prev})
}

type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		size:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

func (uf *unionFind) union(i, j int) {
	ri, rj := uf.find(i), uf.find(j)
	if ri == rj {
		return
	}
	if uf.size[ri] < uf.size[rj] {
		ri, rj = rj, ri
	}
	uf.parent[rj] = ri
	uf.size[ri] += uf.size[rj]
}
