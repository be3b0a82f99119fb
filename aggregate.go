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
	"runtime"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// AggregateCells computes the population of every road cell from a raster
// window using the configured strategy and attaches the matching
// uncertainty. Cell populations are overwritten, never accumulated, so the
// call is safe to repeat. Cells without raster coverage end up with
// population 0.
func (cfg Config) AggregateCells(cells []*RoadCell, w *RasterWindow) error {
	if err := w.validate(); err != nil {
		return err
	}
	w = w.clip(cfg.PopulationCutoff)
	for _, c := range cells {
		c.Population = 0
	}
	switch cfg.Strategy {
	case StrategyUpsampled:
		if err := cfg.aggregateUpsampled(cells, w); err != nil {
			return err
		}
	case "", StrategyIntersection:
		aggregateIntersection(cells, w)
	default:
		return fmt.Errorf("superblockify: unknown aggregation strategy %q", cfg.Strategy)
	}
	for _, c := range cells {
		c.Uncertainty = PopulationUncertainty(c.Population, cfg.MAPEUrban)
	}
	return nil
}

// aggregateIntersection polygonizes the raster and splits each raster
// polygon's population among the road cells it intersects, proportionally to
// the intersected area. Raster mass outside every cell is dropped, not
// redistributed. Each goroutine owns a disjoint stride of cells, so no
// accumulator is shared.
func aggregateIntersection(cells []*RoadCell, w *RasterWindow) {
	tree := rtree.NewTree(25, 50)
	for _, p := range w.polygonize() {
		tree.Insert(p)
	}

	ncpu := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(ncpu)
	for p := 0; p < ncpu; p++ {
		go func(p int) {
			for i := p; i < len(cells); i += ncpu {
				c := cells[i]
				var pop float64
				for _, pI := range tree.SearchIntersect(c.Bounds()) {
					rp := pI.(*rasterPolygon)
					isectArea := c.Intersection(rp).Area()
					if isectArea == 0 {
						continue
					}
					polyArea := rp.Area() // we want to conserve the total population
					if polyArea == 0. {
						panic("divide by zero")
					}
					pop += rp.population * isectArea / polyArea
				}
				c.Population = pop
			}
			wg.Done()
		}(p)
	}
	wg.Wait()
}

// aggregateUpsampled resamples the raster by the configured factor and sums
// the pixels whose centers fall inside each cell, without partial-pixel
// weighting. A center lying on a shared cell boundary counts toward the cell
// with the lowest ID only.
func (cfg Config) aggregateUpsampled(cells []*RoadCell, w *RasterWindow) error {
	k := cfg.UpsampleFactor
	if k < 1 {
		k = 1
	}
	wu, err := w.Upsample(k)
	if err != nil {
		return err
	}

	tree := rtree.NewTree(25, 50)
	for _, c := range cells {
		tree.Insert(c)
	}
	for j := 0; j < wu.Ny(); j++ {
		for i := 0; i < wu.Nx(); i++ {
			v := wu.Data.Get(j, i)
			if v == 0 {
				continue
			}
			pt := wu.center(j, i)
			var best *RoadCell
			for _, cI := range tree.SearchIntersect(pt.Bounds()) {
				c := cI.(*RoadCell)
				if pt.Within(c.Polygonal) == geom.Outside {
					continue
				}
				if best == nil || c.ID < best.ID {
					best = c
				}
			}
			if best != nil {
				best.Population += v
			}
		}
	}
	return nil
}
