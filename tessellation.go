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
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"

	"github.com/cbueth/superblockify/internal/hash"
)

// MollweideProj is the spatial reference of the GHS-POP raster (World
// Mollweide, ESRI:54009), in Proj4 format. Mollweide is equal-area, which
// keeps the population densities computed here unbiased.
const MollweideProj = "+proj=moll +lon_0=0 +x_0=0 +y_0=0 +ellps=WGS84 +datum=WGS84 +units=m +no_defs"

// ErrDegenerateGeometry is returned when a density is requested for a cell
// with zero area.
var ErrDegenerateGeometry = errors.New("superblockify: zero-area cell geometry")

// RoadCell is one polygonal region of the street-network tessellation, the
// atomic unit of population aggregation. Cells are built once per
// tessellation and not modified afterwards; Population and Uncertainty are
// filled in during annotation.
type RoadCell struct {
	geom.Polygonal

	// ID is the stable identity of the cell within its tessellation.
	// Edges that bound the same tessellated face reference the same ID.
	ID int

	// Population is the number of people living in the cell.
	Population float64

	// Uncertainty is the standard deviation of Population under the
	// triangular raster error model.
	Uncertainty float64

	// Area is the cell area in m².
	Area float64
}

// Density returns the population density of the cell in people per m².
func (c *RoadCell) Density() (float64, error) {
	if c.Area == 0 {
		return 0, fmt.Errorf("%w: cell %d", ErrDegenerateGeometry, c.ID)
	}
	return c.Population / c.Area, nil
}

// EdgeID identifies a directed street-graph edge by the IDs of its end
// nodes.
type EdgeID struct {
	From, To int64
}

// Tessellation maps every edge of a street graph to its road cell. Edges
// whose polygons have identical geometry, such as the two directions of one
// street, share a single cell.
type Tessellation struct {
	cells     []*RoadCell
	edgeCells map[EdgeID]*RoadCell
	key       string
}

// NewTessellation groups per-edge cell polygons into road cells. Polygons
// must be in the same equal-area projected coordinate system as the
// population raster they will be combined with. Cell IDs are assigned in
// edge-ID order, so the same input always produces the same IDs.
func NewTessellation(edgePolys map[EdgeID]geom.Polygonal) *Tessellation {
	ids := make([]EdgeID, 0, len(edgePolys))
	for id := range edgePolys {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].From != ids[j].From {
			return ids[i].From < ids[j].From
		}
		return ids[i].To < ids[j].To
	})

	t := &Tessellation{edgeCells: make(map[EdgeID]*RoadCell, len(ids))}
	byGeom := make(map[string]*RoadCell)
	geomKeys := make([]string, 0, len(ids))
	for _, id := range ids {
		poly := edgePolys[id]
		gk := hash.Hash(poly)
		c, ok := byGeom[gk]
		if !ok {
			c = &RoadCell{
				Polygonal: poly,
				ID:        len(t.cells),
				Area:      poly.Area(),
			}
			byGeom[gk] = c
			t.cells = append(t.cells, c)
			geomKeys = append(geomKeys, gk)
		}
		t.edgeCells[id] = c
	}
	t.key = hash.Hash(geomKeys)
	return t
}

// Cells returns the distinct road cells of the tessellation, ordered by ID.
func (t *Tessellation) Cells() []*RoadCell { return t.cells }

// Bounds returns the rectangular extent of the tessellation.
func (t *Tessellation) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	for _, c := range t.cells {
		b.Extend(c.Bounds())
	}
	return b
}

// cellForEdge looks up the cell of a directed edge, falling back to the
// opposite direction.
func (t *Tessellation) cellForEdge(id EdgeID) (*RoadCell, bool) {
	if c, ok := t.edgeCells[id]; ok {
		return c, true
	}
	c, ok := t.edgeCells[EdgeID{From: id.To, To: id.From}]
	return c, ok
}

// LoadTessellation reads a tessellation from a polygon shapefile with
// integer attribute columns "u" and "v" naming the end nodes of the street
// edge each polygon belongs to, reprojecting the geometry into sr.
func LoadTessellation(filename string, sr *proj.SR) (*Tessellation, error) {
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	srcSR, err := d.SR()
	if err != nil {
		return nil, err
	}
	trans, err := srcSR.NewTransform(sr)
	if err != nil {
		return nil, err
	}

	polys := make(map[EdgeID]geom.Polygonal)
	for {
		g, fields, more := d.DecodeRowFields("u", "v")
		if !more {
			break
		}
		u, err := s2i(fields["u"])
		if err != nil {
			return nil, fmt.Errorf("superblockify: loading tessellation: parsing node attribute u: %v", err)
		}
		v, err := s2i(fields["v"])
		if err != nil {
			return nil, fmt.Errorf("superblockify: loading tessellation: parsing node attribute v: %v", err)
		}
		gg, err := g.Transform(trans)
		if err != nil {
			return nil, err
		}
		p, ok := gg.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("superblockify: loading tessellation: cell geometries need to be polygons, got %T", gg)
		}
		polys[EdgeID{From: u, To: v}] = p
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("superblockify: loading tessellation: %v", err)
	}
	return NewTessellation(polys), nil
}

func s2i(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
