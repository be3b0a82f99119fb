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
	"math"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// ErrCoverage is returned when the population raster does not cover the
// requested bounding region.
var ErrCoverage = errors.New("superblockify: raster does not cover the requested bounds")

// ErrRasterValue is returned when a raster holds a negative or non-finite
// population value.
var ErrRasterValue = errors.New("superblockify: invalid raster value")

// RasterWindow is a rectangular window of gridded population counts in an
// equal-area projected coordinate system. Data holds people per pixel with
// shape [ny][nx]; row 0 is the southernmost row and pixel (0, 0) has its
// lower-left corner at (Xo, Yo). Nodata pixels are stored as 0.
type RasterWindow struct {
	Data   *sparse.DenseArray
	Xo, Yo float64 // lower left corner of the window
	Dx, Dy float64 // pixel size, m
}

// Nx returns the number of pixel columns in the window.
func (w *RasterWindow) Nx() int { return w.Data.Shape[1] }

// Ny returns the number of pixel rows in the window.
func (w *RasterWindow) Ny() int { return w.Data.Shape[0] }

// Bounds returns the rectangular extent of the window.
func (w *RasterWindow) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: w.Xo, Y: w.Yo},
		Max: geom.Point{
			X: w.Xo + w.Dx*float64(w.Nx()),
			Y: w.Yo + w.Dy*float64(w.Ny()),
		},
	}
}

// Total returns the total population mass in the window.
func (w *RasterWindow) Total() float64 { return floats.Sum(w.Data.Elements) }

// pixelPolygon returns the outline of pixel (j, i).
func (w *RasterWindow) pixelPolygon(j, i int) geom.Polygon {
	l := w.Xo + w.Dx*float64(i)
	r := l + w.Dx
	b := w.Yo + w.Dy*float64(j)
	u := b + w.Dy
	// Polygon must go counter-clockwise.
	return geom.Polygon{{{X: l, Y: b}, {X: r, Y: b}, {X: r, Y: u}, {X: l, Y: u}, {X: l, Y: b}}}
}

// center returns the center point of pixel (j, i).
func (w *RasterWindow) center(j, i int) geom.Point {
	return geom.Point{
		X: w.Xo + w.Dx*(float64(i)+0.5),
		Y: w.Yo + w.Dy*(float64(j)+0.5),
	}
}

// validate checks that every pixel holds a finite, non-negative value.
func (w *RasterWindow) validate() error {
	for i, v := range w.Data.Elements {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %g at element %d", ErrRasterValue, v, i)
		}
	}
	return nil
}

// Upsample resamples the window by integer factor k using nearest-neighbor
// replication, dividing every value by k² so that the total population mass
// is conserved. k = 1 returns the receiver unchanged.
func (w *RasterWindow) Upsample(k int) (*RasterWindow, error) {
	if k < 1 {
		return nil, fmt.Errorf("superblockify: invalid upsample factor %d", k)
	}
	if k == 1 {
		return w, nil
	}
	ny, nx := w.Ny(), w.Nx()
	out := sparse.ZerosDense(ny*k, nx*k)
	mass := float64(k * k)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v := w.Data.Get(j, i) / mass
			for jj := 0; jj < k; jj++ {
				for ii := 0; ii < k; ii++ {
					out.Set(v, j*k+jj, i*k+ii)
				}
			}
		}
	}
	o := &RasterWindow{
		Data: out,
		Xo:   w.Xo, Yo: w.Yo,
		Dx: w.Dx / float64(k), Dy: w.Dy / float64(k),
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// clip returns a copy of the window with every pixel value limited to
// cutoff. Non-positive cutoffs disable clipping and return the receiver.
func (w *RasterWindow) clip(cutoff float64) *RasterWindow {
	if cutoff <= 0 {
		return w
	}
	o := &RasterWindow{
		Data: w.Data.Copy(),
		Xo:   w.Xo, Yo: w.Yo, Dx: w.Dx, Dy: w.Dy,
	}
	for i, v := range o.Data.Elements {
		if v > cutoff {
			o.Data.Elements[i] = cutoff
		}
	}
	return o
}

// ReadPopulationWindow reads the part of a COARDS-compliant NetCDF population
// raster that covers bounds, optionally upsampled by an integer factor
// (values below 2 leave the grid at its native resolution). The file must
// contain "x" and "y" coordinate variables giving pixel centers in an
// equal-area projected coordinate system and one floating-point variable
// with dimensions [y, x] holding people per pixel. Pixels equal to the
// variable's _FillValue are treated as unpopulated.
func ReadPopulationWindow(rw cdf.ReaderWriterAt, bounds *geom.Bounds, upsample int) (*RasterWindow, error) {
	nc, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("superblockify: opening population raster: %v", err)
	}
	x, err := readCoordVar(nc, "x")
	if err != nil {
		return nil, err
	}
	y, err := readCoordVar(nc, "y")
	if err != nil {
		return nil, err
	}
	if len(x) < 2 || len(y) < 2 {
		return nil, fmt.Errorf("superblockify: population raster is smaller than 2x2 pixels")
	}
	dx := x[1] - x[0]
	if dx <= 0 {
		return nil, fmt.Errorf("superblockify: x coordinates must be ascending")
	}
	yAscending := y[1] > y[0]
	dy := math.Abs(y[1] - y[0])
	nx, ny := len(x), len(y)

	// Edges of the full raster.
	xMin := x[0] - dx/2
	xMax := x[nx-1] + dx/2
	var yMin float64
	if yAscending {
		yMin = y[0] - dy/2
	} else {
		yMin = y[ny-1] - dy/2
	}
	yMax := yMin + dy*float64(ny)

	tol := 1e-9 * (dx + dy)
	if bounds.Min.X < xMin-tol || bounds.Max.X > xMax+tol ||
		bounds.Min.Y < yMin-tol || bounds.Max.Y > yMax+tol {
		return nil, fmt.Errorf("%w: want [%g %g %g %g], have [%g %g %g %g]",
			ErrCoverage, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y,
			xMin, yMin, xMax, yMax)
	}

	i0 := clampIndex(int(math.Floor((bounds.Min.X-xMin)/dx)), nx-1)
	i1 := clampIndex(int(math.Ceil((bounds.Max.X-xMin)/dx)), nx)
	if i1 <= i0 {
		i1 = i0 + 1
	}
	j0 := clampIndex(int(math.Floor((bounds.Min.Y-yMin)/dy)), ny-1)
	j1 := clampIndex(int(math.Ceil((bounds.Max.Y-yMin)/dy)), ny)
	if j1 <= j0 {
		j1 = j0 + 1
	}

	// File rows run north to south when the y coordinate descends.
	jf0, jf1 := j0, j1
	if !yAscending {
		jf0, jf1 = ny-j1, ny-j0
	}

	v, err := popVariable(nc)
	if err != nil {
		return nil, err
	}
	wnx, wny := i1-i0, j1-j0
	// Read full rows and slice out the wanted columns afterwards: cdf
	// reads a contiguous range between the two offsets (end indices
	// inclusive), so windowing the trailing dimension would splice in the
	// row-major continuation instead of a rectangular sub-window.
	r := nc.Reader(v, []int{jf0, 0}, []int{jf1 - 1, nx - 1})
	buf := r.Zero(nx * wny)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("superblockify: reading population variable %s: %v", v, err)
	}
	vals, err := bufToFloat(buf)
	if err != nil {
		return nil, fmt.Errorf("superblockify: population variable %s: %v", v, err)
	}
	if fill, ok := fillValue(nc, v); ok {
		for i, val := range vals {
			if val == fill {
				vals[i] = 0
			}
		}
	}

	data := sparse.ZerosDense(wny, wnx)
	for jj := 0; jj < wny; jj++ {
		srcRow := jj
		if !yAscending {
			srcRow = wny - 1 - jj
		}
		copy(data.Elements[jj*wnx:(jj+1)*wnx], vals[srcRow*nx+i0:srcRow*nx+i1])
	}
	w := &RasterWindow{
		Data: data,
		Xo:   xMin + dx*float64(i0),
		Yo:   yMin + dy*float64(j0),
		Dx:   dx, Dy: dy,
	}
	if err := w.validate(); err != nil {
		return nil, err
	}
	if upsample > 1 {
		return w.Upsample(upsample)
	}
	return w, nil
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}

// readCoordVar reads a one-dimensional floating point coordinate variable.
func readCoordVar(nc *cdf.File, v string) ([]float64, error) {
	dims := nc.Header.Lengths(v)
	if len(dims) != 1 {
		return nil, fmt.Errorf("superblockify: missing raster coordinate variable %s", v)
	}
	r := nc.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("superblockify: reading raster coordinate %s: %v", v, err)
	}
	vals, err := bufToFloat(buf)
	if err != nil {
		return nil, fmt.Errorf("superblockify: raster coordinate %s: %v", v, err)
	}
	return vals, nil
}

// popVariable finds the variable holding population counts: the first
// floating-point variable with dimensions [y, x].
func popVariable(nc *cdf.File) (string, error) {
	for _, v := range nc.Header.Variables() {
		dims := nc.Header.Dimensions(v)
		if len(dims) != 2 || dims[0] != "y" || dims[1] != "x" {
			continue
		}
		switch nc.Reader(v, nil, nil).Zero(1).(type) {
		case []float32, []float64:
			return v, nil
		}
	}
	return "", fmt.Errorf("superblockify: raster has no floating-point variable with dimensions [y, x]")
}

func bufToFloat(buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		vals := make([]float64, len(b))
		for i, v := range b {
			vals[i] = float64(v)
		}
		return vals, nil
	default:
		return nil, fmt.Errorf("unsupported data type %T", buf)
	}
}

func fillValue(nc *cdf.File, v string) (float64, bool) {
	a := nc.Header.GetAttribute(v, "_FillValue")
	if a == nil {
		return 0, false
	}
	switch f := a.(type) {
	case []float32:
		if len(f) > 0 {
			return float64(f[0]), true
		}
	case []float64:
		if len(f) > 0 {
			return f[0], true
		}
	}
	return 0, false
}
