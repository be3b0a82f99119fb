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

// Package superblockify distributes gridded population counts onto the
// polygonal tessellation of a road network and attaches the results to the
// edges of a street graph.
//
// The road network is assumed to have been tessellated beforehand: every
// graph edge is associated with one polygonal cell in an equal-area projected
// coordinate system, and edges that bound the same face (for example the two
// directions of one street) share one cell. Population counts come from a
// gridded raster such as GHS-POP, read through a windowed NetCDF interface.
//
// An Annotator computes each cell's population once per tessellation and
// writes {population, area, cell id} onto the graph edges; afterwards the
// population and area of an arbitrary subgraph can be summed cheaply with
// AggregatePopulation, which counts every cell exactly once no matter how
// many edges reference it. Uncertainties of the resulting densities follow a
// triangular error model parameterized by the raster's documented mean
// absolute percentage error.
package superblockify
