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

// Strategy selects how raster population counts are allocated to road cells.
type Strategy string

const (
	// StrategyIntersection polygonizes the raster into contiguous
	// equal-valued regions and splits each region's population among the
	// road cells it intersects, proportionally to the intersected area.
	// This is the default; it avoids materializing a resampled grid and
	// scales to large study areas.
	StrategyIntersection Strategy = "polygon-intersection"

	// StrategyUpsampled resamples the raster to a finer resolution with
	// nearest-neighbor replication and sums the pixels whose centers fall
	// inside each road cell. Uses k² times more memory than the raw grid
	// but resolves cell boundaries better.
	StrategyUpsampled Strategy = "upsampled"
)

// DefaultMAPEUrban is the mean absolute percentage error of the GHS-POP
// raster in urban areas, as reported in the product validation literature.
// It is the scale parameter of the triangular error model in
// PopulationUncertainty.
const DefaultMAPEUrban = 0.218

// Config holds the parameters for population aggregation. It is passed by
// value and never modified, so one Config can be shared between runs.
type Config struct {
	// Strategy selects the spatial-join strategy. The zero value selects
	// StrategyIntersection.
	Strategy Strategy

	// UpsampleFactor is the integer resampling factor for
	// StrategyUpsampled. Values below 2 leave the grid at its native
	// resolution.
	UpsampleFactor int

	// MAPEUrban is the mean absolute percentage error assumed for raster
	// values, used to attach an uncertainty to every aggregated
	// population.
	MAPEUrban float64

	// PopulationCutoff, if positive, clips single raster values to this
	// limit before aggregation. The GHS-POP raster contains a small number
	// of implausibly large single-pixel artifacts; this is an explicit
	// opt-in guard against them, off by default.
	PopulationCutoff float64

	// CacheLoc is the location where aggregation results are stored.
	// It can be empty (results are cached in memory), a directory on
	// the local filesystem, or an HTTP address.
	CacheLoc string

	// MaxCacheEntries is the maximum number of aggregation results to
	// hold in the memory cache.
	MaxCacheEntries int
}

// DefaultConfig returns the recommended aggregation parameters.
func DefaultConfig() Config {
	return Config{
		Strategy:        StrategyIntersection,
		UpsampleFactor:  2,
		MAPEUrban:       DefaultMAPEUrban,
		MaxCacheEntries: 10,
	}
}
