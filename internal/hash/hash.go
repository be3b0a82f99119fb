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
along with superblockify.  If not, see <http://www.gnu.org/licenses/>.*/

// Package hash derives stable string keys from arbitrary values. The keys
// identify cell geometries and aggregation cache entries, so equal values
// must always hash equally across processes.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
)

// spewConfig formats values deterministically, independent of pointer
// addresses and map iteration order.
var spewConfig = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Hash returns a stable key for object. Stringers are keyed by their own
// String method; everything else is hashed through its gob encoding, falling
// back to a printed representation for values gob cannot encode (e.g.
// containing NaN).
func Hash(object interface{}) string {
	if s, ok := object.(fmt.Stringer); ok {
		return s.String()
	}
	h := fnv.New128a()
	if err := gob.NewEncoder(h).Encode(object); err != nil {
		spewConfig.Fprintf(h, "%#v", object)
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:h.Size()])
}
