// Copyright 2017 Hajime Hoshi
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package channel decodes the per-subframe channel-group partitioning and
// decorrelation parameters (§4.4) and applies the inverse transform
// (§4.10). Grounded on wmaprodec.c's decode_channel_transform/
// decode_decorrelation_matrix/inverse_channel_transform.
package channel

import (
	"fmt"

	"github.com/hajimehoshi/go-wmapro/internal/bitreader"
	"github.com/hajimehoshi/go-wmapro/internal/tables"
)

// Group is one channel-group's transform parameters, transient per
// subframe.
type Group struct {
	Channels         []int // channel indices, in stream order
	TransformEnabled bool
	AllBands         bool
	BandEnable       []bool // per scale-factor band, only meaningful if !AllBands
	Matrix           [][]int32 // Q1.30 (1.0 == 1<<30), NxN where N=len(Channels)

	// numStreamChannels is the stream's total channel count (not the
	// block's), needed to gate the 181/128 gain-compensation fallback in
	// Inverse/InverseBands on "the stream has 2 channels" per §4.10,
	// rather than on how many channels happen to be in this subframe's
	// coefficient map.
	numStreamChannels int
}

const cos45 = 0x2d413ccc // cos(pi/4) ~= 0.70710678 in Q1.30, per spec §4.4

// Decode parses the channel-transform block for a subframe spanning
// blockChannels channel slots (local indices 0..blockChannels-1), given the
// stream's total channel count (used to pick between the {1,-1;1,1} and
// cos45-scaled 2x2 matrices, §4.4, and stored in each Group to gate the
// 181/128 gain compensation, §4.10). It returns one Group per partition.
func Decode(r *bitreader.Reader, blockChannels, totalStreamChannels, numBands int) ([]Group, error) {
	if blockChannels <= 1 {
		return []Group{{Channels: []int{0}, numStreamChannels: totalStreamChannels}}, nil
	}
	if r.Bit() != 0 {
		return nil, fmt.Errorf("wmapro: reserved channel-transform bit set")
	}

	remaining := make([]int, blockChannels)
	for i := range remaining {
		remaining[i] = i
	}

	var groups []Group
	for len(remaining) > 0 {
		var members []int
		switch {
		case len(remaining) > 2:
			members = nil
			for _, ch := range remaining {
				if r.Bit() == 1 {
					members = append(members, ch)
				}
			}
			if len(members) == 0 {
				members = append(members, remaining[0])
			}
		default:
			members = remaining
		}
		g, err := decodeGroup(r, members, totalStreamChannels, numBands)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
		remaining = subtract(remaining, members)
	}
	return groups, nil
}

func subtract(all, used []int) []int {
	usedSet := map[int]bool{}
	for _, c := range used {
		usedSet[c] = true
	}
	var out []int
	for _, c := range all {
		if !usedSet[c] {
			out = append(out, c)
		}
	}
	return out
}

func decodeGroup(r *bitreader.Reader, members []int, numStreamChannels, numBands int) (Group, error) {
	g := Group{Channels: members, numStreamChannels: numStreamChannels}
	n := len(members)

	switch {
	case n == 2:
		identity := r.Bit() == 1
		if !identity {
			g.TransformEnabled = true
			var c int32
			if numStreamChannels == 2 {
				c = 1 << 30 // +-1.0, i.e. the plain {{1,-1},{1,1}} matrix
			} else {
				c = cos45
			}
			g.Matrix = [][]int32{{c, -c}, {c, c}}
		}
	case n > 2:
		enabled := r.Bit() == 1
		if enabled {
			g.TransformEnabled = true
			custom := r.Bit() == 1
			if custom {
				m, err := decodeCustomMatrix(r, n)
				if err != nil {
					return g, err
				}
				g.Matrix = m
			} else {
				m := tables.DefaultDecorrelationMatrix(n)
				if m == nil {
					// Unsupported group size (7,8): proceed with identity,
					// per spec §4.4 and §7 ("unknown coupling matrix size
					// >6 (default identity used)"). No warning is logged.
					m = identityMatrix(n)
				}
				g.Matrix = m
			}
		}
	default: // n == 1, no transform possible
	}

	if g.TransformEnabled {
		allBands := r.Bit() == 1
		g.AllBands = allBands
		if !allBands {
			g.BandEnable = decodeBandEnable(r, numBands)
		}
	}
	return g, nil
}

// decodeBandEnable reads one per-band enable bit for the subframe's actual
// scale-factor band count.
func decodeBandEnable(r *bitreader.Reader, numBands int) []bool {
	bits := make([]bool, numBands)
	for i := range bits {
		bits[i] = r.Bit() == 1
	}
	return bits
}

func identityMatrix(n int) [][]int32 {
	m := make([][]int32, n)
	for i := range m {
		m[i] = make([]int32, n)
		m[i][i] = 1 << 30
	}
	return m
}

// decodeCustomMatrix implements §4.4.1's Givens-rotation matrix builder.
func decodeCustomMatrix(r *bitreader.Reader, n int) ([][]int32, error) {
	numRotations := n * (n - 1) / 2
	rotation := make([]int, numRotations)
	for i := range rotation {
		rotation[i] = int(r.Bits(6))
	}
	sign := make([]int32, n)
	for i := range sign {
		if r.Bit() == 1 {
			sign[i] = 1 << 30
		} else {
			sign[i] = -(1 << 30)
		}
	}

	m := make([][]int32, n)
	for i := range m {
		m[i] = make([]int32, n)
	}
	for i := 0; i < n; i++ {
		m[i][i] = sign[i]
	}

	offset := 0
	for i := 1; i < n; i++ {
		for x := 0; x < i; x++ {
			rot := rotation[offset+x]
			var sinv, cosv int32
			if rot < 32 {
				sinv = tables.Sin64[rot]
				cosv = tables.Sin64[32-rot]
			} else {
				sinv = tables.Sin64[64-rot]
				cosv = -tables.Sin64[rot-32]
			}
			for y := 0; y <= i; y++ {
				v1 := m[x][y]
				v2 := m[i][y]
				rowX := mulQ30Shift1(v1, sinv) - mulQ30Shift1(v2, cosv)
				rowI := mulQ30Shift1(v1, cosv) + mulQ30Shift1(v2, sinv)
				m[x][y] = rowX
				m[i][y] = rowI
			}
		}
		offset += i
	}
	return m, nil
}

func mulQ30Shift1(a, b int32) int32 {
	return int32(((int64(a) * int64(b)) >> 29))
}

// Inverse applies the group's decorrelation matrix in place to coefs,
// which holds one []int64 slice per member channel (Q-format coefficients
// with the integer stored in the high 32 bits, per spec §4.6), restricted
// to [start,end). When the group has no transform but is a plain 2-channel
// group of a 2-channel stream, it applies the fixed 181/128 gain
// compensation (§4.10).
func (g *Group) Inverse(coefs map[int][]int64, start, end int) {
	n := len(g.Channels)
	if g.TransformEnabled {
		for y := start; y < end; y++ {
			v := make([]int64, n)
			for i, ch := range g.Channels {
				v[i] = coefs[ch][y] >> 32
			}
			for i, ch := range g.Channels {
				var sum int64
				for k := 0; k < n; k++ {
					sum += (v[k] * int64(g.Matrix[i][k])) >> 30
				}
				coefs[ch][y] = sum << 1 << 32
			}
		}
		return
	}
	if n == 2 && g.numStreamChannels == 2 {
		// M/S-like gain compensation: sqrt(2) applied as the rational
		// approximation 181/128, per spec §4.10.
		for y := start; y < end; y++ {
			for _, ch := range g.Channels {
				hi := coefs[ch][y] >> 32
				scaled := (hi * 181) / 128
				coefs[ch][y] = scaled << 32
			}
		}
	}
}

// InverseBands applies Inverse per scale-factor band, restricted to bands
// where the group's per-band enable is set (or all bands, if AllBands),
// per §4.10's "for each sfb with per_band_enable[sfb]".
func (g *Group) InverseBands(coefs map[int][]int64, sfbOffsets []int, subframeLen int) {
	if !g.TransformEnabled && !(len(g.Channels) == 2 && g.numStreamChannels == 2) {
		return
	}
	for b := 0; b < len(sfbOffsets)-1; b++ {
		if !g.AllBands && (b >= len(g.BandEnable) || !g.BandEnable[b]) {
			continue
		}
		start := sfbOffsets[b]
		end := sfbOffsets[b+1]
		if end > subframeLen {
			end = subframeLen
		}
		if start >= end {
			continue
		}
		g.Inverse(coefs, start, end)
	}
}
