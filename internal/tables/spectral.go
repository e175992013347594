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

package tables

import "math"

// MinBlockBits and MaxBlockBits bound log2(subframe_len), matching
// wmaprodec.c's WMAPRO_BLOCK_MIN_BITS/WMAPRO_BLOCK_MAX_BITS.
const (
	MinBlockBits = 6  // 64 samples
	MaxBlockBits = 13 // 8192 samples
	MaxBands     = 29
)

// BlockSizes enumerates every supported subframe length, smallest first.
var BlockSizes = func() []int {
	var sizes []int
	for b := MinBlockBits; b <= MaxBlockBits; b++ {
		sizes = append(sizes, 1<<uint(b))
	}
	return sizes
}()

// BlockIndex returns the index into BlockSizes/SineWindows/etc. for a
// given block length, or -1 if blockLen is not a supported size.
func BlockIndex(blockLen int) int {
	b := 0
	for v := blockLen; v > 1; v >>= 1 {
		b++
	}
	if b < MinBlockBits || b > MaxBlockBits || (1<<uint(b)) != blockLen {
		return -1
	}
	return b - MinBlockBits
}

// SineWindows[i] is the sine window for BlockSizes[i]: w[n] = sin((n+0.5)*pi/L),
// in Q1.30, per spec §4.9.
var SineWindows [][]int32

// SfbOffsets[i] holds the scale-factor-band boundaries for BlockSizes[i]:
// SfbOffsets[i][0..NumSfb[i]] with SfbOffsets[i][NumSfb[i]] == BlockSizes[i].
// NumSfb[i] is len(SfbOffsets[i])-1.
var SfbOffsets [][]int

// SubwooferCutoffs[i] is the LFE cutoff coefficient index for BlockSizes[i].
var SubwooferCutoffs []int

func init() {
	SineWindows = make([][]int32, len(BlockSizes))
	SfbOffsets = make([][]int, len(BlockSizes))
	SubwooferCutoffs = make([]int, len(BlockSizes))

	for i, l := range BlockSizes {
		SineWindows[i] = buildSineWindow(l)
		SfbOffsets[i] = buildSfbOffsets(l)
		// The LFE channel only ever carries low-frequency content;
		// cut it at a fixed fraction of the block, matching the
		// reference's fixed low subwoofer_cutoffs entries.
		SubwooferCutoffs[i] = l / 9
	}
}

func buildSineWindow(l int) []int32 {
	w := make([]int32, l)
	for n := 0; n < l; n++ {
		v := math.Sin((float64(n) + 0.5) * math.Pi / float64(l))
		w[n] = int32(v * (1 << 30))
	}
	return w
}

// buildSfbOffsets lays out scale-factor bands whose widths grow
// geometrically (narrow at low frequencies, wide at high frequencies),
// the standard critical-band shape, capped at MaxBands-1 bands so the
// final entry (== l) always fits within spec's MAX_BANDS invariant (§8.2).
func buildSfbOffsets(l int) []int {
	offsets := []int{0}
	pos := 0
	width := 4
	if l < 256 {
		width = 2
	}
	for pos < l && len(offsets) < MaxBands {
		pos += width
		if pos > l {
			pos = l
		}
		offsets = append(offsets, pos)
		width = width + width/4 + 1
	}
	if offsets[len(offsets)-1] != l {
		offsets = append(offsets, l)
	}
	return offsets
}

// SfOffsets returns, for resampling scale factors transmitted under a
// block of size srcLen into a block of size dstLen, the source-band index
// to borrow for each destination band (§4.5: "each new-layout band borrows
// the factor of the source band whose center is closest").
func SfOffsets(srcLen, dstLen int) []int {
	si, di := BlockIndex(srcLen), BlockIndex(dstLen)
	if si < 0 || di < 0 {
		return nil
	}
	src := SfbOffsets[si]
	dst := SfbOffsets[di]
	numDst := len(dst) - 1
	out := make([]int, numDst)
	numSrc := len(src) - 1
	for b := 0; b < numDst; b++ {
		center := (dst[b] + dst[b+1]) / 2
		best, bestDist := 0, int(^uint(0)>>1)
		for s := 0; s < numSrc; s++ {
			srcCenter := (src[s] + src[s+1]) / 2
			d := center - srcCenter
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				bestDist = d
				best = s
			}
		}
		out[b] = best
	}
	return out
}
