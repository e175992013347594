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

package imdct

import (
	"math/bits"
	"testing"

	"github.com/hajimehoshi/go-wmapro/internal/tables"
	"github.com/stretchr/testify/assert"
)

func TestHalfIMDCTZeroInput(t *testing.T) {
	for _, size := range tables.BlockSizes {
		mdctBits := bits.Len(uint(size))
		in := make([]int32, size)
		out := HalfIMDCT(in, mdctBits)
		assert.Equal(t, size, len(out))
		for i, v := range out {
			assert.Zerof(t, v, "zero input should produce zero output at index %d (size %d)", i, size)
		}
	}
}

// TestHalfIMDCTEveryBlockSize exercises every supported subframe length
// (§4.8 "supported mdct_bits in {7..12}", generalized here down to the
// minimum block size too) with a synthetic single-bin input, checking the
// transform runs to completion and stays within the fixed-point range
// without overflowing into implausible magnitudes.
func TestHalfIMDCTEveryBlockSize(t *testing.T) {
	for _, size := range tables.BlockSizes {
		mdctBits := bits.Len(uint(size))
		in := make([]int32, size)
		in[size/4] = 1 << 24

		out := HalfIMDCT(in, mdctBits)
		require := assert.New(t)
		require.Equal(size, len(out))

		var maxAbs int64
		for _, v := range out {
			a := int64(v)
			if a < 0 {
				a = -a
			}
			if a > maxAbs {
				maxAbs = a
			}
		}
		// A single coefficient spread over N samples via an orthogonal-ish
		// transform should stay well inside int32 range; this guards
		// against a sign/shift bug blowing up the fixed-point accumulator.
		require.Lessf(int64(maxAbs), int64(1)<<31, "output magnitude implausibly large for size %d", size)
	}
}

func TestHalfIMDCTDeterministic(t *testing.T) {
	size := 1024
	mdctBits := bits.Len(uint(size))
	in := make([]int32, size)
	for i := range in {
		in[i] = int32((i*2654435761 + 1) % (1 << 20))
	}
	a := HalfIMDCT(in, mdctBits)
	b := HalfIMDCT(in, mdctBits)
	assert.Equal(t, a, b, "HalfIMDCT should be a pure function of its input")
}
