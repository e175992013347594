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

package channel

import (
	"testing"

	"github.com/hajimehoshi/go-wmapro/internal/bitreader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bitWriter struct {
	buf []byte
	pos int
}

func (w *bitWriter) writeBits(val uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		if w.pos/8 >= len(w.buf) {
			w.buf = append(w.buf, 0)
		}
		if (val>>uint(i))&1 == 1 {
			w.buf[w.pos/8] |= 1 << uint(7-w.pos%8)
		}
		w.pos++
	}
}

func TestDecodeSingleChannelNoTransform(t *testing.T) {
	r := bitreader.New(make([]byte, 4))
	groups, err := Decode(r, 1, 1, 16)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []int{0}, groups[0].Channels)
	assert.False(t, groups[0].TransformEnabled)
}

func TestDecodeTwoChannelIdentity(t *testing.T) {
	w := &bitWriter{}
	w.writeBits(0, 1) // reserved bit
	w.writeBits(1, 1) // identity == true
	r := bitreader.New(w.buf)

	groups, err := Decode(r, 2, 2, 16)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.False(t, groups[0].TransformEnabled)
}

func TestDecodeTwoChannelTransformPlainMatrix(t *testing.T) {
	w := &bitWriter{}
	w.writeBits(0, 1) // reserved bit
	w.writeBits(0, 1) // identity == false, so a transform matrix follows
	w.writeBits(1, 1) // all_bands == true
	r := bitreader.New(w.buf)

	groups, err := Decode(r, 2, 2, 16)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.True(t, g.TransformEnabled)
	assert.True(t, g.AllBands)
	const c = int32(1 << 30)
	assert.Equal(t, [][]int32{{c, -c}, {c, c}}, g.Matrix)
}

func TestDecodeTwoChannelTransformCos45Matrix(t *testing.T) {
	w := &bitWriter{}
	w.writeBits(0, 1) // reserved bit
	w.writeBits(0, 1) // identity == false
	w.writeBits(1, 1) // all_bands == true
	r := bitreader.New(w.buf)

	// A 3-channel stream using a 2-channel group should use the cos45
	// scaled matrix instead of the plain +-1 matrix (§4.4).
	groups, err := Decode(r, 2, 3, 16)
	require.NoError(t, err)
	g := groups[0]
	assert.Equal(t, cos45, g.Matrix[0][0])
	assert.Equal(t, -cos45, g.Matrix[0][1])
}

func TestDecodeCustomMatrixDiagonalSignPolarity(t *testing.T) {
	// wmaprodec.c (~line 1978): get_bits1(&s->gb) ? +1.0 : -1.0, so
	// bit==1 -> positive diagonal seed. n==1 has no rotation bits and no
	// rotation pass (the i-loop starts at 1), isolating the diagonal-sign
	// read from the rotation math.
	w := &bitWriter{}
	w.writeBits(1, 1) // sign bit for channel 0: 1 -> positive
	r := bitreader.New(w.buf)

	m, err := decodeCustomMatrix(r, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1<<30), m[0][0], "sign bit 1 must produce a positive diagonal seed")

	w2 := &bitWriter{}
	w2.writeBits(0, 1) // sign bit for channel 0: 0 -> negative
	r2 := bitreader.New(w2.buf)

	m2, err := decodeCustomMatrix(r2, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(-(1 << 30)), m2[0][0], "sign bit 0 must produce a negative diagonal seed")
}

func TestDecodeRejectsReservedBit(t *testing.T) {
	w := &bitWriter{}
	w.writeBits(1, 1) // reserved bit set
	r := bitreader.New(w.buf)

	_, err := Decode(r, 2, 2, 16)
	assert.Error(t, err)
}

func TestInverseNoTransformAppliesGainCompensation(t *testing.T) {
	g := Group{Channels: []int{0, 1}, numStreamChannels: 2}
	coefs := map[int][]int64{
		0: {100 << 32},
		1: {200 << 32},
	}
	g.Inverse(coefs, 0, 1)
	assert.Equal(t, int64((100*181/128)<<32), coefs[0][0])
	assert.Equal(t, int64((200*181/128)<<32), coefs[1][0])
}

func TestInverseNoTransformSkipsGainCompensationForLargerStream(t *testing.T) {
	// A 2-channel group inside a >2-channel stream (e.g. a 5.1 subframe
	// block that happens to pair up exactly two channels with an
	// identity/no-transform group) must NOT get the sqrt(2) gain bump:
	// §4.10 only applies it when the *stream* (not the block) has
	// exactly 2 channels.
	g := Group{Channels: []int{0, 1}, numStreamChannels: 6}
	coefs := map[int][]int64{
		0: {100 << 32},
		1: {200 << 32},
	}
	g.Inverse(coefs, 0, 1)
	assert.Equal(t, int64(100)<<32, coefs[0][0])
	assert.Equal(t, int64(200)<<32, coefs[1][0])
}

func TestInverseBandsRespectsBandEnable(t *testing.T) {
	g := Group{
		Channels:         []int{0, 1},
		TransformEnabled: true,
		AllBands:         false,
		BandEnable:       []bool{true, false},
		Matrix:           [][]int32{{1 << 30, 0}, {0, 1 << 30}},
	}
	coefs := map[int][]int64{
		0: make([]int64, 8),
		1: make([]int64, 8),
	}
	for y := 0; y < 8; y++ {
		coefs[0][y] = int64(10+y) << 32
		coefs[1][y] = int64(100+y) << 32
	}
	sfbOffsets := []int{0, 4, 8}
	g.InverseBands(coefs, sfbOffsets, 8)

	for y := 0; y < 4; y++ {
		assert.Equal(t, int64(20+2*y)<<32, coefs[0][y], "band 0 (enabled) index %d", y)
		assert.Equal(t, int64(200+2*y)<<32, coefs[1][y], "band 0 (enabled) index %d", y)
	}
	for y := 4; y < 8; y++ {
		assert.Equal(t, int64(10+y)<<32, coefs[0][y], "band 1 (disabled) should be untouched at index %d", y)
		assert.Equal(t, int64(100+y)<<32, coefs[1][y], "band 1 (disabled) should be untouched at index %d", y)
	}
}
