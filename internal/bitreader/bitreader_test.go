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

package bitreader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBitsRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 24).Draw(t, "numBits")
		val := rapid.Uint32Range(0, uint32(1)<<uint(n)-1).Draw(t, "val")

		buf := make([]byte, 8)
		bitPos := 0
		for i := n - 1; i >= 0; i-- {
			if (val>>uint(i))&1 == 1 {
				buf[bitPos/8] |= 1 << uint(7-bitPos%8)
			}
			bitPos++
		}
		r := New(buf)
		got := r.Bits(n)
		assert.Equal(t, val, got)
		assert.Equal(t, n, r.Pos())
	})
}

func TestShowDoesNotConsume(t *testing.T) {
	r := New([]byte{0xab, 0xcd})
	peek := r.Show(8)
	assert.Equal(t, uint32(0xab), peek)
	assert.Equal(t, 0, r.Pos())
	assert.Equal(t, uint32(0xab), r.Bits(8))
	assert.Equal(t, 8, r.Pos())
}

func TestSetPosAndRemaining(t *testing.T) {
	r := New(make([]byte, 4))
	assert.Equal(t, 32, r.Remaining())
	r.SetPos(10)
	assert.Equal(t, 10, r.Pos())
	assert.Equal(t, 22, r.Remaining())
	r.Skip(22)
	assert.Equal(t, 0, r.Remaining())
}

func TestSignedBits(t *testing.T) {
	buf := []byte{0xe0} // 111 followed by zeros: 3-bit field = 0b111 = -1 signed
	r := New(buf)
	assert.Equal(t, int32(-1), r.SignedBits(3))
}

func TestDecodeVLC(t *testing.T) {
	// 2-symbol table: symbol 0 -> "0", symbol 1 -> "1".
	table := VLCTable{Bits: []uint8{1, 1}, Codes: []uint32{0, 1}}
	table.Build()

	r := New([]byte{0x80}) // 1000_0000
	sym, err := r.Decode(&table)
	require.NoError(t, err)
	assert.Equal(t, 1, sym)

	sym, err = r.Decode(&table)
	require.NoError(t, err)
	assert.Equal(t, 0, sym)
}

func TestByteAlign(t *testing.T) {
	r := New([]byte{0xff, 0xff})
	r.Bits(3)
	r.ByteAlign()
	assert.Equal(t, 8, r.Pos())
}
