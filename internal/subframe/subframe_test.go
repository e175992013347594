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

package subframe

import (
	"testing"

	"github.com/hajimehoshi/go-wmapro/internal/bitreader"
	"github.com/hajimehoshi/go-wmapro/internal/tables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog2Floor(t *testing.T) {
	cases := map[int]int{0: 0, -1: 0, 1: 0, 2: 1, 3: 1, 4: 2, 1023: 9, 1024: 10}
	for v, want := range cases {
		assert.Equal(t, want, log2Floor(v), "log2Floor(%d)", v)
	}
}

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

func TestSkipFillBitsAbsent(t *testing.T) {
	r := bitreader.New(make([]byte, 2))
	require.NoError(t, skipFillBits(r))
	assert.Equal(t, 1, r.Pos(), "should only consume the present flag")
}

func TestSkipFillBitsShortForm(t *testing.T) {
	w := &bitWriter{}
	w.writeBits(1, 1) // fill bits present
	w.writeBits(3, 2) // length == 3
	w.writeBits(0b101, 3)
	r := bitreader.New(w.buf)

	require.NoError(t, skipFillBits(r))
	assert.Equal(t, 1+2+3, r.Pos())
}

func TestSkipFillBitsLongForm(t *testing.T) {
	w := &bitWriter{}
	w.writeBits(1, 1) // fill bits present
	w.writeBits(0, 2) // length field == 0 -> extended form follows
	w.writeBits(3, 4) // "length of length" == 3 bits
	w.writeBits(2, 3) // extended length field == 2, so n = 2+1 = 3
	w.writeBits(0b111, 3)
	r := bitreader.New(w.buf)

	require.NoError(t, skipFillBits(r))
	assert.Equal(t, 1+2+4+3+3, r.Pos())
}

func TestBandScalarZeroExponent(t *testing.T) {
	mantissa, shift := bandScalar(0, 5, 5, 7, 10)
	assert.Equal(t, int64(tables.Pow10Mantissa[0]), mantissa)
	assert.Equal(t, 10-tables.Pow10Exp2[0], shift)
}

func TestShiftSigned(t *testing.T) {
	assert.Equal(t, int64(8), shiftSigned(1, 3))
	assert.Equal(t, int64(1), shiftSigned(8, -3))
	assert.Equal(t, int64(5), shiftSigned(5, 0))
}

func TestClampInt32(t *testing.T) {
	assert.Equal(t, int32(0x7fffffff), clampInt32(1<<40))
	assert.Equal(t, int32(-0x80000000), clampInt32(-(1 << 40)))
	assert.Equal(t, int32(42), clampInt32(42))
}

func TestNewChannelAndFlush(t *testing.T) {
	c := NewChannel(2048, false)
	assert.Len(t, c.Out, 2048+1024)
	assert.NotNil(t, c.ScaleFactor)

	c.Out[10] = 5
	c.PrevBlockLen = 512
	c.Flush()

	for i, v := range c.Out {
		assert.Zerof(t, v, "Out[%d] should be zeroed after Flush", i)
	}
	assert.Equal(t, 0, c.PrevBlockLen)
}

func TestApplyWindowFirstCallOnlyRecordsBlockLen(t *testing.T) {
	c := NewChannel(256, false)
	for i := range c.Out {
		c.Out[i] = int32(i + 1)
	}
	applyWindow(c, 128, 64)
	assert.Equal(t, 64, c.PrevBlockLen)
	// With no previous block length, applyWindow should not touch Out.
	for i, v := range c.Out {
		assert.Equal(t, int32(i+1), v)
	}
}
