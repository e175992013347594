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

package scalefactor

import (
	"testing"

	"github.com/hajimehoshi/go-wmapro/internal/bitreader"
	"github.com/hajimehoshi/go-wmapro/internal/tables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bitWriter is a tiny MSB-first bit packer for building test bitstreams,
// mirroring bitreader's own bit order.
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

// zeroDeltaSymbol is the ScaleFactorVLC symbol whose ScaleFactorDeltas
// entry is 0 (§4.5: deltas run -60..60, so index 60 is the zero delta).
const zeroDeltaSymbol = 60

func TestDecodeFreshAlwaysOnFirstSubframe(t *testing.T) {
	blockLen := tables.BlockSizes[0]
	numBands := len(tables.SfbOffsets[0]) - 1

	w := &bitWriter{}
	w.writeBits(0, 2) // scale_factor_step - 1 == 0, so step == 1
	for b := 0; b < numBands; b++ {
		w.writeBits(tables.ScaleFactorVLC.Codes[zeroDeltaSymbol], int(tables.ScaleFactorVLC.Bits[zeroDeltaSymbol]))
	}
	r := bitreader.New(w.buf)

	s := NewState()
	active, max, err := s.Decode(r, blockLen, 0)
	require.NoError(t, err)
	require.Len(t, active, numBands)
	for b, v := range active {
		assert.Equalf(t, int32(45), v, "band %d should be at the step=1 baseline with a zero delta", b)
	}
	assert.Equal(t, int32(45), max)
	assert.True(t, s.ReuseSF, "a successful transmission should set ReuseSF for subsequent subframes")
}

func TestResetFrameClearsReuseSF(t *testing.T) {
	s := NewState()
	s.ReuseSF = true
	s.ResetFrame()
	assert.False(t, s.ReuseSF)
}

func TestDecodeRejectsUnsupportedBlockLength(t *testing.T) {
	s := NewState()
	r := bitreader.New(make([]byte, 4))
	_, _, err := s.Decode(r, 123, 0)
	assert.Error(t, err)
}

// TestDecodeRunLevelEOBPreservesResampledBank checks that when a later
// subframe signals a fresh transmission but the run-level decoder hits EOB
// on its very first symbol, the resampled band values are left untouched
// (no skip/level has been applied to any band yet).
func TestDecodeRunLevelEOBPreservesResampledBank(t *testing.T) {
	blockLen := tables.BlockSizes[0]
	numBands := len(tables.SfbOffsets[0]) - 1

	s := NewState()
	s.ReuseSF = true
	s.TableIdx = 0
	s.BankIdx = 0
	s.Banks[0] = make([]int32, tables.MaxBands)
	for b := 0; b < numBands; b++ {
		s.Banks[0][b] = int32(10 + b)
	}

	const eobSymbol = 1
	w := &bitWriter{}
	w.writeBits(1, 1) // curSubframe != 0: this bit gates sendNew, 1 == fresh transmission
	w.writeBits(tables.ScaleFactorRunLevelVLC.Codes[eobSymbol], int(tables.ScaleFactorRunLevelVLC.Bits[eobSymbol]))
	r := bitreader.New(w.buf)

	active, _, err := s.Decode(r, blockLen, 1)
	require.NoError(t, err)
	for b, v := range active {
		assert.Equal(t, int32(10+b), v, "band %d should carry over the previous bank untouched", b)
	}
}

// TestRunLevelDecodeRawCodeSignPolarity checks the raw 14-bit escape
// code's sign bit against wmaprodec.c's derivation: sign = (code & 1) - 1,
// so code&1==1 -> sign=0 -> positive; code&1==0 -> sign=-1 -> negative.
func TestRunLevelDecodeRawCodeSignPolarity(t *testing.T) {
	const rawSymbol = 0
	const val, skip = 5, 0

	w := &bitWriter{}
	w.writeBits(tables.ScaleFactorRunLevelVLC.Codes[rawSymbol], int(tables.ScaleFactorRunLevelVLC.Bits[rawSymbol]))
	code := uint32(val<<6) | uint32(skip<<1) | 1 // lsb=1 -> positive
	w.writeBits(code, 14)
	const eobSymbol = 1
	w.writeBits(tables.ScaleFactorRunLevelVLC.Codes[eobSymbol], int(tables.ScaleFactorRunLevelVLC.Bits[eobSymbol]))
	r := bitreader.New(w.buf)

	active := make([]int32, tables.MaxBands)
	require.NoError(t, runLevelDecode(r, active, tables.MaxBands))
	assert.Equal(t, int32(val), active[skip], "lsb==1 must decode to a positive delta")
}

func TestRunLevelDecodeRawCodeSignPolarityNegative(t *testing.T) {
	const rawSymbol = 0
	const val, skip = 5, 0

	w := &bitWriter{}
	w.writeBits(tables.ScaleFactorRunLevelVLC.Codes[rawSymbol], int(tables.ScaleFactorRunLevelVLC.Bits[rawSymbol]))
	code := uint32(val<<6) | uint32(skip<<1) | 0 // lsb=0 -> negative
	w.writeBits(code, 14)
	const eobSymbol = 1
	w.writeBits(tables.ScaleFactorRunLevelVLC.Codes[eobSymbol], int(tables.ScaleFactorRunLevelVLC.Bits[eobSymbol]))
	r := bitreader.New(w.buf)

	active := make([]int32, tables.MaxBands)
	require.NoError(t, runLevelDecode(r, active, tables.MaxBands))
	assert.Equal(t, int32(-val), active[skip], "lsb==0 must decode to a negative delta")
}

// TestRunLevelDecodeVLCSignPolarity checks the idx>1 VLC run-level
// branch's trailing sign bit against the same derivation: sign =
// get_bits1(gb) - 1, so bit==1 -> positive, bit==0 -> negative.
func TestRunLevelDecodeVLCSignPolarity(t *testing.T) {
	const idx = 2
	level := tables.ScaleFactorRLLevel[idx]
	run := tables.ScaleFactorRLRun[idx]

	w := &bitWriter{}
	w.writeBits(tables.ScaleFactorRunLevelVLC.Codes[idx], int(tables.ScaleFactorRunLevelVLC.Bits[idx]))
	w.writeBits(1, 1) // sign bit 1 -> positive
	const eobSymbol = 1
	w.writeBits(tables.ScaleFactorRunLevelVLC.Codes[eobSymbol], int(tables.ScaleFactorRunLevelVLC.Bits[eobSymbol]))
	r := bitreader.New(w.buf)

	active := make([]int32, tables.MaxBands)
	require.NoError(t, runLevelDecode(r, active, tables.MaxBands))
	assert.Equal(t, level, active[run], "sign bit 1 must decode to a positive level")
}

// TestDecodeNoNewTransmissionKeepsResampledBank checks the sendNew==false
// path: a later subframe that declines to retransmit keeps exactly the
// resampled band values copied in from the previous bank.
func TestDecodeNoNewTransmissionKeepsResampledBank(t *testing.T) {
	blockLen := tables.BlockSizes[0]
	numBands := len(tables.SfbOffsets[0]) - 1

	s := NewState()
	s.ReuseSF = true
	s.TableIdx = 0
	s.BankIdx = 0
	s.Banks[0] = make([]int32, tables.MaxBands)
	for b := 0; b < numBands; b++ {
		s.Banks[0][b] = int32(10 + b)
	}

	w := &bitWriter{}
	w.writeBits(0, 1) // curSubframe != 0, sendNew gate bit: 0 == no new transmission
	r := bitreader.New(w.buf)

	active, _, err := s.Decode(r, blockLen, 1)
	require.NoError(t, err)
	for b, v := range active {
		assert.Equal(t, int32(10+b), v, "band %d should carry over the previous bank untouched", b)
	}
}
