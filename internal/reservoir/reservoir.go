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

// Package reservoir implements the bit reservoir that lets a WMA Pro frame
// span more than one packet (§4.1). It generalizes the teacher's
// maindata.Read, which already does a simplified single-frame version of
// "prepend leftover bits from the previous packet, then append freshly
// read bytes" — this package makes that append/reset distinction explicit
// and bit-addressable instead of byte-addressable, since WMA Pro frames
// (unlike MPEG main_data) are not byte-aligned at their boundaries.
//
// Grounded on wmaprodec.c's save_bits.
package reservoir

import (
	"fmt"

	"github.com/hajimehoshi/go-wmapro/internal/bitreader"
)

// MaxFrameSize bounds the reservoir, matching wmaprodec.c's MAX_FRAMESIZE.
const MaxFrameSize = 32768

// tailPad covers bitreader.Reader.Show's 5-byte lookahead so a reader
// positioned near the declared end of the buffered bits never reads past
// the slice.
const tailPad = 8

// Reservoir is the per-channel-independent, per-decoder bit buffer.
type Reservoir struct {
	buf         []byte
	numBits     int
	frameOffset int
}

// New returns an empty reservoir.
func New() *Reservoir {
	return &Reservoir{buf: make([]byte, MaxFrameSize+tailPad)}
}

// Len reports the number of valid bits currently buffered.
func (r *Reservoir) Len() int { return r.numBits }

// FrameOffset is the bit offset (mod 8) of the oldest frame's first bit,
// recorded by the most recent SaveReset call (§4.1: "save_bits(append=false)
// resets the reservoir and records frame_offset").
func (r *Reservoir) FrameOffset() int { return r.frameOffset }

// Reset discards all buffered bits, e.g. on packet_loss (§7: "on loss, the
// reservoir is reset").
func (r *Reservoir) Reset() {
	r.numBits = 0
	r.frameOffset = 0
}

// SaveAppend copies numBits bits starting at bit position pos of src onto
// the end of the reservoir, without discarding what's already buffered
// (§4.1's save_bits(append=true): "byte-aligns by copying a head fragment
// bit-by-bit then byte-copies the remainder"). This implementation copies
// bit by bit throughout rather than switching to a byte-copy fast path
// once aligned; that fast path is a performance detail the reference
// itself notes is just "a fast byte copy" optimization, not a semantic
// requirement, so the simpler uniform loop is kept (see DESIGN.md).
func (r *Reservoir) SaveAppend(src []byte, pos, numBits int) error {
	if numBits <= 0 {
		return fmt.Errorf("wmapro: reservoir: non-positive append length %d", numBits)
	}
	if (r.numBits+numBits+8)>>3 > MaxFrameSize {
		return fmt.Errorf("wmapro: reservoir overflow")
	}
	for i := 0; i < numBits; i++ {
		r.writeBit(r.numBits+i, readBit(src, pos+i))
	}
	r.numBits += numBits
	return nil
}

// SaveReset discards the reservoir's contents, records frameOffset = pos
// mod 8, and copies numBits bits starting at pos in src (§4.1's
// save_bits(append=false)).
func (r *Reservoir) SaveReset(src []byte, pos, numBits int) error {
	r.Reset()
	r.frameOffset = pos & 7
	r.numBits = r.frameOffset
	return r.SaveAppend(src, pos, numBits)
}

// Reader returns a bit reader positioned at frameOffset, ready to decode a
// frame from the buffered bits (§4.1 step 3/4).
func (r *Reservoir) Reader() *bitreader.Reader {
	nbytes := (r.numBits + 7) >> 3
	rd := bitreader.New(r.buf[:nbytes])
	rd.SetPos(r.frameOffset)
	return rd
}

func readBit(buf []byte, bitPos int) int {
	byteIdx := bitPos >> 3
	if byteIdx < 0 || byteIdx >= len(buf) {
		return 0
	}
	bitIdx := uint(7 - bitPos&7)
	return int((buf[byteIdx] >> bitIdx) & 1)
}

func (r *Reservoir) writeBit(bitPos int, bit int) {
	byteIdx := bitPos >> 3
	bitIdx := uint(7 - bitPos&7)
	if bit == 1 {
		r.buf[byteIdx] |= 1 << bitIdx
	} else {
		r.buf[byteIdx] &^= 1 << bitIdx
	}
}
