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

package wmapro

import (
	"github.com/hajimehoshi/go-wmapro/internal/bitreader"
)

// packetHeaderBits is the fixed 4-bit sequence number plus 2 reserved
// bits that precede num_bits_prev_frame in every packet (§4.1).
const packetHeaderBits = 6

// DecodePacket decodes exactly block_align bytes from the front of
// packet and writes decoded PCM into out (§6). It returns the number of
// bytes consumed (always block_align for a well-formed packet) and the
// number of int16 samples written to out.
//
// This implementation resolves spec.md §4.1's cross-packet bookkeeping
// (the legacy "next_packet_start" byte stash for container-multiplexed
// buffers) by taking §6's own interface contract literally: the caller
// hands over a byte slice of at least block_align bytes and is
// responsible for re-presenting any trailing bytes beyond block_align on
// a later call, so this method only ever looks at packet[:block_align].
// Frame assembly proper still spans packet boundaries exactly as §4.1
// describes, via the persistent bit reservoir: num_bits_prev_frame bits
// at the front of this packet complete whatever frame the previous call
// left open, and any bits left over at the end of this packet (because a
// trailing frame needs more data than this packet has) are stashed back
// into the reservoir for the next call's num_bits_prev_frame to pick up.
// See DESIGN.md for the reasoning behind this simplification.
func (d *Decoder) DecodePacket(packet []byte, out []int16) (bytesConsumed, samplesWritten int, err error) {
	if len(packet) < d.blockAlign {
		d.packetLoss = true
		return 0, 0, invalidf("packet shorter than block_align: got %d bytes, need %d", len(packet), d.blockAlign)
	}
	buf := packet[:d.blockAlign]
	bytesConsumed = d.blockAlign
	var frameErr error

	r := bitreader.New(buf)
	seq := int(r.Bits(4))
	r.Skip(2)
	numBitsPrevFrame := int(r.Bits(d.cfg.log2FrameSize))
	pos := r.Pos()

	if d.haveSeq && seq != (d.packetSeq+1)&0xf {
		d.packetLoss = true
		d.logger.Warn("packet sequence gap", "expected", (d.packetSeq+1)&0xf, "got", seq)
	}
	d.packetSeq, d.haveSeq = seq, true

	if numBitsPrevFrame > 0 {
		if d.packetLoss {
			d.reservoir.Reset()
		} else if err := d.reservoir.SaveAppend(buf, pos, numBitsPrevFrame); err != nil {
			d.packetLoss = true
			d.reservoir.Reset()
		} else {
			fr, ferr := d.decodeFrame(d.reservoir.Reader())
			switch {
			case ferr != nil:
				d.packetLoss = true
				frameErr = ferr
				d.logger.Warn("frame decode failed", "err", ferr)
			case fr.lengthMismatch:
				d.packetLoss = true
			case len(out)-samplesWritten < len(fr.pcm):
				d.reservoir.Reset()
				return bytesConsumed, 0, invalidf("wmapro: output buffer too small: need %d more samples, have %d", len(fr.pcm), len(out)-samplesWritten)
			default:
				samplesWritten += copyPCM(out[samplesWritten:], fr.pcm)
			}
			d.reservoir.Reset()
		}
		pos += numBitsPrevFrame
	}

	// This packet resynchronizes: whatever was stale is now behind us,
	// one way or another (decoded, or discarded above).
	d.packetLoss = false

	for pos/8 < len(buf) {
		availBits := len(buf)*8 - pos
		if availBits < packetHeaderBits {
			break
		}
		if err := d.reservoir.SaveReset(buf, pos, availBits); err != nil {
			break
		}
		fr, ferr := d.decodeFrame(d.reservoir.Reader())
		if ferr != nil {
			d.packetLoss = true
			frameErr = ferr
			d.reservoir.Reset()
			d.logger.Warn("frame decode failed", "err", ferr)
			break
		}
		if fr.needMore {
			// Leave the bits in the reservoir (SaveReset above already
			// copied them); the next packet's num_bits_prev_frame will
			// complete this frame.
			break
		}
		if fr.lengthMismatch {
			d.packetLoss = true
			d.reservoir.Reset()
			break
		}
		if len(out)-samplesWritten < len(fr.pcm) {
			d.reservoir.Reset()
			return bytesConsumed, 0, invalidf("wmapro: output buffer too small: need %d more samples, have %d", len(fr.pcm), len(out)-samplesWritten)
		}

		samplesWritten += copyPCM(out[samplesWritten:], fr.pcm)
		pos += fr.bitsConsumed
		d.reservoir.Reset()

		if !fr.moreFrames {
			break
		}
	}

	if frameErr != nil {
		return bytesConsumed, samplesWritten, invalidf("wmapro: frame decode failed: %v", frameErr)
	}
	return bytesConsumed, samplesWritten, nil
}

func copyPCM(dst, src []int16) int {
	n := copy(dst, src)
	return n
}
