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
	"fmt"
	"math/bits"

	"github.com/hajimehoshi/go-wmapro/internal/bitreader"
	"github.com/hajimehoshi/go-wmapro/internal/channel"
	"github.com/hajimehoshi/go-wmapro/internal/coefficient"
	"github.com/hajimehoshi/go-wmapro/internal/imdct"
	"github.com/hajimehoshi/go-wmapro/internal/tables"
)

// Config bundles the stream-wide constants the subframe decoder needs.
type Config struct {
	BitsPerSample   int
	SamplesPerFrame int
	FrameLenBits    int // log2(samples_per_frame); width of the coefficient "big jump" field
}

// DecodeBlock decodes one subframe block: the channels listed in indices
// (as positions into channels/chans), starting at sample offset within the
// frame, with the given length. totalStreamChannels is the stream's total
// channel count (used to pick the 2-channel decorrelation matrix variant,
// §4.4, and to gate the 181/128 gain compensation, §4.10). curSubframe is this block's subframe index within each
// participating channel's own subframe list (needed for scale-factor
// "send new" forcing, §4.5).
func DecodeBlock(r *bitreader.Reader, cfg Config, chans []*Channel, indices []int, offset, subframeLen, curSubframe, totalStreamChannels int) error {
	tableIdx := tables.BlockIndex(subframeLen)
	if tableIdx < 0 {
		return fmt.Errorf("wmapro: unsupported subframe length %d", subframeLen)
	}
	sfbOffsets := tables.SfbOffsets[tableIdx]
	numBands := len(sfbOffsets) - 1
	cutoff := tables.SubwooferCutoffs[tableIdx]

	if err := skipFillBits(r); err != nil {
		return err
	}
	if r.Bit() == 1 {
		return fmt.Errorf("wmapro: reserved subframe bit set")
	}

	groups, err := channel.Decode(r, len(indices), totalStreamChannels, numBands)
	if err != nil {
		return err
	}

	transmit := make([]bool, len(indices))
	anyTransmit := false
	for i := range indices {
		transmit[i] = r.Bit() == 1
		anyTransmit = anyTransmit || transmit[i]
	}

	quantSteps := make([]int, len(indices))
	numVecCoeffs := make([]int, len(indices))
	transmitNumVec := false

	if anyTransmit {
		baseQuantStep := (90 * cfg.BitsPerSample) >> 4

		transmitNumVec = r.Bit() == 1
		if transmitNumVec {
			numBits := log2Floor((subframeLen+3)/4) + 1
			for i := range indices {
				numVecCoeffs[i] = int(r.Bits(numBits)) << 2
			}
		} else {
			for i := range indices {
				numVecCoeffs[i] = subframeLen
			}
		}

		step := int(r.SignedBits(6))
		quantStep := baseQuantStep + step
		if step == -32 || step == 31 {
			sign := 0
			if step == -32 {
				sign = -1
			}
			quant := 0
			chunk := 31
			for chunk == 31 {
				chunk = int(r.Bits(5))
				if chunk == 31 {
					quant += 31
				}
			}
			total := quant + chunk
			quantStep += (total ^ sign) - sign
		}

		if len(indices) == 1 {
			quantSteps[0] = quantStep
		} else {
			modifierLen := int(r.Bits(3))
			for i := range indices {
				quantSteps[i] = quantStep
				if r.Bit() == 1 {
					if modifierLen != 0 {
						quantSteps[i] += int(r.Bits(modifierLen)) + 1
					} else {
						quantSteps[i]++
					}
				}
			}
		}
	}

	sf := make([][]int32, len(indices))
	maxSF := make([]int32, len(indices))
	scaleStep := make([]int32, len(indices))
	if anyTransmit {
		for i, ch := range indices {
			if !transmit[i] {
				continue
			}
			active, max, err := chans[ch].ScaleFactor.Decode(r, subframeLen, curSubframe)
			if err != nil {
				return err
			}
			sf[i] = active
			maxSF[i] = max
			scaleStep[i] = chans[ch].ScaleFactor.Step
		}
	}

	coefs := make(map[int][]int64, len(indices))
	for i := range indices {
		if transmit[i] && r.Remaining() > 0 {
			c, err := coefficient.Decode(r, subframeLen, transmitNumVec, numVecCoeffs[i], cfg.FrameLenBits)
			if err != nil {
				return err
			}
			coefs[i] = c
		} else {
			coefs[i] = make([]int64, subframeLen)
		}
	}

	if anyTransmit {
		for _, g := range groups {
			g.InverseBands(coefs, sfbOffsets, subframeLen)
		}

		scaleShift := bits.Len(uint(subframeLen)) - 1 + cfg.BitsPerSample - 2
		mdctBits := bits.Len(uint(subframeLen))

		for i, ch := range indices {
			c := coefs[i]
			if chans[ch].LFE && cutoff < subframeLen {
				for y := cutoff; y < subframeLen; y++ {
					c[y] = 0
				}
			}

			rescaled := make([]int32, subframeLen)
			if transmit[i] {
				for b := 0; b < numBands; b++ {
					start := sfbOffsets[b]
					end := sfbOffsets[b+1]
					if end > subframeLen {
						end = subframeLen
					}
					if start >= end {
						continue
					}
					mant, shift := bandScalar(quantSteps[i], maxSF[i], sf[i][b], scaleStep[i], scaleShift)
					for y := start; y < end; y++ {
						hi := c[y] >> 32
						val := (hi * mant) >> 31
						val = shiftSigned(val, -shift)
						rescaled[y] = clampInt32(val)
					}
				}
			}

			out := imdct.HalfIMDCT(rescaled, mdctBits)
			writeAndWindow(chans[ch], out, cfg.SamplesPerFrame, offset, subframeLen)
		}
	} else {
		mdctBits := bits.Len(uint(subframeLen))
		zero := make([]int32, subframeLen)
		for _, ch := range indices {
			out := imdct.HalfIMDCT(zero, mdctBits)
			writeAndWindow(chans[ch], out, cfg.SamplesPerFrame, offset, subframeLen)
		}
	}

	return nil
}

func writeAndWindow(c *Channel, imdctOut []int32, samplesPerFrame, offset, subframeLen int) {
	coeffOffset := samplesPerFrame/2 + offset
	for i, v := range imdctOut {
		if coeffOffset+i < len(c.Out) {
			c.Out[coeffOffset+i] = v
		}
	}
	applyWindow(c, coeffOffset, subframeLen)
}

// skipFillBits consumes the subframe's optional extended-header padding
// (§4.3): a present flag, then either a 2-bit length directly or, when
// that's zero, a 4-bit "length of length" followed by the real length.
func skipFillBits(r *bitreader.Reader) error {
	if r.Bit() != 1 {
		return nil
	}
	n := int(r.Bits(2))
	if n == 0 {
		l := int(r.Bits(4))
		n = int(r.Bits(l)) + 1
	}
	if n > r.Remaining() {
		return fmt.Errorf("wmapro: invalid number of fill bits")
	}
	r.Skip(n)
	return nil
}

// log2Floor mirrors av_log2: the position of the highest set bit (0 for
// v<=0), used to size the num_vec_coeffs field (§4.6).
func log2Floor(v int) int {
	if v <= 0 {
		return 0
	}
	return bits.Len(uint(v)) - 1
}
