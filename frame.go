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
	"github.com/hajimehoshi/go-wmapro/internal/fixed"
	"github.com/hajimehoshi/go-wmapro/internal/subframe"
	"github.com/hajimehoshi/go-wmapro/internal/tile"
)

// frameResult carries everything decodeFrame produces back up to the
// packet loop, including the two non-error exceptional outcomes that
// spec.md treats as "no samples this call" rather than hard failures:
// a length-prefix mismatch (§4.12, §7) and a frame that genuinely needs
// more bits than this packet currently has buffered (§4.1 step 4's
// "mark packet_done and wait").
type frameResult struct {
	pcm            []int16
	bitsConsumed   int
	moreFrames     bool
	needMore       bool
	lengthMismatch bool
}

// decodeFrame decodes one frame starting at r's current position (§4.2-
// §4.12). r must be a reader over the reservoir's buffered bits.
// Grounded on wmaprodec.c's decode_frame.
func (d *Decoder) decodeFrame(r *bitreader.Reader) (frameResult, error) {
	frameStart := r.Pos()

	var declaredLen int
	if d.cfg.lenPrefix {
		declaredLen = int(r.Bits(d.cfg.log2FrameSize))
		consumedSoFar := r.Pos() - frameStart
		need := declaredLen - 1 - consumedSoFar
		if need > r.Remaining() {
			return frameResult{bitsConsumed: r.Pos() - frameStart, needMore: true}, nil
		}
	}

	layouts, err := tile.Decode(r, tile.Config{
		SamplesPerFrame:   d.cfg.samplesPerFrame,
		MaxNumSubframes:   d.cfg.maxNumSubframes,
		MinSamplesPerSub:  d.cfg.minSamplesPerSub,
		SubframeLenBits:   d.cfg.subframeLenBits,
		MaxSubframeLenBit: d.cfg.maxSubframeLenBit,
	}, d.cfg.numChannels)
	if err != nil {
		return frameResult{bitsConsumed: r.Pos() - frameStart}, err
	}

	// Postproc-transform block: present when more than one channel and a
	// flag bit is set, optionally carrying num_channels^2 4-bit values.
	// spec.md §6 documents this as "currently skipped" — we consume the
	// bits so framing stays correct but do not interpret the matrix.
	if d.cfg.numChannels > 1 && r.Bit() == 1 {
		if r.Bit() == 1 {
			r.Skip(4 * d.cfg.numChannels * d.cfg.numChannels)
		}
	}

	if d.cfg.drc {
		d.drcGain = int(r.Bits(8))
	}

	if r.Bit() == 1 {
		skipBits := fixed.Log2(d.cfg.samplesPerFrame*2) + 1
		if r.Bit() == 1 {
			d.lastSkipSamples = int(r.Bits(skipBits))
		}
		if r.Bit() == 1 {
			d.lastSkipSamples = int(r.Bits(skipBits))
		}
	}

	for _, c := range d.channels {
		c.ScaleFactor.ResetFrame()
	}

	if err := d.decodeSubframes(r, layouts); err != nil {
		return frameResult{bitsConsumed: r.Pos() - frameStart}, err
	}

	pcm := d.downmix()

	if d.cfg.lenPrefix {
		consumed := r.Pos() - frameStart
		want := declaredLen - 1
		if consumed > want {
			d.logger.Warn("frame length mismatch", "want", want, "consumed", consumed)
			return frameResult{bitsConsumed: consumed, lengthMismatch: true}, nil
		}
		r.Skip(want - consumed)
	} else {
		for r.Remaining() > 0 && r.Show(1) == 0 {
			r.Bit()
		}
	}

	moreFrames := r.Bit() == 1
	return frameResult{
		pcm:          pcm,
		bitsConsumed: r.Pos() - frameStart,
		moreFrames:   moreFrames,
	}, nil
}

// decodeSubframes runs the subframe scheduling loop (§4.3): repeatedly
// take the smallest next starting offset across channels and the shortest
// next subframe length among the channels at that offset, and decode the
// block of all channels sharing both.
func (d *Decoder) decodeSubframes(r *bitreader.Reader, layouts []tile.Layout) error {
	numChannels := d.cfg.numChannels
	decodedSamples := make([]int, numChannels)
	curSubframe := make([]int, numChannels)

	subCfg := subframe.Config{
		BitsPerSample:   d.cfg.bitsPerSample,
		SamplesPerFrame: d.cfg.samplesPerFrame,
		FrameLenBits:    fixed.Log2(d.cfg.samplesPerFrame),
	}

	remaining := numChannels * d.cfg.samplesPerFrame
	for remaining > 0 {
		offset := d.cfg.samplesPerFrame
		for c := 0; c < numChannels; c++ {
			if decodedSamples[c] < offset {
				offset = decodedSamples[c]
			}
		}

		subframeLen := d.cfg.samplesPerFrame
		for c := 0; c < numChannels; c++ {
			if decodedSamples[c] != offset {
				continue
			}
			if curSubframe[c] >= len(layouts[c].Lengths) {
				return invalidf("wmapro: channel %d ran out of subframes at offset %d", c, offset)
			}
			if l := layouts[c].Lengths[curSubframe[c]]; l < subframeLen {
				subframeLen = l
			}
		}

		var indices []int
		for c := 0; c < numChannels; c++ {
			if decodedSamples[c] == offset && layouts[c].Lengths[curSubframe[c]] == subframeLen {
				indices = append(indices, c)
			}
		}
		if len(indices) == 0 {
			return invalidf("wmapro: subframe scheduling stalled at offset %d", offset)
		}

		if err := subframe.DecodeBlock(r, subCfg, d.channels, indices, offset, subframeLen, curSubframe[indices[0]], numChannels); err != nil {
			return err
		}
		for _, c := range indices {
			decodedSamples[c] += subframeLen
			curSubframe[c]++
			remaining -= subframeLen
		}
	}
	return nil
}
