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

// Package wmapro decodes a WMA Pro bitstream into 16-bit PCM. It mirrors
// the split the teacher uses for MP3: a thin root package drives the
// packet/frame state machine and leans on internal/ leaf packages for the
// actual signal processing.
package wmapro

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/go-wmapro/internal/reservoir"
	"github.com/hajimehoshi/go-wmapro/internal/subframe"
)

// Decoder holds all state for one WMA Pro stream. It is not safe for
// concurrent use (§5: single-threaded, single-instance-scoped).
type Decoder struct {
	cfg        *streamConfig
	blockAlign int

	channels  []*subframe.Channel
	reservoir *reservoir.Reservoir

	haveSeq    bool
	packetSeq  int
	packetLoss bool

	drcGain         int
	applyDRC        bool
	lastSkipSamples int

	logger *log.Logger
}

// NewDecoder validates extradata and returns a Decoder ready to process
// packets for a stream at the given sample rate, channel count, and
// block_align (§6 "init"). logger may be nil; a discard logger is used in
// that case so warnings (§7) are simply suppressed.
func NewDecoder(extradata []byte, sampleRate, channels, blockAlign int, logger *log.Logger) (*Decoder, error) {
	cfg, err := parseExtraData(extradata, sampleRate, channels, blockAlign)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	d := &Decoder{
		cfg:        cfg,
		blockAlign: blockAlign,
		reservoir:  reservoir.New(),
		logger:     logger,
	}
	d.channels = make([]*subframe.Channel, cfg.numChannels)
	for i := range d.channels {
		d.channels[i] = subframe.NewChannel(cfg.samplesPerFrame, i == cfg.lfeChannelIndex)
	}
	return d, nil
}

// SetApplyDRC toggles the opt-in dynamic-range-compression gain described
// in SPEC_FULL.md §3; it is off by default, matching spec.md's core
// pipeline exactly.
func (d *Decoder) SetApplyDRC(apply bool) { d.applyDRC = apply }

// LastSkipSamples returns the most recently parsed skip-sample hint
// (SPEC_FULL.md §3; spec.md §9 notes this field is parsed but, by itself,
// not acted on).
func (d *Decoder) LastSkipSamples() int { return d.lastSkipSamples }

// DRCGain returns the most recently parsed raw 8-bit DRC gain value, or 0
// if the stream never signals DRC data.
func (d *Decoder) DRCGain() int { return d.drcGain }

// NumChannels reports the stream's channel count.
func (d *Decoder) NumChannels() int { return d.cfg.numChannels }

// SamplesPerFrame reports the stream's frame size in samples per channel.
func (d *Decoder) SamplesPerFrame() int { return d.cfg.samplesPerFrame }

// OutputChannels reports how many channels DecodePacket writes per frame
// (1 for mono streams, 2 otherwise — §4.11 always downmixes to stereo
// except when the source is already mono).
func (d *Decoder) OutputChannels() int {
	if d.cfg.numChannels == 1 {
		return 1
	}
	return 2
}

// Flush zeroes all per-channel overlap buffers and flags packet_loss so
// the next DecodePacket call resynchronizes cleanly (§5).
func (d *Decoder) Flush() {
	for _, c := range d.channels {
		c.Flush()
	}
	d.reservoir.Reset()
	d.packetLoss = true
	d.haveSeq = false
}

// Close releases the decoder's resources. There is nothing to release
// beyond what the garbage collector already owns; it exists to match the
// teacher's lifecycle-oriented API shape (§6 "destroy").
func (d *Decoder) Close() error {
	return nil
}
