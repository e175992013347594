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
	"encoding/binary"

	"github.com/hajimehoshi/go-wmapro/internal/fixed"
)

// decode_flags bit layout, §3. flagLFEPresent is the exception: it is
// tested against channel_mask, not decode_flags.
const (
	flagLenPrefix    = 0x40
	flagDRCPresent   = 0x80
	flagLFEPresent   = 0x08
	flagSubframeMask = 0x38
	flagSubframeBits = 3
	flagAdjustMask   = 0x06
)

// streamConfig holds the stream-wide constants derived once from the
// extradata blob at init (§3 "Stream configuration"). Grounded on
// wmaprodec.c's decode_init.
type streamConfig struct {
	bitsPerSample int
	decodeFlags   uint16
	channelMask   uint32

	samplesPerFrame int
	log2FrameSize   int

	numChannels      int
	lfeChannelIndex  int
	maxNumSubframes  int
	maxSubframeLenBit bool
	subframeLenBits  int
	minSamplesPerSub int

	lenPrefix bool
	drc       bool
}

// parseExtraData validates and decodes the 18-byte extradata blob (§6).
func parseExtraData(extradata []byte, sampleRate, channels, blockAlign int) (*streamConfig, error) {
	if len(extradata) < 18 {
		return nil, invalidf("extradata too small: got %d bytes, need >= 18", len(extradata))
	}
	if channels <= 0 || channels > 8 {
		return nil, unsupportedf("unsupported channel count %d", channels)
	}
	if blockAlign <= 0 {
		return nil, invalidf("invalid block_align %d", blockAlign)
	}

	cfg := &streamConfig{
		bitsPerSample: int(binary.LittleEndian.Uint16(extradata[0:2])),
		channelMask:   binary.LittleEndian.Uint32(extradata[2:6]),
		decodeFlags:   binary.LittleEndian.Uint16(extradata[14:16]),
		numChannels:   channels,
	}
	cfg.lenPrefix = cfg.decodeFlags&flagLenPrefix != 0
	cfg.drc = cfg.decodeFlags&flagDRCPresent != 0

	cfg.log2FrameSize = fixed.Log2(blockAlign) + 4

	frameLenBits := frameLenBitsForRate(sampleRate, cfg.decodeFlags)
	cfg.samplesPerFrame = 1 << uint(frameLenBits)

	log2MaxSubframes := int((cfg.decodeFlags & flagSubframeMask) >> flagSubframeBits)
	cfg.maxNumSubframes = 1 << uint(log2MaxSubframes)
	if cfg.maxNumSubframes == 16 || cfg.maxNumSubframes == 4 {
		cfg.maxSubframeLenBit = true
	}
	cfg.subframeLenBits = fixed.Log2(log2MaxSubframes) + 1
	cfg.minSamplesPerSub = cfg.samplesPerFrame / cfg.maxNumSubframes

	if cfg.maxNumSubframes > 32 {
		return nil, invalidf("invalid number of subframes %d", cfg.maxNumSubframes)
	}

	cfg.lfeChannelIndex = -1
	if cfg.channelMask&flagLFEPresent != 0 {
		for mask := uint32(1); mask < 16; mask <<= 1 {
			if cfg.channelMask&mask != 0 {
				cfg.lfeChannelIndex++
			}
		}
	}
	if cfg.lfeChannelIndex >= cfg.numChannels {
		// The channel_mask bit position walk is only well-defined for the
		// mask layouts spec.md documents; out of range means a layout
		// this decoder can't place, per the Open Question in spec.md §9
		// ("LFE channel semantics ... ill-defined"; documented here
		// rather than guessed at).
		cfg.lfeChannelIndex = -1
	}

	return cfg, nil
}

// frameLenBitsForRate mirrors wmaprodec.c's wmapro_get_frame_len_bits,
// hard-wired to WMA Pro version 3 per spec.md §9's Open Question (reject
// rather than guess at other versions; this decoder only ever parses v3
// semantics so there is no version field to check against here — the
// caller is expected to reject non-v3 streams before reaching init, since
// extradata carries no explicit version tag in the 18-byte layout §6
// defines).
func frameLenBitsForRate(sampleRate int, decodeFlags uint16) int {
	var bits int
	switch {
	case sampleRate <= 16000:
		bits = 9
	case sampleRate <= 22050:
		bits = 10
	case sampleRate <= 48000:
		bits = 11
	case sampleRate <= 96000:
		bits = 12
	default:
		bits = 13
	}

	switch decodeFlags & flagAdjustMask {
	case 0x2:
		bits++
	case 0x4:
		bits--
	case 0x6:
		bits -= 2
	}
	return bits
}
