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

// Package tile derives each channel's independent subframe segmentation
// for a frame (§4.2). Grounded on wmaprodec.c's decode_tilehdr/
// decode_subframe_length.
package tile

import (
	"fmt"

	"github.com/hajimehoshi/go-wmapro/internal/bitreader"
)

// Layout is one channel's subframe list for the frame: Lengths sums to
// samplesPerFrame, and Offsets[i] is the running sum of Lengths[:i].
type Layout struct {
	Lengths []int
	Offsets []int
}

// Config bundles the stream constants tile decoding needs.
type Config struct {
	SamplesPerFrame     int
	MaxNumSubframes     int
	MinSamplesPerSub    int
	SubframeLenBits     int // bits needed for frame_len_shift
	MaxSubframeLenBit   bool
}

// Decode parses the tile header for numChannels and returns one Layout per
// channel.
func Decode(r *bitreader.Reader, cfg Config, numChannels int) ([]Layout, error) {
	layouts := make([]Layout, numChannels)

	fixedLayout := cfg.MaxNumSubframes == 1 || r.Bit() == 1
	if fixedLayout {
		for c := range layouts {
			layouts[c] = Layout{Lengths: []int{cfg.SamplesPerFrame}, Offsets: []int{0}}
		}
		return layouts, nil
	}

	numSamples := make([]int, numChannels)
	for {
		minLen := cfg.SamplesPerFrame
		for _, n := range numSamples {
			if n < minLen {
				minLen = n
			}
		}
		if minLen >= cfg.SamplesPerFrame {
			break
		}

		var candidates []int
		for c, n := range numSamples {
			if n == minLen {
				candidates = append(candidates, c)
			}
		}

		var participants []int
		remainingAtMin := cfg.SamplesPerFrame - minLen
		forcedOne := len(candidates) == 1 || remainingAtMin == cfg.MinSamplesPerSub
		for _, c := range candidates {
			include := forcedOne
			if !include {
				include = r.Bit() == 1
			}
			if include {
				participants = append(participants, c)
			}
		}
		if len(participants) == 0 {
			participants = candidates[:1]
		}

		length, err := decodeSubframeLength(r, cfg)
		if err != nil {
			return nil, err
		}
		if length < cfg.MinSamplesPerSub || length > cfg.SamplesPerFrame {
			return nil, fmt.Errorf("wmapro: subframe length %d out of range", length)
		}

		for _, c := range participants {
			layouts[c].Lengths = append(layouts[c].Lengths, length)
			numSamples[c] += length
			if numSamples[c] > cfg.SamplesPerFrame {
				return nil, fmt.Errorf("wmapro: channel %d exceeds samples_per_frame during tiling", c)
			}
			if len(layouts[c].Lengths) > 32 {
				return nil, fmt.Errorf("wmapro: subframe count exceeds 32")
			}
		}
	}

	for c := range layouts {
		off := 0
		layouts[c].Offsets = make([]int, len(layouts[c].Lengths))
		for i, l := range layouts[c].Lengths {
			layouts[c].Offsets[i] = off
			off += l
		}
	}
	return layouts, nil
}

func decodeSubframeLength(r *bitreader.Reader, cfg Config) (int, error) {
	if cfg.MaxSubframeLenBit {
		if r.Bit() == 1 {
			return cfg.SamplesPerFrame, nil
		}
	}
	shift := int(r.Bits(cfg.SubframeLenBits))
	length := cfg.SamplesPerFrame >> uint(shift)
	if length <= 0 {
		return 0, fmt.Errorf("wmapro: invalid frame_len_shift %d", shift)
	}
	return length, nil
}
