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

// Package scalefactor decodes per-band scale factors (§4.5): either a
// fresh DPCM-coded vector, or a run-level-coded delta against the
// previously transmitted (and resampled) vector. Grounded on
// wmaprodec.c's decode_scale_factors.
package scalefactor

import (
	"fmt"

	"github.com/hajimehoshi/go-wmapro/internal/bitreader"
	"github.com/hajimehoshi/go-wmapro/internal/tables"
)

// State is the persistent per-channel scale-factor memory (§3: "two
// scale-factor banks ... with a toggle").
type State struct {
	Banks    [2][]int32
	BankIdx  int
	TableIdx int
	ReuseSF  bool
	Step     int32 // scale_factor_step, re-read on every fresh DPCM transmission (!ReuseSF)
}

// NewState returns a zeroed scale-factor state for a channel.
func NewState() *State {
	return &State{Banks: [2][]int32{make([]int32, tables.MaxBands), make([]int32, tables.MaxBands)}}
}

// ResetFrame clears ReuseSF at the start of a new frame. wmaprodec.c's
// decode_frame resets reuse_sf for every channel before its subframe loop
// runs, so the first subframe of every frame always transmits scale
// factors fresh (DPCM from scratch) rather than resampling the previous
// frame's saved bank; resampling only happens subframe-to-subframe within
// one frame. The saved banks themselves still carry over (cur_subframe==0
// forces a fresh transmission regardless, so the old bank is simply never
// read again until the next in-frame subframe sets ReuseSF true).
func (s *State) ResetFrame() {
	s.ReuseSF = false
}

// Decode parses one channel's scale factors for the current subframe.
// blockLen is the subframe's length in samples, curSubframe is its index
// within the channel's subframe list; the band count derives from blockLen
// via tables.SfbOffsets. Returns the active band vector and the
// max scale factor across it.
func (s *State) Decode(r *bitreader.Reader, blockLen, curSubframe int) ([]int32, int32, error) {
	tableIdx := tables.BlockIndex(blockLen)
	if tableIdx < 0 {
		return nil, 0, fmt.Errorf("wmapro: unsupported block length %d", blockLen)
	}
	numBands := len(tables.SfbOffsets[tableIdx]) - 1

	active := s.Banks[1-s.BankIdx]
	if cap(active) < numBands {
		active = make([]int32, numBands)
	}
	active = active[:numBands]

	if s.ReuseSF {
		srcMap := tables.SfOffsets(tables.BlockSizes[s.TableIdx], blockLen)
		prev := s.Banks[s.BankIdx]
		for b := 0; b < numBands; b++ {
			srcBand := 0
			if b < len(srcMap) {
				srcBand = srcMap[b]
			}
			if srcBand < len(prev) {
				active[b] = prev[srcBand]
			}
		}
	}

	sendNew := curSubframe == 0 || r.Bit() == 1
	if sendNew {
		if !s.ReuseSF {
			step := int(r.Bits(2)) + 1
			s.Step = int32(step)
			val := int32(45 / step)
			for b := 0; b < numBands; b++ {
				idx, err := r.Decode(&tables.ScaleFactorVLC)
				if err != nil {
					return nil, 0, err
				}
				val += tables.ScaleFactorDeltas[idx]
				active[b] = val
			}
		} else {
			if err := runLevelDecode(r, active, numBands); err != nil {
				return nil, 0, err
			}
		}
		s.BankIdx = 1 - s.BankIdx
		s.Banks[s.BankIdx] = active
		s.TableIdx = tableIdx
		s.ReuseSF = true
	}

	var max int32
	for _, v := range active {
		if v > max {
			max = v
		}
	}
	return active, max, nil
}

func runLevelDecode(r *bitreader.Reader, active []int32, numBands int) error {
	band := 0
	for {
		idx, err := r.Decode(&tables.ScaleFactorRunLevelVLC)
		if err != nil {
			return err
		}
		if idx == 1 {
			return nil // EOB
		}
		var skip int
		var val int32
		if idx == 0 {
			code := r.Bits(14)
			val = int32(code >> 6)
			skip = int((code & 0x3f) >> 1)
			sign := int32(0)
			if code&1 == 0 {
				sign = -1
			}
			val = (val ^ sign) - sign
		} else {
			skip = tables.ScaleFactorRLRun[idx]
			v := tables.ScaleFactorRLLevel[idx]
			sign := int32(-1)
			if r.Bit() == 1 {
				sign = 0
			}
			val = (v ^ sign) - sign
		}
		band += skip
		if band >= numBands {
			return fmt.Errorf("wmapro: scale-factor band index overrun")
		}
		active[band] += val
	}
}
