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

// Package subframe decodes one subframe "block" — the group of channels
// sharing a starting offset and length (§4.3) — and drives
// inverse quantization/rescale (§4.7), the IMDCT (via internal/imdct) and
// windowed overlap-add (§4.9) for it. Grounded on wmaprodec.c's
// decode_subframe and wmapro_window.
package subframe

import "github.com/hajimehoshi/go-wmapro/internal/scalefactor"

// Channel is the persistent per-channel decode state that survives across
// subframes and frames (§3: "per-channel state").
type Channel struct {
	// Out is the output ring: the top half holds the previous block's
	// overlap tail, the bottom half receives the next block's windowed
	// contribution, mirroring the source's fixout32 ring (§3).
	Out          []int32
	ScaleFactor  *scalefactor.State
	PrevBlockLen int
	LFE          bool
}

// NewChannel allocates a channel's state sized for a stream whose largest
// subframe is samplesPerFrame samples.
func NewChannel(samplesPerFrame int, lfe bool) *Channel {
	return &Channel{
		Out:         make([]int32, samplesPerFrame+samplesPerFrame/2),
		ScaleFactor: scalefactor.NewState(),
		LFE:         lfe,
	}
}

// Flush zeroes the overlap history (§5: "flush ... zeroes all per-channel
// overlap buffers").
func (c *Channel) Flush() {
	for i := range c.Out {
		c.Out[i] = 0
	}
	c.PrevBlockLen = 0
}
