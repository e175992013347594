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
	"math"

	"github.com/hajimehoshi/go-wmapro/internal/fixed"
)

// downmixShift is 27-15, the right shift from the IMDCT's nominal Q27
// output range down to Q0.15 before int16 clipping (§4.11).
const downmixShift = 27 - 15

// downmix reads each channel's finished ring output (indices [0,
// samples_per_frame), per wmaprodec.c's decode_frame output loop — the
// ring's first half holds this frame's windowed-and-blended result once
// every subframe has run; see DESIGN.md for why this implementation
// follows the original's index range over spec.md's "second half"
// wording), applies the §4.11 per-channel-count matrix, optional DRC
// gain, and clips to int16. It then shifts the ring so the next frame's
// overlap tail is in place.
func (d *Decoder) downmix() []int16 {
	n := d.cfg.samplesPerFrame
	out := d.OutputChannels()
	pcm := make([]int16, n*out)

	gain := int64(1 << 16)
	if d.applyDRC && d.drcGain != 0 {
		// No reference formula for drc_gain's linear scale survived in
		// the retrieved original_source (it is parsed and stored but
		// never applied there either, see DESIGN.md); approximated here
		// as a conventional dB-style gain purely for the opt-in path.
		db := (float64(d.drcGain) - 64) / 4
		gain = int64(math.Pow(10, db/20) * (1 << 16))
	}

	get := func(c, i int) int64 {
		v := int64(d.channels[c].Out[i])
		if d.applyDRC && d.drcGain != 0 {
			v = (v * gain) >> 16
		}
		return v
	}

	switch {
	case d.cfg.numChannels == 1:
		for i := 0; i < n; i++ {
			pcm[i] = fixed.ClipInt16(get(0, i) >> downmixShift)
		}
	case d.cfg.numChannels == 2:
		for i := 0; i < n; i++ {
			pcm[2*i] = fixed.ClipInt16(get(0, i) >> downmixShift)
			pcm[2*i+1] = fixed.ClipInt16(get(1, i) >> downmixShift)
		}
	case d.cfg.numChannels == 3:
		for i := 0; i < n; i++ {
			pcm[2*i] = fixed.ClipInt16((get(0, i) + get(2, i)) >> downmixShift)
			pcm[2*i+1] = fixed.ClipInt16((get(1, i) + get(2, i)) >> downmixShift)
		}
	case d.cfg.numChannels == 4:
		for i := 0; i < n; i++ {
			pcm[2*i] = fixed.ClipInt16((get(0, i) + get(2, i)) >> downmixShift)
			pcm[2*i+1] = fixed.ClipInt16((get(1, i) + get(3, i)) >> downmixShift)
		}
	default:
		for i := 0; i < n; i++ {
			pcm[2*i] = fixed.ClipInt16((get(0, i) + get(2, i) + get(3, i)) >> downmixShift)
			pcm[2*i+1] = fixed.ClipInt16((get(1, i) + get(2, i) + get(4, i)) >> downmixShift)
		}
	}

	half := n / 2
	for _, c := range d.channels {
		copy(c.Out[:half], c.Out[n:n+half])
	}
	return pcm
}
