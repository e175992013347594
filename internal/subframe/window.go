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

import "github.com/hajimehoshi/go-wmapro/internal/tables"

// applyWindow blends a subframe's freshly IMDCT'd block (already written
// into c.Out at [coeffOffset, coeffOffset+subframeLen)) with the trailing
// half of the previous block, per §4.9. coeffOffset is the ring index
// corresponding to the subframe's first output sample.
func applyWindow(c *Channel, coeffOffset, subframeLen int) {
	winlen := c.PrevBlockLen
	if winlen == 0 {
		c.PrevBlockLen = subframeLen
		return
	}
	start := coeffOffset - winlen/2
	if subframeLen < winlen {
		start += (winlen - subframeLen) / 2
		winlen = subframeLen
	}

	idx := tables.BlockIndex(winlen)
	if idx < 0 {
		c.PrevBlockLen = subframeLen
		return
	}
	window := tables.SineWindows[idx]

	half := winlen / 2
	for i := 0; i < half; i++ {
		ai := start + i
		bi := start + winlen - 1 - i
		if ai < 0 || bi >= len(c.Out) {
			continue
		}
		a := int64(c.Out[ai])
		b := int64(c.Out[bi])
		wi := int64(window[i])
		wj := int64(window[winlen-1-i])
		c.Out[ai] = int32((a*wj - b*wi) >> 30)
		c.Out[bi] = int32((a*wi + b*wj) >> 30)
	}

	c.PrevBlockLen = subframeLen
}
