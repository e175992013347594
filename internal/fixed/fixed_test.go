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

package fixed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestSinCosUnitCircle checks spec.md §8 property 4: sin^2+cos^2 ~= 1
// within 2^-22 across a uniform sample of phases.
func TestSinCosUnitCircle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		phase := rapid.Uint32().Draw(t, "phase")
		sin, cos := SinCos(phase)

		s := float64(sin) / (1 << 30)
		c := float64(cos) / (1 << 30)
		mag := s*s + c*c

		assert.InDelta(t, 1.0, mag, 1.0/(1<<22), "sin^2+cos^2 should be ~1 for phase %d", phase)
	})
}

func TestSinCosKnownAngles(t *testing.T) {
	// phase=0 -> angle 0: sin=0, cos=1.
	sin, cos := SinCos(0)
	assert.InDelta(t, 0, float64(sin)/(1<<30), 1e-3)
	assert.InDelta(t, 1, float64(cos)/(1<<30), 1e-3)

	// phase=1<<30 -> quarter turn (90deg): sin=1, cos=0.
	sin, cos = SinCos(1 << 30)
	assert.InDelta(t, 1, float64(sin)/(1<<30), 1e-3)
	assert.InDelta(t, 0, float64(cos)/(1<<30), 1e-3)
}

func TestClipInt16(t *testing.T) {
	assert.Equal(t, int16(32767), ClipInt16(100000))
	assert.Equal(t, int16(-32768), ClipInt16(-100000))
	assert.Equal(t, int16(42), ClipInt16(42))
}

func TestLog2(t *testing.T) {
	cases := map[int]int{1: 0, 2: 1, 4: 2, 1024: 10, 8192: 13}
	for v, want := range cases {
		assert.Equal(t, want, Log2(v), "Log2(%d)", v)
	}
	assert.Equal(t, 0, Log2(0))
}

func TestMul32Identity(t *testing.T) {
	one := Q31(1 << 30) // not full-scale 1.0 (that overflows Q1.31), used as a half-scale probe
	rapid.Check(t, func(t *rapid.T) {
		a := Q31(rapid.Int32().Draw(t, "a"))
		got := Mul32(a, one)
		want := Q31((int64(a) * int64(one)) >> 31)
		assert.Equal(t, want, got)
	})
}
