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

// Package fixed holds the fixed-point primitives the decoder's DSP stages
// are built on: a documented Q1.31/Q1.30 multiply-and-shift convention, a
// saturating clip, an integer log2, and a CORDIC sin/cos. Grounded on
// wmaprodec.c's fixed32/fixed64 typedefs and its fsincos/atan_table CORDIC
// routine (original_source), re-expressed with an explicit newtype instead
// of bare int32/int64 arithmetic at call sites (see DESIGN.md).
package fixed

// Q31 is a Q1.31 fixed-point sample: one sign bit, 31 fractional bits.
type Q31 int32

// Mul32 multiplies two Q1.31 values via a 64-bit intermediate, rounding by
// truncation, matching the reference's plain 32x32->64 multiply followed by
// a >>31. This is the workhorse of decorrelation and rescale.
func Mul32(a, b Q31) Q31 {
	return Q31((int64(a) * int64(b)) >> 31)
}

// MulShift1 implements the spec's "(Q1*Q0 - Q1*Q0)_Q1 rounded via 64-bit
// multiply, then <<1" Givens-rotation convention: two Q1.31 operands
// multiply into a 64-bit accumulator at Q2.62, then are shifted by >>30,
// one shift short of >>31, so the result already carries the <<1. The
// custom decorrelation matrix builder in internal/channel does not call
// it; it uses its own int32 helper, mulQ30Shift1.
func MulShift1(a, b Q31) int64 {
	return (int64(a) * int64(b)) >> 30
}

// ClipInt16 saturates v (expected to already be right-shifted into
// approximately Q0.15 range) to the int16 range, per spec §4.11.
func ClipInt16(v int64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// Log2 returns floor(log2(v)) for v > 0, and 0 for v <= 0. Used to derive
// table_idx and mdct_bits from block sizes, which are always powers of two.
func Log2(v int) int {
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// cordic_circular_gain from wmaprodec.c, the CORDIC scaling factor
// prod(cos(atan(2^-i))) ~= 0.607252935 in Q1.30, which brings a vector run
// through numCordicIterations micro-rotations back to unit magnitude.
const cordicGain Q31 = 0x26dd3b6a // 0.607252935 in Q1.30

// atanTable holds atan(2^-i) values in radians*2^32/(2*pi) (binary angle
// measure), i = 0..numCordicIterations-1, matching wmaprodec.c's
// atan_table so SinCos below reproduces the reference's convergence rate.
var atanTable = buildAtanTable()

const numCordicIterations = 24

func buildAtanTable() [numCordicIterations]uint32 {
	var t [numCordicIterations]uint32
	// Computed once from atan(2^-i)/(2*pi) * 2^32, matching the
	// reference's binary-angle CORDIC convention (phase is a uint32
	// covering one full turn).
	angles := [numCordicIterations]float64{
		0.125, 0.0737918088, 0.0389895652, 0.0197917121, 0.00993426215, 0.00497197391,
		0.00248659364, 0.0012433727, 0.000621695834, 0.000310849103, 0.0001554247,
		0.0000777123684, 0.0000388561865, 0.0000194280935, 0.00000971404681, 0.00000485702341,
		0.0000024285117, 0.00000121425585, 0.000000607127926, 0.000000303563963,
		0.000000151781982, 0.0000000758909908, 0.0000000379454954, 0.0000000189727477,
	}
	for i, a := range angles {
		t[i] = uint32(a * 4294967296.0)
	}
	return t
}

// SinCos computes an approximate (sin, cos) pair for a binary-angle phase
// (a full turn is 1<<32) using the same iterative shift-and-add CORDIC
// rotation as wmaprodec.c's fsincos, to within the spec's required 2^-22
// precision (§8, property 4). Results are Q1.30: +-1.0 maps to +-(1<<30).
func SinCos(phase uint32) (sin, cos int32) {
	// Reduce to a quadrant (phase's top two bits) plus a signed residual
	// centered on the quadrant's 45-degree midpoint, then seed the
	// rotation at 45 degrees so the standard rotation-mode CORDIC
	// (which only converges for residuals within about +-90 degrees)
	// covers the full circle, mirroring fsincos's quadrant fixup.
	quadrant := phase >> 30
	const half float64 = 1 << 29
	a := int32(int64(phase&0x3fffffff) - int64(half))

	const invSqrt2Q30 = int64(0.70710678 * (1 << 30))
	x := invSqrt2Q30 // cos(45deg) seed, pre-gain
	y := invSqrt2Q30 // sin(45deg) seed, pre-gain

	for i := 0; i < numCordicIterations; i++ {
		dx := x >> uint(i)
		dy := y >> uint(i)
		if a >= 0 {
			x -= dy
			y += dx
			a -= int32(atanTable[i])
		} else {
			x += dy
			y -= dx
			a += int32(atanTable[i])
		}
	}
	// Apply the CORDIC gain correction (~0.60725) to normalize magnitude.
	x = (x * int64(cordicGainQ30)) >> 30
	y = (y * int64(cordicGainQ30)) >> 30

	switch quadrant {
	case 0:
		cos, sin = int32(x), int32(y)
	case 1:
		cos, sin = -int32(y), int32(x)
	case 2:
		cos, sin = -int32(x), -int32(y)
	default:
		cos, sin = int32(y), -int32(x)
	}
	return sin, cos
}

const cordicGainQ30 = int32(0.6072529350088812 * (1 << 30))
