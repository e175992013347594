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

// Package imdct implements the half-IMDCT engine (§4.8): a pre-rotation,
// a complex FFT of size N/4, and a post-rotation, all in Q1.30 fixed point.
//
// wmaprodec.c materializes fft_4/fft_8/.../fft_4096 as hand-unrolled
// recursive-macro expansions dispatched by log2(size)-2 (see
// "Recursive FFT via code-generation macros" in spec.md §9). That note
// explicitly sanctions either a table of specialized routines or "generic
// code over a compile-time size parameter" — we take the latter: one
// recursive Cooley-Tukey FFT parameterized by size, with a single
// 4096-entry twiddle table shared across all sizes (matching the
// reference's fixed sincos_lookup0 table, just large enough to cover this
// package's full size range instead of being recomputed per size).
package imdct

import (
	"math"

	"github.com/hajimehoshi/go-wmapro/internal/tables"
)

// Complex is a Q1.30 fixed-point complex sample.
type Complex struct {
	Re, Im int32
}

const twiddleBits = 12
const twiddleSize = 1 << twiddleBits // 4096

var twiddleCos, twiddleSin [twiddleSize]int32

func init() {
	for i := 0; i < twiddleSize; i++ {
		a := 2 * math.Pi * float64(i) / float64(twiddleSize)
		twiddleCos[i] = int32(math.Cos(a) * (1 << 30))
		twiddleSin[i] = int32(math.Sin(a) * (1 << 30))
	}
}

// twiddle returns e^{-2*pi*i*k/n} in Q1.30, looked up from the shared
// table by striding it at twiddleSize/n.
func twiddle(k, n int) Complex {
	idx := (k * (twiddleSize / n)) & (twiddleSize - 1)
	return Complex{Re: twiddleCos[idx], Im: -twiddleSin[idx]}
}

func cmul(a, b Complex) Complex {
	re := int32((int64(a.Re)*int64(b.Re) - int64(a.Im)*int64(b.Im)) >> 30)
	im := int32((int64(a.Re)*int64(b.Im) + int64(a.Im)*int64(b.Re)) >> 30)
	return Complex{Re: re, Im: im}
}

func cadd(a, b Complex) Complex { return Complex{a.Re + b.Re, a.Im + b.Im} }
func csub(a, b Complex) Complex { return Complex{a.Re - b.Re, a.Im - b.Im} }

// fft computes an in-place-equivalent (returns a new slice) complex DFT of
// x, length a power of two. Uses a scaled butterfly (each add/sub halved)
// to bound fixed-point growth across log2(n) stages, standard practice for
// fixed-point FFTs and the reason the rescale stage (§4.7) pre-budgets a
// matching number of headroom bits via its block-size-dependent shift.
func fft(x []Complex) []Complex {
	n := len(x)
	if n == 1 {
		return []Complex{x[0]}
	}
	even := make([]Complex, n/2)
	odd := make([]Complex, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = x[2*i]
		odd[i] = x[2*i+1]
	}
	fe := fft(even)
	fo := fft(odd)
	out := make([]Complex, n)
	for k := 0; k < n/2; k++ {
		t := cmul(twiddle(k, n), fo[k])
		a := Complex{fe[k].Re >> 1, fe[k].Im >> 1}
		b := Complex{t.Re >> 1, t.Im >> 1}
		out[k] = cadd(a, b)
		out[k+n/2] = csub(a, b)
	}
	return out
}

// HalfIMDCT computes the windowed-overlap-add-ready half-IMDCT of a
// subframe's N=2*len(in) dequantized coefficients, returning N/2 samples
// (Q1.30) — the two half-blocks consumed by windowing (§4.9). len(in) must
// be subframeLen; N/4 (=len(in)/2) must be a power of two.
func HalfIMDCT(in []int32, mdctBits int) []int32 {
	n := len(in) * 2
	quarter := n / 4

	// Pre-rotation (§4.8 step 2): pair up input samples, rotate each pair
	// by (tcos[k], tsin[k]) = -twiddle(k, n) evaluated at k+0.125 turns,
	// and scatter into bit-reversed order.
	z := make([]Complex, quarter)
	for k := 0; k < quarter; k++ {
		a := in[n/2-1-2*k]
		b := in[2*k]
		tw := preRotationTwiddle(k, n)
		re := int32((int64(a)*int64(tw.Re) - int64(b)*int64(tw.Im)) >> 30)
		im := int32((int64(a)*int64(tw.Im) + int64(b)*int64(tw.Re)) >> 30)
		j := int(tables.RevTab12[k]) >> uint(12-(mdctBits-2))
		z[j] = Complex{Re: re, Im: im}
	}

	z = fft(z)

	// Post-rotation (§4.8 step 4): pair up conjugate-symmetric outputs and
	// rotate back, producing the N/2-sample half-MDCT sequence in place.
	out := make([]int32, n/2)
	eighth := n / 8
	for k := 0; k < eighth; k++ {
		i0 := eighth - 1 - k
		i1 := eighth + k
		tw0 := preRotationTwiddle(i0, n)
		tw1 := preRotationTwiddle(i1, n)

		r0 := rotatePost(z[i0], tw0)
		r1 := rotatePost(z[i1], tw1)

		out[2*i0] = r0.Re
		out[2*i0+1] = r0.Im
		out[2*i1] = r1.Re
		out[2*i1+1] = r1.Im
	}
	return out
}

func rotatePost(c, tw Complex) Complex {
	re := int32((int64(c.Re)*int64(tw.Im) + int64(c.Im)*int64(tw.Re)) >> 30)
	im := int32((int64(c.Im)*int64(tw.Im) - int64(c.Re)*int64(tw.Re)) >> 30)
	return Complex{Re: re, Im: im}
}

// preRotationTwiddle returns (-cos(a), -sin(a)) for a = (k+0.125)*2*pi/n,
// matching §4.8 step 1's tcos/tsin definition.
func preRotationTwiddle(k, n int) Complex {
	idx := int((float64(k) + 0.125) * float64(twiddleSize) / float64(n))
	idx &= twiddleSize - 1
	return Complex{Re: -twiddleCos[idx], Im: -twiddleSin[idx]}
}

