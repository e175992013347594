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

// q0Const2over5 is 0.4 in Q0.31, the per-step multiplier used to fold a
// negative 5^q into the mantissa when q<0 (§4.7: "special handling for
// q<0: invert by successive scaling of the base table value").
const q0Const2over5 = int32(0.4 * (1 << 31))

// bandScalar computes the rescale mantissa and shift for one scale-factor
// band (§4.7): exponent e = quant_step - (max_scale_factor - sf)*step,
// decomposed into e = 20*q + r with r in [0,20); returns a Q0.31 mantissa
// and a signed right-shift amount such that
//
//	rescaled = ((coef * mantissa) >> 31) >> shift
//
// (a negative shift is a left shift), i.e. coef * 10^(e/20) * 2^-scaleShift.
func bandScalar(quantStep int, maxScaleFactor, sf, scaleFactorStep int32, scaleShift int) (mantissa int64, shift int) {
	e := quantStep - int(maxScaleFactor-sf)*int(scaleFactorStep)
	expfrac := e % 20
	expint := e / 20
	if expfrac < 0 {
		expint--
		expfrac += 20
	}

	fixquant10 := tables.Pow10Mantissa[expfrac]
	fixquant5 := int64(1)
	switch {
	case expint > 0:
		for i := 0; i < expint; i++ {
			fixquant5 *= 5
		}
	case expint < 0:
		for i := 0; i < -expint; i++ {
			fixquant10 = int32((int64(fixquant10) * int64(q0Const2over5)) >> 31)
		}
	}

	mantissa = int64(fixquant10) * fixquant5
	shift = scaleShift - expint - tables.Pow10Exp2[expfrac]
	return mantissa, shift
}

func shiftSigned(v int64, shift int) int64 {
	if shift >= 0 {
		return v << uint(shift)
	}
	return v >> uint(-shift)
}

func clampInt32(v int64) int32 {
	if v > 0x7fffffff {
		return 0x7fffffff
	}
	if v < -0x80000000 {
		return -0x80000000
	}
	return int32(v)
}
