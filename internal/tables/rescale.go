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

package tables

import "math"

// Pow10Mantissa[r] / Pow10Exp2[r] represent 10^(r/20) for r in [0,20) as a
// normalized Q0.31 mantissa plus a base-2 exponent, mirroring wmaprodec.c's
// pow10_1_20sf/pow10_1_20exp2 pair (§4.7).
var (
	Pow10Mantissa [20]int32
	Pow10Exp2     [20]int
)

func init() {
	for r := 0; r < 20; r++ {
		v := math.Pow(10, float64(r)/20.0)
		mant, exp := math.Frexp(v)
		// Frexp gives mant in [0.5,1); shift into Q0.31 (mant*2^31 fits an
		// int32 since mant < 1).
		Pow10Mantissa[r] = int32(mant * (1 << 31))
		Pow10Exp2[r] = exp
	}
}
