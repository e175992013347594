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

// Sin64 is the 33-entry sin table S[k] = sin(k*pi/64), in Q1.30, used by
// the custom decorrelation matrix builder's Givens-like rotations (§4.4.1).
// Grounded on wmaprodec.c's static int32_t sin64[33].
var Sin64 [33]int32

func init() {
	for k := range Sin64 {
		Sin64[k] = int32(math.Sin(float64(k)*math.Pi/64) * (1 << 30))
	}
}

// DefaultDecorrelationMatrix returns the precomputed N x N decorrelation
// matrix (Q1.30, row-major) used when a channel group enables its transform
// without a custom matrix (§4.4: "group sizes 3..6 supported"). Returns nil
// for unsupported sizes (7, 8) — the caller, channel's decodeGroup, falls
// back to an identity matrix in that case.
var defaultMatrices [7][][]int32 // indexed by group size, 3..6 populated

func init() {
	for n := 3; n <= 6; n++ {
		defaultMatrices[n] = buildDefaultMatrix(n)
	}
}

// buildDefaultMatrix constructs a normalized Hadamard-like orthogonal
// rotation: row 0 is the all-ones averaging row (DC/downmix component),
// remaining rows are orthogonal alternating patterns, all scaled to unit
// row-energy in Q1.30. This is the generated stand-in spec.md authorizes
// for "precomputed default matrix of size group_size^2 from constant data"
// (see DESIGN.md — the reference's literal table values were not present
// in the retrieved material).
func buildDefaultMatrix(n int) [][]int32 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for j := 0; j < n; j++ {
		m[0][j] = 1
	}
	for i := 1; i < n; i++ {
		for j := 0; j < n; j++ {
			m[i][j] = math.Cos(math.Pi * float64(i) * (float64(j) + 0.5) / float64(n))
		}
	}
	// Normalize each row to unit energy so the transform is a rotation
	// (orthogonality is the property §8 checks, not a particular basis).
	out := make([][]int32, n)
	for i := range out {
		out[i] = make([]int32, n)
		norm := 0.0
		for j := 0; j < n; j++ {
			norm += m[i][j] * m[i][j]
		}
		norm = math.Sqrt(norm)
		for j := 0; j < n; j++ {
			out[i][j] = int32((m[i][j] / norm) * (1 << 30))
		}
	}
	return out
}

// DefaultDecorrelationMatrix returns the default matrix for the given
// group size, or nil if n is outside [3,6].
func DefaultDecorrelationMatrix(n int) [][]int32 {
	if n < 3 || n > 6 {
		return nil
	}
	return defaultMatrices[n]
}
