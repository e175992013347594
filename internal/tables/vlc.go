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

// Symbol layout, grounded on wmaprodec.c's sf_vlc/sf_rl_vlc/vec4_vlc/
// vec2_vlc/vec1_vlc/coef_vlc[2] (original_source), §4.5 and §4.6 of the
// spec:
//
//   - ScaleFactorVLC: one symbol per representable DPCM delta. Decode()
//     yields an index into ScaleFactorDeltas, which holds the signed delta
//     (§4.5: "val += VLC - 60").
//   - ScaleFactorRunLevelVLC: symbol 0 is the raw-escape marker, symbol 1
//     is EOB; symbols >=2 index ScaleFactorRLRun/ScaleFactorRLLevel.
//   - Vec4VLC/Vec2VLC/Vec1VLC: the last symbol (Size-1) is the escape code
//     (§4.6); all other symbols index Vec4Values/Vec2Values/Vec1Values.
//   - CoefRunLevelVLC[0], CoefRunLevelVLC[1]: two independently-built
//     run-level tables selected by the coefficient decoder's 1-bit VLC
//     variant selector (§4.6 step 1); symbol 0 is escape, symbol 1 is EOB,
//     symbols >=2 index CoefRLRun[v]/CoefRLLevel[v].

var (
	ScaleFactorVLC     VLCTable
	ScaleFactorDeltas  []int32

	ScaleFactorRunLevelVLC VLCTable
	ScaleFactorRLRun       []int
	ScaleFactorRLLevel     []int32

	Vec4VLC    VLCTable
	Vec4Values [][4]int32

	Vec2VLC    VLCTable
	Vec2Values [][2]int32

	Vec1VLC    VLCTable
	Vec1Values []int32

	CoefRunLevelVLC [2]VLCTable
	CoefRLRun       [2][]int
	CoefRLLevel     [2][]int32
)

func init() {
	buildScaleFactorVLC()
	buildScaleFactorRunLevelVLC()
	buildVecVLCs()
	buildCoefRunLevelVLCs()
}

// symmetricFreqs peaks at the center index (the zero-delta symbol) and
// decays geometrically outward, the Laplacian-like shape DPCM residuals
// and run-level magnitudes both follow.
func symmetricFreqs(n int, ratio float64) []int {
	center := (n - 1) / 2
	f := make([]int, n)
	for i := 0; i < n; i++ {
		d := i - center
		if d < 0 {
			d = -d
		}
		v := 1 << 24
		for k := 0; k < d; k++ {
			v = int(float64(v) * ratio)
			if v < 1 {
				v = 1
			}
		}
		f[i] = v
	}
	return f
}

func buildScaleFactorVLC() {
	const n = 121 // deltas -60..60
	ScaleFactorDeltas = make([]int32, n)
	for i := range ScaleFactorDeltas {
		ScaleFactorDeltas[i] = int32(i - 60)
	}
	bits, codes := buildCanonicalHuffman(symmetricFreqs(n, 0.82))
	ScaleFactorVLC = newVLC(bits, codes)
}

func buildScaleFactorRunLevelVLC() {
	// Symbols 0 (escape) and 1 (EOB) are reserved; the rest enumerate
	// (run, level) pairs with run in [1,8] and level in [1,24], most
	// common (short run, small level) pairs first.
	const maxRun = 8
	const maxLevel = 24
	type pair struct{ run, level int }
	var pairs []pair
	for level := 1; level <= maxLevel; level++ {
		for run := 1; run <= maxRun; run++ {
			pairs = append(pairs, pair{run, level})
		}
	}
	n := 2 + len(pairs)
	ScaleFactorRLRun = make([]int, n)
	ScaleFactorRLLevel = make([]int32, n)
	freqs := make([]int, n)
	freqs[0] = 1 << 18 // escape: rare but present
	freqs[1] = 1 << 22 // EOB: very common (ends every band run)
	for i, p := range pairs {
		idx := 2 + i
		ScaleFactorRLRun[idx] = p.run
		ScaleFactorRLLevel[idx] = int32(p.level)
		// Smaller run*level combos are far more probable.
		weight := 1.0 / float64(p.run*p.level)
		freqs[idx] = int(weight * (1 << 20))
		if freqs[idx] < 1 {
			freqs[idx] = 1
		}
	}
	bits, codes := buildCanonicalHuffman(freqs)
	ScaleFactorRunLevelVLC = newVLC(bits, codes)
}

// magnitudeAlphabet returns the unsigned magnitude alphabet {0, ..., lim}
// used for one coordinate of a vector-coded symbol. The coefficient
// decoder applies sign separately (§4.6 step 2: "if nonzero, read 1 sign
// bit"), so these tables carry magnitude only, zero included so a
// zero-run can be recognized without falling back to escape.
func magnitudeAlphabet(lim int32) []int32 {
	vals := make([]int32, 0, lim+1)
	for v := int32(0); v <= lim; v++ {
		vals = append(vals, v)
	}
	return vals
}

func buildVecVLCs() {
	a4 := magnitudeAlphabet(1) // {0,1}
	for _, x := range a4 {
		for _, y := range a4 {
			for _, z := range a4 {
				for _, w := range a4 {
					Vec4Values = append(Vec4Values, [4]int32{x, y, z, w})
				}
			}
		}
	}
	Vec4VLC = buildVLCWithEscape(Vec4Values, func(v [4]int32) int {
		s := 0
		for _, c := range v {
			s += int(c)
		}
		return s
	})

	a2 := magnitudeAlphabet(3)
	for _, x := range a2 {
		for _, y := range a2 {
			Vec2Values = append(Vec2Values, [2]int32{x, y})
		}
	}
	Vec2VLC = buildVLCWithEscape(Vec2Values, func(v [2]int32) int {
		return int(v[0] + v[1])
	})

	Vec1Values = magnitudeAlphabet(9)
	Vec1VLC = buildVLCWithEscape(Vec1Values, func(v int32) int {
		return int(v)
	})
}

// buildVLCWithEscape builds a VLC over values ++ one trailing escape
// symbol, weighting frequency by an application-supplied "magnitude" of
// each value (smaller magnitude => more probable => shorter code), matching
// §4.6's requirement that the escape code be the table's final (size-1)
// symbol.
func buildVLCWithEscape[T any](values []T, magnitude func(T) int) VLCTable {
	n := len(values) + 1
	freqs := make([]int, n)
	for i, v := range values {
		m := magnitude(v)
		w := 1 << 20
		for k := 0; k < m; k++ {
			w = w * 6 / 10
			if w < 1 {
				w = 1
			}
		}
		freqs[i] = w
	}
	freqs[n-1] = 1 // escape: least probable of all, still present
	bits, codes := buildCanonicalHuffman(freqs)
	return newVLC(bits, codes)
}

func buildCoefRunLevelVLCs() {
	// Two independently-shaped run-level tables (finer/coarser run
	// granularity), selected per subframe by the coefficient decoder's
	// table-select bit (§4.6 step 1).
	runLimits := [2]int{32, 64}
	levelLimits := [2]int{40, 24}
	for v := 0; v < 2; v++ {
		maxRun := runLimits[v]
		maxLevel := levelLimits[v]
		type pair struct{ run, level int }
		var pairs []pair
		for level := 1; level <= maxLevel; level++ {
			for run := 1; run <= maxRun; run++ {
				pairs = append(pairs, pair{run, level})
			}
		}
		n := 2 + len(pairs)
		CoefRLRun[v] = make([]int, n)
		CoefRLLevel[v] = make([]int32, n)
		freqs := make([]int, n)
		freqs[0] = 1 << 16 // escape
		freqs[1] = 1 << 22 // EOB
		for i, p := range pairs {
			idx := 2 + i
			CoefRLRun[v][idx] = p.run
			CoefRLLevel[v][idx] = int32(p.level)
			weight := 1.0 / float64(p.run*p.level)
			freqs[idx] = int(weight * (1 << 20))
			if freqs[idx] < 1 {
				freqs[idx] = 1
			}
		}
		bits, codes := buildCanonicalHuffman(freqs)
		CoefRunLevelVLC[v] = newVLC(bits, codes)
	}
}
