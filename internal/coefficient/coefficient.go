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

// Package coefficient decodes one channel's spectral coefficients for a
// subframe (§4.6): an optional vector-coded phase over 4/2/1-value Huffman
// symbols, falling back to a run-level phase for the remainder. Grounded on
// wmaprodec.c's decode_coefficients.
package coefficient

import (
	"fmt"

	"github.com/hajimehoshi/go-wmapro/internal/bitreader"
	"github.com/hajimehoshi/go-wmapro/internal/tables"
)

// Decode reads subframeLen coefficients, returned as Q64 values (the
// integer coefficient left-shifted into the high 32 bits, per §4.6's
// storage convention for 64-bit decorrelation MACs). numVecCoeffs and
// transmitNumVec govern whether (and how far) the vector-coded phase runs
// before falling back to run-level coding for the tail. frameLenBits is
// the bit width of the "big jump" field in the run-level escape path.
func Decode(r *bitreader.Reader, subframeLen int, transmitNumVec bool, numVecCoeffs, frameLenBits int) ([]int64, error) {
	coefs := make([]int64, subframeLen)

	variant := int(r.Bits(1))
	runVLC := &tables.CoefRunLevelVLC[variant]
	runLen := tables.CoefRLRun[variant]
	runLevel := tables.CoefRLLevel[variant]

	cur := 0
	zeroThresh := subframeLen / 256

	if transmitNumVec {
		zeroRun := 0
	vectorLoop:
		for cur+3 < numVecCoeffs {
			vals, err := decodeVec4(r)
			if err != nil {
				return nil, err
			}
			for _, mag := range vals {
				if cur >= subframeLen {
					break vectorLoop
				}
				if mag != 0 {
					signed, err := applySign(r, mag)
					if err != nil {
						return nil, err
					}
					coefs[cur] = int64(signed) << 32
					zeroRun = 0
				} else {
					zeroRun++
				}
				cur++
				if zeroRun > zeroThresh {
					break vectorLoop
				}
			}
		}
	}

	pos := cur
	for {
		idx, err := r.Decode(runVLC)
		if err != nil {
			return nil, err
		}
		if idx == 1 {
			break // EOB
		}

		var skip int
		var mag int32
		if idx == 0 {
			mag, err = decodeLargeEscape(r)
			if err != nil {
				return nil, err
			}
			skip = 1
			if r.Bit() == 1 { // has jump
				if r.Bit() == 1 { // big jump
					if r.Bit() == 1 {
						return nil, fmt.Errorf("wmapro: invalid coefficient jump code")
					}
					skip = int(r.Bits(frameLenBits)) + 4
				} else {
					skip = int(r.Bits(2)) + 1
				}
			}
		} else {
			skip = runLen[idx]
			mag = runLevel[idx]
		}

		pos += skip
		if pos > subframeLen {
			return nil, fmt.Errorf("wmapro: coefficient position overflow")
		}
		signed, err := applySign(r, mag)
		if err != nil {
			return nil, err
		}
		coefs[pos&(subframeLen-1)] = int64(signed) << 32
	}

	return coefs, nil
}

func applySign(r *bitreader.Reader, mag int32) (int32, error) {
	if r.Bit() == 1 {
		return mag, nil
	}
	return -mag, nil
}

// decodeLargeEscape reads the unsigned large-value escape: an 8-bit chunk,
// continuing with another 8-bit chunk whenever the previous chunk was
// saturated (0xFF), up to a third 8-bit chunk and a final 7-bit chunk —
// 8+8+8+7 = 31 bits in the worst case (§4.6).
func decodeLargeEscape(r *bitreader.Reader) (int32, error) {
	v := int32(r.Bits(8))
	if v != 0xFF {
		return v, nil
	}
	c2 := int32(r.Bits(8))
	v += c2
	if c2 != 0xFF {
		return v, nil
	}
	c3 := int32(r.Bits(8))
	v += c3
	if c3 != 0xFF {
		return v, nil
	}
	c4 := int32(r.Bits(7))
	v += c4
	return v, nil
}

func decodeVec4(r *bitreader.Reader) ([4]int32, error) {
	idx, err := r.Decode(&tables.Vec4VLC)
	if err != nil {
		return [4]int32{}, err
	}
	if idx == len(tables.Vec4Values) {
		a, err := decodeVec2(r)
		if err != nil {
			return [4]int32{}, err
		}
		b, err := decodeVec2(r)
		if err != nil {
			return [4]int32{}, err
		}
		return [4]int32{a[0], a[1], b[0], b[1]}, nil
	}
	return tables.Vec4Values[idx], nil
}

func decodeVec2(r *bitreader.Reader) ([2]int32, error) {
	idx, err := r.Decode(&tables.Vec2VLC)
	if err != nil {
		return [2]int32{}, err
	}
	if idx == len(tables.Vec2Values) {
		a, err := decodeVec1(r)
		if err != nil {
			return [2]int32{}, err
		}
		b, err := decodeVec1(r)
		if err != nil {
			return [2]int32{}, err
		}
		return [2]int32{a, b}, nil
	}
	return tables.Vec2Values[idx], nil
}

func decodeVec1(r *bitreader.Reader) (int32, error) {
	idx, err := r.Decode(&tables.Vec1VLC)
	if err != nil {
		return 0, err
	}
	if idx == len(tables.Vec1Values) {
		return decodeLargeEscape(r)
	}
	return tables.Vec1Values[idx], nil
}
