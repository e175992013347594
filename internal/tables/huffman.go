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

// Package tables holds the decoder's read-only constant data: Huffman VLC
// tables, sine windows, FFT twiddles/bit-reverse, scale-factor-band layouts,
// default decorrelation matrices and subwoofer cutoffs. spec.md treats this
// data as an external collaborator ("the implementer generates or
// imports"); since the real WMA Pro Huffman bitstreams were not available
// in the retrieved reference material (original_source/ was filtered down
// to wmaprodec.c itself, not its sibling wmaprodata.h constant tables), the
// Huffman tables here are canonical prefix codes built at init() from
// representative code-length models, the same way the teacher builds
// powtab34/synthNWin/synthDtbl once at init() instead of typing out a
// derived table by hand. See DESIGN.md for the per-table rationale.
package tables

import (
	"container/heap"

	"github.com/hajimehoshi/go-wmapro/internal/bitreader"
)

// VLCTable is the decode-ready form (trie already built) so callers can
// pass these tables straight to (*bitreader.Reader).Decode.
type VLCTable = bitreader.VLCTable

// newVLC builds and returns a ready-to-decode VLCTable from code
// lengths/codes, mirroring bitreader.VLCTable.Build's contract.
func newVLC(bits []uint8, codes []uint32) VLCTable {
	t := VLCTable{Bits: bits, Codes: codes}
	t.Build()
	return t
}

// huffNode is a node in the Huffman tree being assembled from frequencies.
type huffNode struct {
	freq        int
	symbol      int // valid only when leaf
	left, right *huffNode
}

type huffHeap []*huffNode

func (h huffHeap) Len() int            { return len(h) }
func (h huffHeap) Less(i, j int) bool  { return h[i].freq < h[j].freq }
func (h huffHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *huffHeap) Push(x interface{}) { *h = append(*h, x.(*huffNode)) }
func (h *huffHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// buildCanonicalHuffman builds a canonical Huffman code from a frequency
// model (freqs[i] is the relative frequency of symbol i; must be >0 for
// every symbol that needs a code). It returns per-symbol code lengths and
// left-justified codes, with shorter codes assigned to higher frequencies,
// ties broken by symbol index — the standard canonicalization used so the
// resulting table is a valid, uniquely-decodable prefix code.
func buildCanonicalHuffman(freqs []int) ([]uint8, []uint32) {
	n := len(freqs)
	if n == 1 {
		return []uint8{1}, []uint32{0}
	}

	h := make(huffHeap, 0, n)
	for i, f := range freqs {
		h = append(h, &huffNode{freq: f, symbol: i})
	}
	heap.Init(&h)
	for h.Len() > 1 {
		a := heap.Pop(&h).(*huffNode)
		b := heap.Pop(&h).(*huffNode)
		heap.Push(&h, &huffNode{freq: a.freq + b.freq, left: a, right: b, symbol: -1})
	}
	root := h[0]

	lengths := make([]uint8, n)
	var walk func(node *huffNode, depth int)
	walk = func(node *huffNode, depth int) {
		if node.left == nil && node.right == nil {
			d := depth
			if d == 0 {
				d = 1
			}
			lengths[node.symbol] = uint8(d)
			return
		}
		walk(node.left, depth+1)
		walk(node.right, depth+1)
	}
	walk(root, 0)

	return canonicalCodesFromLengths(lengths)
}

// canonicalCodesFromLengths assigns the standard canonical codes given only
// a set of code lengths, sorting symbols by (length, symbol) and
// incrementing a running code, shifting left on each length increase. This
// is the construction every canonical-Huffman-table codec uses (e.g. 4.4.1's
// rotation index table could equally be built this way), reused here for
// every synthesized VLC in this package.
func canonicalCodesFromLengths(lengths []uint8) ([]uint8, []uint32) {
	n := len(lengths)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// simple stable insertion sort by (length, symbol): n is always small
	// (at most a few hundred entries) so O(n^2) is fine and avoids pulling
	// in sort.Slice closures for a one-shot init-time table build.
	for i := 1; i < n; i++ {
		for j := i; j > 0; j-- {
			if lengths[order[j-1]] > lengths[order[j]] {
				order[j-1], order[j] = order[j], order[j-1]
			} else {
				break
			}
		}
	}

	codes := make([]uint32, n)
	code := uint32(0)
	prevLen := lengths[order[0]]
	for _, sym := range order {
		l := lengths[sym]
		if l > prevLen {
			code <<= uint(l - prevLen)
			prevLen = l
		}
		codes[sym] = code
		code++
	}
	return lengths, codes
}

// geometricFreqs builds a decaying-frequency model (freq(i) proportional to
// ratio^i) used to bias common/small-magnitude symbols toward shorter
// codes, the standard shape for DPCM deltas and run-level magnitudes in
// perceptual audio codecs.
func geometricFreqs(n int, ratio float64) []int {
	f := make([]int, n)
	scale := 1 << 20
	v := float64(scale)
	for i := 0; i < n; i++ {
		fi := int(v)
		if fi < 1 {
			fi = 1
		}
		f[i] = fi
		v *= ratio
	}
	return f
}
