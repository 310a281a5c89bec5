// Copyright 2025 Poiesic Systems
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

package keywords

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/poiesic/lakechain/ai"
)

// Keyword is a candidate phrase and its similarity to the text it was
// extracted from.
type Keyword struct {
	Phrase string
	Score  float64
}

// extractor ranks candidate phrases by embedding similarity.
type extractor struct {
	embedder ai.Embedder
	config   Config
}

// extract returns up to TopN keywords of a single chunk.
func (e *extractor) extract(ctx context.Context, text string) ([]Keyword, error) {
	phrases := candidates(text, e.config.MaxWords)
	if len(phrases) == 0 {
		return nil, nil
	}

	vectors, err := e.embedder.EmbedTexts(ctx, append([]string{text}, phrases...))
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(phrases)+1 {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ai.ErrEmptyResponse, len(vectors), len(phrases)+1)
	}
	for i := range vectors {
		vectors[i] = normalize(vectors[i])
	}
	docVector, phraseVectors := vectors[0], vectors[1:]

	scores := make([]float64, len(phrases))
	for i, v := range phraseVectors {
		scores[i] = dot(docVector, v)
	}

	var picked []int
	switch {
	case e.config.UseMMR:
		picked = mmr(scores, phraseVectors, e.config.TopN, e.config.Diversity)
	case e.config.UseMaxSum:
		picked = maxSum(scores, phraseVectors, e.config.TopN, e.config.Candidates)
	default:
		picked = topIndices(scores, e.config.TopN)
	}

	out := make([]Keyword, 0, len(picked))
	for _, i := range picked {
		out = append(out, Keyword{Phrase: phrases[i], Score: round4(scores[i])})
	}
	return out, nil
}

// topIndices returns the indices of the n highest scores, best first.
func topIndices(scores []float64, n int) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	if n < len(idx) {
		idx = idx[:n]
	}
	return idx
}

// maxSum keeps the nrCandidates phrases closest to the document and returns
// the n of them that are least similar to each other.
func maxSum(scores []float64, vectors [][]float32, n, nrCandidates int) []int {
	pool := topIndices(scores, nrCandidates)
	if len(pool) <= n {
		return pool
	}

	best := math.Inf(1)
	var chosen []int
	combinations(len(pool), n, func(combo []int) {
		var sim float64
		for i := 0; i < len(combo); i++ {
			for j := i + 1; j < len(combo); j++ {
				sim += dot(vectors[pool[combo[i]]], vectors[pool[combo[j]]])
			}
		}
		if sim < best {
			best = sim
			chosen = chosen[:0]
			for _, c := range combo {
				chosen = append(chosen, pool[c])
			}
		}
	})
	sort.SliceStable(chosen, func(a, b int) bool { return scores[chosen[a]] > scores[chosen[b]] })
	return chosen
}

// mmr applies maximal marginal relevance: each step picks the phrase most
// similar to the document and least similar to the phrases already picked.
func mmr(scores []float64, vectors [][]float32, n int, diversity float64) []int {
	if len(scores) == 0 {
		return nil
	}
	first := topIndices(scores, 1)[0]
	picked := []int{first}
	remaining := make([]int, 0, len(scores)-1)
	for i := range scores {
		if i != first {
			remaining = append(remaining, i)
		}
	}

	for len(picked) < n && len(remaining) > 0 {
		bestPos, bestValue := 0, math.Inf(-1)
		for pos, candidate := range remaining {
			redundancy := math.Inf(-1)
			for _, p := range picked {
				redundancy = math.Max(redundancy, dot(vectors[candidate], vectors[p]))
			}
			value := (1-diversity)*scores[candidate] - diversity*redundancy
			if value > bestValue {
				bestPos, bestValue = pos, value
			}
		}
		picked = append(picked, remaining[bestPos])
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}
	return picked
}

// combinations calls fn with every k-subset of 0..n-1 in lexicographic order.
// The slice passed to fn is reused between calls.
func combinations(n, k int, fn func([]int)) {
	if k > n || k <= 0 {
		return
	}
	combo := make([]int, k)
	for i := range combo {
		combo[i] = i
	}
	for {
		fn(combo)
		i := k - 1
		for i >= 0 && combo[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		combo[i]++
		for j := i + 1; j < k; j++ {
			combo[j] = combo[j-1] + 1
		}
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// merge keeps the best score of every phrase and returns the topN best.
func merge(found []Keyword, topN int) []Keyword {
	best := make(map[string]float64)
	order := make([]string, 0)
	for _, k := range found {
		score, ok := best[k.Phrase]
		if !ok {
			order = append(order, k.Phrase)
		}
		if !ok || k.Score > score {
			best[k.Phrase] = k.Score
		}
	}
	out := make([]Keyword, 0, len(order))
	for _, phrase := range order {
		out = append(out, Keyword{Phrase: phrase, Score: best[phrase]})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	if topN < len(out) {
		out = out[:topN]
	}
	return out
}
