package domain

import (
	"sort"
	"sync"
)

// WordCount is a single entry of a frequency ranking
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// BagStats is a consistent snapshot of a bag's aggregates
type BagStats struct {
	Counts map[string]int `json:"counts"`
	Top    []WordCount    `json:"top"`
	Total  int            `json:"total"`
	Unique int            `json:"unique"`
}

// WordBag is the accumulating multiset of tokens submitted for one question.
// Words are kept in insertion order; only counts matter downstream.
type WordBag struct {
	mu    sync.RWMutex
	words []string
}

// NewWordBag creates a bag holding the given words
func NewWordBag(words ...string) *WordBag {
	b := &WordBag{words: make([]string, 0, len(words))}
	b.words = append(b.words, words...)
	return b
}

// Append adds tokens to the bag and returns the new total
func (b *WordBag) Append(tokens []string) int {
	n, _ := b.AppendFunc(tokens, nil)
	return n
}

// AppendFunc appends tokens after persist succeeds. persist receives the
// bag length before the append and runs under the bag's write lock, so
// offsets handed to it are contiguous across concurrent appends.
func (b *WordBag) AppendFunc(tokens []string, persist func(offset int) error) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(tokens) == 0 {
		return len(b.words), nil
	}

	if persist != nil {
		if err := persist(len(b.words)); err != nil {
			return len(b.words), err
		}
	}

	b.words = append(b.words, tokens...)
	return len(b.words), nil
}

// Clear empties the bag
func (b *WordBag) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.words = b.words[:0:0]
}

// Words returns a copy of the raw word sequence
func (b *WordBag) Words() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, len(b.words))
	copy(out, b.words)
	return out
}

// Total returns the number of words ever added since the last reset
func (b *WordBag) Total() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.words)
}

// Unique returns the number of distinct words
func (b *WordBag) Unique() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(countWords(b.words))
}

// Counts returns the frequency table
func (b *WordBag) Counts() map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return countWords(b.words)
}

// TopN returns up to n words by descending count. Ties keep the order in
// which the words were first submitted.
func (b *WordBag) TopN(n int) []WordCount {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return rankWords(b.words, n)
}

// Stats returns counts, ranking and totals taken under one read lock
func (b *WordBag) Stats(n int) BagStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts := countWords(b.words)
	return BagStats{
		Counts: counts,
		Top:    rankWords(b.words, n),
		Total:  len(b.words),
		Unique: len(counts),
	}
}

func countWords(words []string) map[string]int {
	counts := make(map[string]int)
	for _, w := range words {
		counts[w]++
	}
	return counts
}

// rankWords orders distinct words by count, breaking ties by first occurrence
func rankWords(words []string, n int) []WordCount {
	if n <= 0 {
		return []WordCount{}
	}

	index := make(map[string]int)
	ranked := make([]WordCount, 0)
	for _, w := range words {
		if i, ok := index[w]; ok {
			ranked[i].Count++
			continue
		}
		index[w] = len(ranked)
		ranked = append(ranked, WordCount{Word: w, Count: 1})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
