package domain

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestWordBag_Append(t *testing.T) {
	b := NewWordBag()

	if got := b.Append([]string{"quick", "quick", "fox"}); got != 3 {
		t.Errorf("Append() = %d, want 3", got)
	}
	if got := b.Append(nil); got != 3 {
		t.Errorf("Append(nil) = %d, want 3", got)
	}
	if got := b.Append([]string{}); got != 3 {
		t.Errorf("Append(empty) = %d, want 3", got)
	}
	if got := b.Append([]string{"fox"}); got != 4 {
		t.Errorf("Append() = %d, want 4", got)
	}

	want := map[string]int{"quick": 2, "fox": 2}
	if got := b.Counts(); !reflect.DeepEqual(got, want) {
		t.Errorf("Counts() = %v, want %v", got, want)
	}
	if got := b.Unique(); got != 2 {
		t.Errorf("Unique() = %d, want 2", got)
	}
}

func TestWordBag_AppendFunc(t *testing.T) {
	b := NewWordBag("alpha")

	var offsets []int
	persist := func(offset int) error {
		offsets = append(offsets, offset)
		return nil
	}

	if _, err := b.AppendFunc([]string{"beta", "gamma"}, persist); err != nil {
		t.Fatalf("AppendFunc() error = %v", err)
	}
	if _, err := b.AppendFunc(nil, persist); err != nil {
		t.Fatalf("AppendFunc(nil) error = %v", err)
	}
	if _, err := b.AppendFunc([]string{"delta"}, persist); err != nil {
		t.Fatalf("AppendFunc() error = %v", err)
	}

	if want := []int{1, 3}; !reflect.DeepEqual(offsets, want) {
		t.Errorf("persist offsets = %v, want %v", offsets, want)
	}

	failure := errors.New("disk full")
	total, err := b.AppendFunc([]string{"epsilon"}, func(int) error { return failure })
	if !errors.Is(err, failure) {
		t.Errorf("AppendFunc() error = %v, want %v", err, failure)
	}
	if total != 4 {
		t.Errorf("AppendFunc() total after failure = %d, want 4", total)
	}
	if want := []string{"alpha", "beta", "gamma", "delta"}; !reflect.DeepEqual(b.Words(), want) {
		t.Errorf("Words() = %v, want %v", b.Words(), want)
	}
}

func TestWordBag_TopN(t *testing.T) {
	b := NewWordBag("calm", "focus", "calm", "energy", "focus", "calm", "joy", "grit", "zen", "flow")

	tests := []struct {
		name string
		n    int
		want []WordCount
	}{
		{
			name: "top three",
			n:    3,
			want: []WordCount{{"calm", 3}, {"focus", 2}, {"energy", 1}},
		},
		{
			name: "ties keep first seen order",
			n:    5,
			want: []WordCount{{"calm", 3}, {"focus", 2}, {"energy", 1}, {"joy", 1}, {"grit", 1}},
		},
		{
			name: "more than distinct",
			n:    50,
			want: []WordCount{
				{"calm", 3}, {"focus", 2}, {"energy", 1}, {"joy", 1},
				{"grit", 1}, {"zen", 1}, {"flow", 1},
			},
		},
		{name: "zero", n: 0, want: []WordCount{}},
		{name: "negative", n: -1, want: []WordCount{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.TopN(tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TopN(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestWordBag_TopNEmpty(t *testing.T) {
	b := NewWordBag()
	if got := b.TopN(5); len(got) != 0 {
		t.Errorf("TopN() on empty bag = %v, want empty", got)
	}
}

func TestWordBag_Stats(t *testing.T) {
	b := NewWordBag("sun", "rain", "sun")

	stats := b.Stats(1)
	if stats.Total != 3 {
		t.Errorf("Stats().Total = %d, want 3", stats.Total)
	}
	if stats.Unique != 2 {
		t.Errorf("Stats().Unique = %d, want 2", stats.Unique)
	}
	if want := []WordCount{{"sun", 2}}; !reflect.DeepEqual(stats.Top, want) {
		t.Errorf("Stats().Top = %v, want %v", stats.Top, want)
	}

	sum := 0
	for _, c := range stats.Counts {
		sum += c
	}
	if sum != stats.Total {
		t.Errorf("sum of counts = %d, want %d", sum, stats.Total)
	}
}

func TestWordBag_Clear(t *testing.T) {
	b := NewWordBag("one", "two")
	words := b.Words()

	b.Clear()

	if b.Total() != 0 {
		t.Errorf("Total() after Clear() = %d, want 0", b.Total())
	}
	if len(b.Counts()) != 0 {
		t.Errorf("Counts() after Clear() = %v, want empty", b.Counts())
	}
	if !reflect.DeepEqual(words, []string{"one", "two"}) {
		t.Errorf("Words() copy was modified by Clear(): %v", words)
	}
}

func TestWordBag_ConcurrentAppend(t *testing.T) {
	const (
		writers = 50
		perCall = 3
		calls   = 20
	)

	b := NewWordBag()
	var wg sync.WaitGroup

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				b.Append([]string{"alpha", "beta", "gamma"})
				b.TopN(5)
			}
		}()
	}

	wg.Wait()

	want := writers * calls * perCall
	if got := b.Total(); got != want {
		t.Errorf("Total() = %d, want %d", got, want)
	}

	counts := b.Counts()
	for _, w := range []string{"alpha", "beta", "gamma"} {
		if counts[w] != writers*calls {
			t.Errorf("Counts()[%q] = %d, want %d", w, counts[w], writers*calls)
		}
	}
}
