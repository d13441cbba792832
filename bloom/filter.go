// Package bloom provides a probabilistic membership filter used to skip
// the store's linear comparable-form scans for URLs that cannot be cached.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter wraps a Bloom filter over comparable URL forms.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected keys with the given
// false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records a comparable URL form.
func (f *Filter) Add(key string) {
	f.f.AddString(key)
}

// Test returns true if the key might have been added. False positives are
// possible (they only cost a redundant scan); false negatives are not.
func (f *Filter) Test(key string) bool {
	return f.f.TestString(key)
}
