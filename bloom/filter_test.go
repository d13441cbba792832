package bloom_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/pagecache/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_AddAndTest(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	// Key not yet added should return false
	assert.False(t, f.Test("https://example.com/page1"))

	f.Add("https://example.com/page1")

	// Now it should return true
	assert.True(t, f.Test("https://example.com/page1"))

	// Different key should still return false
	assert.False(t, f.Test("https://example.com/page2"))
}

func TestFilter_FalsePositiveRate(t *testing.T) {
	t.Parallel()

	const (
		numItems   = 10000
		fpRate     = 0.01
		testProbes = 10000
	)

	f := bloom.NewFilter(numItems, fpRate)

	for i := range numItems {
		f.Add(fmt.Sprintf("https://example.com/added/%d", i))
	}

	// Probe with keys that were NOT added
	falsePositives := 0
	for i := range testProbes {
		if f.Test(fmt.Sprintf("https://example.com/notadded/%d", i)) {
			falsePositives++
		}
	}

	// Allow up to 2% to account for statistical variance
	actualRate := float64(falsePositives) / float64(testProbes)
	assert.Less(t, actualRate, 0.02, "false positive rate %f exceeds 2%%", actualRate)
}
