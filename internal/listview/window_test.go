package listview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResetSmallView(t *testing.T) {
	w := Reset(10)
	assert.Equal(t, 10, w.Displayed())
	assert.False(t, w.HasMore())
}

func TestResetEmptyView(t *testing.T) {
	w := Reset(0)
	assert.Equal(t, 0, w.Displayed())
	assert.False(t, w.HasMore())
}

func TestResetExactPage(t *testing.T) {
	w := Reset(PageSize)
	assert.Equal(t, PageSize, w.Displayed())
	assert.False(t, w.HasMore())
}

func TestFortyFiveItems(t *testing.T) {
	w := Reset(45)
	assert.Equal(t, 30, w.Displayed())
	assert.True(t, w.HasMore())

	w = w.LoadMore()
	assert.Equal(t, 45, w.Displayed())
	assert.False(t, w.HasMore())
}

func TestLoadMoreIdempotentWhenExhausted(t *testing.T) {
	w := Reset(45).LoadMore()
	again := w.LoadMore().LoadMore()
	assert.Equal(t, w, again)
}

func TestLoadMoreMonotonic(t *testing.T) {
	for _, total := range []int{0, 1, 29, 30, 31, 59, 60, 61, 100, 241} {
		w := Reset(total)
		for k := 0; k < 10; k++ {
			assert.Equal(t, min(total, PageSize*(k+1)), w.Displayed(), "total=%d k=%d", total, k)
			assert.Equal(t, w.Displayed() < total, w.HasMore())
			w = w.LoadMore()
		}
	}
}
