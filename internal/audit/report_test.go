package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

func TestSummarize(t *testing.T) {
	ratings := []contracts.CompositeRating{
		{Ticker: "C", CompRating: 40},
		{Ticker: "A", CompRating: 95, RSRating: contracts.Int(90)},
		{Ticker: "B", CompRating: 85, RSRating: contracts.Int(60)},
		{Ticker: "D", CompRating: 99, RSRating: contracts.Int(99)},
	}

	dist := Summarize(ratings)
	assert.Equal(t, 4, dist.Count)
	assert.InDelta(t, 79.75, dist.MeanComp, 1e-9)
	assert.InDelta(t, 90, dist.MedianComp, 1e-9)
	assert.Equal(t, 2, dist.Leaders)
	assert.Equal(t, map[string]int{"90-99": 2, "80-89": 1, "40-49": 1}, dist.Buckets)
	assert.Equal(t, []string{"D", "A", "B", "C"}, dist.Top)

	// 입력 순서는 유지
	assert.Equal(t, "C", ratings[0].Ticker)
}

func TestSummarize_Empty(t *testing.T) {
	dist := Summarize(nil)
	assert.Zero(t, dist.Count)
	assert.Empty(t, dist.Top)
}

func TestBucket(t *testing.T) {
	assert.Equal(t, "0-9", bucket(0))
	assert.Equal(t, "90-99", bucket(99))
	assert.Equal(t, "90-99", bucket(100))
	assert.Equal(t, "50-59", bucket(51))
}
