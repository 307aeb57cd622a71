package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentCount_Buckets(t *testing.T) {
	cases := []struct {
		desired int
		want    int
	}{
		{1, 1}, {8, 1}, {9, 1},
		{10, 2}, {16, 2}, {17, 2},
		{18, 3}, {24, 3}, {25, 3},
		{26, 4}, {32, 4}, {33, 4},
		{34, 5}, {41, 5}, {42, 6}, {120, 15},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SegmentCount(c.desired), "desired=%d", c.desired)
	}
}

func TestSegmentCount_MatchesBucketRanges(t *testing.T) {
	for d := 1; d <= 100; d++ {
		adjusted := d - 1
		if adjusted < 8 {
			adjusted = 8
		}
		want := (adjusted + 7) / 8
		assert.Equal(t, want, SegmentCount(d), "desired=%d", d)
	}
}

func TestPlanSegments_AlwaysEightSeconds(t *testing.T) {
	plan := PlanSegments(32)

	assert.Len(t, plan, 4)
	for i, p := range plan {
		assert.Equal(t, i+1, p.Number)
		assert.Equal(t, 8, p.DurationSeconds)
	}
}

func TestSeedForContent(t *testing.T) {
	assert.Equal(t, uint32(42_000_000), SeedForContent(42))
	assert.Equal(t, SeedForContent(987654), SeedForContent(987654))
	assert.Equal(t, uint32(0), SeedForContent(0))
	assert.Equal(t, uint32((5000*1_000_000)%4294967295), SeedForContent(5000))
}
