package council

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeight(t *testing.T) {
	cases := []struct {
		power uint64
		want  uint8
	}{
		{0, 1},
		{1, 1},
		{2, 1},
		{10, 1},
		{11, 2},
		{100, 2},
		{101, 3},
		{1000, 3},
		{1001, 4},
		{123456, 6},
		{^uint64(0), 20},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.power), func(t *testing.T) {
			assert.Equal(t, tc.want, Weight(tc.power))
		})
	}
}

func TestWeightIsMonotonic(t *testing.T) {
	prev := Weight(0)
	for p := uint64(1); p < 200000; p += 7 {
		w := Weight(p)
		require.GreaterOrEqual(t, w, prev, "power %d", p)
		prev = w
	}
}

func TestRank(t *testing.T) {
	candidates := map[string]uint64{
		"GD": 50,
		"GB": 500,
		"GA": 50,
		"GC": 5,
	}

	all := Rank(candidates, DefaultSize)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"GB", "GA", "GD", "GC"}, memberIDs(all))
	assert.Equal(t, Member{ID: "GB", Power: 500, Weight: 3}, all[0])

	top := Rank(candidates, 2)
	assert.Equal(t, []string{"GB", "GA"}, memberIDs(top))

	assert.Empty(t, Rank(nil, DefaultSize))
}

func TestThreshold(t *testing.T) {
	members := []Member{{Weight: 3}, {Weight: 2}, {Weight: 2}, {Weight: 1}}
	assert.EqualValues(t, 5, Threshold(members))

	assert.EqualValues(t, 1, Threshold(nil))
	assert.EqualValues(t, 2, Threshold([]Member{{Weight: 1}, {Weight: 1}}))
	assert.EqualValues(t, 2, Threshold([]Member{{Weight: 3}}))

	heavy := make([]Member, DefaultSize)
	for i := range heavy {
		heavy[i].Weight = MaxWeight
	}
	assert.EqualValues(t, MaxWeight, Threshold(heavy))
}

func TestThresholdStaysStrictMajorityAtMaxSize(t *testing.T) {
	candidates := map[string]uint64{}
	for i := range MaxSize + 5 {
		candidates[fmt.Sprintf("G%02d", i)] = ^uint64(0) - uint64(i)
	}
	c := Elect(candidates, MaxSize)
	require.Len(t, c.Members, MaxSize)

	total := c.TotalWeight()
	assert.Equal(t, MaxSize*20, total)
	assert.Greater(t, 2*int(c.Threshold), total)
	assert.Less(t, int(c.Threshold), MaxWeight)
}

func TestElect(t *testing.T) {
	candidates := map[string]uint64{}
	for i := range 25 {
		candidates[fmt.Sprintf("G%02d", i)] = uint64(i+1) * 100
	}

	c := Elect(candidates, DefaultSize)
	require.Len(t, c.Members, DefaultSize)
	assert.Equal(t, "G24", c.Members[0].ID)
	assert.Equal(t, "G05", c.Members[DefaultSize-1].ID)
	assert.Equal(t, uint8(c.TotalWeight()/2+1), c.Threshold)
	assert.Len(t, c.Weights(), DefaultSize)
	assert.EqualValues(t, 4, c.Weights()["G24"])
}

func TestElectEmpty(t *testing.T) {
	c := Elect(map[string]uint64{}, DefaultSize)
	assert.Empty(t, c.Members)
	assert.Zero(t, c.TotalWeight())
	assert.Empty(t, c.Weights())
}

func memberIDs(members []Member) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.ID
	}
	return out
}
