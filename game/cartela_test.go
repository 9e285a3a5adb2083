package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_KnownCartela(t *testing.T) {
	g, err := Generate(1)
	require.NoError(t, err)

	want := Grid{
		{13, 16, 35, 57, 72},
		{10, 20, 45, 54, 65},
		{6, 24, 0, 58, 63},
		{9, 22, 41, 53, 70},
		{4, 18, 31, 47, 64},
	}
	assert.Equal(t, want, g)
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(42)
	require.NoError(t, err)
	b, err := Generate(42)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Generate(43)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGenerate_Layout(t *testing.T) {
	for id := MinCartelaID; id <= MaxCartelaID; id++ {
		g, err := Generate(id)
		require.NoError(t, err, "cartela %d", id)

		assert.Equal(t, FreeCell, g[freeRow][freeCol], "cartela %d centre", id)

		seen := map[int]bool{}
		for col := 0; col < GridSize; col++ {
			lo, hi := col*columnSpan+1, col*columnSpan+columnSpan
			for row := 0; row < GridSize; row++ {
				if row == freeRow && col == freeCol {
					continue
				}
				v := g[row][col]
				assert.True(t, v >= lo && v <= hi, "cartela %d cell (%d,%d)=%d outside [%d,%d]", id, row, col, v, lo, hi)
				assert.False(t, seen[v], "cartela %d repeats %d", id, v)
				seen[v] = true
			}
		}
		assert.Len(t, seen, GridSize*GridSize-1)
	}
}

func TestGenerate_InvalidID(t *testing.T) {
	for _, id := range []int{-1, 0, 101, 1000} {
		_, err := Generate(id)
		assert.ErrorIs(t, err, ErrInvalidCartela, "id %d", id)
	}
}

func TestAnnounce(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "B-1"},
		{15, "B-15"},
		{16, "I-16"},
		{44, "N-44"},
		{60, "G-60"},
		{75, "O-75"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Announce(tt.n))
	}
	assert.Equal(t, "", Letter(0))
	assert.Equal(t, "", Letter(76))
}

func TestGridColumnsAndRows(t *testing.T) {
	g, err := Generate(1)
	require.NoError(t, err)

	assert.Equal(t, []int{13, 10, 6, 9, 4}, g.Column(0))
	assert.Equal(t, []int{35, 45, 0, 41, 31}, g.Column(2))

	rows := g.Rows()
	require.Len(t, rows, GridSize)
	assert.Equal(t, []int{6, 24, 0, 58, 63}, rows[2])

	rows[0][0] = 99
	assert.Equal(t, 13, g[0][0], "Rows must copy")
}
