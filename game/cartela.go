package game

import "fmt"

const (
	GridSize     = 5
	MinCartelaID = 1
	MaxCartelaID = 100
	MaxNumber    = 75
	FreeCell     = 0

	freeRow, freeCol = 2, 2
	columnSpan       = 15
)

// Parameters of the seeded shuffle that lays out the printed cartelas.
// Changing any of them changes every card in circulation.
const (
	seedMultiplier = 12345
	lcgMultiplier  = 9301
	lcgIncrement   = 49297
	lcgModulus     = 233280
)

var columnLetters = [GridSize]string{"B", "I", "N", "G", "O"}

// Grid is a cartela layout indexed [row][col]. The centre cell holds FreeCell.
type Grid [GridSize][GridSize]int

// ValidCartela reports whether id names a printed cartela.
func ValidCartela(id int) bool {
	return id >= MinCartelaID && id <= MaxCartelaID
}

// Generate returns the fixed grid printed on cartela id. Column c draws five
// distinct values from [15c+1, 15c+15] with a Fisher-Yates shuffle driven by a
// linear congruential generator seeded from the id alone.
func Generate(id int) (Grid, error) {
	var g Grid
	if !ValidCartela(id) {
		return g, fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidCartela, id, MinCartelaID, MaxCartelaID)
	}

	seed := int64(id) * seedMultiplier
	for col := 0; col < GridSize; col++ {
		var nums [columnSpan]int
		for i := range nums {
			nums[i] = col*columnSpan + i + 1
		}
		for i := columnSpan - 1; i > 0; i-- {
			seed = (seed*lcgMultiplier + lcgIncrement) % lcgModulus
			j := int(seed * int64(i+1) / lcgModulus)
			nums[i], nums[j] = nums[j], nums[i]
		}

		next := 0
		for row := 0; row < GridSize; row++ {
			if row == freeRow && col == freeCol {
				g[row][col] = FreeCell
				continue
			}
			g[row][col] = nums[next]
			next++
		}
	}
	return g, nil
}

// Column returns the values of column col, top to bottom.
func (g Grid) Column(col int) []int {
	out := make([]int, GridSize)
	for row := 0; row < GridSize; row++ {
		out[row] = g[row][col]
	}
	return out
}

// Rows returns the grid as nested slices for rendering.
func (g Grid) Rows() [][]int {
	out := make([][]int, GridSize)
	for row := range g {
		out[row] = append([]int(nil), g[row][:]...)
	}
	return out
}

// Letter returns the B/I/N/G/O column a called number belongs to.
func Letter(n int) string {
	if n < 1 || n > MaxNumber {
		return ""
	}
	return columnLetters[(n-1)/columnSpan]
}

// Announce formats a called number the way the hall calls it, e.g. "B-7".
func Announce(n int) string {
	return fmt.Sprintf("%s-%d", Letter(n), n)
}
