package services

import "github.com/bellapacxx/bingo-engine/game"

// BingoCard is the printable column layout of a cartela. The centre of N is 0,
// the free cell.
type BingoCard struct {
	B      []int `json:"B"`
	I      []int `json:"I"`
	N      []int `json:"N"`
	G      []int `json:"G"`
	O      []int `json:"O"`
	CardID int   `json:"card_id"`
}

// Card renders a cartela by id.
func Card(id int) (BingoCard, error) {
	g, err := game.Generate(id)
	if err != nil {
		return BingoCard{}, err
	}
	return BingoCard{
		B:      g.Column(0),
		I:      g.Column(1),
		N:      g.Column(2),
		G:      g.Column(3),
		O:      g.Column(4),
		CardID: id,
	}, nil
}
