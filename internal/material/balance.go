// Package material counts piece values on a FEN position.
package material

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var pieceValues = map[nchess.PieceType]int{
	nchess.Pawn:   1,
	nchess.Knight: 3,
	nchess.Bishop: 3,
	nchess.Rook:   5,
	nchess.Queen:  9,
}

// Balance is White's material minus Black's, in pawns.
func Balance(fen string) (int, error) {
	opt, err := nchess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return 0, fmt.Errorf("parse fen: %w", err)
	}
	board := nchess.NewGame(opt).Position().Board()

	total := 0
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			piece := board.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece {
				continue
			}
			if piece.Color() == nchess.White {
				total += pieceValues[piece.Type()]
			} else {
				total -= pieceValues[piece.Type()]
			}
		}
	}
	return total, nil
}
