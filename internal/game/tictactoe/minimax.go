package tictactoe

// BestMove returns the optimal cell for mark on b using full-depth minimax.
// Earlier wins and later losses score better. ok is false when the board
// has no empty cell or is already decided.
func BestMove(b Board, mark Mark) (row, col int, ok bool) {
	if b.Winner() != Empty || b.Full() {
		return 0, 0, false
	}

	best := -1 << 30
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] != Empty {
				continue
			}
			b[r][c] = mark
			score := -negamax(&b, mark.Other(), 1)
			b[r][c] = Empty
			if score > best {
				best, row, col, ok = score, r, c, true
			}
		}
	}
	return row, col, ok
}

// negamax scores b from the point of view of toMove.
func negamax(b *Board, toMove Mark, depth int) int {
	if w := b.Winner(); w != Empty {
		// The previous mover completed a line.
		return -(10 - depth)
	}
	if b.Full() {
		return 0
	}

	best := -1 << 30
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] != Empty {
				continue
			}
			b[r][c] = toMove
			score := -negamax(b, toMove.Other(), depth+1)
			b[r][c] = Empty
			if score > best {
				best = score
			}
		}
	}
	return best
}
