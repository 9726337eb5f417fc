package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corentings/chess/v2"
)

// MoveToUCI converts a chess Move to UCI format (e.g., "e2e4", "e7e8q")
func MoveToUCI(move *chess.Move) string {
	if move == nil {
		return ""
	}
	return squareToString(move.S1()) + squareToString(move.S2()) + promoLetter(move.Promo())
}

// squareToString converts a Square to algebraic notation (e.g., "e2", "a8")
func squareToString(sq chess.Square) string {
	return fmt.Sprintf("%c%c", 'a'+sq.File(), '1'+sq.Rank())
}

func promoLetter(p chess.PieceType) string {
	switch p {
	case chess.Queen:
		return "q"
	case chess.Rook:
		return "r"
	case chess.Bishop:
		return "b"
	case chess.Knight:
		return "n"
	}
	return ""
}

// validSquare reports whether s names a board square like "e4".
func validSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

// normalizePromotion accepts "q", "Q", "queen" and returns the UCI letter, or "" when p is empty.
func normalizePromotion(p string) (string, bool) {
	p = strings.ToLower(strings.TrimSpace(p))
	switch p {
	case "":
		return "", true
	case "q", "queen":
		return "q", true
	case "r", "rook":
		return "r", true
	case "b", "bishop":
		return "b", true
	case "n", "knight":
		return "n", true
	}
	return "", false
}

// fenTurn returns the side to move ("w" or "b") and the fullmove number of a FEN.
// Malformed fields fall back to White and move 1.
func fenTurn(fen string) (side string, fullmove int) {
	side, fullmove = "w", 1
	fields := strings.Fields(fen)
	if len(fields) > 1 && fields[1] == "b" {
		side = "b"
	}
	if len(fields) > 5 {
		if n, err := strconv.Atoi(fields[5]); err == nil && n > 0 {
			fullmove = n
		}
	}
	return side, fullmove
}
