package game

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/corentings/chess/v2"
	ecobook "github.com/corentings/chess/v2/opening"

	"github.com/vytor/pgnbase/internal/errors"
	"github.com/vytor/pgnbase/internal/opening"
	"github.com/vytor/pgnbase/internal/pgn"
)

// StartPosition is the standard initial position.
const StartPosition = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	book            = sync.OnceValue(ecobook.NewBookECO)
	barepromotionRe = regexp.MustCompile(`^([a-h](?:x[a-h])?[18])([NBRQ][+#]?)$`)
)

// Move is one replayed ply.
type Move struct {
	SAN       string `json:"san"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
	Color     string `json:"color"`
	Comment   string `json:"comment"`
	// FEN is the position reached after the move.
	FEN string `json:"fen"`
}

// State is a snapshot of a viewer.
type State struct {
	Headers  pgn.Headers `json:"headers"`
	Intro    string      `json:"intro"`
	Moves    []Move      `json:"moves"`
	Current  int         `json:"current"`
	StartFEN string      `json:"startFen"`
	FEN      string      `json:"fen"`
	Result   string      `json:"result"`
}

// Viewer holds a working copy of one game: its replayed moves, comments and a navigation
// cursor. A Viewer is not safe for concurrent use.
type Viewer struct {
	headers  pgn.Headers
	intro    string
	moves    []Move
	startFEN string
	result   string
	current  int
	loaded   bool
	replayed []*chess.Move
}

func NewViewer() *Viewer {
	return &Viewer{current: -1}
}

// Load sanitizes text and replays it with the rules engine. When the engine rejects the game
// the viewer is reset to empty and an INVALID_PGN error is returned.
func (v *Viewer) Load(text string) error {
	s := pgn.Sanitize(text)
	headers := s.Headers()

	moves, replayed, err := replay(headers.FEN, s.Moves)
	if err != nil {
		v.reset()
		return errors.NewInvalidPGNError(err)
	}
	for _, c := range s.Comments {
		if c.Ply >= 0 && c.Ply < len(moves) {
			moves[c.Ply].Comment = c.Text
		}
	}

	result := s.Result
	if result == "" {
		result = headers.Result
	}
	if result == "" {
		result = "*"
	}

	v.headers = headers
	v.intro = s.CommentAt(pgn.IntroPly)
	v.moves = moves
	v.replayed = replayed
	v.startFEN = startFEN(headers.FEN)
	v.result = result
	v.current = -1
	v.loaded = true
	return nil
}

func (v *Viewer) reset() {
	*v = Viewer{current: -1}
}

func startFEN(fen string) string {
	if fen = strings.TrimSpace(fen); fen != "" {
		return fen
	}
	return StartPosition
}

// replay feeds the main line to the rules engine and reads back canonical moves. Engine
// panics are converted into errors.
func replay(fen string, sans []string) (moves []Move, replayed []*chess.Move, err error) {
	defer func() {
		if r := recover(); r != nil {
			moves, replayed, err = nil, nil, fmt.Errorf("rules engine: %v", r)
		}
	}()

	fen = strings.TrimSpace(fen)
	if len(sans) == 0 {
		if fen != "" {
			if _, err := chess.FEN(fen); err != nil {
				return nil, nil, err
			}
		}
		return []Move{}, nil, nil
	}

	doc := pgn.Document{Moves: make([]pgn.DocMove, len(sans))}
	for i, san := range sans {
		doc.Moves[i].SAN = normalizeSAN(san)
	}
	if fen != "" {
		doc.Headers.SetUp = "1"
		doc.Headers.FEN = fen
		side, number := fenTurn(fen)
		doc.StartNumber = number
		doc.BlackFirst = side == "b"
	}

	opt, err := chess.PGN(strings.NewReader(pgn.Write(doc)))
	if err != nil {
		return nil, nil, err
	}
	g := chess.NewGame(opt)

	replayed = g.Moves()
	positions := g.Positions()
	if len(replayed) != len(sans) {
		return nil, nil, fmt.Errorf("replayed %d of %d moves", len(replayed), len(sans))
	}
	if len(positions) != len(replayed)+1 {
		return nil, nil, fmt.Errorf("unexpected positions length: %d for %d moves", len(positions), len(replayed))
	}

	moves = make([]Move, len(replayed))
	for i, m := range replayed {
		side, _ := fenTurn(positions[i].String())
		san := chess.AlgebraicNotation{}.Encode(positions[i], m)
		if san == "" {
			san = normalizeSAN(sans[i])
		}
		moves[i] = Move{
			SAN:       san,
			From:      squareToString(m.S1()),
			To:        squareToString(m.S2()),
			Promotion: promoLetter(m.Promo()),
			Color:     side,
			FEN:       positions[i+1].String(),
		}
	}
	return moves, replayed, nil
}

// normalizeSAN rewrites zero-castling and promotions without "=" into the forms every
// parser accepts.
func normalizeSAN(san string) string {
	switch {
	case strings.HasPrefix(san, "0-0-0"):
		return "O-O-O" + san[5:]
	case strings.HasPrefix(san, "0-0"):
		return "O-O" + san[3:]
	}
	if m := barepromotionRe.FindStringSubmatch(san); m != nil {
		return m[1] + "=" + m[2]
	}
	return san
}

func (v *Viewer) Loaded() bool { return v.loaded }

func (v *Viewer) Headers() pgn.Headers { return v.headers }

func (v *Viewer) Intro() string { return v.intro }

func (v *Viewer) Current() int { return v.current }

// Moves returns a copy of the replayed moves.
func (v *Viewer) Moves() []Move {
	out := make([]Move, len(v.moves))
	copy(out, v.moves)
	return out
}

// SANs returns the canonical SAN sequence used for opening lookups.
func (v *Viewer) SANs() []string {
	out := make([]string, len(v.moves))
	for i, m := range v.moves {
		out[i] = m.SAN
	}
	return out
}

// GoTo moves the cursor; -1 is the start position. Out of range indexes are ignored.
func (v *Viewer) GoTo(index int) bool {
	if index < -1 || index >= len(v.moves) {
		return false
	}
	v.current = index
	return true
}

// FEN returns the position at the cursor.
func (v *Viewer) FEN() string {
	if v.current < 0 || v.current >= len(v.moves) {
		return v.startFEN
	}
	return v.moves[v.current].FEN
}

// SetComment replaces the comment of the move at the cursor. It does nothing at the start
// position.
func (v *Viewer) SetComment(text string) bool {
	if v.current < 0 || v.current >= len(v.moves) {
		return false
	}
	v.moves[v.current].Comment = strings.TrimSpace(text)
	return true
}

// SetIntro replaces the comment before the first move.
func (v *Viewer) SetIntro(text string) {
	v.intro = strings.TrimSpace(text)
}

// SetHeader updates one header tag.
func (v *Viewer) SetHeader(name, value string) {
	v.headers.Set(name, value)
}

// Play applies a move at the cursor. Moves after the cursor are discarded, the new move
// becomes current and the game is replayed so every SAN and FEN stays canonical.
func (v *Viewer) Play(from, to, promotion string) (Move, error) {
	if !v.loaded {
		return Move{}, errors.NewBadRequestError("no game loaded")
	}
	from, to = strings.ToLower(strings.TrimSpace(from)), strings.ToLower(strings.TrimSpace(to))
	if !validSquare(from) || !validSquare(to) {
		return Move{}, errors.NewValidationError("move", fmt.Sprintf("invalid squares %q-%q", from, to))
	}
	promo, ok := normalizePromotion(promotion)
	if !ok {
		return Move{}, errors.NewValidationError("promotion", fmt.Sprintf("unknown piece %q", promotion))
	}

	san, err := v.encodeAtCursor(from + to + promo)
	if err != nil {
		return Move{}, errors.NewValidationError("move", err.Error())
	}

	sans := append(v.SANs()[:v.current+1], san)
	moves, replayed, err := replay(v.headers.FEN, sans)
	if err != nil {
		return Move{}, errors.NewValidationError("move", fmt.Sprintf("illegal move %s%s", from, to))
	}
	for i := 0; i <= v.current; i++ {
		moves[i].Comment = v.moves[i].Comment
	}

	v.moves = moves
	v.replayed = replayed
	v.current = len(moves) - 1
	v.result = "*"
	v.headers.Result = ""
	return moves[v.current], nil
}

func (v *Viewer) encodeAtCursor(uci string) (san string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rules engine: %v", r)
		}
	}()

	opt, err := chess.FEN(v.FEN())
	if err != nil {
		return "", err
	}
	pos := chess.NewGame(opt).Position()
	m, err := chess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return "", err
	}
	san = chess.AlgebraicNotation{}.Encode(pos, m)
	if san == "" {
		return "", fmt.Errorf("cannot encode %s", uci)
	}
	return san, nil
}

// Document returns the game in writable form.
func (v *Viewer) Document() pgn.Document {
	doc := pgn.Document{
		Headers: v.headers,
		Intro:   v.intro,
		Moves:   make([]pgn.DocMove, len(v.moves)),
		Result:  v.result,
	}
	for i, m := range v.moves {
		doc.Moves[i] = pgn.DocMove{SAN: m.SAN, Comment: m.Comment}
	}
	if v.headers.FEN != "" {
		side, number := fenTurn(v.headers.FEN)
		doc.StartNumber = number
		doc.BlackFirst = side == "b"
	}
	return doc
}

// PGN regenerates standards-conformant PGN including edited comments.
func (v *Viewer) PGN() string {
	if !v.loaded {
		return ""
	}
	return pgn.Write(v.Document())
}

// OpeningQuery returns the SAN sequence and cursor index for an opening lookup, both taken
// from the same move slice.
func (v *Viewer) OpeningQuery() (moves []string, upToIndex int) {
	return v.SANs(), v.current
}

// HeaderHint returns the game's Opening/ECO tags for the resolver fallback. When the game
// carries neither, the rules engine's ECO book is consulted instead.
func (v *Viewer) HeaderHint() *opening.HeaderHint {
	if v.headers.Opening != "" || v.headers.ECO != "" {
		return &opening.HeaderHint{Opening: v.headers.Opening, ECO: v.headers.ECO}
	}
	if len(v.replayed) == 0 || v.headers.FEN != "" {
		return nil
	}
	if o := book().Find(v.replayed); o != nil {
		return &opening.HeaderHint{Opening: o.Title(), ECO: o.Code()}
	}
	return nil
}

// State snapshots the viewer.
func (v *Viewer) State() State {
	return State{
		Headers:  v.headers,
		Intro:    v.intro,
		Moves:    v.Moves(),
		Current:  v.current,
		StartFEN: v.startFEN,
		FEN:      v.FEN(),
		Result:   v.result,
	}
}
