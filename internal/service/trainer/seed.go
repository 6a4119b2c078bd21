package trainer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"github.com/park285/eval-trainer-bot/internal/domain"
	"github.com/park285/eval-trainer-bot/internal/evaluation"
)

// seedRecord is one JSONL line of a position dataset.
type seedRecord struct {
	ID     string   `json:"id"`
	FEN    string   `json:"fen"`
	EvalCP *int     `json:"eval_cp"`
	Rating int      `json:"rating,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// NormalizeFEN parses fen with the chess board model and returns its canonical form.
func NormalizeFEN(fen string) (string, error) {
	opt, err := nchess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return "", fmt.Errorf("parse fen: %w", err)
	}
	pos := nchess.NewGame(opt).Position()
	canonical := pos.String()

	want := evaluation.White
	if pos.Turn() == nchess.Black {
		want = evaluation.Black
	}
	if evaluation.SideToMove(canonical) != want {
		return "", fmt.Errorf("side to move mismatch in %q", fen)
	}
	return canonical, nil
}

// ReadPositionsJSONL parses one position per line. Blank lines and lines starting with # are skipped.
func ReadPositionsJSONL(r io.Reader) ([]domain.Position, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var out []domain.Position
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		var rec seedRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("line %d: decode: %w", line, err)
		}
		if rec.EvalCP == nil {
			return nil, fmt.Errorf("line %d: eval_cp is required", line)
		}
		fen, err := NormalizeFEN(rec.FEN)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, domain.Position{
			ID:     id,
			FEN:    fen,
			Eval:   domain.EvalFromCP(*rec.EvalCP),
			Rating: rec.Rating,
			Tags:   rec.Tags,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan positions: %w", err)
	}
	return out, nil
}

func LoadPositionsFile(path string) ([]domain.Position, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open positions file: %w", err)
	}
	defer f.Close()
	return ReadPositionsJSONL(f)
}
