package trainer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/park285/eval-trainer-bot/internal/domain"
)

var ErrProfileNotFound = errors.New("trainer profile not found")

// PositionSource serves puzzles and receives difficulty rating writes.
type PositionSource interface {
	RandomPosition(ctx context.Context, tc domain.TimeControl) (*domain.Position, error)
	// PositionInBand falls back to RandomPosition when no position is rated inside [min, max].
	PositionInBand(ctx context.Context, min, max int, tc domain.TimeControl) (*domain.Position, error)
	WriteDifficultyRating(ctx context.Context, positionID string, tc domain.TimeControl, rating int) error
	InsertPositions(ctx context.Context, positions []domain.Position) (int, error)
	CountPositions(ctx context.Context) (int, error)
}

// ProfileStore keeps per-user ratings, survival bests and settings.
type ProfileStore interface {
	EnsureProfile(ctx context.Context, userID, username string) (*domain.UserProfile, error)
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	UserRating(ctx context.Context, userID string, tc domain.TimeControl) (int, error)
	WriteUserRating(ctx context.Context, userID string, tc domain.TimeControl, rating int) error
	SurvivalBest(ctx context.Context, userID string, tc domain.TimeControl) (int, error)
	// WriteSurvivalBest stores score only when it beats the current best and reports whether it did.
	WriteSurvivalBest(ctx context.Context, userID string, tc domain.TimeControl, score int) (bool, error)
	UpdateUsername(ctx context.Context, userID, username string) error
	UpdateSettings(ctx context.Context, userID string, settings domain.Settings) error
}

// Rankings answers leaderboard queries straight from the store.
type Rankings interface {
	Leaderboard(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error)
	SurvivalLeaderboard(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error)
	Rank(ctx context.Context, userID string, tc domain.TimeControl) (int, error)
}

type Repository interface {
	PositionSource
	ProfileStore
	Rankings
}

type sqlRepository struct {
	db *sqlx.DB
}

// NewSQLRepository works against postgres (lib/pq) and sqlite3 connections.
func NewSQLRepository(db *sqlx.DB) Repository {
	return &sqlRepository{db: db}
}

type positionRow struct {
	ID     string `db:"id"`
	FEN    string `db:"fen"`
	EvalCP int    `db:"eval_cp"`
	Tags   string `db:"tags"`
	Rating int    `db:"rating"`
}

func (r positionRow) toDomain() (*domain.Position, error) {
	var tags []string
	if strings.TrimSpace(r.Tags) != "" {
		if err := json.Unmarshal([]byte(r.Tags), &tags); err != nil {
			return nil, fmt.Errorf("decode tags for %s: %w", r.ID, err)
		}
	}
	return &domain.Position{
		ID:     r.ID,
		FEN:    r.FEN,
		Eval:   domain.EvalFromCP(r.EvalCP),
		Rating: r.Rating,
		Tags:   tags,
	}, nil
}

const positionSelect = `
		SELECT
			p.id,
			p.fen,
			p.eval_cp,
			p.tags,
			COALESCE(pr.rating, 1500) AS rating
		FROM positions p
		LEFT JOIN position_ratings pr
			ON pr.position_id = p.id AND pr.time_control = ?`

func (r *sqlRepository) RandomPosition(ctx context.Context, tc domain.TimeControl) (*domain.Position, error) {
	query := r.db.Rebind(positionSelect + `
		ORDER BY RANDOM()
		LIMIT 1`)
	var row positionRow
	err := r.db.GetContext(ctx, &row, query, int(tc))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select random position: %w", err)
	}
	return row.toDomain()
}

func (r *sqlRepository) PositionInBand(ctx context.Context, min, max int, tc domain.TimeControl) (*domain.Position, error) {
	query := r.db.Rebind(positionSelect + `
		WHERE COALESCE(pr.rating, 1500) BETWEEN ? AND ?
		ORDER BY RANDOM()
		LIMIT 1`)
	var row positionRow
	err := r.db.GetContext(ctx, &row, query, int(tc), min, max)
	if errors.Is(err, sql.ErrNoRows) {
		return r.RandomPosition(ctx, tc)
	}
	if err != nil {
		return nil, fmt.Errorf("select position in band: %w", err)
	}
	return row.toDomain()
}

func (r *sqlRepository) WriteDifficultyRating(ctx context.Context, positionID string, tc domain.TimeControl, rating int) error {
	query := r.db.Rebind(`
		INSERT INTO position_ratings (position_id, time_control, rating)
		VALUES (?, ?, ?)
		ON CONFLICT (position_id, time_control) DO UPDATE SET rating = excluded.rating`)
	if _, err := r.db.ExecContext(ctx, query, positionID, int(tc), rating); err != nil {
		return fmt.Errorf("upsert position rating: %w", err)
	}
	return nil
}

func (r *sqlRepository) InsertPositions(ctx context.Context, positions []domain.Position) (int, error) {
	if len(positions) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsertPosition := tx.Rebind(`
		INSERT INTO positions (id, fen, eval_cp, tags)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET fen = excluded.fen, eval_cp = excluded.eval_cp, tags = excluded.tags`)
	seedRating := tx.Rebind(`
		INSERT INTO position_ratings (position_id, time_control, rating)
		VALUES (?, ?, ?)
		ON CONFLICT (position_id, time_control) DO NOTHING`)

	for _, p := range positions {
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		rawTags, err := json.Marshal(tags)
		if err != nil {
			return 0, fmt.Errorf("marshal tags for %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, upsertPosition, p.ID, p.FEN, p.EvalCP(), string(rawTags)); err != nil {
			return 0, fmt.Errorf("upsert position %s: %w", p.ID, err)
		}
		rating := p.Rating
		if rating == 0 {
			rating = domain.DefaultRating
		}
		for _, tc := range domain.TimeControls {
			if _, err := tx.ExecContext(ctx, seedRating, p.ID, int(tc), rating); err != nil {
				return 0, fmt.Errorf("seed rating %s/%d: %w", p.ID, tc, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(positions), nil
}

func (r *sqlRepository) CountPositions(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM positions`); err != nil {
		return 0, fmt.Errorf("count positions: %w", err)
	}
	return n, nil
}

func (r *sqlRepository) EnsureProfile(ctx context.Context, userID, username string) (*domain.UserProfile, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ensure profile: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	defaults := domain.DefaultSettings()
	insertUser := tx.Rebind(`
		INSERT INTO users (id, username, eval_display, update_ratings, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)
	if _, err := tx.ExecContext(ctx, insertUser, userID, username, string(defaults.EvalDisplay), defaults.UpdateRatings, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	seedRating := tx.Rebind(`
		INSERT INTO user_ratings (user_id, time_control, rating)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, time_control) DO NOTHING`)
	seedBest := tx.Rebind(`
		INSERT INTO survival_best (user_id, time_control, score)
		VALUES (?, ?, 0)
		ON CONFLICT (user_id, time_control) DO NOTHING`)
	for _, tc := range domain.TimeControls {
		if _, err := tx.ExecContext(ctx, seedRating, userID, int(tc), domain.DefaultRating); err != nil {
			return nil, fmt.Errorf("seed user rating: %w", err)
		}
		if _, err := tx.ExecContext(ctx, seedBest, userID, int(tc)); err != nil {
			return nil, fmt.Errorf("seed survival best: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ensure profile: %w", err)
	}

	profile, err := r.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

type userRow struct {
	ID            string    `db:"id"`
	Username      string    `db:"username"`
	EvalDisplay   string    `db:"eval_display"`
	UpdateRatings bool      `db:"update_ratings"`
	CreatedAt     time.Time `db:"created_at"`
}

type tcScoreRow struct {
	TimeControl int `db:"time_control"`
	Score       int `db:"score"`
}

func (r *sqlRepository) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var u userRow
	err := r.db.GetContext(ctx, &u, r.db.Rebind(`
		SELECT id, username, eval_display, update_ratings, created_at
		FROM users
		WHERE id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}

	profile := domain.NewUserProfile(u.ID, u.Username, u.CreatedAt)
	display, ok := domain.ParseEvalDisplay(u.EvalDisplay)
	if !ok {
		display = domain.EvalDisplayRaw
	}
	profile.Settings = domain.Settings{EvalDisplay: display, UpdateRatings: u.UpdateRatings}

	var ratings []tcScoreRow
	if err := r.db.SelectContext(ctx, &ratings, r.db.Rebind(`
		SELECT time_control, rating AS score
		FROM user_ratings
		WHERE user_id = ?`), userID); err != nil {
		return nil, fmt.Errorf("select user ratings: %w", err)
	}
	for _, row := range ratings {
		profile.Ratings[domain.TimeControl(row.TimeControl)] = row.Score
	}

	var bests []tcScoreRow
	if err := r.db.SelectContext(ctx, &bests, r.db.Rebind(`
		SELECT time_control, score
		FROM survival_best
		WHERE user_id = ?`), userID); err != nil {
		return nil, fmt.Errorf("select survival best: %w", err)
	}
	for _, row := range bests {
		profile.SurvivalBest[domain.TimeControl(row.TimeControl)] = row.Score
	}
	return profile, nil
}

func (r *sqlRepository) UserRating(ctx context.Context, userID string, tc domain.TimeControl) (int, error) {
	var rating int
	err := r.db.GetContext(ctx, &rating, r.db.Rebind(`
		SELECT rating FROM user_ratings WHERE user_id = ? AND time_control = ?`), userID, int(tc))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultRating, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select user rating: %w", err)
	}
	return rating, nil
}

func (r *sqlRepository) WriteUserRating(ctx context.Context, userID string, tc domain.TimeControl, rating int) error {
	query := r.db.Rebind(`
		INSERT INTO user_ratings (user_id, time_control, rating)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, time_control) DO UPDATE SET rating = excluded.rating`)
	if _, err := r.db.ExecContext(ctx, query, userID, int(tc), rating); err != nil {
		return fmt.Errorf("upsert user rating: %w", err)
	}
	return nil
}

func (r *sqlRepository) SurvivalBest(ctx context.Context, userID string, tc domain.TimeControl) (int, error) {
	var score int
	err := r.db.GetContext(ctx, &score, r.db.Rebind(`
		SELECT score FROM survival_best WHERE user_id = ? AND time_control = ?`), userID, int(tc))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select survival best: %w", err)
	}
	return score, nil
}

func (r *sqlRepository) WriteSurvivalBest(ctx context.Context, userID string, tc domain.TimeControl, score int) (bool, error) {
	query := r.db.Rebind(`
		INSERT INTO survival_best (user_id, time_control, score)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, time_control) DO UPDATE SET score = excluded.score
		WHERE survival_best.score < excluded.score`)
	res, err := r.db.ExecContext(ctx, query, userID, int(tc), score)
	if err != nil {
		return false, fmt.Errorf("upsert survival best: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("survival best rows: %w", err)
	}
	return n > 0, nil
}

func (r *sqlRepository) UpdateUsername(ctx context.Context, userID, username string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET username = ? WHERE id = ?`), username, userID)
	if err != nil {
		return fmt.Errorf("update username: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *sqlRepository) UpdateSettings(ctx context.Context, userID string, settings domain.Settings) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users SET eval_display = ?, update_ratings = ? WHERE id = ?`),
		string(settings.EvalDisplay), settings.UpdateRatings, userID)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

type leaderboardRow struct {
	UserID   string `db:"user_id"`
	Username string `db:"username"`
	Score    int    `db:"score"`
}

func toEntries(rows []leaderboardRow) []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		out = append(out, domain.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   row.UserID,
			Username: row.Username,
			Score:    row.Score,
		})
	}
	return out
}

func (r *sqlRepository) Leaderboard(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error) {
	query := `
		SELECT ur.user_id, u.username, ur.rating AS score
		FROM user_ratings ur
		JOIN users u ON u.id = ur.user_id
		WHERE ur.time_control = ?
		ORDER BY ur.rating DESC, ur.user_id ASC`
	args := []any{int(tc)}
	if limit > 0 {
		query += `
		LIMIT ?`
		args = append(args, limit)
	}
	var rows []leaderboardRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	return toEntries(rows), nil
}

func (r *sqlRepository) SurvivalLeaderboard(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error) {
	query := `
		SELECT sb.user_id, u.username, sb.score
		FROM survival_best sb
		JOIN users u ON u.id = sb.user_id
		WHERE sb.time_control = ? AND sb.score > 0
		ORDER BY sb.score DESC, sb.user_id ASC`
	args := []any{int(tc)}
	if limit > 0 {
		query += `
		LIMIT ?`
		args = append(args, limit)
	}
	var rows []leaderboardRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select survival leaderboard: %w", err)
	}
	return toEntries(rows), nil
}

func (r *sqlRepository) Rank(ctx context.Context, userID string, tc domain.TimeControl) (int, error) {
	mine, err := r.UserRating(ctx, userID, tc)
	if err != nil {
		return 0, err
	}
	var above int
	if err := r.db.GetContext(ctx, &above, r.db.Rebind(`
		SELECT COUNT(*) FROM user_ratings WHERE time_control = ? AND rating > ?`), int(tc), mine); err != nil {
		return 0, fmt.Errorf("count ratings above: %w", err)
	}
	return above + 1, nil
}
