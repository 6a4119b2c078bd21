package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/park285/eval-trainer-bot/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "evaltrainer:lb"

// Kind selects which ranking a sorted set holds.
type Kind string

const (
	KindRating   Kind = "rating"
	KindSurvival Kind = "survival"
)

// Board mirrors the rating and survival rankings into redis sorted sets.
type Board struct {
	rdb    *redis.Client
	prefix string
}

func NewBoard(rdb *redis.Client, prefix string) *Board {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Board{rdb: rdb, prefix: prefix}
}

func (b *Board) key(kind Kind, tc domain.TimeControl) string {
	return b.prefix + ":" + string(kind) + ":" + tc.String()
}

func (b *Board) keyNames() string { return b.prefix + ":names" }

func (b *Board) UpdateRating(ctx context.Context, tc domain.TimeControl, userID, username string, rating int) error {
	return b.put(ctx, KindRating, tc, userID, username, rating)
}

func (b *Board) UpdateSurvival(ctx context.Context, tc domain.TimeControl, userID, username string, score int) error {
	return b.put(ctx, KindSurvival, tc, userID, username, score)
}

func (b *Board) put(ctx context.Context, kind Kind, tc domain.TimeControl, userID, username string, score int) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	_, err := b.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, b.key(kind, tc), redis.Z{Score: float64(score), Member: userID})
		if strings.TrimSpace(username) != "" {
			p.HSetNX(ctx, b.keyNames(), userID, username)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("leaderboard %s/%s: %w", kind, tc, err)
	}
	return nil
}

func (b *Board) UpdateName(ctx context.Context, userID, username string) error {
	return b.rdb.HSet(ctx, b.keyNames(), userID, username).Err()
}

func (b *Board) TopRatings(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error) {
	return b.top(ctx, KindRating, tc, limit)
}

func (b *Board) TopSurvival(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error) {
	return b.top(ctx, KindSurvival, tc, limit)
}

func (b *Board) top(ctx context.Context, kind Kind, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	zs, err := b.rdb.ZRevRangeWithScores(ctx, b.key(kind, tc), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(zs))
	entries := make([]domain.LeaderboardEntry, 0, len(zs))
	for _, z := range zs {
		id, _ := z.Member.(string)
		ids = append(ids, id)
		entries = append(entries, domain.LeaderboardEntry{UserID: id, Score: int(z.Score)})
	}
	names, err := b.rdb.HMGet(ctx, b.keyNames(), ids...).Result()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if i < len(names) {
			if s, ok := names[i].(string); ok {
				entries[i].Username = s
			}
		}
	}

	// redis orders equal scores by member descending; the store orders them by id ascending
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// RatingRank is one plus the number of users strictly above userID. ok is false when the user is not on the board.
func (b *Board) RatingRank(ctx context.Context, tc domain.TimeControl, userID string) (rank int, ok bool, err error) {
	key := b.key(KindRating, tc)
	score, err := b.rdb.ZScore(ctx, key, userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	above, err := b.rdb.ZCount(ctx, key, "("+strconv.FormatFloat(score, 'f', -1, 64), "+inf").Result()
	if err != nil {
		return 0, false, err
	}
	return int(above) + 1, true, nil
}

// Replace swaps a whole ranking for entries in one transaction.
func (b *Board) Replace(ctx context.Context, kind Kind, tc domain.TimeControl, entries []domain.LeaderboardEntry) error {
	key := b.key(kind, tc)
	_, err := b.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		if len(entries) == 0 {
			return nil
		}
		members := make([]redis.Z, 0, len(entries))
		names := make([]any, 0, 2*len(entries))
		for _, e := range entries {
			members = append(members, redis.Z{Score: float64(e.Score), Member: e.UserID})
			if strings.TrimSpace(e.Username) != "" {
				names = append(names, e.UserID, e.Username)
			}
		}
		p.ZAdd(ctx, key, members...)
		if len(names) > 0 {
			p.HSet(ctx, b.keyNames(), names...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace leaderboard %s/%s: %w", kind, tc, err)
	}
	return nil
}
