package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/park285/eval-trainer-bot/internal/domain"
	"github.com/park285/eval-trainer-bot/pkg/trainerdto"
)

type fakeBoards struct {
	err       error
	lastLimit int
	lastKind  string
}

func (f *fakeBoards) Leaderboard(_ context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error) {
	f.lastKind, f.lastLimit = "rating", limit
	if f.err != nil {
		return nil, f.err
	}
	return []domain.LeaderboardEntry{{Rank: 1, UserID: "u1", Username: "alice", Score: 1600 + int(tc)}}, nil
}

func (f *fakeBoards) SurvivalLeaderboard(_ context.Context, _ domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error) {
	f.lastKind, f.lastLimit = "survival", limit
	if f.err != nil {
		return nil, f.err
	}
	return []domain.LeaderboardEntry{{Rank: 1, UserID: "u2", Username: "bob", Score: 12}}, nil
}

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(t, NewRouter(&fakeBoards{}, nil), "/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "{\"status\":\"ok\"}\n" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestLeaderboardRoutes(t *testing.T) {
	fb := &fakeBoards{}
	h := NewRouter(fb, nil)

	rec := serve(t, h, "/api/v1/leaderboard/1m?limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var lb trainerdto.Leaderboard
	if err := json.Unmarshal(rec.Body.Bytes(), &lb); err != nil {
		t.Fatal(err)
	}
	if lb.Kind != "rating" || lb.TimeControl != 60 || lb.TimeControlLabel != "1:00" || len(lb.Entries) != 1 || lb.Entries[0].Score != 1660 {
		t.Fatalf("unexpected body: %+v", lb)
	}
	if fb.lastLimit != 5 {
		t.Fatalf("limit not forwarded: %d", fb.lastLimit)
	}

	rec = serve(t, h, "/api/v1/survival-leaderboard/30?limit=oops")
	if rec.Code != http.StatusOK || fb.lastKind != "survival" || fb.lastLimit != 0 {
		t.Fatalf("survival route: %d kind=%s limit=%d", rec.Code, fb.lastKind, fb.lastLimit)
	}
}

func TestLeaderboardErrors(t *testing.T) {
	fb := &fakeBoards{}
	h := NewRouter(fb, nil)

	rec := serve(t, h, "/api/v1/leaderboard/45")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad tc status = %d", rec.Code)
	}
	var de trainerdto.DomainError
	if err := json.Unmarshal(rec.Body.Bytes(), &de); err != nil || de.Code != "bad_time_control" {
		t.Fatalf("unexpected error body %q (%v)", rec.Body.String(), err)
	}

	fb.err = errors.New("db down")
	rec = serve(t, h, "/api/v1/leaderboard/30")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("store failure status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &de); err != nil || !de.Retryable {
		t.Fatalf("store failure should be retryable: %q", rec.Body.String())
	}
}

func TestTransform(t *testing.T) {
	h := NewRouter(&fakeBoards{}, nil)

	rec := serve(t, h, "/api/v1/transform?eval=0")
	var tr trainerdto.Transform
	if err := json.Unmarshal(rec.Body.Bytes(), &tr); err != nil {
		t.Fatal(err)
	}
	if tr.Side != "white" || tr.Probability != 0.5 || tr.Verdict != "equal" {
		t.Fatalf("unexpected transform: %+v", tr)
	}

	rec = serve(t, h, "/api/v1/transform?eval=2&fen=8/8/8/8/8/8/8/K6k+b+-+-+0+1")
	if err := json.Unmarshal(rec.Body.Bytes(), &tr); err != nil {
		t.Fatal(err)
	}
	if tr.Side != "black" || tr.Probability >= 0.5 {
		t.Fatalf("black to move should see White's advantage as a loss: %+v", tr)
	}

	if rec := serve(t, h, "/api/v1/transform?eval=abc"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad eval status = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := NewRouter(&fakeBoards{}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/leaderboard/30", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}
