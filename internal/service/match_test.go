package service

import (
	"context"
	"errors"
	"testing"

	"github.com/YongminGwon/omok-server/internal/apperror"
)

func newMatchService(t *testing.T, repo *fakeMatchRepo, opts ...Option) *MatchService {
	t.Helper()
	return NewMatchService(repo, nil, testLogger(), opts...)
}

// =========================================================================
// RECORD MATCH TESTS
// =========================================================================

func TestRecordMatch_Success(t *testing.T) {
	repo := newFakeMatchRepo(1, 2)
	svc := newMatchService(t, repo)

	m, err := svc.RecordMatch(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("RecordMatch() error = %v", err)
	}
	if m.ID <= 0 || m.WinnerID != 1 || m.LoserID != 2 || m.PlayedAt.IsZero() {
		t.Errorf("RecordMatch() = %+v", m)
	}
}

func TestRecordMatch_RejectedBeforeStore(t *testing.T) {
	tests := []struct {
		name            string
		winner, loser int64
	}{
		{"self match", 1, 1},
		{"zero winner", 0, 2},
		{"zero loser", 1, 0},
		{"negative winner", -3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeMatchRepo(1, 2)
			svc := newMatchService(t, repo)

			m, err := svc.RecordMatch(context.Background(), tt.winner, tt.loser)
			if !errors.Is(err, apperror.ErrInvalidMatch) {
				t.Fatalf("RecordMatch() error = %v, want ErrInvalidMatch", err)
			}
			if m != nil {
				t.Errorf("RecordMatch() match = %+v, want nil", m)
			}
			if repo.insertCalls != 0 {
				t.Errorf("insertCalls = %d, want 0", repo.insertCalls)
			}
		})
	}
}

func TestRecordMatch_UnknownParticipant(t *testing.T) {
	repo := newFakeMatchRepo(1)
	svc := newMatchService(t, repo)

	_, err := svc.RecordMatch(context.Background(), 1, 999)
	if !errors.Is(err, apperror.ErrInvalidMatch) {
		t.Fatalf("RecordMatch() error = %v, want ErrInvalidMatch", err)
	}
}

func TestRecordMatch_NeverRetried(t *testing.T) {
	repo := newFakeMatchRepo(1, 2)
	repo.insertErr = apperror.StoreUnavailable("insert match", errors.New("timeout"))
	svc := newMatchService(t, repo, fastRetry)

	_, err := svc.RecordMatch(context.Background(), 1, 2)
	if !errors.Is(err, apperror.ErrStoreUnavailable) {
		t.Fatalf("RecordMatch() error = %v, want ErrStoreUnavailable", err)
	}
	if repo.insertCalls != 1 {
		t.Errorf("insertCalls = %d, want 1", repo.insertCalls)
	}
}

// TestScenario_SelfMatchAfterValidMatch: a valid game then a self-match
// leaves exactly one recorded match.
func TestScenario_SelfMatchAfterValidMatch(t *testing.T) {
	repo := newFakeMatchRepo(1, 2)
	svc := newMatchService(t, repo)
	ctx := context.Background()

	if _, err := svc.RecordMatch(ctx, 1, 2); err != nil {
		t.Fatalf("RecordMatch(1, 2) error = %v", err)
	}
	if _, err := svc.RecordMatch(ctx, 1, 1); !errors.Is(err, apperror.ErrInvalidMatch) {
		t.Fatalf("RecordMatch(1, 1) error = %v, want ErrInvalidMatch", err)
	}

	history, err := svc.GetHistory(ctx, 1, 1)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("len(history) = %d, want 1", len(history))
	}
}

// =========================================================================
// GET HISTORY TESTS
// =========================================================================

func TestGetHistory_OwnHistoryNewestFirst(t *testing.T) {
	repo := newFakeMatchRepo(1, 2, 3)
	svc := newMatchService(t, repo)
	ctx := context.Background()

	for _, p := range [][2]int64{{1, 2}, {3, 1}, {2, 3}} {
		if _, err := svc.RecordMatch(ctx, p[0], p[1]); err != nil {
			t.Fatalf("RecordMatch(%d, %d) error = %v", p[0], p[1], err)
		}
	}

	history, err := svc.GetHistory(ctx, 1, 1)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if history[0].WinnerID != 3 || history[1].WinnerID != 1 {
		t.Errorf("history order = %+v, want newest first", history)
	}
	for _, m := range history {
		if !m.Involves(1) {
			t.Errorf("history contains foreign match %+v", m)
		}
	}
}

func TestGetHistory_OtherUserForbidden(t *testing.T) {
	repo := newFakeMatchRepo(1, 2)
	svc := newMatchService(t, repo)
	if _, err := svc.RecordMatch(context.Background(), 1, 2); err != nil {
		t.Fatalf("RecordMatch() error = %v", err)
	}

	history, err := svc.GetHistory(context.Background(), 2, 1)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("GetHistory() error = %v, want ErrForbidden", err)
	}
	if history != nil {
		t.Errorf("history = %+v, want nil", history)
	}
	if repo.findCalls != 0 {
		t.Errorf("findCalls = %d, want 0 (denied before store)", repo.findCalls)
	}
}

func TestGetHistory_EmptyIsNotNil(t *testing.T) {
	svc := newMatchService(t, newFakeMatchRepo(1))

	history, err := svc.GetHistory(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Errorf("history = %#v, want empty non-nil slice", history)
	}
}

func TestGetHistory_RetriesTransientFailure(t *testing.T) {
	repo := newFakeMatchRepo(1)
	repo.findErrs = []error{apperror.StoreUnavailable("list matches", errors.New("reset"))}
	svc := newMatchService(t, repo, fastRetry)

	if _, err := svc.GetHistory(context.Background(), 1, 1); err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if repo.findCalls != 2 {
		t.Errorf("findCalls = %d, want 2", repo.findCalls)
	}
}

func TestGetHistory_CustomPolicy(t *testing.T) {
	repo := newFakeMatchRepo(1, 2)
	moderator := HistoryPolicyFunc(func(_ context.Context, requesterID, _ int64) bool {
		return requesterID == 99
	})
	svc := NewMatchService(repo, moderator, testLogger())

	if _, err := svc.GetHistory(context.Background(), 99, 1); err != nil {
		t.Errorf("GetHistory(moderator) error = %v", err)
	}
	if _, err := svc.GetHistory(context.Background(), 1, 1); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("GetHistory(self under custom policy) error = %v, want ErrForbidden", err)
	}
}
