package service

import "context"

// HistoryPolicy decides whether requester may read target's match history.
//
// SelfOnly is the only policy shipped. A moderator role would be another
// implementation; no role model exists yet.
type HistoryPolicy interface {
	CanViewHistory(ctx context.Context, requesterID, targetUserID int64) bool
}

// SelfOnly permits a user to read their own history and nobody else's.
type SelfOnly struct{}

func (SelfOnly) CanViewHistory(_ context.Context, requesterID, targetUserID int64) bool {
	return requesterID > 0 && requesterID == targetUserID
}

// HistoryPolicyFunc adapts a function to HistoryPolicy.
type HistoryPolicyFunc func(ctx context.Context, requesterID, targetUserID int64) bool

func (f HistoryPolicyFunc) CanViewHistory(ctx context.Context, requesterID, targetUserID int64) bool {
	return f(ctx, requesterID, targetUserID)
}
