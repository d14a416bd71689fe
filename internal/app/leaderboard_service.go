package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sebspolo/scrobble-guessr/internal/domain"
)

// FriendsSource lists a user's friends.
type FriendsSource interface {
	Friends(ctx context.Context, user string) ([]domain.Member, error)
}

// LeaderboardService builds leaderboards over a user and their friends.
type LeaderboardService struct {
	friends FriendsSource
	builder *LeaderboardBuilder
	guard   OperationGuard
}

func NewLeaderboardService(friends FriendsSource, builder *LeaderboardBuilder, guard OperationGuard) *LeaderboardService {
	return &LeaderboardService{friends: friends, builder: builder, guard: guard}
}

// Crowd returns the owner followed by every friend, each name once.
func (s *LeaderboardService) Crowd(ctx context.Context, owner string) ([]domain.Member, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, domain.Invalidf("enter your Last.fm username")
	}
	friends, err := s.friends.Friends(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load friends of %s: %w", owner, err)
	}

	crowd := []domain.Member{{Name: owner}}
	seen := map[string]bool{owner: true}
	for _, f := range friends {
		if f.Name == "" || seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		crowd = append(crowd, f)
	}
	return crowd, nil
}

// Build loads the owner's crowd and ranks it. One build per owner runs at a
// time; a concurrent request gets ErrSessionBusy.
func (s *LeaderboardService) Build(ctx context.Context, owner string, target domain.Target, window domain.Window) (domain.Leaderboard, error) {
	if err := target.Validate(window); err != nil {
		return domain.Leaderboard{}, err
	}

	key := "leaderboard:" + strings.ToLower(strings.TrimSpace(owner))
	ok, err := s.guard.TryAcquire(ctx, key)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("acquire leaderboard guard: %w", err)
	}
	if !ok {
		return domain.Leaderboard{}, domain.ErrSessionBusy
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), key); err != nil {
			log.Printf("release leaderboard guard %s: %v", owner, err)
		}
	}()

	crowd, err := s.Crowd(ctx, owner)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	lb, err := s.builder.Build(ctx, target, window, crowd)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	log.Printf("leaderboard for %s: %d ranked, %d missing", owner, len(lb.Rows), len(lb.Missing))
	return lb, nil
}

// BuildFor ranks an explicit crowd without looking up friends.
func (s *LeaderboardService) BuildFor(ctx context.Context, target domain.Target, window domain.Window, crowd []domain.Member) (domain.Leaderboard, error) {
	return s.builder.Build(ctx, target, window, crowd)
}
