package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"habit-reminder/internal/repository"
)

// BanditSelector picks reminder hours per habit with an epsilon-greedy
// strategy over persisted arm counters. Arms never leak between habits, and
// choose/record calls for the same habit are serialized.
type BanditSelector struct {
	arms    *repository.ArmRepository
	epsilon float64

	rngMu sync.Mutex
	rng   *rand.Rand

	mu     sync.Mutex
	habits map[uint]*sync.Mutex
}

// NewBanditSelector builds a selector. The rand source is injected so the
// exploration branch is deterministic in tests.
func NewBanditSelector(arms *repository.ArmRepository, epsilon float64, rng *rand.Rand) *BanditSelector {
	return &BanditSelector{
		arms:    arms,
		epsilon: epsilon,
		rng:     rng,
		habits:  make(map[uint]*sync.Mutex),
	}
}

func (s *BanditSelector) habitLock(habitID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.habits[habitID]
	if !ok {
		lock = &sync.Mutex{}
		s.habits[habitID] = lock
	}
	return lock
}

func (s *BanditSelector) randFloat() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

func (s *BanditSelector) randIndex(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

// ChooseHour picks a send hour from candidates: with probability epsilon a
// uniformly random one, otherwise the best observed success rate among
// pulled arms (ties broken by lowest hour). With no pulled candidate it
// falls back to a random pick. The chosen arm's pull counter is always
// incremented, whatever the eventual outcome.
func (s *BanditSelector) ChooseHour(ctx context.Context, habitID uint, candidates []int) (int, error) {
	if len(candidates) == 0 {
		return 0, fmt.Errorf("choose hour: no candidates for habit %d", habitID)
	}

	lock := s.habitLock(habitID)
	lock.Lock()
	defer lock.Unlock()

	var chosen int
	if s.randFloat() < s.epsilon {
		chosen = candidates[s.randIndex(len(candidates))]
	} else {
		best, ok, err := s.bestAmong(ctx, habitID, candidates)
		if err != nil {
			return 0, err
		}
		if ok {
			chosen = best
		} else {
			chosen = candidates[s.randIndex(len(candidates))]
		}
	}

	if err := s.arms.IncrementPull(ctx, habitID, chosen); err != nil {
		return 0, err
	}
	return chosen, nil
}

// RecordOutcome feeds a reward back for an earlier send. Only successes move
// a counter; the pull was already recorded at choose time.
func (s *BanditSelector) RecordOutcome(ctx context.Context, habitID uint, hour int, success bool) error {
	if !success {
		return nil
	}
	lock := s.habitLock(habitID)
	lock.Lock()
	defer lock.Unlock()
	return s.arms.IncrementSuccess(ctx, habitID, hour)
}

// BestHour returns the habit's best-performing hour among candidates (all
// known arms when candidates is nil). ok is false when no arm has been
// pulled yet. Used only to refresh the best_hour UI hint.
func (s *BanditSelector) BestHour(ctx context.Context, habitID uint, candidates []int) (int, bool, error) {
	lock := s.habitLock(habitID)
	lock.Lock()
	defer lock.Unlock()
	return s.bestAmong(ctx, habitID, candidates)
}

func (s *BanditSelector) bestAmong(ctx context.Context, habitID uint, candidates []int) (int, bool, error) {
	arms, err := s.arms.ListByHabit(ctx, habitID)
	if err != nil {
		return 0, false, fmt.Errorf("load arms: %w", err)
	}

	allowed := func(int) bool { return true }
	if candidates != nil {
		set := make(map[int]bool, len(candidates))
		for _, h := range candidates {
			set[h] = true
		}
		allowed = func(h int) bool { return set[h] }
	}

	best := 0
	bestRate := -1.0
	found := false
	for _, arm := range arms { // ordered by hour, so ties keep the lowest
		if arm.Pulls == 0 || !allowed(arm.Hour) {
			continue
		}
		if rate := arm.Rate(); rate > bestRate {
			best = arm.Hour
			bestRate = rate
			found = true
		}
	}
	return best, found, nil
}
