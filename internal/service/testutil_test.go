package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"habit-reminder/internal/model"
	"habit-reminder/internal/notify"
	"habit-reminder/internal/repository"
)

// newTestDB opens a private in-memory sqlite database with migrations run.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, t.Name())
	db, err := repository.NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

// fakeNotifier records dispatches and answers with configurable success.
type fakeNotifier struct {
	mu          sync.Mutex
	reminderOK  bool
	digestOK    bool
	reminders   []string // habit titles
	digests     []notify.Insights
	digestUsers []uint
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{reminderOK: true, digestOK: true}
}

func (f *fakeNotifier) SendReminder(ctx context.Context, user model.User, habitTitle, checkinURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.reminderOK {
		return false
	}
	f.reminders = append(f.reminders, habitTitle)
	return true
}

func (f *fakeNotifier) SendWeeklyDigest(ctx context.Context, user model.User, insights notify.Insights) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.digestOK {
		return false
	}
	f.digests = append(f.digests, insights)
	f.digestUsers = append(f.digestUsers, user.ID)
	return true
}

func (f *fakeNotifier) reminderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reminders)
}

// syncDispatcher runs dispatch jobs inline so tests see their effects
// immediately.
type syncDispatcher struct{}

func (syncDispatcher) Submit(job notify.Job) error {
	job(context.Background())
	return nil
}
