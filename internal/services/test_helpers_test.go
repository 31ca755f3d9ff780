package services

import (
	"sync"
	"testing"
	"time"

	"ayaocrm/internal/audit"
	"ayaocrm/internal/database"
	"ayaocrm/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	adminActor = models.Actor{Username: "admin", Role: models.RoleAdmin}
	alice      = models.Actor{Username: "alice", Role: models.RoleUser}
	bob        = models.Actor{Username: "bob", Role: models.RoleUser}
)

// stepClock returns a strictly increasing time on every call.
type stepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func newStepClock(start time.Time) *stepClock {
	return &stepClock{next: start, step: time.Second}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}

type testEnv struct {
	db        *database.DB
	audit     *audit.Log
	customers *CustomerService
	followups *FollowupService
	clock     *stepClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := newStepClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	log := audit.NewLog(db, zerolog.Nop())
	customers := NewCustomerService(db, log, zerolog.Nop()).WithClock(clock.Now)
	followups := NewFollowupService(db, customers, log, zerolog.Nop(), 0).WithClock(clock.Now)

	return &testEnv{db: db, audit: log, customers: customers, followups: followups, clock: clock}
}
