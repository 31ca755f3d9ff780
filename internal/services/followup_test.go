package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ayaocrm/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowupAdd_DistinctIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cid, err := env.customers.Insert(ctx, alice, models.CustomerInput{Name: "Alice"})
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		id, err := env.followups.Add(ctx, alice, cid, fmt.Sprintf("call %d", i), "")
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate followup id %s", id)
		seen[id] = true
	}

	list, err := env.followups.ListForCustomer(ctx, alice, cid)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "call 4", list[0].Note)
	assert.Equal(t, "call 0", list[4].Note)
	assert.Equal(t, "alice", list[0].Author)
}

func TestFollowupAdd_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cid, err := env.customers.Insert(ctx, alice, models.CustomerInput{Name: "Alice"})
	require.NoError(t, err)

	_, err = env.followups.Add(ctx, alice, cid, "   ", "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = env.followups.Add(ctx, alice, "no-such-customer", "hello", "")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = env.followups.Add(ctx, bob, cid, "hello", "")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = env.followups.ListForCustomer(ctx, bob, cid)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFollowupAdd_Audited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cid, err := env.customers.Insert(ctx, alice, models.CustomerInput{Name: "Alice"})
	require.NoError(t, err)
	fid, err := env.followups.Add(ctx, alice, cid, "sent brochure", "call back friday")
	require.NoError(t, err)

	entries, err := env.audit.Recent(ctx, adminActor, 1)
	require.NoError(t, err)
	assert.Equal(t, "add_followup", entries[0].Action)
	assert.Equal(t, fid, entries[0].TargetID)
	assert.JSONEq(t, fmt.Sprintf(`{"customer_id":%q,"note":"sent brochure"}`, cid), entries[0].Details)
}

func TestFollowups_SurviveCustomerDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cid, err := env.customers.Insert(ctx, alice, models.CustomerInput{Name: "Alice"})
	require.NoError(t, err)
	_, err = env.followups.Add(ctx, alice, cid, "note", "")
	require.NoError(t, err)
	require.NoError(t, env.customers.Delete(ctx, alice, cid))

	recent, err := env.followups.ListRecent(ctx, adminActor, time.Time{})
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestListRecent_WindowAndScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mine, err := env.customers.Insert(ctx, adminActor, models.CustomerInput{Name: "mine", MainOwner: "alice"})
	require.NoError(t, err)
	assisted, err := env.customers.Insert(ctx, adminActor, models.CustomerInput{Name: "assisted", MainOwner: "bob", Assistant: "alice"})
	require.NoError(t, err)
	other, err := env.customers.Insert(ctx, adminActor, models.CustomerInput{Name: "other", MainOwner: "bob"})
	require.NoError(t, err)

	_, err = env.followups.Add(ctx, adminActor, mine, "old", "")
	require.NoError(t, err)
	cutoff := env.clock.Now()
	_, err = env.followups.Add(ctx, adminActor, mine, "new mine", "")
	require.NoError(t, err)
	_, err = env.followups.Add(ctx, adminActor, assisted, "new assisted", "")
	require.NoError(t, err)
	_, err = env.followups.Add(ctx, adminActor, other, "new other", "")
	require.NoError(t, err)

	all, err := env.followups.ListRecent(ctx, adminActor, cutoff)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new other", all[0].Note)
	for _, f := range all {
		assert.False(t, f.CreatedAt.Before(cutoff))
	}

	scoped, err := env.followups.ListRecent(ctx, alice, cutoff)
	require.NoError(t, err)
	var notes []string
	for _, f := range scoped {
		notes = append(notes, f.Note)
	}
	assert.Equal(t, []string{"new assisted", "new mine"}, notes)

	everything, err := env.followups.ListRecent(ctx, alice, time.Time{})
	require.NoError(t, err)
	assert.Len(t, everything, 3)
}

func TestListRecent_Limit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	limited := NewFollowupService(env.db, env.customers, env.audit, zerolog.Nop(), 2).WithClock(env.clock.Now)

	cid, err := env.customers.Insert(ctx, alice, models.CustomerInput{Name: "Alice"})
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := limited.Add(ctx, alice, cid, fmt.Sprintf("n%d", i), "")
		require.NoError(t, err)
	}

	list, err := limited.ListRecent(ctx, alice, time.Time{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n3", list[0].Note)
	assert.Equal(t, "n2", list[1].Note)
}

func TestToday(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cid, err := env.customers.Insert(ctx, alice, models.CustomerInput{Name: "Alice"})
	require.NoError(t, err)

	yesterday := time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)
	env.followups.WithClock(func() time.Time { return yesterday })
	_, err = env.followups.Add(ctx, alice, cid, "yesterday", "")
	require.NoError(t, err)

	env.followups.WithClock(env.clock.Now)
	_, err = env.followups.Add(ctx, alice, cid, "today", "")
	require.NoError(t, err)

	today, err := env.followups.Today(ctx, alice)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "today", today[0].Note)
}
