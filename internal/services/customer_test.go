package services

import (
	"context"
	"encoding/json"
	"testing"

	"ayaocrm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := models.CustomerInput{
		Name:       "Alice",
		Country:    "KH",
		Age:        31,
		DealAmount: 1500,
		Level:      models.LevelVIP,
		Progress:   models.ProgressPending,
		MainOwner:  "alice",
		Assistant:  "bob",
		Notes:      "met at expo",
	}
	id, err := env.customers.Insert(ctx, alice, in)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := env.customers.Get(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "KH", got.Country)
	assert.Equal(t, 31, got.Age)
	assert.Equal(t, 1500.0, got.DealAmount)
	assert.Equal(t, models.LevelVIP, got.Level)
	assert.Equal(t, models.ProgressPending, got.Progress)
	assert.Equal(t, "bob", got.Assistant)
	assert.Equal(t, "met at expo", got.Notes)
}

func TestInsert_DefaultsOwnerAndAudits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.customers.Insert(ctx, bob, models.CustomerInput{Name: "Carl"})
	require.NoError(t, err)

	got, err := env.customers.Get(ctx, bob, id)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.MainOwner)

	entries, err := env.audit.Recent(ctx, adminActor, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "add_customer", entries[0].Action)
	assert.Equal(t, "bob", entries[0].Username)
	assert.Equal(t, id, entries[0].TargetID)

	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(entries[0].Details), &details))
	assert.Equal(t, "Carl", details["name"])
}

func TestInsert_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.customers.Insert(context.Background(), alice, models.CustomerInput{Name: "  "})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = env.customers.Insert(context.Background(), alice, models.CustomerInput{Name: "X", Level: "platinum"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestList_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d"} {
		_, err := env.customers.Insert(ctx, adminActor, models.CustomerInput{Name: name})
		require.NoError(t, err)
	}

	list, err := env.customers.List(ctx, adminActor, models.CustomerFilter{})
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "d", list[0].Name)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt), "list must be non-increasing in created_at")
	}
}

func TestList_OwnerScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seed := []models.CustomerInput{
		{Name: "owned-by-alice", MainOwner: "alice"},
		{Name: "owned-by-bob", MainOwner: "bob"},
		{Name: "bob-assisted-by-alice", MainOwner: "bob", Assistant: "carol, alice"},
		{Name: "bob-assisted-by-alicex", MainOwner: "bob", Assistant: "alicex"},
		{Name: "carol-assisted-by-alice-and-dave", MainOwner: "carol", Assistant: "alice,dave"},
	}
	for _, in := range seed {
		_, err := env.customers.Insert(ctx, adminActor, in)
		require.NoError(t, err)
	}

	list, err := env.customers.List(ctx, alice, models.CustomerFilter{})
	require.NoError(t, err)

	var names []string
	for _, c := range list {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"owned-by-alice", "bob-assisted-by-alice", "carol-assisted-by-alice-and-dave"}, names)

	// Only reachable through rows written before usernames were validated.
	joined := models.Actor{Username: "alice,dave", Role: models.RoleUser}
	list, err = env.customers.List(ctx, joined, models.CustomerFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	all, err := env.customers.List(ctx, adminActor, models.CustomerFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	bobs, err := env.customers.List(ctx, adminActor, models.CustomerFilter{Owner: "bob"})
	require.NoError(t, err)
	assert.Len(t, bobs, 3)
}

func TestGet_HiddenFromOtherUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.customers.Insert(ctx, alice, models.CustomerInput{Name: "secret"})
	require.NoError(t, err)

	_, err = env.customers.Get(ctx, bob, id)
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = env.customers.Get(ctx, adminActor, id)
	assert.NoError(t, err)
}

func TestUpdate_Partial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.customers.Insert(ctx, alice, models.CustomerInput{Name: "Alice", City: "Phnom Penh", Progress: models.ProgressPending})
	require.NoError(t, err)
	before, err := env.customers.Get(ctx, alice, id)
	require.NoError(t, err)

	progress := models.ProgressNegotiating
	amount := 99.5
	updated, err := env.customers.Update(ctx, alice, id, models.CustomerPatch{Progress: &progress, DealAmount: &amount})
	require.NoError(t, err)

	after, err := env.customers.Get(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, after, updated)
	assert.Equal(t, models.ProgressNegotiating, after.Progress)
	assert.Equal(t, 99.5, after.DealAmount)
	assert.Equal(t, "Phnom Penh", after.City)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)

	entries, err := env.audit.Recent(ctx, adminActor, 1)
	require.NoError(t, err)
	assert.Equal(t, "update_customer", entries[0].Action)
	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(entries[0].Details), &details))
	assert.Equal(t, map[string]any{"progress": "negotiating", "deal_amount": 99.5}, details)
}

func TestUpdate_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.customers.Insert(ctx, alice, models.CustomerInput{Name: "Alice"})
	require.NoError(t, err)

	name := "New"
	blank := " "
	level := "gold"
	cases := []struct {
		name  string
		actor models.Actor
		id    string
		patch models.CustomerPatch
		want  error
	}{
		{"missing", alice, "missing", models.CustomerPatch{Name: &name}, models.ErrNotFound},
		{"hidden", bob, id, models.CustomerPatch{Name: &name}, models.ErrNotFound},
		{"empty patch", alice, id, models.CustomerPatch{}, models.ErrValidation},
		{"blank name", alice, id, models.CustomerPatch{Name: &blank}, models.ErrValidation},
		{"bad level", alice, id, models.CustomerPatch{Level: &level}, models.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := env.customers.Update(ctx, tc.actor, tc.id, tc.patch)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, c)
		})
	}
}

func TestUpdate_ReassignAwayFromActor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.customers.Insert(ctx, alice, models.CustomerInput{Name: "Acme"})
	require.NoError(t, err)

	owner := "bob"
	updated, err := env.customers.Update(ctx, alice, id, models.CustomerPatch{MainOwner: &owner})
	require.NoError(t, err)
	assert.Equal(t, "bob", updated.MainOwner)
	assert.Equal(t, "Acme", updated.Name)

	_, err = env.customers.Get(ctx, alice, id)
	assert.ErrorIs(t, err, models.ErrNotFound)
	got, err := env.customers.Get(ctx, bob, id)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.MainOwner)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.customers.Insert(ctx, alice, models.CustomerInput{Name: "Gone"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.customers.Delete(ctx, bob, id), models.ErrNotFound)
	require.NoError(t, env.customers.Delete(ctx, alice, id))

	_, err = env.customers.Get(ctx, adminActor, id)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
	assert.ErrorIs(t, env.customers.Delete(ctx, alice, id), ErrCustomerNotFound)

	entries, err := env.audit.Recent(ctx, adminActor, 1)
	require.NoError(t, err)
	assert.Equal(t, "delete_customer", entries[0].Action)
	assert.JSONEq(t, `{"name":"Gone"}`, entries[0].Details)
}

func TestMutation_SurvivesAuditFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.db.Exec("DROP TABLE action_logs")
	require.NoError(t, err)

	id, err := env.customers.Insert(ctx, alice, models.CustomerInput{Name: "Kept"})
	require.NoError(t, err)

	got, err := env.customers.Get(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, "Kept", got.Name)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seed := []models.CustomerInput{
		{Name: "a", MainOwner: "alice", Level: models.LevelVIP, Country: "KH", Progress: models.ProgressCompleted},
		{Name: "b", MainOwner: "alice", Level: models.LevelNormal, Country: "VN", Progress: models.ProgressPending},
		{Name: "c", MainOwner: "bob", Level: models.LevelVIP, Country: "KH", Progress: models.ProgressCompleted},
	}
	for _, in := range seed {
		_, err := env.customers.Insert(ctx, adminActor, in)
		require.NoError(t, err)
	}

	stats, err := env.customers.Stats(ctx, adminActor)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Owners)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 2, stats.ByLevel[models.LevelVIP])
	assert.Equal(t, 2, stats.ByCountry["KH"])
	assert.Equal(t, 2, stats.DealsByDay["2024-03-01"])

	mine, err := env.customers.Stats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, mine.Total)
	assert.Equal(t, 1, mine.Owners)
}
