package i18n

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ayaocrm/internal/audit"
	"ayaocrm/internal/database"
	"ayaocrm/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = models.Actor{Username: "admin", Role: models.RoleAdmin}
	user  = models.Actor{Username: "alice", Role: models.RoleUser}
)

func newResolver(t *testing.T) (*Resolver, *audit.Log, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := database.New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := audit.NewLog(db, zerolog.Nop())
	path := filepath.Join(dir, "translations.json")
	return NewResolver(path, log, zerolog.Nop()), log, path
}

func TestResolve_FallbackOrder(t *testing.T) {
	r, _, _ := newResolver(t)

	assert.Equal(t, "Login", r.Resolve(English, "btn_login"))
	assert.Equal(t, "登录", r.Resolve(Chinese, "btn_login"))
	assert.Equal(t, "btn_login", r.Resolve(Khmer, "btn_login"))
	assert.Equal(t, "not_a_key", r.Resolve(English, "not_a_key"))
	assert.Equal(t, "x", r.Resolve("Klingon", "x"))
}

func TestSaveOverrides(t *testing.T) {
	r, log, path := newResolver(t)
	ctx := context.Background()

	require.NoError(t, r.SaveOverrides(ctx, admin, Set{
		English: {"btn_login": "Sign in"},
		Khmer:   {"btn_login": "ចូល"},
	}))

	assert.Equal(t, "Sign in", r.Resolve(English, "btn_login"))
	assert.Equal(t, "ចូល", r.Resolve(Khmer, "btn_login"))
	assert.Equal(t, "Logout", r.Resolve(English, "btn_logout"))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	fresh := NewResolver(path, log, zerolog.Nop())
	assert.Equal(t, "Sign in", fresh.Resolve(English, "btn_login"))

	entries, err := log.Recent(ctx, admin, 1)
	require.NoError(t, err)
	assert.Equal(t, "save_translations", entries[0].Action)
	assert.JSONEq(t, `{"languages":["English","Khmer"]}`, entries[0].Details)
}

func TestSaveOverrides_ReplacesWholesale(t *testing.T) {
	r, _, _ := newResolver(t)
	ctx := context.Background()

	require.NoError(t, r.SaveOverrides(ctx, admin, Set{English: {"btn_login": "Sign in"}}))
	require.NoError(t, r.SaveOverrides(ctx, admin, Set{English: {"btn_logout": "Sign out"}}))

	assert.Equal(t, "Login", r.Resolve(English, "btn_login"))
	assert.Equal(t, "Sign out", r.Resolve(English, "btn_logout"))
}

func TestSaveOverrides_AdminOnly(t *testing.T) {
	r, _, path := newResolver(t)

	err := r.SaveOverrides(context.Background(), user, Set{English: {"btn_login": "x"}})
	assert.ErrorIs(t, err, models.ErrPermissionDenied)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadOverrides_MalformedFallsBack(t *testing.T) {
	r, _, path := newResolver(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json: ["), 0644))

	set := r.LoadOverrides()
	assert.Equal(t, Builtin(), set)
	assert.Equal(t, "Login", r.Resolve(English, "btn_login"))
}

func TestLoadOverrides_Merges(t *testing.T) {
	r, _, path := newResolver(t)
	doc := `{
  "English": {"btn_login": "Sign in"},
  "Englsh": {"typo": "kept"}
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	set := r.LoadOverrides()
	assert.Equal(t, "Sign in", set[English]["btn_login"])
	assert.Equal(t, "Logout", set[English]["btn_logout"])
	assert.Equal(t, "kept", set["Englsh"]["typo"])
	assert.Equal(t, "登录", set[Chinese]["btn_login"])

	assert.Equal(t, []string{Chinese, English, Indonesian, Khmer, Vietnamese, "Englsh"}, r.Languages())
}

func TestParseDocument(t *testing.T) {
	set, err := ParseDocument([]byte("English:\n  btn_login: Sign in\nKhmer: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "Sign in", set[English]["btn_login"])
	assert.NotNil(t, set[Khmer])

	set, err = ParseDocument([]byte(`{"中文": {"btn_login": "进入"}}`))
	require.NoError(t, err)
	assert.Equal(t, "进入", set[Chinese]["btn_login"])

	for _, bad := range []string{"", "   ", "null", "[1, 2]", "just text", `{"English": "flat"}`} {
		_, err := ParseDocument([]byte(bad))
		assert.ErrorIs(t, err, models.ErrValidation, "input %q", bad)
	}
}

func TestDictionary(t *testing.T) {
	r, _, _ := newResolver(t)
	require.NoError(t, r.SaveOverrides(context.Background(), admin, Set{English: {"submit": "Send"}}))

	dict := r.Dictionary(English)
	assert.Equal(t, "Send", dict["submit"])
	assert.Equal(t, "Login", dict["btn_login"])
	assert.Len(t, dict, len(builtin[English]))

	assert.Empty(t, r.Dictionary(Vietnamese))
}

func TestBuiltinCoverage(t *testing.T) {
	b := Builtin()
	assert.Len(t, b, 5)
	assert.Equal(t, len(b[Chinese]), len(b[English]))
	for key := range b[Chinese] {
		assert.Contains(t, b[English], key)
	}

	b[English]["btn_login"] = "mutated"
	assert.Equal(t, "Login", builtin[English]["btn_login"])
}

func TestMatch(t *testing.T) {
	cases := map[string]string{
		"":                   Chinese,
		"zh-CN,zh;q=0.9":     Chinese,
		"en-US,en;q=0.8":     English,
		"id":                 Indonesian,
		"km-KH":              Khmer,
		"vi;q=0.9, en;q=0.5": Vietnamese,
		"fr-FR":              Chinese,
	}
	for header, want := range cases {
		assert.Equal(t, want, Match(header), "header %q", header)
	}
}
