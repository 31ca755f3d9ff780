// Package i18n resolves UI labels per language. Lookups go through the
// admin-edited override document first, then the compiled-in dictionaries,
// and finally fall back to the key itself.
package i18n

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"ayaocrm/internal/audit"
	"ayaocrm/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Set maps a language key to its string table.
type Set map[string]map[string]string

func (s Set) clone() Set {
	out := make(Set, len(s))
	for lang, table := range s {
		t := make(map[string]string, len(table))
		for k, v := range table {
			t[k] = v
		}
		out[lang] = t
	}
	return out
}

// merge overlays other onto a copy of s, per language and per key.
func (s Set) merge(other Set) Set {
	out := s.clone()
	for lang, table := range other {
		if out[lang] == nil {
			out[lang] = make(map[string]string, len(table))
		}
		for k, v := range table {
			out[lang][k] = v
		}
	}
	return out
}

var (
	matchTags = []language.Tag{language.Chinese, language.English, language.Indonesian, language.Khmer, language.Vietnamese}
	matcher   = language.NewMatcher(matchTags)
)

type Resolver struct {
	path   string
	audit  *audit.Log
	logger zerolog.Logger

	mu        sync.RWMutex
	overrides Set
}

// NewResolver loads the override document at path, if any.
func NewResolver(path string, auditLog *audit.Log, logger zerolog.Logger) *Resolver {
	r := &Resolver{
		path:      path,
		audit:     auditLog,
		logger:    logger,
		overrides: Set{},
	}
	r.LoadOverrides()
	return r
}

// Resolve never fails: an unknown key comes back verbatim.
func (r *Resolver) Resolve(lang, key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if text, ok := r.overrides[lang][key]; ok {
		return text
	}
	if text, ok := builtin[lang][key]; ok {
		return text
	}
	return key
}

// LoadOverrides rereads the override document and returns the merged set.
// A missing or malformed document leaves only the builtin dictionaries.
func (r *Resolver) LoadOverrides() Set {
	persisted, err := r.readDocument()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn().Err(err).Str("path", r.path).Msg("translation overrides ignored")
		}
		persisted = Set{}
	}

	r.mu.Lock()
	r.overrides = persisted
	r.mu.Unlock()

	return builtin.merge(persisted)
}

// SaveOverrides replaces the override document wholesale. Admin only.
func (r *Resolver) SaveOverrides(ctx context.Context, actor models.Actor, set Set) error {
	if err := models.RequireAdmin(actor); err != nil {
		return err
	}
	if set == nil {
		set = Set{}
	}

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode translations: %w", err)
	}

	r.mu.Lock()
	err = writeFileAtomic(r.path, data)
	if err == nil {
		r.overrides = set.clone()
	}
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to save translations: %w", err)
	}

	langs := make([]string, 0, len(set))
	for lang := range set {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	r.audit.Append(ctx, audit.Entry{
		Actor: actor.Name(), Action: "save_translations", Table: "translations",
		Details: map[string]any{"languages": langs},
	})
	return nil
}

// Dictionary is the merged table for one language.
func (r *Resolver) Dictionary(lang string) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(builtin[lang])+len(r.overrides[lang]))
	for k, v := range builtin[lang] {
		out[k] = v
	}
	for k, v := range r.overrides[lang] {
		out[k] = v
	}
	return out
}

// Languages lists the builtin languages followed by any extra languages
// introduced by the override document.
func (r *Resolver) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := slices.Clone(languageOrder)
	var extra []string
	for lang := range r.overrides {
		if !slices.Contains(languageOrder, lang) {
			extra = append(extra, lang)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// Match picks the language key for an Accept-Language header, defaulting
// to Chinese.
func Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Chinese
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Chinese
	}
	return languageOrder[idx]
}

// ParseDocument decodes an override document. JSON and YAML are accepted;
// the content is only ever decoded as data.
func ParseDocument(data []byte) (Set, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, models.Invalid("translation document is empty")
	}

	var set Set
	var err error
	if json.Valid(trimmed) {
		err = json.Unmarshal(trimmed, &set)
	} else {
		err = yaml.Unmarshal(trimmed, &set)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: malformed translation document: %v", models.ErrValidation, err)
	}
	if set == nil {
		return nil, models.Invalid("translation document must be a mapping of language to strings")
	}
	for lang, table := range set {
		if table == nil {
			set[lang] = map[string]string{}
		}
	}
	return set, nil
}

func (r *Resolver) readDocument() (Set, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, err
	}
	return ParseDocument(data)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
