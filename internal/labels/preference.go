package labels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/text/language"

	"fintrack/internal/storage"
)

// LanguageKey is the storage key of the language preference.
const LanguageKey = "language-storage"

type languageState struct {
	State struct {
		Language Lang `json:"language"`
	} `json:"state"`
	Version int `json:"version"`
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Albanian})

// Negotiate picks the supported language that best matches an
// Accept-Language header, English when nothing matches.
func Negotiate(acceptLanguage string) Lang {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLang
	}
	return Languages[index]
}

// Tag is the BCP 47 tag of the language.
func (l Lang) Tag() language.Tag {
	if l == SQ {
		return language.Albanian
	}
	return language.English
}

// Preference is the persisted language choice.
type Preference struct {
	kv storage.KeyValue

	mu        sync.RWMutex
	lang      Lang
	persisted bool
}

// OpenPreference loads the stored language. A missing key means no
// preference yet; an undecodable or unsupported value is an error.
func OpenPreference(ctx context.Context, kv storage.KeyValue) (*Preference, error) {
	p := &Preference{kv: kv, lang: DefaultLang}
	raw, err := kv.Get(ctx, LanguageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", LanguageKey, err)
	}
	var st languageState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode %s: %w", LanguageKey, err)
	}
	lang, ok := ParseLang(string(st.State.Language))
	if !ok {
		return nil, fmt.Errorf("decode %s: unsupported language %q", LanguageKey, st.State.Language)
	}
	p.lang, p.persisted = lang, true
	return p, nil
}

// Get returns the stored language and whether one was ever stored.
func (p *Preference) Get() (Lang, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lang, p.persisted
}

func (p *Preference) Set(ctx context.Context, lang Lang) error {
	var st languageState
	st.State.Language = lang
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode %s: %w", LanguageKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.persisted && p.lang == lang {
		return nil
	}
	if err := p.kv.Put(ctx, LanguageKey, raw); err != nil {
		return fmt.Errorf("persist %s: %w", LanguageKey, err)
	}
	p.lang, p.persisted = lang, true
	return nil
}

// Resolve picks the request language: a valid ?lang value wins and is
// stored, then the stored preference, then Accept-Language.
func (p *Preference) Resolve(ctx context.Context, query, acceptLanguage string) (Lang, error) {
	if lang, ok := ParseLang(query); ok {
		return lang, p.Set(ctx, lang)
	}
	if lang, ok := p.Get(); ok {
		return lang, nil
	}
	return Negotiate(acceptLanguage), nil
}
