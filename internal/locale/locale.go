// Package locale picks which of the two product languages a render shows.
package locale

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
)

// Language is the two-valued language preference.
type Language string

const (
	Chinese Language = "zh"
	English Language = "en"
)

// Default is the first language, shown until a preference has been read.
const Default = Chinese

// DefaultCookieName stores the preference on the client.
const DefaultCookieName = "app-language"

// Valid reports whether l is one of the two languages.
func (l Language) Valid() bool {
	return l == Chinese || l == English
}

// Toggle returns the other language.
func (l Language) Toggle() Language {
	if l == English {
		return Chinese
	}
	return English
}

var matcher = language.NewMatcher([]language.Tag{language.Chinese, language.English})

// Parse maps a language tag ("zh", "zh-CN", "en-US", ...) onto a Language. Tags that
// match neither language report false.
func Parse(value string) (Language, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Default, false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return Default, false
	}
	_, index, confidence := matcher.Match(tag)
	if confidence < language.High {
		return Default, false
	}
	if index == 1 {
		return English, true
	}
	return Chinese, true
}

// Resolver is the per-render language state. It starts Unmounted and always shows the
// first language; Mount switches it, once, to the stored preference.
type Resolver struct {
	mu      sync.RWMutex
	mounted bool
	pref    Language
}

// NewResolver returns an unmounted resolver.
func NewResolver() *Resolver {
	return &Resolver{pref: Default}
}

// Mounted returns a resolver that has already read its preference.
func Mounted(pref Language) *Resolver {
	r := NewResolver()
	r.Mount(pref)
	return r
}

// Mount records the preference and moves to the Mounted state. Later calls keep the
// resolver mounted and only update the preference.
func (r *Resolver) Mount(pref Language) {
	if !pref.Valid() {
		pref = Default
	}
	r.mu.Lock()
	r.mounted = true
	r.pref = pref
	r.mu.Unlock()
}

func (r *Resolver) IsMounted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mounted
}

// Language is the language Resolve currently renders.
func (r *Resolver) Language() Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.mounted {
		return Default
	}
	return r.pref
}

// Resolve returns zh unconditionally while unmounted, then follows the preference.
func (r *Resolver) Resolve(zh, en string) string {
	if r.Language() == English {
		return en
	}
	return zh
}

// Store persists the preference in a cookie.
type Store struct {
	CookieName string
	MaxAge     time.Duration
}

// NewStore returns a cookie store; an empty name uses DefaultCookieName.
func NewStore(cookieName string) *Store {
	if strings.TrimSpace(cookieName) == "" {
		cookieName = DefaultCookieName
	}
	return &Store{CookieName: cookieName, MaxAge: 365 * 24 * time.Hour}
}

// Load reads the stored preference. A missing or unreadable cookie yields Default.
func (s *Store) Load(r *http.Request) Language {
	if r == nil {
		return Default
	}
	cookie, err := r.Cookie(s.CookieName)
	if err != nil {
		return Default
	}
	lang, ok := Parse(cookie.Value)
	if !ok {
		return Default
	}
	return lang
}

// Save writes the preference. Writing the same value twice is harmless; the last write wins.
func (s *Store) Save(w http.ResponseWriter, lang Language) {
	if w == nil || !lang.Valid() {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    string(lang),
		Path:     "/",
		MaxAge:   int(s.MaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// Resolver reads the stored preference and returns a mounted resolver for the request.
func (s *Store) Resolver(r *http.Request) *Resolver {
	return Mounted(s.Load(r))
}
