package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
)

// TranslationMemory adapts a Cache backend to the translation client's
// lookaside interface. Keys fingerprint (language, rules, source text) so the
// same string translated under different rules never shares an entry.
// Every operation is best-effort: backend failures are logged and swallowed.
type TranslationMemory struct {
	cache Cache
	log   *slog.Logger
}

// NewTranslationMemory wraps a backend.
func NewTranslationMemory(c Cache, log *slog.Logger) *TranslationMemory {
	if log == nil {
		log = slog.Default()
	}
	return &TranslationMemory{cache: c, log: log}
}

// Lookup returns a cached translation for the source string, if any.
func (m *TranslationMemory) Lookup(ctx context.Context, lang, rulesHash, source string) (string, bool) {
	val, err := m.cache.Get(ctx, memoryKey(lang, rulesHash, source))
	if err != nil {
		if err != ErrCacheMiss {
			m.log.Debug("translation memory get failed", "error", err)
		}
		return "", false
	}
	return string(val), true
}

// Store records a successful translation. TTL is the backend default.
func (m *TranslationMemory) Store(ctx context.Context, lang, rulesHash, source, translated string) {
	if err := m.cache.Set(ctx, memoryKey(lang, rulesHash, source), []byte(translated), 0); err != nil {
		m.log.Debug("translation memory set failed", "error", err)
	}
}

func memoryKey(lang, rulesHash, source string) string {
	sum := sha256.Sum256([]byte(source))
	return "tm:" + lang + ":" + rulesHash + ":" + hex.EncodeToString(sum[:])
}
