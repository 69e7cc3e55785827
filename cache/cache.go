// Package cache provides translation caching implementations. Episode and
// segment translations are cached by content hash so re-runs of a pipeline
// stage never pay for a backend call twice.
package cache

import "github.com/HanbitLabs/novlate"

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	// Get retrieves a cached translation. Returns empty string and false if
	// not found or expired.
	Get(key string) (string, bool)

	// Set stores a translation in the cache.
	Set(key string, value string) error
}

// Key builds the cache key for a piece of source text and a translation
// target. The key is content-addressed: editing the source invalidates it
// automatically.
func Key(text, sourceLang, targetLang, model string) string {
	return novlate.CacheKeyExtended(novlate.HashText(text), sourceLang, targetLang, model)
}

// Lookup fetches the cached translation for source text, if any.
func Lookup(c TranslationCache, text, sourceLang, targetLang, model string) (string, bool) {
	if c == nil {
		return "", false
	}
	return c.Get(Key(text, sourceLang, targetLang, model))
}

// Store caches a translation for source text. A nil cache is a no-op.
func Store(c TranslationCache, text, sourceLang, targetLang, model, translation string) error {
	if c == nil {
		return nil
	}
	return c.Set(Key(text, sourceLang, targetLang, model), translation)
}
