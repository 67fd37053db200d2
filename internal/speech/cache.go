package speech

import (
	"context"
	"crypto/md5"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// DefaultAudioTTL is how long cached synthesized audio stays valid.
const DefaultAudioTTL = 24 * time.Hour

// CachingSynthesizer wraps a synthesizer with an on-disk cache so repeated
// announcements of the same text do not hit the TTS API again.
type CachingSynthesizer struct {
	inner Synthesizer
	dir   string
	ttl   time.Duration
}

// NewCachingSynthesizer creates the cache wrapper. A non-positive ttl
// selects the default.
func NewCachingSynthesizer(inner Synthesizer, dir string, ttl time.Duration) *CachingSynthesizer {
	if ttl <= 0 {
		ttl = DefaultAudioTTL
	}
	return &CachingSynthesizer{
		inner: inner,
		dir:   dir,
		ttl:   ttl,
	}
}

func (c *CachingSynthesizer) Name() string {
	return c.inner.Name()
}

// Synthesize returns cached audio when a fresh file exists, otherwise calls
// the wrapped synthesizer and stores the result. Cache write failures are
// logged but do not fail the synthesis.
func (c *CachingSynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	path := c.cachePath(text, lang)

	if info, err := os.Stat(path); err == nil {
		if time.Since(info.ModTime()) <= c.ttl {
			if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
				return data, nil
			}
		} else {
			os.Remove(path)
		}
	}

	data, err := c.inner.Synthesize(ctx, text, lang)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		log.Printf("speech: could not create audio cache dir: %v", err)
		return data, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("speech: could not cache audio: %v", err)
	}
	return data, nil
}

// ClearCache removes all cached audio files.
func (c *CachingSynthesizer) ClearCache() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not read audio cache dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return fmt.Errorf("could not remove cached audio: %w", err)
		}
	}
	return nil
}

// cachePath derives the cache file name from the text, language and engine
// so a provider switch never replays stale audio.
func (c *CachingSynthesizer) cachePath(text, lang string) string {
	sum := md5.Sum([]byte(c.inner.Name() + "|" + lang + "|" + text))
	return filepath.Join(c.dir, fmt.Sprintf("%x.audio", sum))
}
