// Package speech turns announcement text into playable audio through a
// text-to-speech provider.
package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/kozaktomas/memory-mirror/internal/config"
)

// Synthesizer converts text in a given language into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
	Name() string
}

// NewSynthesizer builds the synthesizer selected by the audio configuration,
// wrapped in the on-disk cache. Engine "none" returns nil, which callers
// treat as audio disabled.
func NewSynthesizer(ctx context.Context, cfg *config.Config) (Synthesizer, error) {
	var synth Synthesizer

	switch cfg.Audio.TTSEngine {
	case "openai":
		if cfg.Audio.OpenAIToken == "" {
			return nil, fmt.Errorf("OPENAI_TOKEN is required for the openai TTS engine")
		}
		synth = NewOpenAISynthesizer(cfg.Audio.OpenAIToken, &cfg.Voices)
	case "gemini":
		if cfg.Audio.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini TTS engine")
		}
		g, err := NewGeminiSynthesizer(ctx, cfg.Audio.GeminiAPIKey, &cfg.Voices)
		if err != nil {
			return nil, err
		}
		synth = g
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown TTS engine %q", cfg.Audio.TTSEngine)
	}

	if cfg.Audio.CacheDir != "" {
		return NewCachingSynthesizer(synth, cfg.Audio.CacheDir, 0), nil
	}
	return synth, nil
}

// normalizeLang reduces a language tag to the bare code used by the voice
// table ("en-US" becomes "en") and falls back to the configured default for
// unsupported languages.
func normalizeLang(lang string, voices *config.VoicesConfig) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if lang == "" || !voices.Supported(lang) {
		return voices.Default
	}
	return lang
}
