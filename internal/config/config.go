package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed voices.yaml
var voicesYAML []byte

type Config struct {
	Camera      CameraConfig
	Recognition RecognitionConfig
	Cache       CacheConfig
	Audio       AudioConfig
	Gallery     GalleryConfig
	Engine      EngineConfig
	Database    DatabaseConfig
	Web         WebConfig
	Voices      VoicesConfig
}

type CameraConfig struct {
	DeviceIndex int     // camera device index (default 0)
	SpoolDir    string  // directory an external capture process drops frames into
	TargetFPS   int     // recognition ticks per second (default 10)
	FrameSkip   int     // frames skipped between processed frames (default 2)
	BlurLimit   float64 // Laplacian variance below this rejects the frame (default 100)
}

type RecognitionConfig struct {
	ModelName           string  // matcher/model identifier reported in results
	DistanceMetric      string  // cosine, euclidean or euclidean_l2
	ConfidenceThreshold float64 // minimum confidence to accept an identity (default 0.6)
}

type CacheConfig struct {
	MaxSize         int    // maximum number of cached recognition results (default 1000)
	TTLSeconds      int    // cache entry time to live (default 30)
	CleanupSeconds  int    // minimum interval between expired-entry sweeps (default 60)
	FingerprintMode string // "content" or "geometry"
}

type AudioConfig struct {
	Enabled         bool
	Volume          float64 // 0.0 to 1.0
	CooldownSeconds int     // minimum silence between announcements for one person (default 30)
	TTSEngine       string  // "openai", "gemini" or "none"
	OpenAIToken     string
	GeminiAPIKey    string
	PlayerCommand   string // command playing audio from stdin; {volume} in an argument expands to the volume as a percentage
	CacheDir        string // on-disk cache for synthesized speech
}

type GalleryConfig struct {
	Path         string // one directory per enrolled person
	MetadataPath string // profiles.json with per-person metadata
}

type EngineConfig struct {
	URL string // face detection/embedding service, empty disables recognition
}

type DatabaseConfig struct {
	URL          string // PostgreSQL URL for the recognition history store, empty disables it
	MaxOpenConns int    // default 10
	MaxIdleConns int    // default 2
}

type WebConfig struct {
	Host string
	Port int
}

// VoicesConfig is the embedded language table: display names and the TTS
// voice to use per language, plus the default language code.
type VoicesConfig struct {
	Languages map[string]VoiceEntry `yaml:"languages"`
	Default   string                `yaml:"default"`
}

type VoiceEntry struct {
	Name        string `yaml:"name"`
	OpenAIVoice string `yaml:"openai_voice"`
	GeminiVoice string `yaml:"gemini_voice"`
}

// Voice returns the TTS voice configured for a language under the given
// engine, falling back to the default language's voice.
func (v *VoicesConfig) Voice(engine, lang string) string {
	entry, ok := v.Languages[lang]
	if !ok {
		entry = v.Languages[v.Default]
	}
	if engine == "gemini" {
		return entry.GeminiVoice
	}
	return entry.OpenAIVoice
}

// Supported reports whether a language code has an entry in the voice table.
func (v *VoicesConfig) Supported(lang string) bool {
	_, ok := v.Languages[lang]
	return ok
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float, falling back on the
// default when unset or unparseable.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean with a default.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

// envString reads an environment variable with a default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// audioConfig picks a default player that matches the TTS engine's output
// format: OpenAI synthesizes MP3, Gemini WAV.
func audioConfig() AudioConfig {
	ttsEngine := envString("MIRROR_TTS_ENGINE", "openai")

	defaultPlayer := "mpg123 -q -"
	if ttsEngine == "gemini" {
		defaultPlayer = "aplay -q"
	}

	return AudioConfig{
		Enabled:         envBool("MIRROR_AUDIO_ENABLED", true),
		Volume:          envFloat("MIRROR_AUDIO_VOLUME", 0.8),
		CooldownSeconds: envInt("MIRROR_MESSAGE_COOLDOWN_SECONDS", 30),
		TTSEngine:       ttsEngine,
		OpenAIToken:     os.Getenv("OPENAI_TOKEN"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		PlayerCommand:   envString("MIRROR_PLAYER_COMMAND", defaultPlayer),
		CacheDir:        envString("MIRROR_AUDIO_CACHE_DIR", "assets/audio"),
	}
}

func Load() *Config {
	var voices VoicesConfig
	if err := yaml.Unmarshal(voicesYAML, &voices); err != nil {
		// Embedded file, should never happen in practice.
		panic("failed to unmarshal embedded voices.yaml: " + err.Error())
	}

	return &Config{
		Camera: CameraConfig{
			DeviceIndex: envInt("MIRROR_CAMERA_INDEX", 0),
			SpoolDir:    envString("MIRROR_FRAMES_DIR", "frames"),
			TargetFPS:   envInt("MIRROR_TARGET_FPS", 10),
			FrameSkip:   envInt("MIRROR_FRAME_SKIP", 2),
			BlurLimit:   envFloat("MIRROR_BLUR_THRESHOLD", 100.0),
		},
		Recognition: RecognitionConfig{
			ModelName:           envString("MIRROR_MODEL_NAME", "insightface"),
			DistanceMetric:      envString("MIRROR_DISTANCE_METRIC", "cosine"),
			ConfidenceThreshold: envFloat("MIRROR_CONFIDENCE_THRESHOLD", 0.6),
		},
		Cache: CacheConfig{
			MaxSize:         envInt("MIRROR_CACHE_MAX_SIZE", 1000),
			TTLSeconds:      envInt("MIRROR_CACHE_TTL_SECONDS", 30),
			CleanupSeconds:  envInt("MIRROR_CACHE_CLEANUP_SECONDS", 60),
			FingerprintMode: envString("MIRROR_CACHE_FINGERPRINT", "content"),
		},
		Audio: audioConfig(),
		Gallery: GalleryConfig{
			Path:         envString("MIRROR_GALLERY_PATH", "known_faces"),
			MetadataPath: envString("MIRROR_PROFILES_PATH", "known_faces/profiles.json"),
		},
		Engine: EngineConfig{
			URL: os.Getenv("MIRROR_ENGINE_URL"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 2),
		},
		Web: WebConfig{
			Host: envString("MIRROR_WEB_HOST", "127.0.0.1"),
			Port: envInt("MIRROR_WEB_PORT", 8090),
		},
		Voices: voices,
	}
}
