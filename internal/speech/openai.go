package speech

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kozaktomas/memory-mirror/internal/config"
)

const openaiSpeechModel = openai.SpeechModelTTS1

// OpenAISynthesizer produces MP3 speech through the OpenAI audio API.
type OpenAISynthesizer struct {
	client *openai.Client
	voices *config.VoicesConfig
}

func NewOpenAISynthesizer(apiKey string, voices *config.VoicesConfig) *OpenAISynthesizer {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAISynthesizer{
		client: &client,
		voices: voices,
	}
}

func (s *OpenAISynthesizer) Name() string {
	return "openai/" + openaiSpeechModel
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if text == "" {
		return nil, errors.New("no text to synthesize")
	}

	voice := s.voices.Voice("openai", normalizeLang(lang, s.voices))

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openaiSpeechModel,
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech response: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("no audio from OpenAI")
	}
	return data, nil
}
