package speech

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/kozaktomas/memory-mirror/internal/config"
)

const geminiSpeechModel = "gemini-2.5-flash-preview-tts"

// Gemini returns raw 16-bit mono PCM at this sample rate.
const geminiSampleRate = 24000

// GeminiSynthesizer produces speech through the Gemini API. The raw PCM
// response is wrapped in a WAV container so any player can consume it.
type GeminiSynthesizer struct {
	client *genai.Client
	voices *config.VoicesConfig
}

func NewGeminiSynthesizer(ctx context.Context, apiKey string, voices *config.VoicesConfig) (*GeminiSynthesizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiSynthesizer{
		client: client,
		voices: voices,
	}, nil
}

func (s *GeminiSynthesizer) Name() string {
	return "gemini/" + geminiSpeechModel
}

func (s *GeminiSynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if text == "" {
		return nil, errors.New("no text to synthesize")
	}

	voice := s.voices.Voice("gemini", normalizeLang(lang, s.voices))

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: text}},
		},
	}

	result, err := s.client.Models.GenerateContent(ctx, geminiSpeechModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return wrapWAV(part.InlineData.Data, geminiSampleRate), nil
			}
		}
	}
	return nil, errors.New("no audio from Gemini")
}

// wrapWAV prepends a RIFF/WAVE header for 16-bit mono PCM.
func wrapWAV(pcm []byte, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(pcm)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(pcm)))

	return append(header, pcm...)
}
