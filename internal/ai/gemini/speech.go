package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Subhodip-Mishra/Deephireai-1/internal/logger"
)

const transcribeInstruction = "Transcribe the following interview answer verbatim. " +
	"Return only the spoken words with normal punctuation, no commentary."

const speechInstruction = "You are a professional interviewer. Speak with confidence, " +
	"clarity, and authority. Maintain a composed, neutral tone, well-paced and " +
	"articulate, as in a formal job interview. Say: "

// Transcribe converts candidate answer audio into text. The audio bytes are
// forwarded as-is with their MIME type; Gemini accepts wav, mp3, ogg and
// flac inline, so no local transcoding happens.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("audio payload must not be empty")
	}
	if strings.TrimSpace(mimeType) == "" {
		return "", errors.New("audio mime type is required")
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: transcribeInstruction},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: audio}},
		},
	}}

	resp, err := c.models.GenerateContent(ctx, c.cfg.TranscribeModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}

	transcript := flattenResponse(resp)
	if transcript == "" {
		return "", errors.New("gemini api returned empty transcript")
	}

	c.logger.Debug("transcribed audio",
		zap.Int("audio_bytes", len(audio)),
		zap.String("transcript_preview", logger.TruncateForLog(transcript, c.cfg.MaxLogLength)),
	)

	return transcript, nil
}

// Synthesize renders the interviewer line as speech with the configured
// prebuilt voice. The returned bytes are the raw audio payload produced by
// the speech model.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("speech text must not be empty")
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.cfg.Voice},
			},
		},
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: speechInstruction + text}},
	}}

	resp, err := c.models.GenerateContent(ctx, c.cfg.SpeechModel, contents, config)
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}

	audio := firstAudioPayload(resp)
	if len(audio) == 0 {
		return nil, errors.New("gemini api returned no audio data")
	}

	return audio, nil
}

func firstAudioPayload(resp *genai.GenerateContentResponse) []byte {
	if resp == nil {
		return nil
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil {
				continue
			}
			if len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}
