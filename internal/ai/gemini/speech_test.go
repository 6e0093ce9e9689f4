package gemini

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModels struct {
	mu            sync.Mutex
	generateResp  *genai.GenerateContentResponse
	generateErr   error
	embedResp     *genai.EmbedContentResponse
	embedErr      error
	generateCalls []struct {
		model    string
		contents []*genai.Content
		config   *genai.GenerateContentConfig
	}
	embedCalls []struct {
		model    string
		contents []*genai.Content
	}
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateCalls = append(f.generateCalls, struct {
		model    string
		contents []*genai.Content
		config   *genai.GenerateContentConfig
	}{model, contents, config})
	return f.generateResp, f.generateErr
}

func (f *fakeModels) EmbedContent(_ context.Context, model string, contents []*genai.Content, _ *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedCalls = append(f.embedCalls, struct {
		model    string
		contents []*genai.Content
	}{model, contents})
	return f.embedResp, f.embedErr
}

func modelsClient(models modelCaller) *Client {
	cfg := Config{}
	cfg.withDefaults()
	return &Client{models: models, cfg: cfg, logger: zap.NewNop()}
}

func TestTranscribeForwardsAudioInline(t *testing.T) {
	models := &fakeModels{generateResp: textResponse("I worked on a trading system.")}
	client := modelsClient(models)

	transcript, err := client.Transcribe(context.Background(), []byte{0x1, 0x2}, "audio/wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transcript != "I worked on a trading system." {
		t.Fatalf("unexpected transcript: %q", transcript)
	}

	if len(models.generateCalls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(models.generateCalls))
	}
	parts := models.generateCalls[0].contents[0].Parts
	if len(parts) != 2 || parts[1].InlineData == nil {
		t.Fatalf("expected inline audio part, got %+v", parts)
	}
	if parts[1].InlineData.MIMEType != "audio/wav" {
		t.Fatalf("unexpected mime type: %q", parts[1].InlineData.MIMEType)
	}
}

func TestTranscribeRejectsEmptyAudio(t *testing.T) {
	client := modelsClient(&fakeModels{})
	if _, err := client.Transcribe(context.Background(), nil, "audio/wav"); err == nil {
		t.Fatalf("expected error for empty audio")
	}
}

func TestSynthesizeReturnsAudioPayload(t *testing.T) {
	payload := []byte{0xAA, 0xBB, 0xCC}
	models := &fakeModels{generateResp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: "audio/wav", Data: payload}},
			}},
		}},
	}}
	client := modelsClient(models)

	audio, err := client.Synthesize(context.Background(), "Welcome to the interview.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(audio, payload) {
		t.Fatalf("unexpected audio payload: %v", audio)
	}

	config := models.generateCalls[0].config
	if config == nil || len(config.ResponseModalities) != 1 || config.ResponseModalities[0] != "AUDIO" {
		t.Fatalf("expected AUDIO response modality, got %+v", config)
	}
	if config.SpeechConfig == nil || config.SpeechConfig.VoiceConfig == nil {
		t.Fatalf("expected voice config to be set")
	}
}

func TestSynthesizeFailsWithoutAudio(t *testing.T) {
	models := &fakeModels{generateResp: textResponse("no audio here")}
	client := modelsClient(models)

	if _, err := client.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error when no audio returned")
	}
}

func TestEmbedTextsOrdering(t *testing.T) {
	models := &fakeModels{embedResp: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{
			{Values: []float32{0.1, 0.2}},
			{Values: []float32{0.3, 0.4}},
		},
	}}
	client := modelsClient(models)

	vectors, err := client.EmbedTexts(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 0.1 || vectors[1][1] != 0.4 {
		t.Fatalf("unexpected vectors: %+v", vectors)
	}

	contents := models.embedCalls[0].contents
	if len(contents) != 2 || contents[0].Parts[0].Text != "alpha" {
		t.Fatalf("unexpected embed contents: %+v", contents)
	}
}

func TestEmbedTextsCountMismatch(t *testing.T) {
	models := &fakeModels{embedResp: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{0.1}}},
	}}
	client := modelsClient(models)

	if _, err := client.EmbedTexts(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatalf("expected error on embedding count mismatch")
	}
}
