package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Subhodip-Mishra/Deephireai-1/internal/ai/gemini"
	"github.com/Subhodip-Mishra/Deephireai-1/internal/audio"
	"github.com/Subhodip-Mishra/Deephireai-1/internal/interview"
	"github.com/Subhodip-Mishra/Deephireai-1/internal/secrets"
	"github.com/Subhodip-Mishra/Deephireai-1/internal/store"
)

// application bundles the wired collaborators shared by the serve and chat
// commands.
type application struct {
	service *interview.Service
	store   *store.SQLiteStore
	audio   *audio.Store
	logger  *zap.Logger
}

func newApplication(ctx context.Context, config *Config, logger *zap.Logger) (*application, error) {
	provider := strings.TrimSpace(strings.ToLower(config.AI.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", config.AI.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: config.AI.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	client, err := gemini.New(ctx, gemini.Config{
		APIKey:          apiKey,
		ChatModel:       config.AI.Gemini.ChatModel,
		EmbedModel:      config.AI.Gemini.EmbedModel,
		SpeechModel:     config.AI.Gemini.SpeechModel,
		TranscribeModel: config.AI.Gemini.TranscribeModel,
		Voice:           config.AI.Gemini.Voice,
		MaxRetries:      config.AI.Gemini.MaxRetries,
		MaxLogLength:    config.AI.Gemini.MaxLogLength,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("building gemini client: %w", err)
	}

	db, err := store.NewSQLite(config.Storage.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	clips, err := audio.NewStore(config.Storage.AudioDir, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	service := interview.NewService(interview.Deps{
		Model:       client,
		Embedder:    client,
		Transcriber: client,
		Speaker:     client,
		Store:       db,
		Audio:       clips,
		Logger:      logger,
	})

	return &application{service: service, store: db, audio: clips, logger: logger}, nil
}

// Close wipes session audio clips and releases the database, mirroring the
// service shutdown behavior.
func (a *application) Close() {
	a.audio.Cleanup()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", zap.Error(err))
	}
}
