package main

import (
	"errors"
	"net/http"
	"os"

	"github.com/comigor/atlas-go/internal/config"
	"github.com/comigor/atlas-go/internal/history"
	"github.com/comigor/atlas-go/internal/llm"
	"github.com/comigor/atlas-go/internal/logger"
	"github.com/comigor/atlas-go/internal/server"
	"github.com/comigor/atlas-go/internal/skill"
)

func main() {
	if err := run(); err != nil {
		logger.L.Error("atlas stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		return err
	}

	persona, err := llm.LoadPersona(cfg.LLM.PersonaPath)
	if err != nil {
		return err
	}

	// Initialize completion client
	completer := llm.NewCompleter(llm.NewClient(cfg.LLM), cfg.LLM, persona)

	var archive *history.Archive
	if cfg.History.TranscriptDBPath != "" {
		archive, err = history.Open(cfg.History.TranscriptDBPath)
		if err != nil {
			return err
		}
		defer archive.Close()
	}

	srv := server.New(cfg.Server, skill.New(completer, archive))

	logger.L.Info("Atlas server listening on port "+cfg.Server.Port, "address", cfg.Server.Addr(), "model", cfg.LLM.Model, "persona", persona.Name)
	if err := srv.HTTPServer().ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
