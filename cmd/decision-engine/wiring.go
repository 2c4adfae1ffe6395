// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"

	"github.com/pdiddy/decision-engine/internal/engine"
	"github.com/pdiddy/decision-engine/internal/governance"
	"github.com/pdiddy/decision-engine/internal/inference"
	"github.com/pdiddy/decision-engine/internal/store"
	"github.com/pdiddy/decision-engine/pkg/types"
)

// openStore opens the SQLite decision store configured for this command.
func openStore(cfg types.EngineConfig) (*store.Store, error) {
	return store.New(cfg.Store, slog.Default())
}

// newEngine wires the full pipeline with its collaborators. Inference is
// attached only when enabled; governance feedback goes to the logging sink.
func newEngine(cfg types.EngineConfig, st *store.Store) *engine.Engine {
	log := slog.Default()

	var narrator engine.Narrator
	if client := inference.New(cfg.Inference, log); client.Enabled() {
		narrator = client
	}

	sink := &governance.LoggingSink{Log: log}
	return engine.New(cfg, st, narrator, sink, log)
}
