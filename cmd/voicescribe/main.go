// Command voicescribe answers Telegram voice messages with their transcript.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/voicescribe/bootstrap"
	"github.com/kbukum/voicescribe/component"
	"github.com/kbukum/voicescribe/config"
	"github.com/kbukum/voicescribe/logger"
	"github.com/kbukum/voicescribe/observability"
	"github.com/kbukum/voicescribe/server"
	"github.com/kbukum/voicescribe/storage"
	_ "github.com/kbukum/voicescribe/storage/local"
	"github.com/kbukum/voicescribe/telegram"
	"github.com/kbukum/voicescribe/transcription"
	"github.com/kbukum/voicescribe/voice"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg AppConfig
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		return err
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}

	client, err := wire(app)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close(context.Background()) }()

	return app.Run(ctx)
}

// wire builds every component from app.Cfg and registers them in start
// order. Shutdown runs in reverse: the server and poller stop first, then the
// dispatcher drains in-flight invocations and pending cleanups.
func wire(app *bootstrap.App[*AppConfig]) (*telegram.Client, error) {
	cfg := app.Cfg
	log := app.Logger

	store, err := storage.New(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	provider, err := transcription.New(cfg.Transcription.Config, cfg.Transcription.ProviderConfig(), log)
	if err != nil {
		return nil, err
	}

	client, err := telegram.NewClient(cfg.Telegram, log)
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	pipeline := voice.NewPipeline(voice.Deps{
		Messenger:   client,
		Downloader:  client,
		Storage:     store,
		Transcriber: provider,
		Metrics:     metrics,
	}, cfg.Pipeline, log)

	dispatcher := voice.NewDispatcher(pipeline, cfg.Pipeline, log,
		voice.WithMetrics(metrics),
		voice.WithDescription(fmt.Sprintf("transcriber=%s max_concurrent=%d cleanup_on_failure=%t",
			provider.Name(), cfg.Pipeline.MaxConcurrent, cfg.Pipeline.CleanupOnFailure)),
	)

	poller := telegram.NewPoller(client, dispatchVoice(dispatcher), cfg.Telegram, log)

	components := []component.Component{
		observability.NewComponent(cfg.Observability, observability.ServiceInfo{
			Name:        cfg.Name,
			Version:     cfg.Version,
			Environment: cfg.Environment,
		}),
		storage.NewComponent(store, cfg.Storage),
		dispatcher,
		poller,
	}
	if cfg.Server.Enabled {
		srv := server.New(cfg.Server, log)
		srv.ApplyDefaults(cfg.Name, app.Components.HealthAll)
		components = append(components, server.NewComponent(srv))
	}
	for _, c := range components {
		if err := app.RegisterComponent(c); err != nil {
			return nil, err
		}
	}

	log.Debug("components wired", logger.Fields(
		"transcriber", provider.Name(),
		"telegram_api", client.APIURL(),
		"server_enabled", cfg.Server.Enabled,
	))
	return client, nil
}

// dispatchVoice adapts the poller's message type to the pipeline's.
func dispatchVoice(d *voice.Dispatcher) telegram.Handler {
	return func(ctx context.Context, msg *telegram.Message) {
		d.Dispatch(ctx, toVoiceMessage(msg))
	}
}

func toVoiceMessage(msg *telegram.Message) voice.Message {
	m := voice.Message{ChatID: msg.Chat.ID}
	if msg.Voice != nil {
		m.Voice = &voice.Attachment{
			FileID:   msg.Voice.FileID,
			UniqueID: msg.Voice.FileUniqueID,
		}
	}
	return m
}
