// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/poiesic/minutes"
	"github.com/poiesic/minutes/ai"
	"github.com/poiesic/minutes/transcript"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		EnvVars:  []string{"MINUTES_DB"},
		Required: true,
	}
}

func meetingFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "meeting",
		Aliases:  []string{"m"},
		Usage:    "Meeting ID",
		Required: required,
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "minutes",
		Usage: "Meeting transcript analysis and question answering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML AI configuration file",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "chat-host",
				Usage: "Chat completion service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.IntFlag{
				Name:  "embedding-dimension",
				Usage: "Embedding vector size (0 learns it from the embedding model)",
			},
			&cli.StringFlag{
				Name:  "chat-model",
				Usage: "Chat model used for answering questions",
			},
			&cli.StringFlag{
				Name:  "analysis-model",
				Usage: "Chat model used for sentiment, extraction and urgency (defaults to chat-model)",
			},
			&cli.StringFlag{
				Name:    "gemini-api-key",
				Usage:   "Gemini API key; enables the Gemini provider",
				EnvVars: []string{"GEMINI_API_KEY"},
			},
			&cli.DurationFlag{
				Name:  "call-timeout",
				Usage: "Timeout for each external model call",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Analyze one or more transcripts and register the meetings",
				ArgsUsage: "[transcript files...] (reads stdin when none are given)",
				Action:    analyzeCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "meeting-id",
						Usage: "Meeting ID for a single transcript (generated when empty)",
					},
					&cli.BoolFlag{
						Name:  "replace",
						Usage: "Re-analyze a meeting that is already registered",
					},
					&cli.DurationFlag{
						Name:  "sentiment-delay",
						Usage: "Pause between sentiment calls",
						Value: transcript.DefaultDelay,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of transcripts analyzed concurrently",
						Value: 2,
					},
					&cli.StringFlag{
						Name:  "export",
						Usage: "Write the JSON export of a single analyzed meeting to this file",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a question about a meeting",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					dbFlag(),
					meetingFlag(true),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of transcript excerpts placed in the prompt",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Refuse questions that match no meeting keyword, participant or topic",
					},
					&cli.BoolFlag{
						Name:  "sources",
						Usage: "Print the excerpts the answer was based on",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search utterances across meetings",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringSliceFlag{
						Name:    "meeting",
						Aliases: []string{"m"},
						Usage:   "Restrict the search to these meetings",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Minimum semantic similarity",
					},
				},
			},
			{
				Name:   "meetings",
				Usage:  "List registered meetings",
				Action: meetingsCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
			{
				Name:      "show",
				Usage:     "Show the insights of a meeting",
				ArgsUsage: "<meeting id>",
				Action:    showCommand,
				Flags:     []cli.Flag{dbFlag()},
			},
			{
				Name:      "tasks",
				Usage:     "List a meeting's action items, most urgent first",
				ArgsUsage: "<meeting id>",
				Action:    tasksCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "tag",
						Usage: "Only items with this tag (case-insensitive)",
					},
					&cli.StringFlag{
						Name:  "owner",
						Usage: "Only items owned by this person (case-insensitive)",
					},
					&cli.StringFlag{
						Name:  "urgency",
						Usage: "Only items of this tier: critical, high, medium or low",
					},
				},
			},
			{
				Name:      "export",
				Usage:     "Write the JSON export of a meeting",
				ArgsUsage: "<meeting id>",
				Action:    exportCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (defaults to stdout)",
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a meeting and its stored utterances",
				ArgsUsage: "<meeting id>",
				Action:    deleteCommand,
				Flags:     []cli.Flag{dbFlag()},
			},
			{
				Name:   "stats",
				Usage:  "Show knowledge store statistics",
				Action: statsCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
			{
				Name:      "reembed",
				Usage:     "Re-embed registered meetings into the knowledge store",
				ArgsUsage: "[meeting ids...]",
				Action:    reembedCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N utterances",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per meeting",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}
}

// loadConfig reads the optional config file and applies flag overrides.
func loadConfig(c *cli.Context) (*ai.Config, error) {
	var overrides []ai.ConfigOption
	if c.IsSet("embedding-host") {
		overrides = append(overrides, ai.WithEmbeddingHost(c.String("embedding-host")))
	}
	if c.IsSet("chat-host") {
		overrides = append(overrides, ai.WithChatHost(c.String("chat-host")))
	}
	if c.IsSet("embedding-model") {
		overrides = append(overrides, ai.WithEmbeddingModel(c.String("embedding-model")))
	}
	if c.IsSet("embedding-dimension") {
		overrides = append(overrides, ai.WithEmbeddingDimension(c.Int("embedding-dimension")))
	}
	if c.IsSet("chat-model") {
		overrides = append(overrides, ai.WithChatModel(c.String("chat-model")))
	}
	if c.IsSet("analysis-model") {
		overrides = append(overrides, ai.WithAnalysisModel(c.String("analysis-model")))
	}
	if key := c.String("gemini-api-key"); key != "" {
		overrides = append(overrides, ai.WithGemini(key, ""))
	}
	if c.IsSet("call-timeout") {
		overrides = append(overrides, ai.WithCallTimeout(c.Duration("call-timeout")))
	}

	var cfg *ai.Config
	if path := c.String("config"); path != "" {
		loaded, err := ai.LoadConfigFile(path, overrides...)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = ai.NewConfig(overrides...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return cfg, nil
}

// openAssistant opens the database named by --db. Tests replace it.
var openAssistant = func(c *cli.Context, opts ...minutes.Option) (*minutes.Assistant, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	opts = append([]minutes.Option{minutes.WithAIConfig(cfg)}, opts...)
	a, err := minutes.Open(c.Context, c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return a, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
