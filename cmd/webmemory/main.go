package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"webmemory/internal/agent"
	"webmemory/internal/api"
	"webmemory/internal/config"
	"webmemory/internal/domain"
	"webmemory/internal/embedding/openai"
	"webmemory/internal/embedding/tfidf"
	"webmemory/internal/llm"
	"webmemory/internal/profile"
	"webmemory/internal/retriever"
	"webmemory/internal/thread"
	"webmemory/internal/tui"
	"webmemory/internal/vectorstore/memory"
	"webmemory/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/webmemory/config.yaml if not provided)")
	flag.Parse()

	mode := "chat"
	if args := flag.Args(); len(args) > 0 {
		mode = args[0]
	}
	switch mode {
	case "chat", "serve":
	case "ask":
		if len(flag.Args()) < 2 {
			fmt.Println(`Usage: webmemory [--config=config.yaml] ask "question"`)
			os.Exit(1)
		}
	default:
		fmt.Println("Usage: webmemory [--config=config.yaml] [chat|serve|ask \"question\"]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := zap.NewNop()
	if mode != "chat" {
		logger, err = zap.NewProduction()
		if err != nil {
			log.Fatalf("failed to create logger: %v", err)
		}
		defer func() { _ = logger.Sync() }()
	}

	ag, err := buildAgent(cfg, logger)
	if err != nil {
		log.Fatalf("failed to assemble agent: %v", err)
	}

	switch mode {
	case "ask":
		answer, err := ag.Ask(context.Background(), "cli-session", flag.Args()[1])
		if err != nil {
			logger.Error("ask failed", zap.Error(err))
			fmt.Println("An internal error occurred.")
			os.Exit(1)
		}
		fmt.Println(answer.Text)
	case "serve":
		handler := api.NewHandler(ag, logger)
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := http.ListenAndServe(cfg.Server.Addr, handler.Router()); err != nil {
			log.Fatal(err)
		}
	default:
		userProfile := profile.Load(cfg.Profile.Path)
		m := tui.New(ag, "chat-session", userProfile)
		if _, err := tea.NewProgram(m).Run(); err != nil {
			log.Fatal(err)
		}
	}
}

func buildAgent(cfg *config.AppConfig, logger *zap.Logger) (*agent.Agent, error) {
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		e := tfidf.NewEmbedder()
		if err := e.LoadFile(cfg.Embedder.TFIDFState); err != nil {
			return nil, fmt.Errorf("load tfidf state (run ingest first): %w", err)
		}
		emb = e
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init: %w", err)
		}
		emb = client
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var st domain.VectorStore
	switch cfg.VectorStore.Type {
	case "memory", "":
		ms := memory.NewStorage()
		if err := ms.LoadFile(cfg.VectorStore.Snapshot); err != nil {
			return nil, fmt.Errorf("load index snapshot (run ingest first): %w", err)
		}
		st = ms
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		st = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	model, err := llm.NewClient(llm.Config{
		BaseURL:   cfg.Model.BaseURL,
		APIKeyEnv: cfg.Model.APIKeyEnv,
		Model:     cfg.Model.Model,
		Timeout:   time.Duration(cfg.Model.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("chat model init: %w", err)
	}

	ret := retriever.New(emb, st, cfg.Retriever.TopK)
	tools := agent.NewTools(ret, logger)
	userProfile := profile.Load(cfg.Profile.Path)

	return agent.New(model, tools, thread.NewStore(), userProfile,
		agent.WithMaxSteps(cfg.Model.MaxSteps),
		agent.WithLogger(logger),
	), nil
}
