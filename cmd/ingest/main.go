package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"webmemory/internal/chunker"
	"webmemory/internal/config"
	"webmemory/internal/domain"
	"webmemory/internal/embedding/openai"
	"webmemory/internal/embedding/tfidf"
	"webmemory/internal/ingest"
	"webmemory/internal/profile"
	"webmemory/internal/summarizer"
	"webmemory/internal/vectorstore/memory"
	"webmemory/internal/vectorstore/qdrant"
)

const dateLayout = "2006-01-02"

func main() {
	_ = godotenv.Load()

	var (
		cfgPath   string
		startDate string
		endDate   string
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD, overrides config)")
	flag.StringVar(&endDate, "end", "", "End date (YYYY-MM-DD, overrides config)")
	flag.Parse()

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

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	start, end, err := dateRange(cfg, startDate, endDate)
	if err != nil {
		log.Fatalf("invalid date range: %v", err)
	}

	ctx := context.Background()
	visits, err := ingest.ReadHistory(ctx, cfg.Ingest.HistoryDB, start, end)
	if err != nil {
		log.Fatalf("failed to read browser history: %v", err)
	}
	if len(visits) == 0 {
		log.Fatalf("no history records between %s and %s", start.Format(dateLayout), end.Format(dateLayout))
	}
	logger.Info("history extracted",
		zap.Int("visits", len(visits)),
		zap.String("start", start.Format(dateLayout)),
		zap.String("end", end.Format(dateLayout)))

	emb, tfidfEmb, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatalf("failed to build embedder: %v", err)
	}
	st, memStore, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("failed to build vector store: %v", err)
	}

	fetcher := ingest.NewFetcher(
		time.Duration(cfg.Ingest.FetchTimeoutSecs)*time.Second,
		cfg.Ingest.SkipKeywords)
	ch := chunker.NewSentenceChunker(cfg.Ingest.SentencesPerChunk, cfg.Ingest.OverlapSentences)
	pipeline := ingest.NewPipeline(fetcher, ch, emb, st, cfg.Ingest.BatchSize, logger)

	stats, err := pipeline.Run(ctx, visits)
	if err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}

	if memStore != nil {
		if err := memStore.SaveFile(cfg.VectorStore.Snapshot); err != nil {
			log.Fatalf("failed to save index snapshot: %v", err)
		}
		logger.Info("index snapshot saved", zap.String("path", cfg.VectorStore.Snapshot))
	}
	if tfidfEmb != nil {
		if err := tfidfEmb.SaveFile(cfg.Embedder.TFIDFState); err != nil {
			log.Fatalf("failed to save tfidf state: %v", err)
		}
		logger.Info("tfidf state saved", zap.String("path", cfg.Embedder.TFIDFState))
	}

	summary, err := profile.Generate(
		summarizer.NewFrequencySummarizer(),
		pipeline.Titles(), pipeline.Text(), cfg.Profile.MaxSentences)
	if err != nil {
		logger.Warn("profile generation failed", zap.Error(err))
	} else if err := profile.Save(cfg.Profile.Path, summary); err != nil {
		logger.Warn("profile save failed", zap.Error(err))
	} else {
		logger.Info("profile saved", zap.String("path", cfg.Profile.Path))
	}

	fmt.Printf("Indexed %d pages (%d chunks) out of %d visits.\n",
		stats.Fetched, stats.Chunks, stats.Visits)
}

func dateRange(cfg *config.AppConfig, startFlag, endFlag string) (time.Time, time.Time, error) {
	startStr := cfg.Ingest.StartDate
	if startFlag != "" {
		startStr = startFlag
	}
	endStr := cfg.Ingest.EndDate
	if endFlag != "" {
		endStr = endFlag
	}
	// Default to the last 90 days.
	end := time.Now()
	start := end.AddDate(0, 0, -90)
	var err error
	if startStr != "" {
		start, err = time.Parse(dateLayout, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if endStr != "" {
		end, err = time.Parse(dateLayout, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

func buildEmbedder(cfg *config.AppConfig) (domain.Embedder, *tfidf.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		e := tfidf.NewEmbedder()
		return e, e, nil
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func buildStore(cfg *config.AppConfig) (domain.VectorStore, *memory.Storage, error) {
	switch cfg.VectorStore.Type {
	case "memory", "":
		ms := memory.NewStorage()
		return ms, ms, nil
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, nil, fmt.Errorf("qdrant config missing")
		}
		st := qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
		return st, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}
