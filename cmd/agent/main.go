package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tailglowbot/tailglow/internal/config"
	"github.com/tailglowbot/tailglow/internal/logger"
	"github.com/tailglowbot/tailglow/internal/services"
	"github.com/tailglowbot/tailglow/internal/showdown"
	"github.com/tailglowbot/tailglow/pkg/agent"
	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/calc"
	"github.com/tailglowbot/tailglow/pkg/dex"
	"github.com/tailglowbot/tailglow/pkg/rag"
	"github.com/tailglowbot/tailglow/pkg/rank"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Tail Glow",
		"environment", cfg.Environment,
		"format", cfg.BattleFormat,
		"server", cfg.ShowdownURL)

	// Redis is optional: without it set data is fetched every start and
	// strategy notes are unavailable.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		} else {
			log.Info("Redis connection established")
			defer func() {
				if err := redisClient.Close(); err != nil {
					log.Error("Failed to close Redis client", "error", err)
				}
			}()
		}
		pingCancel()
	}

	// Static reference data.
	moves, err := dex.LoadMoves(filepath.Join(cfg.DataDir, "moves.json"))
	if err != nil {
		log.Error("Failed to load move data", "error", err)
		os.Exit(1)
	}
	pokedex, err := dex.LoadPokedex(filepath.Join(cfg.DataDir, "pokedex.json"))
	if err != nil {
		log.Error("Failed to load species data", "error", err)
		os.Exit(1)
	}
	log.Info("Reference data loaded", "moves", moves.Len(), "species", pokedex.Len())

	// Random battle set data for the chosen format.
	fetchCtx, fetchCancel := context.WithTimeout(context.Background(), time.Minute)
	sets, err := dex.NewSetsFetcher(redisClient, log).Fetch(fetchCtx, cfg.BattleFormat)
	fetchCancel()
	if err != nil {
		log.Error("Failed to fetch set data", "error", err, "format", cfg.BattleFormat)
		os.Exit(1)
	}
	log.Info("Set data ready", "species", sets.Len())

	// Initialize LLM service
	var llmService services.LLMService
	switch strings.ToLower(cfg.LLMProvider) {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Error("Anthropic API key is required when using anthropic provider")
			os.Exit(1)
		}
		llmService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel, log)
		log.Info("Using Anthropic LLM provider", "model", cfg.AnthropicModel)
	case "ollama":
		llmService = services.NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel, log)
		log.Info("Using Ollama LLM provider", "model", cfg.OllamaModel)
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	modelName := cfg.AnthropicModel
	if strings.ToLower(cfg.LLMProvider) == "ollama" {
		modelName = cfg.OllamaModel
	}
	if err := llmService.InitModel(initCtx, modelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", modelName)
		os.Exit(1)
	}
	initCancel()

	var retriever rag.Retriever = rag.Noop{}
	if redisClient != nil {
		retriever = rag.NewRedisStore(redisClient, log)
	}

	estimator := battle.NewStatEstimator(pokedex, sets, log)
	engines := agent.Engines{
		Moves:        moves,
		Pokedex:      pokedex,
		Damage:       calc.NewDamageEngine(moves, estimator, log),
		Speed:        calc.NewSpeedEngine(moves, estimator, log),
		Matchup:      calc.NewMatchupSimulator(estimator, log),
		MoveRanker:   rank.NewMoveRanker(moves, log),
		SwitchRanker: rank.NewSwitchRanker(pokedex, log),
		LLM:          llmService,
		Retriever:    retriever,
		Logger:       log,
	}
	pipeline := agent.NewPipeline(engines)

	client := showdown.NewClient(showdown.Options{
		URL:        cfg.ShowdownURL,
		Username:   cfg.ShowdownUsername,
		Password:   cfg.ShowdownPassword,
		Format:     cfg.BattleFormat,
		MaxBattles: cfg.MaxBattles,
	}, pokedex, func(roomID string) showdown.Decider {
		return agent.NewSession(pipeline, sets, logger.WithBattle(log, roomID))
	}, log)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("Shutdown signal received")
		cancel()
	}()

	if err := client.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("Client stopped", "error", err)
		os.Exit(1)
	}

	played, won := client.Record()
	log.Info("Shutdown complete", "played", played, "won", won)
}
