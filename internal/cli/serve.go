package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sebspolo/scrobble-guessr/internal/app"
	"github.com/sebspolo/scrobble-guessr/internal/config"
	"github.com/sebspolo/scrobble-guessr/internal/infra/memory"
	redisinfra "github.com/sebspolo/scrobble-guessr/internal/infra/redis"
	transport "github.com/sebspolo/scrobble-guessr/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz and leaderboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = config.DefaultPort
	}

	mux, err := newMux(cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// leaderboards over large friend lists take a while
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		log.Printf("starting scrobble-guessr on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newMux wires repositories, services and handlers from config.
func newMux(cfg config.Config) (*http.ServeMux, error) {
	periods, categories, err := quizDefaults(cfg)
	if err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	sessionTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)
	cacheTTL := config.Duration(cfg.Fetch.CacheTTL, 0)

	src := newSource(cfg)
	var lister app.TopLister = src
	var store app.SessionRepository
	var guard app.OperationGuard
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, sessionTTL)
		guard = redisinfra.NewOperationGuard(redisClient, sessionTTL)
		if cacheTTL > 0 {
			lister = redisinfra.NewTopListCache(redisClient, src, cacheTTL)
		}
	} else {
		store = memory.NewSessionStore(sessionTTL)
		guard = memory.NewOperationGuard()
		if cacheTTL > 0 {
			lister = memory.NewTopListCache(src, cacheTTL)
		}
	}

	quizzes := app.NewQuizService(store, guard, app.NewDatasetBuilder(lister, cfg.Concurrency()), app.QuizServiceOptions{
		QuestionCount:  cfg.Questions(),
		ShuffleChoices: cfg.Quiz.ShuffleChoices,
		HasAPIKey:      cfg.APIKey() != "",
		Periods:        periods,
		Categories:     categories,
	})
	leaderboards := app.NewLeaderboardService(src,
		app.NewLeaderboardBuilder(app.NewCountResolver(src), cfg.Concurrency()), guard)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", transport.NewWSHandler(quizzes).ServeWS)
	transport.NewAPIHandler(leaderboards).Register(mux)
	return mux, nil
}
