package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	orchestrator "github.com/tanpawarit/recruiter-chat/agent/agents/orchestrator"
	"github.com/tanpawarit/recruiter-chat/agent/agents/specialist"
	llmx "github.com/tanpawarit/recruiter-chat/agent/llm"
	nodex "github.com/tanpawarit/recruiter-chat/agent/nodes/orchestrator"
	runnerx "github.com/tanpawarit/recruiter-chat/agent/runner"
	statex "github.com/tanpawarit/recruiter-chat/agent/state"
	toolx "github.com/tanpawarit/recruiter-chat/agent/tool"
	"github.com/tanpawarit/recruiter-chat/api"
	configx "github.com/tanpawarit/recruiter-chat/pkg/config"
	jobadderx "github.com/tanpawarit/recruiter-chat/pkg/jobadder"
	_ "github.com/tanpawarit/recruiter-chat/pkg/logger/autoload"
	metricsx "github.com/tanpawarit/recruiter-chat/pkg/metrics"
	openrouterx "github.com/tanpawarit/recruiter-chat/pkg/openrouter"
)

type AppConfig struct {
	HTTPAddr         string        `envconfig:"HTTP_ADDR" default:":3000"`
	TurnTimeout      time.Duration `split_words:"true" default:"2m"`
	HistoryStrategy  string        `split_words:"true" default:"accumulate"`
	MaxTurns         int           `split_words:"true" default:"10"`
	DefaultSessionID string        `envconfig:"DEFAULT_SESSION_ID" default:"default"`
	SweepHours       float64       `split_words:"true" default:"24"`
	Preflight        bool          `default:"false"`
	ShutdownTimeout  time.Duration `split_words:"true" default:"10s"`
}

func (c AppConfig) Validate() error {
	if _, err := nodex.ParseStrategy(c.HistoryStrategy); err != nil {
		return err
	}
	if c.MaxTurns <= 0 {
		return fmt.Errorf("max turns must be positive, got %d", c.MaxTurns)
	}
	if c.TurnTimeout < 0 {
		return fmt.Errorf("turn timeout must not be negative, got %s", c.TurnTimeout)
	}
	if _, err := nodex.SweepHours(c.SweepHours); err != nil {
		return err
	}
	return nil
}

func main() {
	appCfg := configx.MustNew[AppConfig]("APP")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	jobadderCfg := configx.MustNew[jobadderx.Config]("JOBADDER")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if appCfg.Preflight {
		client := openrouterx.NewClient(llmCfg.OpenRouter())
		if err := openrouterx.Preflight(ctx, client, llmCfg.Models()...); err != nil {
			log.Fatal().Err(err).Msg("model preflight failed")
		}
		log.Info().Strs("models", llmCfg.Models()).Msg("model preflight passed")
	}

	catalog := toolx.NewCatalog(jobadderx.MustNew(*jobadderCfg))
	registry, err := specialist.NewRegistry(ctx, *llmCfg, catalog)
	if err != nil {
		log.Fatal().Err(err).Msg("build agent registry")
	}
	engine, err := runnerx.New(ctx, registry.Triage(), runnerx.WithMaxTurns(appCfg.MaxTurns))
	if err != nil {
		log.Fatal().Err(err).Msg("compile agents")
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	chatMetrics := metricsx.NewChat(promRegistry)

	store := statex.NewMemoryStore()
	chatMetrics.RegisterSessionGauge(store.Len)

	strategy, _ := nodex.ParseStrategy(appCfg.HistoryStrategy)
	svc, err := orchestrator.New(store, engine, orchestrator.Config{
		DefaultSessionID: appCfg.DefaultSessionID,
		TurnTimeout:      appCfg.TurnTimeout,
		Strategy:         strategy,
	}, orchestrator.WithMetrics(chatMetrics))
	if err != nil {
		log.Fatal().Err(err).Msg("build chat service")
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(svc, store,
		api.WithMetrics(chatMetrics, promRegistry),
		api.WithDefaultSweepHours(appCfg.SweepHours),
	)
	server := &http.Server{
		Addr:              appCfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", appCfg.HTTPAddr).
			Str("strategy", string(strategy)).
			Dur("turn_timeout", appCfg.TurnTimeout).
			Msg("recruiter chat listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}
