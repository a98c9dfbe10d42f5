package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
	nodex "github.com/tanpawarit/recruiter-chat/agent/nodes/orchestrator"
	runnerx "github.com/tanpawarit/recruiter-chat/agent/runner"
	streamx "github.com/tanpawarit/recruiter-chat/agent/stream"
	metricsx "github.com/tanpawarit/recruiter-chat/pkg/metrics"
)

const DefaultSessionID = "default"

// Engine runs the agent graph. *runner.Runner implements it.
type Engine interface {
	Run(ctx context.Context, input []*schema.Message) (runnerx.Result, error)
	RunStreamed(ctx context.Context, input []*schema.Message) <-chan runnerx.Event
}

type Config struct {
	DefaultSessionID string
	// TurnTimeout bounds the whole run including a rerun. Zero disables it.
	TurnTimeout time.Duration
	Strategy    nodex.Strategy
}

type Option func(*Service)

func WithMetrics(m *metricsx.Chat) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service streams chat turns and keeps each session's transcript in step
// with what was streamed.
type Service struct {
	store      contractx.SessionStore
	engine     Engine
	reconciler nodex.Reconciler
	cfg        Config
	metrics    *metricsx.Chat
	now        func() time.Time

	prepare compose.Runnable[contractx.TurnRequest, *nodex.GraphState]
	commit  compose.Runnable[*nodex.GraphState, nodex.GraphOutput]
}

func New(store contractx.SessionStore, engine Engine, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if strings.TrimSpace(cfg.DefaultSessionID) == "" {
		cfg.DefaultSessionID = DefaultSessionID
	}
	if cfg.Strategy == "" {
		cfg.Strategy = nodex.StrategyAccumulate
	}

	reconciler, err := nodex.NewReconciler(cfg.Strategy, func(ctx context.Context, input []*schema.Message) ([]*schema.Message, error) {
		res, err := engine.Run(ctx, input)
		if err != nil {
			return nil, err
		}
		return res.History, nil
	})
	if err != nil {
		return nil, err
	}

	s := &Service{
		store:      store,
		engine:     engine,
		reconciler: reconciler,
		cfg:        cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.prepare, err = s.compilePrepareGraph(context.Background()); err != nil {
		return nil, err
	}
	if s.commit, err = s.compileCommitGraph(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks a request before any response bytes are written.
func (s *Service) Validate(req contractx.TurnRequest) error {
	_, err := nodex.ValidateRequest(req, s.cfg.DefaultSessionID, s.now)
	return err
}

func (s *Service) SessionID(req contractx.TurnRequest) string {
	return nodex.ResolveSessionID(req.SessionID, s.cfg.DefaultSessionID)
}

// Stream runs one turn and writes its envelopes to w. The stream always ends
// with exactly one final_result or error envelope followed by the sentinel.
// The session transcript is replaced only after a run that completed and was
// fully delivered; an aborted, failed, or timed-out turn leaves it untouched.
func (s *Service) Stream(ctx context.Context, req contractx.TurnRequest, w streamx.EnvelopeWriter) error {
	started := s.now()
	sessionID := s.SessionID(req)
	logger := log.With().
		Str("run_id", uuid.NewString()).
		Str("session_id", sessionID).
		Str("strategy", string(s.cfg.Strategy)).
		Logger()

	status := metricsx.StatusOK
	endStream := s.metrics.StreamStarted()
	defer func() {
		if err := w.Close(); err != nil {
			logger.Warn().Err(err).Msg("write stream sentinel")
		}
		endStream()
		elapsed := s.now().Sub(started)
		s.metrics.ObserveTurn(status, elapsed)
		logger.Info().Str("status", status).Dur("elapsed", elapsed).Msg("chat turn finished")
	}()

	unlock, err := s.store.Lock(ctx, sessionID)
	if err != nil {
		status = metricsx.StatusAborted
		logger.Info().Err(err).Msg("request ended while waiting for session")
		return err
	}
	defer unlock()

	runCtx, cancel := s.runContext(ctx)
	defer cancel()

	st, err := s.prepare.Invoke(runCtx, req)
	if err != nil {
		status, err = s.fail(ctx, runCtx, w, err, logger)
		return err
	}

	outcome, err := streamx.Multiplex(runCtx, s.engine.RunStreamed(runCtx, st.Input), w)
	if err != nil {
		cancel()
		status, err = s.fail(ctx, runCtx, w, err, logger)
		return err
	}
	logger.Debug().Int("envelopes", outcome.Envelopes).Msg("run streamed")

	st.FinalText = outcome.Text
	out, err := s.commit.Invoke(runCtx, st)
	if err != nil {
		status, err = s.fail(ctx, runCtx, w, err, logger)
		return err
	}

	if err := w.WriteEnvelope(streamx.FinalResultEnvelope(out.FinalOutput, out.History, out.SessionID)); err != nil {
		status = metricsx.StatusAborted
		s.metrics.ClientDisconnected()
		logger.Warn().Err(err).Msg("write final result")
		return err
	}
	return nil
}

func (s *Service) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.TurnTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.TurnTimeout)
	}
	return context.WithCancel(ctx)
}

// fail classifies a turn error and, unless the client is gone, writes the
// single error envelope for it.
func (s *Service) fail(
	ctx context.Context,
	runCtx context.Context,
	w streamx.EnvelopeWriter,
	err error,
	logger zerolog.Logger,
) (string, error) {
	status := metricsx.StatusError
	switch {
	case errors.Is(err, contractx.ErrTransport):
		s.metrics.ClientDisconnected()
		logger.Warn().Err(err).Msg("client stopped reading")
		return metricsx.StatusAborted, err
	case ctx.Err() != nil:
		logger.Info().Err(ctx.Err()).Msg("request cancelled")
		return metricsx.StatusAborted, ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		err = contractx.ErrTurnTimeout
		status = metricsx.StatusTimeout
	}

	logger.Error().Err(err).Msg("chat turn failed")
	if werr := w.WriteEnvelope(streamx.ErrorEnvelope(clientMessage(err))); werr != nil {
		s.metrics.ClientDisconnected()
		logger.Warn().Err(werr).Msg("write error envelope")
	}
	return status, err
}

var clientFacing = []error{
	contractx.ErrTurnTimeout,
	contractx.ErrValidation,
	contractx.ErrMaxTurns,
	contractx.ErrModelInvoke,
	contractx.ErrToolExecute,
	contractx.ErrUnknownAgent,
}

const genericClientMessage = "An error occurred while processing your request."

// clientMessage reports the error category only. Details stay in the logs.
func clientMessage(err error) string {
	for _, sentinel := range clientFacing {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return genericClientMessage
}
