package ingestion

import (
	"RouterLedger/internal/command"
	"RouterLedger/internal/core"
	"RouterLedger/internal/observability"
	"RouterLedger/internal/router"
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// CommandLoop drains raw commands from the subscriber, parses them, and
// applies them to the engine. Settlement policy: a taxonomy rejection is a
// final answer and gets an ACK same as an applied command — only failures
// that a redelivery could fix (internal errors) get a NAK.
type CommandLoop struct {
	engine      *core.Engine
	commandChan <-chan RawCommand
	publisher   *Publisher
	metrics     *observability.Metrics
	logger      zerolog.Logger
}

func NewCommandLoop(
	engine *core.Engine,
	commandChan <-chan RawCommand,
	publisher *Publisher,
	metrics *observability.Metrics,
) *CommandLoop {
	return &CommandLoop{
		engine:      engine,
		commandChan: commandChan,
		publisher:   publisher,
		metrics:     metrics,
		logger:      observability.NewLogger("ingestion"),
	}
}

// Run blocks until ctx is cancelled.
func (cl *CommandLoop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-cl.commandChan:
			if !ok {
				return nil
			}
			cl.handle(ctx, raw)
		}
	}
}

func (cl *CommandLoop) handle(ctx context.Context, raw RawCommand) {
	env, err := command.ParseEnvelope(raw.Data)
	if err != nil {
		// Malformed payloads never become parseable on redelivery.
		cl.logger.Warn().Err(err).Msg("dropping malformed command")
		if cl.metrics != nil {
			cl.metrics.ParseFailures.Inc()
		}
		raw.AckFunc()
		return
	}

	if cl.metrics != nil {
		cl.metrics.CommandsReceived.WithLabelValues(env.Type.String()).Inc()
	}

	_, err = cl.engine.Execute(*env)
	switch {
	case err == nil:
		raw.AckFunc()
		if cl.metrics != nil {
			cl.metrics.CommandsAcked.WithLabelValues("applied").Inc()
		}

	case errors.Is(err, core.ErrDuplicateCommand):
		// Redelivery of something already applied.
		raw.AckFunc()
		if cl.metrics != nil {
			cl.metrics.CommandsAcked.WithLabelValues("duplicate").Inc()
		}

	case router.Code(err) != "internal":
		cl.logger.Info().
			Str("command_id", env.ID.String()).
			Str("command_type", env.Type.String()).
			Str("code", router.Code(err)).
			Msg("command rejected")
		if cl.publisher != nil {
			cl.publisher.PublishRejection(ctx, *env, err)
		}
		raw.AckFunc()
		if cl.metrics != nil {
			cl.metrics.CommandsAcked.WithLabelValues("rejected").Inc()
		}

	default:
		cl.logger.Error().Err(err).
			Str("command_id", env.ID.String()).
			Msg("transient failure, requesting redelivery")
		raw.NakFunc()
		if cl.metrics != nil {
			cl.metrics.CommandsNaked.Inc()
		}
	}
}
