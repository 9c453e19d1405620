package ingestion

import (
	"RouterLedger/internal/command"
	"RouterLedger/internal/core"
	"RouterLedger/internal/router"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher publishes applied results and final rejections to NATS for
// downstream consumers. Results go out after the engine commits; a publish
// failure is non-fatal because consumers can always re-read the op log.
type Publisher struct {
	js        jetstream.JetStream
	inputChan <-chan core.Output
}

// Result is the outbound record of one applied operation.
type Result struct {
	Sequence   int64              `json:"sequence"`
	Method     string             `json:"method"`
	CommandID  string             `json:"command_id"`
	Sender     string             `json:"sender"`
	Attributes []router.Attribute `json:"attributes"`
	Transfers  []router.Transfer  `json:"transfers"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Rejection is the outbound record of a finally rejected command.
type Rejection struct {
	Method    string    `json:"method"`
	CommandID string    `json:"command_id"`
	Sender    string    `json:"sender"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPublisher(js jetstream.JetStream, inputChan <-chan core.Output) *Publisher {
	return &Publisher{
		js:        js,
		inputChan: inputChan,
	}
}

// Run drains the publish channel until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case out, ok := <-p.inputChan:
			if !ok {
				return nil
			}

			if err := p.publishResult(ctx, out); err != nil {
				log.Printf("WARN: result publish failed seq=%d: %v", out.Sequence, err)
			}
		}
	}
}

// publishResult publishes to router.results.{method}.
func (p *Publisher) publishResult(ctx context.Context, out core.Output) error {
	method := out.Envelope.Type.String()
	result := Result{
		Sequence:   out.Sequence,
		Method:     method,
		CommandID:  out.Envelope.ID.String(),
		Sender:     out.Envelope.Sender,
		Attributes: out.Response.Attributes,
		Transfers:  out.Response.Transfers,
		Timestamp:  out.Envelope.Timestamp,
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = p.js.Publish(ctx, fmt.Sprintf("router.results.%s", method), data)
	return err
}

// PublishRejection publishes a final rejection to router.rejections.
// Best-effort: the rejection is already logged by the caller.
func (p *Publisher) PublishRejection(ctx context.Context, env command.Envelope, cause error) {
	rejection := Rejection{
		Method:    env.Type.String(),
		CommandID: env.ID.String(),
		Sender:    env.Sender,
		Code:      router.Code(cause),
		Message:   cause.Error(),
		Timestamp: env.Timestamp,
	}

	data, err := json.Marshal(rejection)
	if err != nil {
		log.Printf("WARN: marshal rejection: %v", err)
		return
	}

	if _, err := p.js.Publish(ctx, "router.rejections", data); err != nil {
		log.Printf("WARN: rejection publish failed command_id=%s: %v", rejection.CommandID, err)
	}
}
