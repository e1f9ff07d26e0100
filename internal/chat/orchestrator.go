// Package chat sequences one chat request from admission to audited reply.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/intent"
	"portfolio-backend/internal/interactionlog"
	"portfolio-backend/internal/knowledge"
	"portfolio-backend/internal/llm"
	"portfolio-backend/internal/metrics"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/ratelimit"
	"portfolio-backend/internal/telemetry"
)

// Route is recorded on every interaction log row written here.
const Route = "/api/chat"

const (
	msgUnauthorized    = "Unauthorized"
	msgTooManyRequests = "Too many requests"
	msgInvalidRequest  = "Invalid request"
	msgMissingKey      = "Missing OpenAI API key"
	msgProjectsFailed  = "Failed to load projects"
	msgServerError     = "Server error"
)

type Admission interface {
	Check(ctx context.Context, key string) ratelimit.Result
}

type KnowledgeSource interface {
	GetKnowledge(ctx context.Context) (*models.Knowledge, error)
	GetProjects(ctx context.Context) ([]models.Project, error)
}

type FeatureGate interface {
	Enabled(ctx context.Context, key models.FlagKey) bool
}

type AuditLog interface {
	Record(ctx context.Context, entry *models.InteractionLogEntry)
}

// Deps wires an Orchestrator. Identity may be nil, in which case every
// request is anonymous.
type Deps struct {
	Identity      auth.Verifier
	Limiter       Admission
	Knowledge     KnowledgeSource
	Flags         FeatureGate
	Audit         AuditLog
	Completer     llm.Completer
	Synthesizer   llm.Synthesizer
	HasCredential func() bool
	Logger        *slog.Logger
}

type Orchestrator struct {
	Deps
}

func New(d Deps) *Orchestrator {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.HasCredential == nil {
		d.HasCredential = func() bool { return true }
	}
	return &Orchestrator{Deps: d}
}

// Inbound is everything Handle needs from the transport.
type Inbound struct {
	ClientKey string
	Token     string
	Body      []byte
}

// Outcome is the status and body to send back. RateLimit is set once the
// limiter has been consulted.
type Outcome struct {
	Status    int
	Reply     models.Reply
	RateLimit *ratelimit.Result
}

// request tracks one Handle call so exactly one log row is written.
type request struct {
	userID string
	logged bool
}

// Handle runs the pipeline. It never panics and never returns a zero Outcome.
func (o *Orchestrator) Handle(ctx context.Context, in Inbound) (out Outcome) {
	ctx, span := telemetry.Tracer().Start(ctx, "chat.handle")
	defer span.End()

	rq := &request{}
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic: %v", rec)
			o.Logger.Error("chat pipeline panicked", "error", err)
			out = o.serverError(ctx, rq, "", err)
		}
		span.SetAttributes(attribute.Int("http.status_code", out.Status))
		if out.Status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, "chat request failed")
		}
	}()

	userID, err := o.resolveUser(ctx, in.Token)
	if err != nil {
		o.record(ctx, rq, "", "", models.LogStatusError, msgUnauthorized)
		return Outcome{Status: http.StatusUnauthorized, Reply: &models.ErrorReply{Error: msgUnauthorized}}
	}
	rq.userID = userID

	rate := o.Limiter.Check(ctx, in.ClientKey)
	if !rate.Success {
		o.record(ctx, rq, "", "", models.LogStatusRateLimit, msgTooManyRequests)
		return Outcome{
			Status:    http.StatusTooManyRequests,
			Reply:     &models.ErrorReply{Error: msgTooManyRequests},
			RateLimit: &rate,
		}
	}
	out.RateLimit = &rate

	req, err := Validate(in.Body)
	if err != nil {
		details := errorDetails(err)
		o.record(ctx, rq, string(in.Body), "", models.LogStatusInvalidRequest, marshalString(details))
		out.Status = http.StatusBadRequest
		out.Reply = &models.ErrorReply{Error: msgInvalidRequest, Details: details}
		return out
	}
	message := req.MessageText()

	if !o.HasCredential() {
		o.record(ctx, rq, message, "", models.LogStatusError, msgMissingKey)
		out.Status = http.StatusInternalServerError
		out.Reply = &models.ErrorReply{Error: msgMissingKey}
		return out
	}

	kind := intent.Classify(message)
	metrics.ChatIntents.WithLabelValues(kind.String()).Inc()
	span.SetAttributes(attribute.String("chat.intent", kind.String()))

	switch {
	case kind == intent.Contact:
		return o.contactReply(ctx, rq, message, out)
	case kind == intent.Project && o.Flags != nil && o.Flags.Enabled(ctx, models.FlagShowProjectSlider):
		return o.projectReply(ctx, rq, message, out)
	}

	aiMessage := ""
	if !req.IsWelcome() {
		aiMessage, err = o.complete(ctx, message)
		if err != nil {
			return o.serverError(ctx, rq, message, err)
		}
	}

	var audioURL *string
	if req.WantsAudio() {
		audioURL = o.synthesize(ctx, aiMessage, req.IsWelcome())
	}

	o.record(ctx, rq, message, aiMessage, models.LogStatusSuccess, "")
	out.Status = http.StatusOK
	out.Reply = &models.TextReply{AIMessage: aiMessage, AudioURL: audioURL}
	return out
}

// resolveUser returns "" for anonymous callers. Only an expired session is
// an error; any other verification failure is treated as anonymous.
func (o *Orchestrator) resolveUser(ctx context.Context, token string) (string, error) {
	if o.Identity == nil || token == "" {
		return "", nil
	}
	userID, err := o.Identity.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrExpired) {
			return "", err
		}
		o.Logger.Debug("auth lookup failed, continuing anonymously", "error", err)
		return "", nil
	}
	return userID, nil
}

func (o *Orchestrator) contactReply(ctx context.Context, rq *request, message string, out Outcome) Outcome {
	k, err := o.Knowledge.GetKnowledge(ctx)
	if err != nil {
		return o.serverError(ctx, rq, message, err)
	}

	logged := marshalString(map[string]interface{}{
		"type":     models.ReplyTypeContactInfo,
		"contacts": k.Links,
	})
	o.record(ctx, rq, message, logged, models.LogStatusSuccess, "")

	out.Status = http.StatusOK
	out.Reply = &models.ContactInfoReply{Contacts: knowledge.Contacts(k.Links)}
	return out
}

func (o *Orchestrator) projectReply(ctx context.Context, rq *request, message string, out Outcome) Outcome {
	projects, err := o.Knowledge.GetProjects(ctx)
	if err != nil {
		o.record(ctx, rq, message, "", models.LogStatusError, err.Error())
		out.Status = http.StatusInternalServerError
		out.Reply = &models.ErrorReply{Error: msgProjectsFailed, Details: err.Error()}
		return out
	}

	logged := marshalString(map[string]interface{}{
		"type":     models.ReplyTypeProjectList,
		"projects": projects,
	})
	o.record(ctx, rq, message, logged, models.LogStatusSuccess, "")

	out.Status = http.StatusOK
	out.Reply = &models.ProjectListReply{Projects: projects}
	return out
}

func (o *Orchestrator) complete(ctx context.Context, message string) (string, error) {
	k, err := o.Knowledge.GetKnowledge(ctx)
	if err != nil {
		return "", err
	}

	text, err := o.Completer.Complete(ctx, llm.CompletionRequest{
		System:      llm.SystemPrompt,
		Context:     k.Markdown,
		User:        message,
		MaxTokens:   llm.ChatMaxTokens,
		Temperature: llm.Temperature,
	})
	if err != nil {
		return "", models.NewError(models.KindProviderFailure, "completion failed", err)
	}
	if text == "" {
		return llm.FallbackMessage, nil
	}
	return text, nil
}

// synthesize is best-effort: any failure yields no audio.
func (o *Orchestrator) synthesize(ctx context.Context, aiMessage string, welcome bool) *string {
	if o.Synthesizer == nil {
		return nil
	}
	input := aiMessage
	if welcome {
		input = llm.GreetingScript
	}

	uri, err := o.Synthesizer.Synthesize(ctx, input, llm.VoiceInstructions)
	if err != nil {
		o.Logger.Warn("speech synthesis failed, replying without audio", "error", err)
		return nil
	}
	return &uri
}

func (o *Orchestrator) serverError(ctx context.Context, rq *request, prompt string, err error) Outcome {
	o.Logger.Error("chat request failed", "error", err, "kind", models.KindOf(err).String())
	o.record(ctx, rq, prompt, "", models.LogStatusError, err.Error())
	return Outcome{
		Status: http.StatusInternalServerError,
		Reply:  &models.ErrorReply{Error: msgServerError, Details: err.Error()},
	}
}

// record writes the single log row for rq. A second call is ignored, and a
// panicking logger cannot escape.
func (o *Orchestrator) record(ctx context.Context, rq *request, prompt, response string, status models.LogStatus, errMsg string) {
	if rq.logged {
		return
	}
	rq.logged = true
	metrics.ChatRequests.WithLabelValues(string(status)).Inc()

	if o.Audit == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			o.Logger.Error("interaction logger panicked", "panic", rec)
		}
	}()

	o.Audit.Record(ctx, interactionlog.Entry(Route, rq.userID, prompt, response, status, errMsg))
}

func marshalString(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
