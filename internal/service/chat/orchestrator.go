package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"bedrockchat/internal/capabilities"
	"bedrockchat/internal/domain"
	chatModels "bedrockchat/internal/domain/models/chat"
	"bedrockchat/internal/domain/repositories"
	domainChat "bedrockchat/internal/domain/services/chat"
	"bedrockchat/internal/service/chat/decode"
)

// inflightSend tracks one running send so a later send for the same
// conversation can supersede it.
type inflightSend struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Orchestrator drives the full lifecycle of one chat turn: append the user
// message, classify the model, build the request shape for its family,
// invoke it (streaming or not), fold the reply back into the conversation,
// and persist the result. At most one send runs per conversation; a new
// send cancels and replaces the previous one.
type Orchestrator struct {
	store    *Store
	registry *capabilities.Registry
	invoker  domainChat.ModelInvoker
	images   domainChat.ImageStore
	settings repositories.Settings              // may be nil
	archive  repositories.ConversationArchive   // may be nil
	titles   *TitleUpdater                      // may be nil
	logger   *slog.Logger

	mu       sync.Mutex
	inflight map[string]*inflightSend
}

// NewOrchestrator creates a turn orchestrator. settings, archive, and
// titles are optional; a nil value disables that concern.
func NewOrchestrator(
	store *Store,
	registry *capabilities.Registry,
	invoker domainChat.ModelInvoker,
	images domainChat.ImageStore,
	settings repositories.Settings,
	archive repositories.ConversationArchive,
	titles *TitleUpdater,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:    store,
		registry: registry,
		invoker:  invoker,
		images:   images,
		settings: settings,
		archive:  archive,
		titles:   titles,
		logger:   logger,
		inflight: map[string]*inflightSend{},
	}
}

// Send starts a turn for the conversation and returns once the turn is
// running. The turn itself executes on its own goroutine with its own
// context, so it outlives the caller's request. If a send is already in
// flight for the conversation it is cancelled and awaited before the new
// one starts.
func (o *Orchestrator) Send(req *domainChat.SendRequest) error {
	if err := validateSendRequest(req); err != nil {
		return err
	}

	send, ctx := o.begin(req.ConversationID)
	go o.run(ctx, send, req)
	return nil
}

// Cancel aborts the in-flight send for the conversation, if any. Text
// already delivered to the message log stays as-is.
func (o *Orchestrator) Cancel(conversationID string) {
	o.mu.Lock()
	send := o.inflight[conversationID]
	o.mu.Unlock()
	if send != nil {
		send.cancel()
	}
}

// begin registers a new send for the conversation, first cancelling and
// draining any send already registered. The loop handles the race where
// another Send registers between our unlock and relock.
func (o *Orchestrator) begin(conversationID string) (*inflightSend, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	send := &inflightSend{cancel: cancel, done: make(chan struct{})}

	o.mu.Lock()
	for {
		prev := o.inflight[conversationID]
		if prev == nil {
			break
		}
		o.mu.Unlock()
		prev.cancel()
		<-prev.done
		o.mu.Lock()
	}
	o.inflight[conversationID] = send
	o.mu.Unlock()

	return send, ctx
}

// release frees the inflight slot if it still belongs to this send.
func (o *Orchestrator) release(conversationID string, send *inflightSend) {
	o.mu.Lock()
	if o.inflight[conversationID] == send {
		delete(o.inflight, conversationID)
	}
	o.mu.Unlock()
	close(send.done)
}

func (o *Orchestrator) run(ctx context.Context, send *inflightSend, req *domainChat.SendRequest) {
	defer o.release(req.ConversationID, send)

	id := req.ConversationID

	if err := o.store.Await(ctx, id); err != nil {
		o.logger.Error("send aborted, conversation state unavailable",
			"conversation_id", id, "error", err)
		return
	}

	_ = o.store.SetLoading(id, true)
	// Loading is cleared on every exit path, including cancellation and
	// panic unwinding, so the conversation never sticks in a busy state.
	defer func() { _ = o.store.SetLoading(id, false) }()

	if o.titles != nil {
		go o.titles.Update(id, req.Input)
	}

	userMsg := &chatModels.Message{
		ID:             uuid.NewString(),
		Text:           req.Input,
		Author:         chatModels.AuthorUser,
		SentAt:         time.Now(),
		AttachedImages: req.Images,
	}
	if err := o.store.AppendMessage(id, userMsg); err != nil {
		o.logger.Error("append user message failed", "conversation_id", id, "error", err)
		return
	}
	o.persistMessage(ctx, id, userMsg)

	caps := o.registry.Classify(req.ModelID)

	var err error
	switch caps.Family {
	case capabilities.FamilyImage:
		err = o.runImage(ctx, req, caps)
	case capabilities.FamilyConversational:
		err = o.runConversational(ctx, req, caps)
	default:
		err = o.runCompletion(ctx, req, caps)
	}

	if err != nil {
		if ctx.Err() != nil {
			// Cancelled: whatever partial text reached the log stays,
			// no failure message is appended.
			o.logger.Info("send cancelled", "conversation_id", id, "model_id", req.ModelID)
			return
		}
		o.logger.Error("send failed",
			"conversation_id", id, "model_id", req.ModelID, "error", err)
		o.appendErrorMessage(ctx, id, err)
	}
}

// streamingEnabled resolves the effective streaming preference: an explicit
// per-conversation override wins, otherwise the model's capability default.
func (o *Orchestrator) streamingEnabled(ctx context.Context, conversationID string, caps capabilities.ModelCapabilities) bool {
	if o.settings == nil {
		return caps.Streaming
	}
	value, ok, err := o.settings.StreamingOverride(ctx, conversationID)
	if err != nil {
		o.logger.Warn("streaming override lookup failed",
			"conversation_id", conversationID, "error", err)
		return caps.Streaming
	}
	if ok {
		return value
	}
	return caps.Streaming
}

func (o *Orchestrator) runConversational(ctx context.Context, req *domainChat.SendRequest, caps capabilities.ModelCapabilities) error {
	id := req.ConversationID

	userTurn := chatModels.UserTurn(req.Input, req.Images)
	if err := o.store.AppendTurn(id, userTurn); err != nil {
		return err
	}
	o.persistTurn(ctx, id, userTurn)

	turns, err := o.store.Turns(id)
	if err != nil {
		return err
	}

	if o.streamingEnabled(ctx, id, caps) {
		chunks, err := o.invoker.InvokeConversationalStream(ctx, req.ModelID, turns)
		if err != nil {
			return o.transportErr(req.ModelID, err)
		}
		return o.consumeStream(ctx, id, caps, chunks, func(text string) error {
			return o.finalizeTurns(ctx, id, text)
		})
	}

	payload, err := o.invoker.InvokeConversational(ctx, req.ModelID, turns)
	if err != nil {
		return o.transportErr(req.ModelID, err)
	}
	return o.finishComplete(ctx, id, caps, payload, func(text string) error {
		return o.finalizeTurns(ctx, id, text)
	})
}

func (o *Orchestrator) runCompletion(ctx context.Context, req *domainChat.SendRequest, caps capabilities.ModelCapabilities) error {
	id := req.ConversationID

	history, err := o.store.FlatHistory(id)
	if err != nil {
		return err
	}
	history = AppendUserTurn(TruncateHistory(history), req.Input, caps.PromptStyle)
	prompt := FramePrompt(history, caps.PromptStyle)

	finalize := func(text string) error {
		return o.finalizeFlatHistory(ctx, id, history, text, caps.PromptStyle)
	}

	if o.streamingEnabled(ctx, id, caps) {
		chunks, err := o.invoker.InvokeCompletionStream(ctx, req.ModelID, prompt)
		if err != nil {
			return o.transportErr(req.ModelID, err)
		}
		return o.consumeStream(ctx, id, caps, chunks, finalize)
	}

	payload, err := o.invoker.InvokeCompletion(ctx, req.ModelID, prompt)
	if err != nil {
		return o.transportErr(req.ModelID, err)
	}
	return o.finishComplete(ctx, id, caps, payload, finalize)
}

func (o *Orchestrator) runImage(ctx context.Context, req *domainChat.SendRequest, caps capabilities.ModelCapabilities) error {
	id := req.ConversationID

	payload, err := o.invoker.InvokeImageGeneration(ctx, req.ModelID, req.Input)
	if err != nil {
		return o.transportErr(req.ModelID, err)
	}

	result, err := decode.Complete(payload, caps.Subtype)
	if err != nil {
		return err
	}
	if len(result.Image) == 0 {
		return &domain.DecodeError{Message: fmt.Sprintf("model %s returned no image data", req.ModelID)}
	}

	locator, err := o.images.WriteImage(result.Image, uuid.NewString()+".png")
	if err != nil {
		return fmt.Errorf("store generated image: %w", err)
	}

	msg := &chatModels.Message{
		ID:     uuid.NewString(),
		Text:   markdownImageRef(locator),
		Author: chatModels.AuthorAssistant,
		SentAt: time.Now(),
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := o.store.AppendMessage(id, msg); err != nil {
		return err
	}
	o.persistMessage(ctx, id, msg)
	return nil
}

// consumeStream folds the raw chunk channel into the message log. The
// assistant message is created lazily on the first non-empty text delta,
// then extended in place; the finalize callback receives the trimmed final
// text once the stream ends normally.
func (o *Orchestrator) consumeStream(
	ctx context.Context,
	conversationID string,
	caps capabilities.ModelCapabilities,
	chunks <-chan []byte,
	finalize func(text string) error,
) error {
	var assistant *chatModels.Message

	apply := func(ev chatModels.StreamEvent) error {
		if !ev.IsText() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if assistant == nil {
			assistant = &chatModels.Message{
				ID:     uuid.NewString(),
				Text:   ev.TextDelta,
				Author: chatModels.AuthorAssistant,
				SentAt: time.Now(),
			}
			return o.store.AppendMessage(conversationID, assistant)
		}
		assistant.Text += ev.TextDelta
		return o.store.AppendToMessage(conversationID, assistant.ID, ev.TextDelta)
	}

	final, err := NewReassembler(caps.Subtype, o.logger).Run(ctx, chunks, apply)
	if err != nil {
		return err
	}
	if assistant == nil {
		// Stream ended without a single text delta.
		return &domain.DecodeError{Message: "stream produced no text"}
	}

	o.persistMessage(ctx, conversationID, assistant)
	return finalize(final)
}

// finishComplete decodes a non-streaming payload and appends the reply as
// one assistant message. Error-flagged replies are shown but kept out of
// the model-facing history.
func (o *Orchestrator) finishComplete(
	ctx context.Context,
	conversationID string,
	caps capabilities.ModelCapabilities,
	payload []byte,
	finalize func(text string) error,
) error {
	result, err := decode.Complete(payload, caps.Subtype)
	if err != nil {
		return err
	}

	msg := &chatModels.Message{
		ID:      uuid.NewString(),
		Text:    result.Text,
		Author:  chatModels.AuthorAssistant,
		IsError: result.IsError,
		SentAt:  time.Now(),
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := o.store.AppendMessage(conversationID, msg); err != nil {
		return err
	}
	o.persistMessage(ctx, conversationID, msg)

	if result.IsError {
		return nil
	}
	return finalize(result.Text)
}

// finalizeTurns records the assistant reply in the structured turn history.
func (o *Orchestrator) finalizeTurns(ctx context.Context, conversationID, text string) error {
	if text == "" {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	turn := chatModels.AssistantTurn(text)
	if err := o.store.AppendTurn(conversationID, turn); err != nil {
		return err
	}
	o.persistTurn(ctx, conversationID, turn)
	return nil
}

// finalizeFlatHistory records the assistant reply in the flat prompt
// history, extending the history that already includes this turn's user
// input.
func (o *Orchestrator) finalizeFlatHistory(ctx context.Context, conversationID, history, text string, style capabilities.PromptStyle) error {
	if text == "" {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	updated := AppendAssistantTurn(history, text, style)
	if err := o.store.SetFlatHistory(conversationID, updated); err != nil {
		return err
	}
	if o.archive != nil {
		if err := o.archive.SaveFlatHistory(ctx, conversationID, updated); err != nil {
			o.logger.Warn("persist flat history failed",
				"conversation_id", conversationID, "error", err)
		}
	}
	return nil
}

// appendErrorMessage surfaces a failed send as a system-authored error
// message in the log. History is left untouched so the failure never
// feeds back into the model.
func (o *Orchestrator) appendErrorMessage(ctx context.Context, conversationID string, sendErr error) {
	msg := &chatModels.Message{
		ID:      uuid.NewString(),
		Text:    sendErr.Error(),
		Author:  chatModels.AuthorSystem,
		IsError: true,
		SentAt:  time.Now(),
	}
	if err := o.store.AppendMessage(conversationID, msg); err != nil {
		o.logger.Error("append error message failed",
			"conversation_id", conversationID, "error", err)
		return
	}
	o.persistMessage(ctx, conversationID, msg)
}

func (o *Orchestrator) persistMessage(ctx context.Context, conversationID string, msg *chatModels.Message) {
	if o.archive == nil {
		return
	}
	if err := o.archive.AppendMessage(ctx, conversationID, msg); err != nil {
		o.logger.Warn("persist message failed",
			"conversation_id", conversationID, "message_id", msg.ID, "error", err)
	}
}

func (o *Orchestrator) persistTurn(ctx context.Context, conversationID string, turn chatModels.ConversationTurn) {
	if o.archive == nil {
		return
	}
	if err := o.archive.AppendTurn(ctx, conversationID, turn); err != nil {
		o.logger.Warn("persist turn failed",
			"conversation_id", conversationID, "error", err)
	}
}

func (o *Orchestrator) transportErr(modelID string, err error) error {
	return &domain.TransportError{Message: fmt.Sprintf("invoke %s: %v", modelID, err)}
}

func markdownImageRef(locator string) string {
	return fmt.Sprintf("![](%s)", locator)
}
