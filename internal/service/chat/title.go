package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"bedrockchat/internal/capabilities"
	"bedrockchat/internal/config"
	chatModels "bedrockchat/internal/domain/models/chat"
	"bedrockchat/internal/domain/repositories"
	domainChat "bedrockchat/internal/domain/services/chat"
	"bedrockchat/internal/service/chat/decode"
)

const titlePrompt = "Summarize the following message in five words or fewer. Reply with only the summary:\n\n"

// titleTimeout bounds the summarization call so an abandoned request can't
// hold a goroutine open indefinitely.
const titleTimeout = 30 * time.Second

// TitleUpdater runs the fire-and-forget title summarization path: a short
// turn against a designated fast model whose reply overwrites the
// conversation title. Every failure here is logged and swallowed; this path
// must never block or fail the main send.
type TitleUpdater struct {
	invoker  domainChat.ModelInvoker
	registry *capabilities.Registry
	store    *Store
	archive  repositories.ConversationArchive // may be nil
	model    string
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewTitleUpdater creates a title updater bound to the given fast model.
func NewTitleUpdater(
	invoker domainChat.ModelInvoker,
	registry *capabilities.Registry,
	store *Store,
	archive repositories.ConversationArchive,
	model string,
	logger *slog.Logger,
) *TitleUpdater {
	return &TitleUpdater{
		invoker:  invoker,
		registry: registry,
		store:    store,
		archive:  archive,
		model:    model,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/config.TitleUpdatesPerMinute), 1),
		logger:   logger,
	}
}

// Update summarizes the raw input text and overwrites the conversation
// title. Intended to be launched with go; it is independent of the main
// send's context so a superseded send does not abort a title already in
// flight.
func (u *TitleUpdater) Update(conversationID, input string) {
	if !u.limiter.Allow() {
		u.logger.Debug("title update skipped by rate limit", "conversation_id", conversationID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), titleTimeout)
	defer cancel()

	title, err := u.summarize(ctx, input)
	if err != nil {
		u.logger.Warn("title update failed", "conversation_id", conversationID, "error", err)
		return
	}
	if title == "" {
		return
	}

	if err := u.store.SetTitle(conversationID, title); err != nil {
		u.logger.Warn("title update failed", "conversation_id", conversationID, "error", err)
		return
	}

	if u.archive != nil {
		if err := u.archive.SaveTitle(ctx, conversationID, title); err != nil {
			u.logger.Warn("title persist failed", "conversation_id", conversationID, "error", err)
		}
	}
}

// summarize runs one non-streaming turn against the title model.
func (u *TitleUpdater) summarize(ctx context.Context, input string) (string, error) {
	caps := u.registry.Classify(u.model)

	var payload []byte
	var err error

	switch caps.Family {
	case capabilities.FamilyConversational:
		turns := []chatModels.ConversationTurn{chatModels.UserTurn(titlePrompt+input, nil)}
		payload, err = u.invoker.InvokeConversational(ctx, u.model, turns)
	case capabilities.FamilyCompletion:
		prompt := FramePrompt(AppendUserTurn("", titlePrompt+input, caps.PromptStyle), caps.PromptStyle)
		payload, err = u.invoker.InvokeCompletion(ctx, u.model, prompt)
	default:
		return "", fmt.Errorf("title model %s is not a text model", u.model)
	}
	if err != nil {
		return "", fmt.Errorf("invoke title model: %w", err)
	}

	result, err := decode.Complete(payload, caps.Subtype)
	if err != nil {
		return "", err
	}
	if result.IsError {
		return "", fmt.Errorf("title model returned error response")
	}

	title := strings.Trim(strings.TrimSpace(result.Text), `"`)
	if len(title) > config.MaxConversationTitleLength {
		title = title[:config.MaxConversationTitleLength]
	}
	return title, nil
}
