package config

import "time"

const (
	// MaxFlatHistoryChars bounds the flat-prompt transcript sent to
	// legacy-completion models. Histories longer than this are truncated to
	// their trailing MaxFlatHistoryChars characters before the next prompt
	// is built.
	MaxFlatHistoryChars = 50_000

	// StateRetryAttempts is how many times the conversation store polls for
	// lazily populated state before giving up with NotFound. The store may
	// be filled asynchronously by the archive loader, so a bounded wait is
	// required rather than an immediate failure.
	StateRetryAttempts = 10

	// StateRetryInterval is the pause between state polls.
	StateRetryInterval = 100 * time.Millisecond

	// MaxConversationTitleLength bounds stored conversation titles.
	MaxConversationTitleLength = 255

	// TitleUpdatesPerMinute rate-limits the fire-and-forget title
	// summarization calls so rapid sends don't fan out into a burst of
	// model invocations.
	TitleUpdatesPerMinute = 6
)
