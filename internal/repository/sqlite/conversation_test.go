package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bedrockchat/internal/domain"
	chatModels "bedrockchat/internal/domain/models/chat"
)

func openTestArchive(t *testing.T) *ConversationArchive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestConversationRoundTrip(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	require.NoError(t, a.CreateConversation(ctx, "c1", "First chat"))

	sentAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, a.AppendMessage(ctx, "c1", &chatModels.Message{
		ID: "m1", Text: "hello", Author: chatModels.AuthorUser, SentAt: sentAt,
	}))
	require.NoError(t, a.AppendMessage(ctx, "c1", &chatModels.Message{
		ID: "m2", Text: "hi!", Author: chatModels.AuthorAssistant, SentAt: sentAt.Add(time.Second),
		AttachedImages: []chatModels.Image{{MediaType: "image/png", Base64Data: "aGk="}},
	}))
	require.NoError(t, a.AppendTurn(ctx, "c1", chatModels.UserTurn("hello", nil)))
	require.NoError(t, a.SaveFlatHistory(ctx, "c1", "\nHuman: hello\nAssistant: hi!"))
	require.NoError(t, a.SaveTitle(ctx, "c1", "Greetings"))

	conv, err := a.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Greetings", conv.Title)
	assert.Equal(t, "\nHuman: hello\nAssistant: hi!", conv.FlatHistory)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "hello", conv.Messages[0].Text)
	require.Len(t, conv.Messages[1].AttachedImages, 1)
	assert.Equal(t, "image/png", conv.Messages[1].AttachedImages[0].MediaType)
	require.Len(t, conv.Turns, 1)
	assert.Equal(t, chatModels.RoleUser, conv.Turns[0].Role)
}

func TestCreateConversationConflict(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	require.NoError(t, a.CreateConversation(ctx, "c1", "one"))
	err := a.CreateConversation(ctx, "c1", "two")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGetConversationNotFound(t *testing.T) {
	a := openTestArchive(t)

	_, err := a.GetConversation(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteConversationCascades(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	require.NoError(t, a.CreateConversation(ctx, "c1", "doomed"))
	require.NoError(t, a.AppendMessage(ctx, "c1", &chatModels.Message{
		ID: "m1", Text: "x", Author: chatModels.AuthorUser, SentAt: time.Now(),
	}))
	require.NoError(t, a.DeleteConversation(ctx, "c1"))

	_, err := a.GetConversation(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting again is a no-op.
	assert.NoError(t, a.DeleteConversation(ctx, "c1"))
}

func TestListConversationsNewestFirst(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	require.NoError(t, a.CreateConversation(ctx, "c1", "older"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, a.CreateConversation(ctx, "c2", "newer"))

	list, err := a.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c2", list[0].ID)
	assert.Equal(t, "c1", list[1].ID)
}

func TestAppendMessageUnknownConversation(t *testing.T) {
	a := openTestArchive(t)

	err := a.AppendMessage(context.Background(), "missing", &chatModels.Message{
		ID: "m1", Text: "x", Author: chatModels.AuthorUser, SentAt: time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
