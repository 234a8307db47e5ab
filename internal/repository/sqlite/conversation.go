// Package sqlite persists conversations in a local SQLite database, the
// natural fit for a single-user desktop deployment.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"bedrockchat/internal/domain"
	chatModels "bedrockchat/internal/domain/models/chat"
)

// ConversationArchive implements repositories.ConversationArchive on SQLite.
type ConversationArchive struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*ConversationArchive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A desktop process has no connection contention; a single connection
	// sidesteps SQLITE_BUSY under concurrent sends.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	a := &ConversationArchive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return a, nil
}

// Close releases the underlying database handle.
func (a *ConversationArchive) Close() error {
	return a.db.Close()
}

func (a *ConversationArchive) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			flat_history TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			author TEXT NOT NULL,
			text TEXT NOT NULL,
			is_error INTEGER NOT NULL DEFAULT 0,
			sent_at DATETIME NOT NULL,
			images TEXT,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, position)`,
		`CREATE TABLE IF NOT EXISTS turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_conversation ON turns(conversation_id, position)`,
	}

	for _, m := range migrations {
		if _, err := a.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (a *ConversationArchive) CreateConversation(ctx context.Context, id, title string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, created_at) VALUES (?, ?, ?)`,
		id, title, time.Now().UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return domain.ErrConflict
		}
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (a *ConversationArchive) GetConversation(ctx context.Context, id string) (*chatModels.Conversation, error) {
	conv := &chatModels.Conversation{ID: id}

	err := a.db.QueryRowContext(ctx,
		`SELECT title, flat_history, created_at FROM conversations WHERE id = ?`, id).
		Scan(&conv.Title, &conv.FlatHistory, &conv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("conversation %s not found", id)}
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	if conv.Messages, err = a.loadMessages(ctx, id); err != nil {
		return nil, err
	}
	if conv.Turns, err = a.loadTurns(ctx, id); err != nil {
		return nil, err
	}
	return conv, nil
}

func (a *ConversationArchive) loadMessages(ctx context.Context, conversationID string) ([]chatModels.Message, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, author, text, is_error, sent_at, images
		 FROM messages WHERE conversation_id = ? ORDER BY position`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	var out []chatModels.Message
	for rows.Next() {
		var m chatModels.Message
		var images sql.NullString
		if err := rows.Scan(&m.ID, &m.Author, &m.Text, &m.IsError, &m.SentAt, &images); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if images.Valid && images.String != "" {
			if err := json.Unmarshal([]byte(images.String), &m.AttachedImages); err != nil {
				return nil, fmt.Errorf("decode message images: %w", err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (a *ConversationArchive) loadTurns(ctx context.Context, conversationID string) ([]chatModels.ConversationTurn, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT role, content FROM turns WHERE conversation_id = ? ORDER BY position`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}
	defer rows.Close()

	var out []chatModels.ConversationTurn
	for rows.Next() {
		var turn chatModels.ConversationTurn
		var content string
		if err := rows.Scan(&turn.Role, &content); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if err := json.Unmarshal([]byte(content), &turn.Content); err != nil {
			return nil, fmt.Errorf("decode turn content: %w", err)
		}
		out = append(out, turn)
	}
	return out, rows.Err()
}

func (a *ConversationArchive) ListConversations(ctx context.Context) ([]chatModels.Conversation, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, title, created_at FROM conversations ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []chatModels.Conversation
	for rows.Next() {
		var c chatModels.Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (a *ConversationArchive) AppendMessage(ctx context.Context, conversationID string, msg *chatModels.Message) error {
	var images any
	if len(msg.AttachedImages) > 0 {
		encoded, err := json.Marshal(msg.AttachedImages)
		if err != nil {
			return fmt.Errorf("encode message images: %w", err)
		}
		images = string(encoded)
	}

	_, err := a.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, position, author, text, is_error, sent_at, images)
		 VALUES (?, ?,
		   (SELECT COALESCE(MAX(position), -1) + 1 FROM messages WHERE conversation_id = ?),
		   ?, ?, ?, ?, ?)`,
		msg.ID, conversationID, conversationID, msg.Author, msg.Text, msg.IsError, msg.SentAt.UTC(), images)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint") {
			return &domain.NotFoundError{Message: fmt.Sprintf("conversation %s not found", conversationID)}
		}
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (a *ConversationArchive) SaveFlatHistory(ctx context.Context, conversationID, history string) error {
	return a.updateConversation(ctx, conversationID,
		`UPDATE conversations SET flat_history = ? WHERE id = ?`, history)
}

func (a *ConversationArchive) AppendTurn(ctx context.Context, conversationID string, turn chatModels.ConversationTurn) error {
	content, err := json.Marshal(turn.Content)
	if err != nil {
		return fmt.Errorf("encode turn content: %w", err)
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO turns (conversation_id, position, role, content)
		 VALUES (?,
		   (SELECT COALESCE(MAX(position), -1) + 1 FROM turns WHERE conversation_id = ?),
		   ?, ?)`,
		conversationID, conversationID, turn.Role, string(content))
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (a *ConversationArchive) SaveTitle(ctx context.Context, conversationID, title string) error {
	return a.updateConversation(ctx, conversationID,
		`UPDATE conversations SET title = ? WHERE id = ?`, title)
}

func (a *ConversationArchive) DeleteConversation(ctx context.Context, id string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func (a *ConversationArchive) updateConversation(ctx context.Context, id, query string, value any) error {
	res, err := a.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if n == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("conversation %s not found", id)}
	}
	return nil
}
