// Package store persists resumes, their embedded chunks and interview
// conversation history in a single SQLite database. It doubles as the
// conversation-state collaborator: ordered message history per thread.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Message roles as stored in the messages table.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Resume is a registered candidate resume.
type Resume struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	PageCount int       `json:"page_count"`
	Text      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Chunk is one embedded slice of resume text.
type Chunk struct {
	ID        string
	ResumeID  string
	Seq       int
	Content   string
	Embedding []float32
}

// MessageMeta carries the optional attributes of a conversation message.
// It is stored as a JSON object so new attributes do not need migrations.
type MessageMeta struct {
	Timestamp string `json:"timestamp,omitempty" mapstructure:"timestamp"`
	AudioURL  string `json:"audio_url,omitempty" mapstructure:"audio_url"`
}

// Message is a single conversation turn half.
type Message struct {
	ID        string      `json:"id"`
	ThreadID  string      `json:"thread_id"`
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	Meta      MessageMeta `json:"meta"`
	CreatedAt time.Time   `json:"created_at"`
}

// SQLiteStore implements persistence using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS resumes (
	id         TEXT PRIMARY KEY,
	filename   TEXT NOT NULL,
	page_count INTEGER NOT NULL DEFAULT 1,
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS resume_chunks (
	id         TEXT PRIMARY KEY,
	resume_id  TEXT NOT NULL REFERENCES resumes(id),
	seq        INTEGER NOT NULL,
	content    TEXT NOT NULL,
	embedding  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	thread_id  TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_resume_chunks_resume_id ON resume_chunks(resume_id);
CREATE INDEX IF NOT EXISTS idx_messages_thread_id ON messages(thread_id);
`

// Migrate applies the schema. Safe to run on every start.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateResume registers a resume and returns the stored record.
func (s *SQLiteStore) CreateResume(ctx context.Context, filename string, pageCount int, text string) (*Resume, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resumes (id, filename, page_count, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, filename, pageCount, text, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert resume")
	}

	return &Resume{ID: id, Filename: filename, PageCount: pageCount, Text: text, CreatedAt: now}, nil
}

// GetResume fetches a resume by id, returning ErrNotFound when absent.
func (s *SQLiteStore) GetResume(ctx context.Context, id string) (*Resume, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, page_count, content, created_at FROM resumes WHERE id = ?`, id,
	)

	var r Resume
	if err := row.Scan(&r.ID, &r.Filename, &r.PageCount, &r.Text, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get resume %s", id)
	}
	return &r, nil
}

// InsertChunks stores the embedded chunks of a resume in one transaction.
func (s *SQLiteStore) InsertChunks(ctx context.Context, resumeID string, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin chunk insert")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO resume_chunks (id, resume_id, seq, content, embedding) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare chunk insert")
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embedding, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal embedding")
		}
		if _, err := stmt.ExecContext(ctx, uuid.New().String(), resumeID, chunk.Seq, chunk.Content, string(embedding)); err != nil {
			return eris.Wrapf(err, "sqlite: insert chunk %d", chunk.Seq)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit chunk insert")
}

// SearchChunks returns the k resume chunks most similar to the query
// embedding, by cosine similarity. Collections are resume-scoped, so the
// candidate set is small enough to rank in memory.
func (s *SQLiteStore) SearchChunks(ctx context.Context, resumeID string, query []float32, k int) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, resume_id, seq, content, embedding FROM resume_chunks WHERE resume_id = ? ORDER BY seq`, resumeID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load chunks for %s", resumeID)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var chunk Chunk
		var embedding string
		if err := rows.Scan(&chunk.ID, &chunk.ResumeID, &chunk.Seq, &chunk.Content, &embedding); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan chunk")
		}
		if err := json.Unmarshal([]byte(embedding), &chunk.Embedding); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal embedding")
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate chunks")
	}

	if len(chunks) == 0 {
		return nil, ErrNotFound
	}

	return rankBySimilarity(chunks, query, k), nil
}

// AppendMessage records one conversation turn half for the thread.
func (s *SQLiteStore) AppendMessage(ctx context.Context, threadID, role, content string, meta MessageMeta) (*Message, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	metadata, err := json.Marshal(meta)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal message metadata")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, thread_id, role, content, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, threadID, role, content, string(metadata), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert message")
	}

	return &Message{ID: id, ThreadID: threadID, Role: role, Content: content, Meta: meta, CreatedAt: now}, nil
}

// Messages returns the full ordered history of a thread. An empty history
// is not an error; sessions begin empty.
func (s *SQLiteStore) Messages(ctx context.Context, threadID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread_id, role, content, metadata, created_at FROM messages WHERE thread_id = ? ORDER BY rowid`, threadID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load messages for %s", threadID)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var metadata string
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Role, &m.Content, &metadata, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan message")
		}
		if m.Meta, err = decodeMeta(metadata); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, eris.Wrap(rows.Err(), "sqlite: iterate messages")
}

// decodeMeta tolerates unknown metadata keys written by older builds: the
// JSON object is decoded loosely and mapped onto the known fields.
func decodeMeta(metadata string) (MessageMeta, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(metadata), &raw); err != nil {
		return MessageMeta{}, eris.Wrap(err, "sqlite: unmarshal message metadata")
	}

	var meta MessageMeta
	if err := mapstructure.Decode(raw, &meta); err != nil {
		return MessageMeta{}, eris.Wrap(err, "sqlite: decode message metadata")
	}
	return meta, nil
}
