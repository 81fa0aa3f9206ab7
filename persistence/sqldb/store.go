// Package sqldb stores sessions, definitions and threads in sqlite or postgres.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
	"go.uber.org/zap"
)

var _ persistence.Storage = (*Store)(nil)

type Config struct {
	Driver string
	DSN    string
}

type Store struct {
	db      *sqlx.DB
	dialect Dialect
}

func New(cfg Config) (*Store, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(d.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if d.Name() == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	for _, stmt := range d.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}
	store := &Store{db: db, dialect: d}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS flow_sessions (
id TEXT PRIMARY KEY,
thread_id TEXT NOT NULL,
category TEXT NOT NULL,
current_node_id TEXT NOT NULL,
is_active BOOLEAN NOT NULL,
data TEXT NOT NULL
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_flow_sessions_active ON flow_sessions(thread_id, category) WHERE is_active`,
		`CREATE INDEX IF NOT EXISTS idx_flow_sessions_thread ON flow_sessions(thread_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS session_attachments (
seq %s,
session_id TEXT NOT NULL,
node_id TEXT NOT NULL,
data TEXT NOT NULL
)`, s.dialect.AutoIncrementClause()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS session_continuations (
seq %s,
from_session_id TEXT NOT NULL,
data TEXT NOT NULL
)`, s.dialect.AutoIncrementClause()),
		`CREATE TABLE IF NOT EXISTS flow_definitions (
id TEXT PRIMARY KEY,
data TEXT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS templates (
id TEXT PRIMARY KEY,
category TEXT NOT NULL,
data TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_templates_category ON templates(category)`,
		`CREATE TABLE IF NOT EXISTS threads (
id TEXT PRIMARY KEY,
data TEXT NOT NULL
)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func storageError(err error) error {
	return persistence.StorageLayerError{Message: err.Error()}
}

func (s *Store) CreateSession(ctx context.Context, session *model.FlowSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	query := s.dialect.Rebind(`INSERT INTO flow_sessions (id, thread_id, category, current_node_id, is_active, data) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query, session.Id, session.ThreadId, session.Category, session.CurrentNodeId, session.IsActive, string(data))
	if err == nil {
		return nil
	}
	if s.dialect.IsUniqueViolation(err) {
		existing, getErr := s.GetActiveSession(ctx, session.ThreadId, session.Category)
		if getErr == nil {
			return persistence.ActiveSessionExistsError{ThreadId: session.ThreadId, Category: session.Category, ActiveSessionId: existing.Id}
		}
	}
	logger.Error("error in saving session", zap.String("sessionId", session.Id), zap.Error(err))
	return storageError(err)
}

func (s *Store) GetSession(ctx context.Context, sessionId string) (*model.FlowSession, error) {
	var data string
	err := s.db.GetContext(ctx, &data, s.dialect.Rebind(`SELECT data FROM flow_sessions WHERE id = ?`), sessionId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NotFoundError{Kind: persistence.KIND_SESSION, Id: sessionId}
		}
		return nil, storageError(err)
	}
	return decode[model.FlowSession](data)
}

func (s *Store) GetActiveSession(ctx context.Context, threadId string, category string) (*model.FlowSession, error) {
	var data string
	query := s.dialect.Rebind(`SELECT data FROM flow_sessions WHERE thread_id = ? AND category = ? AND is_active`)
	err := s.db.GetContext(ctx, &data, query, threadId, category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NotFoundError{Kind: persistence.KIND_SESSION, Id: threadId + ":" + category}
		}
		return nil, storageError(err)
	}
	return decode[model.FlowSession](data)
}

func (s *Store) SaveSession(ctx context.Context, session *model.FlowSession, expectedNodeId string) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	query := s.dialect.Rebind(`UPDATE flow_sessions SET current_node_id = ?, is_active = ?, data = ? WHERE id = ? AND current_node_id = ?`)
	res, err := s.db.ExecContext(ctx, query, session.CurrentNodeId, session.IsActive, string(data), session.Id, expectedNodeId)
	if err != nil {
		logger.Error("error in updating session", zap.String("sessionId", session.Id), zap.Error(err))
		return storageError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageError(err)
	}
	if n == 1 {
		return nil
	}
	var actual string
	err = s.db.GetContext(ctx, &actual, s.dialect.Rebind(`SELECT current_node_id FROM flow_sessions WHERE id = ?`), session.Id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.NotFoundError{Kind: persistence.KIND_SESSION, Id: session.Id}
		}
		return storageError(err)
	}
	return persistence.StaleSessionError{SessionId: session.Id, ExpectedNodeId: expectedNodeId, ActualNodeId: actual}
}

func (s *Store) ListThreadSessions(ctx context.Context, threadId string) ([]*model.FlowSession, error) {
	var rows []string
	err := s.db.SelectContext(ctx, &rows, s.dialect.Rebind(`SELECT data FROM flow_sessions WHERE thread_id = ?`), threadId)
	if err != nil {
		return nil, storageError(err)
	}
	res := make([]*model.FlowSession, 0, len(rows))
	for _, row := range rows {
		session, err := decode[model.FlowSession](row)
		if err != nil {
			return nil, err
		}
		res = append(res, session)
	}
	persistence.SortSessions(res)
	return res, nil
}

func (s *Store) AppendAttachment(ctx context.Context, sessionId string, nodeId string, attachment model.Attachment) error {
	data, err := json.Marshal(attachment)
	if err != nil {
		return err
	}
	query := s.dialect.Rebind(`INSERT INTO session_attachments (session_id, node_id, data) VALUES (?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, sessionId, nodeId, string(data)); err != nil {
		return storageError(err)
	}
	return nil
}

func (s *Store) ListAttachments(ctx context.Context, sessionId string, nodeId string) ([]model.Attachment, error) {
	var rows []string
	query := s.dialect.Rebind(`SELECT data FROM session_attachments WHERE session_id = ? AND node_id = ? ORDER BY seq`)
	if err := s.db.SelectContext(ctx, &rows, query, sessionId, nodeId); err != nil {
		return nil, storageError(err)
	}
	return decodeAll[model.Attachment](rows)
}

func (s *Store) ClearAttachments(ctx context.Context, sessionId string, nodeId string) error {
	query := s.dialect.Rebind(`DELETE FROM session_attachments WHERE session_id = ? AND node_id = ?`)
	if _, err := s.db.ExecContext(ctx, query, sessionId, nodeId); err != nil {
		return storageError(err)
	}
	return nil
}

func (s *Store) RecordContinuation(ctx context.Context, continuation model.Continuation) error {
	data, err := json.Marshal(continuation)
	if err != nil {
		return err
	}
	query := s.dialect.Rebind(`INSERT INTO session_continuations (from_session_id, data) VALUES (?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, continuation.FromSessionId, string(data)); err != nil {
		logger.Error("error in recording continuation", zap.String("from", continuation.FromSessionId), zap.Error(err))
		return storageError(err)
	}
	return nil
}

func (s *Store) ListContinuations(ctx context.Context, fromSessionId string) ([]model.Continuation, error) {
	var rows []string
	query := s.dialect.Rebind(`SELECT data FROM session_continuations WHERE from_session_id = ? ORDER BY seq`)
	if err := s.db.SelectContext(ctx, &rows, query, fromSessionId); err != nil {
		return nil, storageError(err)
	}
	return decodeAll[model.Continuation](rows)
}

func decode[T any](data string) (*T, error) {
	var res T
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func decodeAll[T any](rows []string) ([]T, error) {
	res := make([]T, 0, len(rows))
	for _, row := range rows {
		item, err := decode[T](row)
		if err != nil {
			return nil, err
		}
		res = append(res, *item)
	}
	return res, nil
}
