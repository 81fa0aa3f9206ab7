package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
)

func (s *Store) SaveFlowDefinition(ctx context.Context, flow model.FlowDefinition) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return err
	}
	query := s.dialect.Rebind(`INSERT INTO flow_definitions (id, data) VALUES (?, ?) ` + s.dialect.UpsertClause("id", []string{"data"}))
	if _, err := s.db.ExecContext(ctx, query, flow.Id, string(data)); err != nil {
		return storageError(err)
	}
	return nil
}

func (s *Store) GetFlowDefinition(ctx context.Context, flowId string) (*model.FlowDefinition, error) {
	var data string
	err := s.db.GetContext(ctx, &data, s.dialect.Rebind(`SELECT data FROM flow_definitions WHERE id = ?`), flowId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NotFoundError{Kind: persistence.KIND_FLOW, Id: flowId}
		}
		return nil, storageError(err)
	}
	return decode[model.FlowDefinition](data)
}

func (s *Store) DeleteFlowDefinition(ctx context.Context, flowId string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM flow_definitions WHERE id = ?`), flowId); err != nil {
		return storageError(err)
	}
	return nil
}

func (s *Store) SaveTemplate(ctx context.Context, tpl model.TemplateDefinition) error {
	data, err := json.Marshal(tpl)
	if err != nil {
		return err
	}
	query := s.dialect.Rebind(`INSERT INTO templates (id, category, data) VALUES (?, ?, ?) ` + s.dialect.UpsertClause("id", []string{"category", "data"}))
	if _, err := s.db.ExecContext(ctx, query, tpl.Id, tpl.Category, string(data)); err != nil {
		return storageError(err)
	}
	return nil
}

func (s *Store) GetTemplate(ctx context.Context, templateId string) (*model.TemplateDefinition, error) {
	var data string
	err := s.db.GetContext(ctx, &data, s.dialect.Rebind(`SELECT data FROM templates WHERE id = ?`), templateId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NotFoundError{Kind: persistence.KIND_TEMPLATE, Id: templateId}
		}
		return nil, storageError(err)
	}
	return decode[model.TemplateDefinition](data)
}

func (s *Store) ListTemplatesByCategory(ctx context.Context, category string) ([]model.TemplateDefinition, error) {
	var rows []string
	if err := s.db.SelectContext(ctx, &rows, s.dialect.Rebind(`SELECT data FROM templates WHERE category = ?`), category); err != nil {
		return nil, storageError(err)
	}
	res, err := decodeAll[model.TemplateDefinition](rows)
	if err != nil {
		return nil, err
	}
	persistence.SortTemplates(res)
	return res, nil
}

func (s *Store) GetThread(ctx context.Context, threadId string) (*model.Thread, error) {
	var data string
	err := s.db.GetContext(ctx, &data, s.dialect.Rebind(`SELECT data FROM threads WHERE id = ?`), threadId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NotFoundError{Kind: persistence.KIND_THREAD, Id: threadId}
		}
		return nil, storageError(err)
	}
	return decode[model.Thread](data)
}

func (s *Store) SaveThread(ctx context.Context, thread model.Thread) error {
	data, err := json.Marshal(thread)
	if err != nil {
		return err
	}
	query := s.dialect.Rebind(`INSERT INTO threads (id, data) VALUES (?, ?) ` + s.dialect.UpsertClause("id", []string{"data"}))
	if _, err := s.db.ExecContext(ctx, query, thread.Id, string(data)); err != nil {
		return storageError(err)
	}
	return nil
}

func (s *Store) SaveProductSelection(ctx context.Context, threadId string, productId string) error {
	thread, err := s.GetThread(ctx, threadId)
	if err != nil {
		if !persistence.IsNotFound(err) {
			return err
		}
		thread = &model.Thread{Id: threadId}
	}
	thread.SelectedProductId = productId
	return s.SaveThread(ctx, *thread)
}
