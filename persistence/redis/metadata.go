package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
	"go.uber.org/zap"
)

const FLOW_DEF string = "FLOW"
const TEMPLATE_DEF string = "TEMPLATE"
const TEMPLATE_CATEGORY string = "TEMPLATE_CATEGORY"

func (r *redisStorage) SaveFlowDefinition(ctx context.Context, flow model.FlowDefinition) error {
	data, err := r.flows.Encode(flow)
	if err != nil {
		return err
	}
	key := r.getNamespaceKey(FLOW_DEF)
	if err := r.redisClient.HSet(ctx, key, []string{flow.Id, data}).Err(); err != nil {
		logger.Error("error in saving flow definition", zap.String("flow", flow.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisStorage) GetFlowDefinition(ctx context.Context, flowId string) (*model.FlowDefinition, error) {
	val, err := r.redisClient.HGet(ctx, r.getNamespaceKey(FLOW_DEF), flowId).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NotFoundError{Kind: persistence.KIND_FLOW, Id: flowId}
		}
		logger.Error("error in getting flow definition", zap.String("flow", flowId), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.flows.Decode(val)
}

func (r *redisStorage) DeleteFlowDefinition(ctx context.Context, flowId string) error {
	if err := r.redisClient.HDel(ctx, r.getNamespaceKey(FLOW_DEF), flowId).Err(); err != nil {
		logger.Error("error in deleting flow definition", zap.String("flow", flowId), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisStorage) SaveTemplate(ctx context.Context, tpl model.TemplateDefinition) error {
	data, err := r.templates.Encode(tpl)
	if err != nil {
		return err
	}
	previous, err := r.GetTemplate(ctx, tpl.Id)
	if err != nil && !persistence.IsNotFound(err) {
		return err
	}
	_, err = r.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		if previous != nil && previous.Category != tpl.Category {
			pipe.SRem(ctx, r.getNamespaceKey(TEMPLATE_CATEGORY, previous.Category), tpl.Id)
		}
		pipe.HSet(ctx, r.getNamespaceKey(TEMPLATE_DEF), []string{tpl.Id, data})
		pipe.SAdd(ctx, r.getNamespaceKey(TEMPLATE_CATEGORY, tpl.Category), tpl.Id)
		return nil
	})
	if err != nil {
		logger.Error("error in saving template", zap.String("template", tpl.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisStorage) GetTemplate(ctx context.Context, templateId string) (*model.TemplateDefinition, error) {
	val, err := r.redisClient.HGet(ctx, r.getNamespaceKey(TEMPLATE_DEF), templateId).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NotFoundError{Kind: persistence.KIND_TEMPLATE, Id: templateId}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.templates.Decode(val)
}

func (r *redisStorage) ListTemplatesByCategory(ctx context.Context, category string) ([]model.TemplateDefinition, error) {
	ids, err := r.redisClient.SMembers(ctx, r.getNamespaceKey(TEMPLATE_CATEGORY, category)).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	values, err := r.redisClient.HMGet(ctx, r.getNamespaceKey(TEMPLATE_DEF), ids...).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	fetched, err := r.templates.DecodeFetched(values)
	if err != nil {
		return nil, err
	}
	res := make([]model.TemplateDefinition, 0, len(fetched))
	for _, tpl := range fetched {
		res = append(res, *tpl)
	}
	persistence.SortTemplates(res)
	return res, nil
}
