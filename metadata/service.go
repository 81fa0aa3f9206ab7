package metadata

import (
	"context"
	"fmt"

	"github.com/mohitkumar/resolveflow/config"
	"github.com/mohitkumar/resolveflow/container"
	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
	"github.com/mohitkumar/resolveflow/templating"
	"github.com/mohitkumar/resolveflow/variables"
	"go.uber.org/zap"
)

type InvalidDefinitionError struct {
	Message string
}

func (e InvalidDefinitionError) Error() string {
	return fmt.Sprintf("invalid definition: %s", e.Message)
}

// Catalog is the file format for seeding flows and templates at startup.
type Catalog struct {
	Flows     []model.FlowDefinition     `json:"flows"`
	Templates []model.TemplateDefinition `json:"templates"`
}

type MetadataService interface {
	SaveFlow(ctx context.Context, flow model.FlowDefinition) error
	GetFlow(ctx context.Context, flowId string) (*model.FlowDefinition, error)
	DeleteFlow(ctx context.Context, flowId string) error
	SaveTemplate(ctx context.Context, tpl model.TemplateDefinition) error
	GetTemplate(ctx context.Context, templateId string) (*model.TemplateDefinition, error)
	ListTemplates(ctx context.Context, category string) ([]model.TemplateDefinition, error)
	RenderTemplate(ctx context.Context, templateId string, rc model.VariableResolutionContext) (*templating.Message, error)
	LoadCatalog(ctx context.Context, path string) error
	GetDefinitionStore() persistence.DefinitionStore
}

type MetadataServiceImpl struct {
	storage   persistence.DefinitionStore
	templates *templating.Engine
}

func NewMetadataService(container *container.DIContiner) MetadataService {
	builder := variables.NewBuilder(container.GetStorage(), container.GetCommerceProvider())
	return &MetadataServiceImpl{
		storage:   container.GetDefinitionStore(),
		templates: templating.NewEngine(builder, nil),
	}
}

func (s *MetadataServiceImpl) SaveFlow(ctx context.Context, flow model.FlowDefinition) error {
	if err := flow.Validate(); err != nil {
		return InvalidDefinitionError{Message: err.Error()}
	}
	return s.storage.SaveFlowDefinition(ctx, flow)
}

func (s *MetadataServiceImpl) GetFlow(ctx context.Context, flowId string) (*model.FlowDefinition, error) {
	return s.storage.GetFlowDefinition(ctx, flowId)
}

func (s *MetadataServiceImpl) DeleteFlow(ctx context.Context, flowId string) error {
	return s.storage.DeleteFlowDefinition(ctx, flowId)
}

func (s *MetadataServiceImpl) SaveTemplate(ctx context.Context, tpl model.TemplateDefinition) error {
	if err := ValidateTemplate(tpl); err != nil {
		return err
	}
	return s.storage.SaveTemplate(ctx, tpl)
}

func (s *MetadataServiceImpl) GetTemplate(ctx context.Context, templateId string) (*model.TemplateDefinition, error) {
	return s.storage.GetTemplate(ctx, templateId)
}

func (s *MetadataServiceImpl) ListTemplates(ctx context.Context, category string) ([]model.TemplateDefinition, error) {
	return s.storage.ListTemplatesByCategory(ctx, category)
}

// RenderTemplate substitutes the template against whatever rc identifies. Inactive
// templates render too, so authors can preview them.
func (s *MetadataServiceImpl) RenderTemplate(ctx context.Context, templateId string, rc model.VariableResolutionContext) (*templating.Message, error) {
	tpl, err := s.storage.GetTemplate(ctx, templateId)
	if err != nil {
		return nil, err
	}
	msg := s.templates.RenderForContext(ctx, *tpl, rc)
	if msg.HasWarnings() {
		logger.Debug("template rendered with warnings", zap.String("template", templateId), zap.Strings("fallback", msg.Fallback), zap.Strings("unresolved", msg.Unresolved))
	}
	return &msg, nil
}

// LoadCatalog validates every definition in the file before saving any of them.
func (s *MetadataServiceImpl) LoadCatalog(ctx context.Context, path string) error {
	var catalog Catalog
	if err := config.LoadFile(path, &catalog); err != nil {
		return err
	}
	for _, flow := range catalog.Flows {
		if err := flow.Validate(); err != nil {
			return InvalidDefinitionError{Message: err.Error()}
		}
	}
	for _, tpl := range catalog.Templates {
		if err := ValidateTemplate(tpl); err != nil {
			return err
		}
	}
	for _, flow := range catalog.Flows {
		if err := s.storage.SaveFlowDefinition(ctx, flow); err != nil {
			return err
		}
	}
	for _, tpl := range catalog.Templates {
		if err := s.storage.SaveTemplate(ctx, tpl); err != nil {
			return err
		}
	}
	logger.Info("catalog loaded", zap.String("file", path), zap.Int("flows", len(catalog.Flows)), zap.Int("templates", len(catalog.Templates)))
	return nil
}

func (s *MetadataServiceImpl) GetDefinitionStore() persistence.DefinitionStore {
	return s.storage
}

func ValidateTemplate(tpl model.TemplateDefinition) error {
	if len(tpl.Id) == 0 {
		return InvalidDefinitionError{Message: "template id can not be empty"}
	}
	if len(tpl.Category) == 0 {
		return InvalidDefinitionError{Message: fmt.Sprintf("template %s, category can not be empty", tpl.Id)}
	}
	if len(tpl.Subject) == 0 && len(tpl.Body) == 0 {
		return InvalidDefinitionError{Message: fmt.Sprintf("template %s, subject and body can not both be empty", tpl.Id)}
	}
	return nil
}
