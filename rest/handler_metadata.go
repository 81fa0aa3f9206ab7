package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/model"
)

func (s *Server) HandleCreateFlow(w http.ResponseWriter, r *http.Request) {
	var fl model.FlowDefinition
	if !decodeBody(w, r, &fl) {
		return
	}
	if err := s.metadataService.SaveFlow(r.Context(), fl); err != nil {
		logger.Error("error creating flow", zap.String("flow", fl.Id), zap.Error(err))
		respondWithServiceError(w, "error creating flow", err)
		return
	}
	respondOK(w, map[string]any{"created": true})
}

func (s *Server) HandleGetFlow(w http.ResponseWriter, r *http.Request) {
	flowId := mux.Vars(r)["id"]
	fl, err := s.metadataService.GetFlow(r.Context(), flowId)
	if err != nil {
		logger.Info("flow does not exist", zap.String("flow", flowId))
		respondWithServiceError(w, "error loading flow", err)
		return
	}
	respondWithJSON(w, http.StatusOK, fl)
}

func (s *Server) HandleDeleteFlow(w http.ResponseWriter, r *http.Request) {
	flowId := mux.Vars(r)["id"]
	if err := s.metadataService.DeleteFlow(r.Context(), flowId); err != nil {
		respondWithServiceError(w, "error deleting flow", err)
		return
	}
	respondOK(w, map[string]any{"deleted": true})
}

func (s *Server) HandleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var tpl model.TemplateDefinition
	if !decodeBody(w, r, &tpl) {
		return
	}
	if err := s.metadataService.SaveTemplate(r.Context(), tpl); err != nil {
		logger.Error("error creating template", zap.String("template", tpl.Id), zap.Error(err))
		respondWithServiceError(w, "error creating template", err)
		return
	}
	respondOK(w, map[string]any{"created": true})
}

func (s *Server) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	templateId := mux.Vars(r)["id"]
	tpl, err := s.metadataService.GetTemplate(r.Context(), templateId)
	if err != nil {
		respondWithServiceError(w, "error loading template", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tpl)
}

func (s *Server) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if len(category) == 0 {
		respondWithError(w, http.StatusBadRequest, "category is required")
		return
	}
	tpls, err := s.metadataService.ListTemplates(r.Context(), category)
	if err != nil {
		respondWithServiceError(w, "error listing templates", err)
		return
	}
	if tpls == nil {
		tpls = []model.TemplateDefinition{}
	}
	respondWithJSON(w, http.StatusOK, tpls)
}

func (s *Server) HandleRenderTemplate(w http.ResponseWriter, r *http.Request) {
	templateId := mux.Vars(r)["id"]
	var rc model.VariableResolutionContext
	if !decodeBody(w, r, &rc) {
		return
	}
	msg, err := s.metadataService.RenderTemplate(r.Context(), templateId, rc)
	if err != nil {
		respondWithServiceError(w, "error rendering template", err)
		return
	}
	respondWithJSON(w, http.StatusOK, msg)
}
