package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/model"
	"go.uber.org/zap"
)

type StartSessionRequest struct {
	FlowId   string `json:"flowId"`
	ThreadId string `json:"threadId"`
}

type SkipRequest struct {
	NodeId string `json:"nodeId"`
}

type AttachmentRequest struct {
	NodeId     string           `json:"nodeId"`
	Attachment model.Attachment `json:"attachment"`
}

type ProductSelectionRequest struct {
	ProductId string `json:"productId"`
}

type ContinueRequest struct {
	FlowId string `json:"flowId"`
}

func (s *Server) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.flowService.Start(r.Context(), req.FlowId, req.ThreadId)
	if err != nil {
		logger.Info("error starting flow", zap.String("flow", req.FlowId), zap.String("threadId", req.ThreadId), zap.Error(err))
		respondWithServiceError(w, "error starting flow", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

func (s *Server) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["id"]
	res, err := s.flowService.View(r.Context(), sessionId)
	if err != nil {
		respondWithServiceError(w, "error loading session", err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (s *Server) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["id"]
	var sub model.Submission
	if !decodeBody(w, r, &sub) {
		return
	}
	res, err := s.flowService.Advance(r.Context(), sessionId, sub)
	if err != nil {
		respondWithServiceError(w, "error advancing session", err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (s *Server) HandleSkip(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["id"]
	var req SkipRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.flowService.Skip(r.Context(), sessionId, req.NodeId)
	if err != nil {
		respondWithServiceError(w, "error skipping node", err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (s *Server) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["id"]
	res, err := s.flowService.Abandon(r.Context(), sessionId)
	if err != nil {
		respondWithServiceError(w, "error abandoning session", err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (s *Server) HandleAddAttachment(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["id"]
	var req AttachmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	attachments, err := s.flowService.AddAttachment(r.Context(), sessionId, req.NodeId, req.Attachment)
	if err != nil {
		respondWithServiceError(w, "error adding attachment", err)
		return
	}
	respondOK(w, map[string]any{"attachments": attachments})
}

func (s *Server) HandleSelectProduct(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["id"]
	var req ProductSelectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.flowService.SelectProduct(r.Context(), sessionId, req.ProductId)
	if err != nil {
		respondWithServiceError(w, "error selecting product", err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (s *Server) HandleContinue(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["id"]
	var req ContinueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.flowService.StartContinuation(r.Context(), sessionId, req.FlowId)
	if err != nil {
		respondWithServiceError(w, "error starting continuation", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

func (s *Server) HandleGetContinuations(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["id"]
	continuations, err := s.flowService.Continuations(r.Context(), sessionId)
	if err != nil {
		respondWithServiceError(w, "error loading continuations", err)
		return
	}
	if continuations == nil {
		continuations = []model.Continuation{}
	}
	respondWithJSON(w, http.StatusOK, continuations)
}

func (s *Server) HandleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["id"]
	rec, err := s.flowService.Recommend(r.Context(), sessionId)
	if err != nil {
		respondWithServiceError(w, "error loading recommendation", err)
		return
	}
	respondWithJSON(w, http.StatusOK, rec)
}
