package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/resolveflow/flow"
	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/metadata"
	"github.com/mohitkumar/resolveflow/persistence"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port            int
	metadataService metadata.MetadataService
	flowService     *flow.FlowService
	threads         persistence.ThreadStore
}

func NewServer(httpPort int, metadataService metadata.MetadataService, flowService *flow.FlowService, threads persistence.ThreadStore) (*Server, error) {

	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		metadataService: metadataService,
		flowService:     flowService,
		threads:         threads,
		Port:            httpPort,
	}

	router := mux.NewRouter()
	router.HandleFunc("/flows", s.HandleCreateFlow).Methods(http.MethodPost)
	router.HandleFunc("/flows/{id}", s.HandleGetFlow).Methods(http.MethodGet)
	router.HandleFunc("/flows/{id}", s.HandleDeleteFlow).Methods(http.MethodDelete)

	router.HandleFunc("/templates", s.HandleCreateTemplate).Methods(http.MethodPost)
	router.HandleFunc("/templates", s.HandleListTemplates).Methods(http.MethodGet)
	router.HandleFunc("/templates/{id}", s.HandleGetTemplate).Methods(http.MethodGet)
	router.HandleFunc("/templates/{id}/render", s.HandleRenderTemplate).Methods(http.MethodPost)

	router.HandleFunc("/sessions", s.HandleStartSession).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}", s.HandleGetSession).Methods(http.MethodGet)
	router.HandleFunc("/sessions/{id}/advance", s.HandleAdvance).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/skip", s.HandleSkip).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/abandon", s.HandleAbandon).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/attachments", s.HandleAddAttachment).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/product", s.HandleSelectProduct).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/continue", s.HandleContinue).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/continuations", s.HandleGetContinuations).Methods(http.MethodGet)
	router.HandleFunc("/sessions/{id}/recommendation", s.HandleGetRecommendation).Methods(http.MethodGet)

	router.HandleFunc("/threads/{id}", s.HandleGetThread).Methods(http.MethodGet)
	router.HandleFunc("/threads/{id}", s.HandleSaveThread).Methods(http.MethodPut)
	router.HandleFunc("/threads/{id}/sessions", s.HandleThreadSessions).Methods(http.MethodGet)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server", zap.Error(err))
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI, zap.String("method", r.Method))
		next.ServeHTTP(w, r)
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message map[string]any) {
	respondWithJSON(w, http.StatusOK, message)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
