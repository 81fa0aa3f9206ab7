package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/resolveflow/model"
)

func (s *Server) HandleGetThread(w http.ResponseWriter, r *http.Request) {
	threadId := mux.Vars(r)["id"]
	thread, err := s.threads.GetThread(r.Context(), threadId)
	if err != nil {
		respondWithServiceError(w, "error loading thread", err)
		return
	}
	respondWithJSON(w, http.StatusOK, thread)
}

// HandleSaveThread links a thread to its order and user. The id in the path wins.
func (s *Server) HandleSaveThread(w http.ResponseWriter, r *http.Request) {
	threadId := mux.Vars(r)["id"]
	var thread model.Thread
	if !decodeBody(w, r, &thread) {
		return
	}
	thread.Id = threadId
	if err := s.threads.SaveThread(r.Context(), thread); err != nil {
		respondWithServiceError(w, "error saving thread", err)
		return
	}
	respondWithJSON(w, http.StatusOK, thread)
}

func (s *Server) HandleThreadSessions(w http.ResponseWriter, r *http.Request) {
	threadId := mux.Vars(r)["id"]
	sessions, err := s.flowService.ThreadHistory(r.Context(), threadId)
	if err != nil {
		respondWithServiceError(w, "error loading thread sessions", err)
		return
	}
	if sessions == nil {
		sessions = []*model.FlowSession{}
	}
	respondWithJSON(w, http.StatusOK, sessions)
}
