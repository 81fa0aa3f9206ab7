package rest

import (
	"errors"
	"net/http"

	"github.com/mohitkumar/resolveflow/flow"
	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/metadata"
	"github.com/mohitkumar/resolveflow/persistence"
	"go.uber.org/zap"
)

// statusFor maps service errors to http status codes. Anything unknown is a 500.
func statusFor(err error) int {
	var (
		validation   flow.ValidationError
		attachments  flow.InsufficientAttachmentsError
		notSkipable  flow.NotSkipableError
		invalidDef   metadata.InvalidDefinitionError
		duplicate    flow.DuplicateActiveSessionError
		completed    flow.SessionAlreadyCompletedError
		notActive    flow.SessionNotActiveError
		notCompleted flow.SessionNotCompletedError
		mismatch     flow.NodeMismatchError
		sessionNF    flow.SessionNotFoundError
		flowNF       flow.FlowNotFoundError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &attachments), errors.As(err, &notSkipable), errors.As(err, &invalidDef):
		return http.StatusUnprocessableEntity
	case errors.As(err, &duplicate), errors.As(err, &completed), errors.As(err, &notActive),
		errors.As(err, &notCompleted), errors.As(err, &mismatch):
		return http.StatusConflict
	case errors.As(err, &sessionNF), errors.As(err, &flowNF), persistence.IsNotFound(err):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func respondWithServiceError(w http.ResponseWriter, msg string, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err))
		respondWithError(w, code, msg)
		return
	}
	body := map[string]any{"error": err.Error()}
	var duplicate flow.DuplicateActiveSessionError
	if errors.As(err, &duplicate) {
		body["activeSessionId"] = duplicate.ActiveSessionId
	}
	respondWithJSON(w, code, body)
}
