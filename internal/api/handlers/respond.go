package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/capm-optimizer/internal/contracts"
	"github.com/wonny/capm-optimizer/internal/portfolio"
)

// ErrorResponse is the JSON body of every non-2xx response
type ErrorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	Status     string `json:"solver_status,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondDomainError maps the error taxonomy to HTTP status codes
// 입력/데이터 문제는 422, 알 수 없는 오류만 500
func respondDomainError(w http.ResponseWriter, err error) {
	body := ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var optErr *portfolio.OptimizationError
	switch {
	case errors.As(err, &optErr):
		status = http.StatusUnprocessableEntity
		body.Kind = "optimization_failure"
		body.Status = optErr.Status
		body.Iterations = optErr.Iterations
	case errors.Is(err, contracts.ErrInsufficientData):
		status = http.StatusUnprocessableEntity
		body.Kind = "insufficient_data"
	case errors.Is(err, contracts.ErrDegenerateInput):
		status = http.StatusUnprocessableEntity
		body.Kind = "degenerate_input"
	case errors.Is(err, contracts.ErrInvalidInput):
		status = http.StatusUnprocessableEntity
		body.Kind = "invalid_input"
	default:
		body.Error = "Internal server error"
	}

	respondJSON(w, status, body)
}
