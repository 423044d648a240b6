package console

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/haivivi/mediaforge/pkg/agent"
	"github.com/haivivi/mediaforge/pkg/audio/wav"
	"github.com/haivivi/mediaforge/pkg/provider"
	"github.com/haivivi/mediaforge/pkg/store"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// badRequestError is a request the console could not decode or validate.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string {
	return e.msg
}

func badRequest(msg string) error {
	return &badRequestError{msg: msg}
}

// classify maps err to an HTTP status and an error kind.
func classify(err error) (int, string) {
	var (
		bad     *badRequestError
		unknown *agent.UnknownAgentError
		storeE  *store.Error
	)
	if kind := provider.Kind(err); kind != "" {
		switch kind {
		case "configuration":
			return http.StatusServiceUnavailable, kind
		case "provider":
			if perr, ok := provider.AsProviderError(err); ok && perr.IsRateLimit() {
				return http.StatusTooManyRequests, kind
			}
		}
		return http.StatusBadGateway, kind
	}
	if _, ok := store.AsSchemaViolation(err); ok {
		return http.StatusUnprocessableEntity, "schema_violation"
	}
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, "bad_request"
	case errors.As(err, &unknown):
		return http.StatusNotFound, "unknown_agent"
	case errors.Is(err, agent.ErrEmptyMessage):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, agent.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, store.ErrNotConfigured):
		return http.StatusServiceUnavailable, "configuration"
	case errors.As(err, &storeE):
		if storeE.IsNotFound() {
			return http.StatusNotFound, "store"
		}
		return http.StatusBadGateway, "store"
	case errors.Is(err, wav.ErrNoFragments):
		return http.StatusBadGateway, "no_audio_returned"
	}
	return http.StatusInternalServerError, "internal"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: " + err.Error())
	}
	return nil
}

// maxBodySize bounds request bodies; images travel inline as base64.
const maxBodySize = 64 << 20
