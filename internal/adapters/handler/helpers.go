package handler

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/IANDYI/growth-service/internal/adapters/middleware"
	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/google/uuid"
)

// DateLayout is the calendar date format accepted and emitted for dates in request bodies
const DateLayout = "2006-01-02"

// generateRequestID generates a unique request ID for tracing
func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// Fallback to timestamp-based ID if random generation fails
		return hex.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return hex.EncodeToString(b)
}

// logStructured logs structured JSON with request metadata
// Includes: request_id, user_id, role, endpoint, status_code, duration
func logStructured(requestID string, requester domain.Requester, method, endpoint string, statusCode int, duration time.Duration) {
	logEntry := map[string]interface{}{
		"request_id":  requestID,
		"user_id":     requester.UserID.String(),
		"role":        string(requester.Role),
		"method":      method,
		"endpoint":    endpoint,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	jsonBytes, err := json.Marshal(logEntry)
	if err != nil {
		log.Printf("[%s] Failed to marshal log entry: %v", requestID, err)
		return
	}

	log.Printf("%s", string(jsonBytes))
}

// requesterFromRequest reads the authenticated caller; it writes a 401 and returns false when absent
func requesterFromRequest(w http.ResponseWriter, r *http.Request, requestID string) (domain.Requester, bool) {
	requester, err := middleware.GetRequester(r.Context())
	if err != nil {
		log.Printf("[%s] Failed to resolve requester: %v", requestID, err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return domain.Requester{}, false
	}
	return requester, true
}

// pathUUID parses a UUID path parameter; it writes a 400 and returns false when malformed
func pathUUID(w http.ResponseWriter, r *http.Request, requestID, name string) (uuid.UUID, bool) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Printf("[%s] Invalid %s %q: %v", requestID, name, raw, err)
		http.Error(w, "invalid "+strings.ReplaceAll(name, "_", " "), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// statusForError maps domain errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs the failure and answers with the mapped status
// Internal errors are not echoed back to the client
func writeError(w http.ResponseWriter, requestID, operation string, err error) int {
	status := statusForError(err)
	log.Printf("[%s] %s failed: status=%d, error=%v", requestID, operation, status, err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	http.Error(w, message, status)
	return status
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// decodeJSON rejects unknown fields so typos in measurement names are not silently ignored
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

// parseDate parses a YYYY-MM-DD date; empty input yields the zero time
func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be formatted as YYYY-MM-DD", domain.ErrInvalidArgument, field)
	}
	return t, nil
}

// genderField accepts "boy"/"girl" strings as well as the numeric 0/1 form
type genderField struct {
	value domain.Gender
	set   bool
}

func (g *genderField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}
	gender, err := domain.ParseGender(raw)
	if err != nil {
		return err
	}
	g.value = gender
	g.set = true
	return nil
}

// parsePageQuery reads ?page= and ?size=; missing values fall back to the defaults
func parsePageQuery(r *http.Request) (domain.PageQuery, error) {
	q := domain.PageQuery{Page: domain.DefaultPage, Size: domain.DefaultPageSize}
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, fmt.Errorf("%w: page must be a positive integer", domain.ErrInvalidArgument)
		}
		q.Page = n
	}
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, fmt.Errorf("%w: size must be a positive integer", domain.ErrInvalidArgument)
		}
		q.Size = n
	}
	return q.Normalize(), nil
}
