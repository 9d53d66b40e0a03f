package handler

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/IANDYI/growth-service/internal/core/ports"
	"github.com/google/uuid"
)

// ChildHandler handles HTTP requests for child operations
type ChildHandler struct {
	childService ports.ChildService
}

// NewChildHandler creates a new child handler
func NewChildHandler(childService ports.ChildService) *ChildHandler {
	return &ChildHandler{
		childService: childService,
	}
}

// CreateChildRequest represents the request body for registering a child
type CreateChildRequest struct {
	Name       string      `json:"name"`
	BirthDate  string      `json:"birth_date"` // YYYY-MM-DD
	Gender     genderField `json:"gender"`     // "boy", "girl", 0 or 1
	Note       string      `json:"note"`
	GuardianID uuid.UUID   `json:"guardian_id"` // Admin only
}

// CreateChild handles POST /children
// User: becomes the guardian, Admin: may name guardian_id
func (h *ChildHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	requester, ok := requesterFromRequest(w, r, requestID)
	if !ok {
		return
	}

	var req CreateChildRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, requestID, "CreateChild", err)
		return
	}
	birthDate, err := parseDate("birth_date", req.BirthDate)
	if err != nil {
		writeError(w, requestID, "CreateChild", err)
		return
	}
	if !req.Gender.set {
		status := writeError(w, requestID, "CreateChild", fmt.Errorf("%w: gender is required", domain.ErrInvalidArgument))
		logStructured(requestID, requester, "POST", "/children", status, time.Since(startTime))
		return
	}

	child, err := h.childService.CreateChild(r.Context(), requester, ports.CreateChildRequest{
		Name:       req.Name,
		BirthDate:  birthDate,
		Gender:     req.Gender.value,
		Note:       req.Note,
		GuardianID: req.GuardianID,
	})
	if err != nil {
		status := writeError(w, requestID, "CreateChild", err)
		logStructured(requestID, requester, "POST", "/children", status, time.Since(startTime))
		return
	}

	logStructured(requestID, requester, "POST", "/children", http.StatusCreated, time.Since(startTime))
	writeJSON(w, http.StatusCreated, child)
}

// GetChild handles GET /children/{child_id}
// Doctor, Admin: any child, User: own only
func (h *ChildHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	requester, ok := requesterFromRequest(w, r, requestID)
	if !ok {
		return
	}
	childID, ok := pathUUID(w, r, requestID, "child_id")
	if !ok {
		return
	}

	child, err := h.childService.GetChild(r.Context(), requester, childID)
	if err != nil {
		status := writeError(w, requestID, "GetChild", err)
		logStructured(requestID, requester, "GET", "/children/"+childID.String(), status, time.Since(startTime))
		return
	}

	logStructured(requestID, requester, "GET", "/children/"+childID.String(), http.StatusOK, time.Since(startTime))
	writeJSON(w, http.StatusOK, child)
}

// ListChildren handles GET /children
func (h *ChildHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	requester, ok := requesterFromRequest(w, r, requestID)
	if !ok {
		return
	}

	children, err := h.childService.ListChildren(r.Context(), requester)
	if err != nil {
		status := writeError(w, requestID, "ListChildren", err)
		logStructured(requestID, requester, "GET", "/children", status, time.Since(startTime))
		return
	}

	log.Printf("[%s] ListChildren returned %d children", requestID, len(children))
	logStructured(requestID, requester, "GET", "/children", http.StatusOK, time.Since(startTime))
	writeJSON(w, http.StatusOK, children)
}
