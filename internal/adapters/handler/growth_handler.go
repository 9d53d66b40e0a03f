package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/IANDYI/growth-service/internal/core/ports"
)

// GrowthHandler handles HTTP requests for growth measurements and their interpretation
type GrowthHandler struct {
	growthService ports.GrowthDataService
}

// NewGrowthHandler creates a new growth handler
func NewGrowthHandler(growthService ports.GrowthDataService) *GrowthHandler {
	return &GrowthHandler{
		growthService: growthService,
	}
}

// GrowthDataRequest represents the body for creating or updating a measurement
// On update every field is optional
type GrowthDataRequest struct {
	InputDate         string   `json:"input_date"` // YYYY-MM-DD
	Height            float64  `json:"height"`     // cm
	Weight            float64  `json:"weight"`     // kg
	HeadCircumference *float64 `json:"head_circumference,omitempty"`
	ArmCircumference  *float64 `json:"arm_circumference,omitempty"`
}

// PublicGrowthRequest is a measurement for a child that is not stored
type PublicGrowthRequest struct {
	BirthDate string      `json:"birth_date"`
	Gender    genderField `json:"gender"`
	GrowthDataRequest
}

// CreateGrowthDataResponse returns the stored measurement with the refreshed velocity report
type CreateGrowthDataResponse struct {
	GrowthData           *domain.GrowthData            `json:"growth_data"`
	GrowthVelocityResult []domain.GrowthVelocityResult `json:"growth_velocity_result"`
}

// DeleteGrowthDataResponse reports the outcome of a delete
type DeleteGrowthDataResponse struct {
	Deleted bool `json:"deleted"`
}

func (req GrowthDataRequest) toCreate() (ports.CreateGrowthDataRequest, error) {
	inputDate, err := parseDate("input_date", req.InputDate)
	if err != nil {
		return ports.CreateGrowthDataRequest{}, err
	}
	return ports.CreateGrowthDataRequest{
		InputDate:         inputDate,
		Height:            req.Height,
		Weight:            req.Weight,
		HeadCircumference: req.HeadCircumference,
		ArmCircumference:  req.ArmCircumference,
	}, nil
}

// CreateGrowthData handles POST /children/{child_id}/growth-data
// User: own children only, Admin: any child, Doctor: forbidden
func (h *GrowthHandler) CreateGrowthData(w http.ResponseWriter, r *http.Request) {
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
	endpoint := "/children/" + childID.String() + "/growth-data"

	var body GrowthDataRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, requestID, "CreateGrowthData", err)
		return
	}
	req, err := body.toCreate()
	if err != nil {
		writeError(w, requestID, "CreateGrowthData", err)
		return
	}

	data, velocity, err := h.growthService.CreateGrowthData(r.Context(), requester, childID, req)
	if err != nil {
		status := writeError(w, requestID, "CreateGrowthData", err)
		logStructured(requestID, requester, "POST", endpoint, status, time.Since(startTime))
		return
	}
	observeGrowthResult(data.GrowthResult, "child")
	observeVelocity(velocity)

	logStructured(requestID, requester, "POST", endpoint, http.StatusCreated, time.Since(startTime))
	writeJSON(w, http.StatusCreated, CreateGrowthDataResponse{
		GrowthData:           data,
		GrowthVelocityResult: velocity,
	})
}

// GetGrowthData handles GET /growth-data/{growth_data_id}
func (h *GrowthHandler) GetGrowthData(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	requester, ok := requesterFromRequest(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID, "growth_data_id")
	if !ok {
		return
	}
	endpoint := "/growth-data/" + id.String()

	data, err := h.growthService.GetGrowthDataByID(r.Context(), requester, id)
	if err != nil {
		status := writeError(w, requestID, "GetGrowthData", err)
		logStructured(requestID, requester, "GET", endpoint, status, time.Since(startTime))
		return
	}

	logStructured(requestID, requester, "GET", endpoint, http.StatusOK, time.Since(startTime))
	writeJSON(w, http.StatusOK, data)
}

// ListGrowthData handles GET /children/{child_id}/growth-data?page=&size=
// Newest measurements first
func (h *GrowthHandler) ListGrowthData(w http.ResponseWriter, r *http.Request) {
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
	endpoint := "/children/" + childID.String() + "/growth-data"

	page, err := parsePageQuery(r)
	if err != nil {
		writeError(w, requestID, "ListGrowthData", err)
		return
	}

	result, err := h.growthService.ListGrowthDataByChild(r.Context(), requester, childID, page)
	if err != nil {
		status := writeError(w, requestID, "ListGrowthData", err)
		logStructured(requestID, requester, "GET", endpoint, status, time.Since(startTime))
		return
	}

	logStructured(requestID, requester, "GET", endpoint, http.StatusOK, time.Since(startTime))
	writeJSON(w, http.StatusOK, result)
}

// UpdateGrowthData handles PUT /growth-data/{growth_data_id}
// Only the provided fields change; the result and the child's velocity report are recomputed
func (h *GrowthHandler) UpdateGrowthData(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	requester, ok := requesterFromRequest(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID, "growth_data_id")
	if !ok {
		return
	}
	endpoint := "/growth-data/" + id.String()

	var body GrowthDataRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, requestID, "UpdateGrowthData", err)
		return
	}
	fields, err := body.toCreate()
	if err != nil {
		writeError(w, requestID, "UpdateGrowthData", err)
		return
	}

	data, err := h.growthService.UpdateGrowthData(r.Context(), requester, id, ports.UpdateGrowthDataRequest(fields))
	if err != nil {
		status := writeError(w, requestID, "UpdateGrowthData", err)
		logStructured(requestID, requester, "PUT", endpoint, status, time.Since(startTime))
		return
	}
	observeGrowthResult(data.GrowthResult, "child")

	logStructured(requestID, requester, "PUT", endpoint, http.StatusOK, time.Since(startTime))
	writeJSON(w, http.StatusOK, data)
}

// DeleteGrowthData handles DELETE /growth-data/{growth_data_id}
func (h *GrowthHandler) DeleteGrowthData(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	requester, ok := requesterFromRequest(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, requestID, "growth_data_id")
	if !ok {
		return
	}
	endpoint := "/growth-data/" + id.String()

	deleted, err := h.growthService.DeleteGrowthData(r.Context(), requester, id)
	if err != nil {
		status := writeError(w, requestID, "DeleteGrowthData", err)
		logStructured(requestID, requester, "DELETE", endpoint, status, time.Since(startTime))
		return
	}

	logStructured(requestID, requester, "DELETE", endpoint, http.StatusOK, time.Since(startTime))
	writeJSON(w, http.StatusOK, DeleteGrowthDataResponse{Deleted: deleted})
}

// GenerateGrowthVelocity handles GET /children/{child_id}/growth-velocity
func (h *GrowthHandler) GenerateGrowthVelocity(w http.ResponseWriter, r *http.Request) {
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
	endpoint := "/children/" + childID.String() + "/growth-velocity"

	velocity, err := h.growthService.GenerateGrowthVelocity(r.Context(), requester, childID)
	if err != nil {
		status := writeError(w, requestID, "GenerateGrowthVelocity", err)
		logStructured(requestID, requester, "GET", endpoint, status, time.Since(startTime))
		return
	}
	observeVelocity(velocity)

	logStructured(requestID, requester, "GET", endpoint, http.StatusOK, time.Since(startTime))
	writeJSON(w, http.StatusOK, velocity)
}

// GeneratePublicGrowthResult handles POST /growth-data/public
// No authentication and nothing is stored
func (h *GrowthHandler) GeneratePublicGrowthResult(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	var body PublicGrowthRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, requestID, "GeneratePublicGrowthResult", err)
		return
	}
	if !body.Gender.set {
		status := writeError(w, requestID, "GeneratePublicGrowthResult", fmt.Errorf("%w: gender is required", domain.ErrInvalidArgument))
		logStructured(requestID, domain.Requester{}, "POST", "/growth-data/public", status, time.Since(startTime))
		return
	}
	birthDate, err := parseDate("birth_date", body.BirthDate)
	if err != nil {
		writeError(w, requestID, "GeneratePublicGrowthResult", err)
		return
	}
	measurement, err := body.toCreate()
	if err != nil {
		writeError(w, requestID, "GeneratePublicGrowthResult", err)
		return
	}

	data, err := h.growthService.GeneratePublicGrowthResult(r.Context(), ports.PublicGrowthRequest{
		BirthDate:               birthDate,
		Gender:                  body.Gender.value,
		CreateGrowthDataRequest: measurement,
	})
	anonymous := domain.Requester{}
	if err != nil {
		status := writeError(w, requestID, "GeneratePublicGrowthResult", err)
		logStructured(requestID, anonymous, "POST", "/growth-data/public", status, time.Since(startTime))
		return
	}
	observeGrowthResult(data.GrowthResult, "public")

	logStructured(requestID, anonymous, "POST", "/growth-data/public", http.StatusOK, time.Since(startTime))
	writeJSON(w, http.StatusOK, data)
}
