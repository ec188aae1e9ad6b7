package requests

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"pet-adoption/internal/authz"
	"pet-adoption/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, guard *authz.Guard) {
	// Alta (una por tipo)
	r.Post("/request_doctor_clearance/{petID}", createRequestHandler(svc, guard, KindClearance, capabilities.RequestsCreate))
	r.Post("/adoption-request/{petID}", createRequestHandler(svc, guard, KindAdoption, capabilities.PetsAdopt))
	r.Post("/buyer-request/{petID}", createRequestHandler(svc, guard, KindBuyer, capabilities.PetsAdopt))
	r.Post("/seller-request/{petID}", createRequestHandler(svc, guard, KindSeller, capabilities.PetsCreate))

	r.Get("/my-requests", myRequestsHandler(svc, guard))

	// Vendedor: solicitudes de compra entrantes
	r.Get("/buyer-request", sellerIncomingHandler(svc, guard, KindBuyer))
	r.Post("/buyer-request/update/{requestID}/{status}", decideHandler(svc, guard, KindBuyer))

	// Admin: solicitudes de vendedores
	r.Get("/seller-request", listAllHandler(svc, guard, KindSeller))
	r.Get("/seller-request/view/{requestID}", viewRequestHandler(svc, guard, KindSeller))

	// Genéricos
	r.Post("/requests/{requestID}/decide/{status}", decideHandler(svc, guard, ""))
	r.Post("/requests/{requestID}/assign", assignHandler(svc, guard))

	r.Get("/doctor/clearance-requests", doctorQueueHandler(svc, guard))
}

type createRequestBody struct {
	DoctorID string `json:"doctor_id"` // solo clearance
	Note     string `json:"note"`
}

type assignBody struct {
	DoctorID string `json:"doctor_id"` // vacío = el doctor autenticado
}

type requestResponse struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	PetID       string     `json:"pet_id"`
	RequesterID string     `json:"requester_id"`
	DoctorID    *string    `json:"doctor_id,omitempty"`
	Status      Status     `json:"status"`
	Note        string     `json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	DecidedBy   *string    `json:"decided_by,omitempty"`
}

type createRequestResponse struct {
	Request requestResponse `json:"request"`
	Created bool            `json:"created"`
}

// createRequestHandler godoc
// @Summary Crear solicitud (clearance, adopción, compra o vendedor)
// @Description Si ya existe una Pending para (tipo, mascota, solicitante) se devuelve esa con created=false y 200.
// @Tags requests
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Param payload body createRequestBody false "doctor_id (solo clearance) y nota opcional"
// @Success 201 {object} createRequestResponse
// @Success 200 {object} createRequestResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "invalid state"
// @Router /request_doctor_clearance/{petID} [post]
// @Router /adoption-request/{petID} [post]
// @Router /buyer-request/{petID} [post]
// @Router /seller-request/{petID} [post]
func createRequestHandler(svc *Service, guard *authz.Guard, kind Kind, need capabilities.Capability) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := guard.Require(r, need)
		if err != nil {
			authz.WriteError(w, err)
			return
		}

		// body opcional
		var body createRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		req, created, err := svc.Create(r.Context(), CreateInput{
			Kind:        kind,
			PetID:       chi.URLParam(r, "petID"),
			RequesterID: actor.UserID,
			DoctorID:    body.DoctorID,
			Note:        body.Note,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, createRequestResponse{Request: toRequestResponse(req), Created: created})
	}
}

func myRequestsHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := guard.Authenticate(r)
		if err != nil {
			authz.WriteError(w, err)
			return
		}

		kind, ok := kindQuery(r)
		if !ok {
			http.Error(w, "unknown kind", http.StatusBadRequest)
			return
		}

		items, err := svc.ListMine(r.Context(), actor.UserID, kind)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRequestResponses(items))
	}
}

func sellerIncomingHandler(svc *Service, guard *authz.Guard, kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := guard.Authenticate(r)
		if err != nil {
			authz.WriteError(w, err)
			return
		}

		items, err := svc.ListForSeller(r.Context(), actor.UserID, kind)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRequestResponses(items))
	}
}

func listAllHandler(svc *Service, guard *authz.Guard, kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := guard.Require(r, capabilities.RequestsDecideAny); err != nil {
			authz.WriteError(w, err)
			return
		}

		items, err := svc.ListAll(r.Context(), kind)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRequestResponses(items))
	}
}

func viewRequestHandler(svc *Service, guard *authz.Guard, kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := guard.Require(r, capabilities.RequestsDecideAny); err != nil {
			authz.WriteError(w, err)
			return
		}

		req, err := svc.Get(r.Context(), chi.URLParam(r, "requestID"))
		if err != nil || req.Kind != kind {
			http.Error(w, "request not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toRequestResponse(req))
	}
}

// decideHandler godoc
// @Summary Aprobar / rechazar solicitud
// @Description status: Approved o Rejected. buyer/adoption los decide el vendedor, seller un admin, clearance el doctor asignado o un admin. Una solicitud ya decidida responde 409.
// @Tags requests
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param requestID path string true "ID de la solicitud"
// @Param status path string true "Approved | Rejected"
// @Success 200 {object} requestResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "request not found"
// @Failure 409 {string} string "invalid state"
// @Router /requests/{requestID}/decide/{status} [post]
// @Router /buyer-request/update/{requestID}/{status} [post]
func decideHandler(svc *Service, guard *authz.Guard, onlyKind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := guard.Authenticate(r)
		if err != nil {
			authz.WriteError(w, err)
			return
		}

		to, ok := ParseDecision(chi.URLParam(r, "status"))
		if !ok {
			http.Error(w, "status must be Approved or Rejected", http.StatusBadRequest)
			return
		}

		requestID := chi.URLParam(r, "requestID")
		if onlyKind != "" {
			req, err := svc.Get(r.Context(), requestID)
			if err != nil || req.Kind != onlyKind {
				http.Error(w, "request not found", http.StatusNotFound)
				return
			}
		}

		req, err := svc.Decide(r.Context(), requestID, actor, to)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRequestResponse(req))
	}
}

func assignHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := guard.Authenticate(r)
		if err != nil {
			authz.WriteError(w, err)
			return
		}

		var body assignBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		req, err := svc.Assign(r.Context(), chi.URLParam(r, "requestID"), actor, body.DoctorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRequestResponse(req))
	}
}

func doctorQueueHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := guard.Require(r, capabilities.ClearanceDecide)
		if err != nil {
			authz.WriteError(w, err)
			return
		}

		items, err := svc.ListForDoctor(r.Context(), actor.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRequestResponses(items))
	}
}

func kindQuery(r *http.Request) (Kind, bool) {
	v := r.URL.Query().Get("kind")
	if v == "" {
		return "", true
	}
	return ParseKind(v)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrBadState):
		http.Error(w, "invalid state", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toRequestResponse(req Request) requestResponse {
	return requestResponse{
		ID:          req.ID,
		Kind:        req.Kind,
		PetID:       req.PetID,
		RequesterID: req.RequesterID,
		DoctorID:    req.DoctorID,
		Status:      req.Status,
		Note:        req.Note,
		CreatedAt:   req.CreatedAt,
		UpdatedAt:   req.UpdatedAt,
		DecidedAt:   req.DecidedAt,
		DecidedBy:   req.DecidedBy,
	}
}

func toRequestResponses(items []Request) []requestResponse {
	out := make([]requestResponse, 0, len(items))
	for _, req := range items {
		out = append(out, toRequestResponse(req))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
