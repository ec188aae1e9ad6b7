package pets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pet-adoption/internal/authz"
	"pet-adoption/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

// ClearanceLookup expone al detalle la solicitud de clearance abierta del usuario.
// La implementa requests.Service; se inyecta como interfaz para evitar ciclos.
type ClearanceLookup interface {
	ClearanceStatus(ctx context.Context, petID, requesterID string) (status string, found bool, err error)
}

func RegisterRoutes(r chi.Router, svc *Service, guard *authz.Guard, clearance ClearanceLookup) {
	r.Get("/", homeHandler(svc))

	r.Route("/pets", func(pr chi.Router) {
		pr.Get("/", listApprovedHandler(svc))
		pr.Get("/{petID}", petDetailHandler(svc, guard, clearance))
	})

	// Vendedor
	r.Post("/add_pets", createPetHandler(svc, guard))
	r.Get("/view_my_pets", listMyPetsHandler(svc, guard))
	r.Post("/mark_as_adopted/{petID}", markAdoptedHandler(svc, guard))

	// Moderación (admin)
	r.Get("/approve-pets", pendingPetsHandler(svc, guard))
	r.Post("/approve-pet/{petID}", approvePetHandler(svc, guard))
	r.Post("/reject-pet/{petID}", rejectPetHandler(svc, guard))
	r.Post("/update-pet-status/{petID}", updatePetStatusHandler(svc, guard))
}

type createPetRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`   // Dog, Cat, Bird, Other
	Breed       string `json:"breed"`  // opcional, default Unknown
	Age         int    `json:"age"`    // >= 0
	Gender      string `json:"gender"` // Male, Female, Unknown
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type petResponse struct {
	ID           string    `json:"id"`
	OwnerUserID  string    `json:"owner_user_id"`
	SellerUserID string    `json:"seller_user_id"`
	BuyerUserID  *string   `json:"buyer_user_id,omitempty"`
	Name         string    `json:"name"`
	Type         Type      `json:"type"`
	Breed        string    `json:"breed"`
	Age          int       `json:"age"`
	Gender       Gender    `json:"gender"`
	Description  string    `json:"description"`
	ImageURL     *string   `json:"image_url,omitempty"`
	IsApproved   bool      `json:"is_approved"`
	IsAdopted    bool      `json:"is_adopted"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type petDetailResponse struct {
	Pet             petResponse `json:"pet"`
	ClearanceStatus *string     `json:"clearance_status,omitempty"`
}

type rejectResponse struct {
	Deleted bool   `json:"deleted"`
	PetID   string `json:"pet_id"`
	Name    string `json:"name"`
}

type updateStatusRequest struct {
	IsApproved *bool `json:"is_approved"`
}

func homeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListApproved(r.Context(), HomeListingSize)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponses(items))
	}
}

// listApprovedHandler godoc
// @Summary Listado público de mascotas
// @Description Solo avisos aprobados, más nuevos primero.
// @Tags pets
// @Produce json
// @Param limit query int false "Máximo de resultados (0 = todos)"
// @Success 200 {array} petResponse
// @Failure 400 {string} string "limit inválido"
// @Router /pets [get]
func listApprovedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		items, err := svc.ListApproved(r.Context(), limit)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponses(items))
	}
}

// petDetailHandler godoc
// @Summary Detalle de mascota
// @Description Público si está aprobada. Si no, solo owner/seller o admin. Incluye el estado de la solicitud de clearance del usuario si existe.
// @Tags pets
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petDetailResponse
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [get]
func petDetailHandler(svc *Service, guard *authz.Guard, clearance ClearanceLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, authed := guard.Optional(r)
		moderator := authed && guard.Can(r.Context(), actor, capabilities.ModerationPets)

		p, err := svc.Detail(r.Context(), chi.URLParam(r, "petID"), actor.UserID, moderator)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		out := petDetailResponse{Pet: toPetResponse(p)}
		if authed && clearance != nil {
			status, found, err := clearance.ClearanceStatus(r.Context(), p.ID, actor.UserID)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if found {
				out.ClearanceStatus = &status
			}
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// createPetHandler godoc
// @Summary Publicar mascota
// @Description El creador queda como owner y seller. El aviso queda pendiente de aprobación.
// @Tags pets
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param payload body createPetRequest true "Datos de la mascota"
// @Success 201 {object} petResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /add_pets [post]
func createPetHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := guard.Require(r, capabilities.PetsCreate)
		if err != nil {
			authz.WriteError(w, err)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), actor.UserID, CreateInput{
			Name:        req.Name,
			Type:        req.Type,
			Breed:       req.Breed,
			Age:         req.Age,
			Gender:      req.Gender,
			Description: req.Description,
			ImageURL:    req.ImageURL,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

func listMyPetsHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := guard.Authenticate(r)
		if err != nil {
			authz.WriteError(w, err)
			return
		}

		items, err := svc.ListByOwner(r.Context(), actor.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponses(items))
	}
}

func markAdoptedHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := guard.Authenticate(r)
		if err != nil {
			authz.WriteError(w, err)
			return
		}

		p, err := svc.MarkAdopted(r.Context(), chi.URLParam(r, "petID"), actor.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func pendingPetsHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := guard.Require(r, capabilities.ModerationPets); err != nil {
			authz.WriteError(w, err)
			return
		}

		items, err := svc.ListPending(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponses(items))
	}
}

func approvePetHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := guard.Require(r, capabilities.ModerationPets); err != nil {
			authz.WriteError(w, err)
			return
		}

		p, err := svc.Approve(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// rejectPetHandler godoc
// @Summary Rechazar aviso
// @Description Borra la mascota junto con sus mensajes y solicitudes. Requiere admin.
// @Tags moderation
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} rejectResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /reject-pet/{petID} [post]
func rejectPetHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := guard.Require(r, capabilities.ModerationPets); err != nil {
			authz.WriteError(w, err)
			return
		}

		res, err := svc.Reject(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rejectResponse{Deleted: res.Deleted, PetID: res.PetID, Name: res.Name})
	}
}

func updatePetStatusHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := guard.Require(r, capabilities.ModerationPets); err != nil {
			authz.WriteError(w, err)
			return
		}

		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsApproved == nil {
			http.Error(w, "is_approved is required", http.StatusBadRequest)
			return
		}

		p, err := svc.SetApproval(r.Context(), chi.URLParam(r, "petID"), *req.IsApproved)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrAlreadyAdopted):
		http.Error(w, "pet already adopted", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:           p.ID,
		OwnerUserID:  p.OwnerUserID,
		SellerUserID: p.SellerUserID,
		BuyerUserID:  p.BuyerUserID,
		Name:         p.Name,
		Type:         p.Type,
		Breed:        p.Breed,
		Age:          p.Age,
		Gender:       p.Gender,
		Description:  p.Description,
		ImageURL:     p.ImageURL,
		IsApproved:   p.IsApproved,
		IsAdopted:    p.IsAdopted,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toPetResponses(items []Pet) []petResponse {
	out := make([]petResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPetResponse(p))
	}
	return out
}

// writeJSON está duplicado en cada módulo de dominio para no acoplar handlers a un helper común.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
