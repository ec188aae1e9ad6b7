package feedback

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-adoption/internal/authz"
	"pet-adoption/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, guard *authz.Guard) {
	r.Post("/submit_feedback", submitFeedbackHandler(svc))
	r.Get("/viewfeedback", listFeedbackHandler(svc, guard))

	r.Post("/contact-us", contactHandler(svc))
	r.Get("/view-contacts", listContactsHandler(svc, guard))
}

type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type feedbackResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type contactResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func submitFeedbackHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		f, err := svc.SubmitFeedback(r.Context(), req.Name, req.Email, req.Message)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, "invalid input", http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, feedbackResponse(f))
	}
}

// contactHandler godoc
// @Summary Formulario de contacto
// @Description Guarda el mensaje y envía confirmación al usuario y aviso a soporte. Si el correo falla responde 502 aunque el mensaje haya quedado guardado.
// @Tags feedback
// @Accept json
// @Produce json
// @Param payload body submitRequest true "Nombre, email (obligatorio) y mensaje"
// @Success 201 {object} contactResponse
// @Failure 400 {string} string "invalid input"
// @Failure 502 {string} string "mail delivery failed"
// @Router /contact-us [post]
func contactHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.SubmitContact(r.Context(), req.Name, req.Email, req.Message)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, "invalid input", http.StatusBadRequest)
			case errors.Is(err, ErrMailFailed):
				http.Error(w, "mail delivery failed", http.StatusBadGateway)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, contactResponse(c))
	}
}

func listFeedbackHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := guard.Require(r, capabilities.FeedbackRead); err != nil {
			authz.WriteError(w, err)
			return
		}

		items, err := svc.ListFeedback(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]feedbackResponse, 0, len(items))
		for _, f := range items {
			out = append(out, feedbackResponse(f))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listContactsHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := guard.Require(r, capabilities.FeedbackRead); err != nil {
			authz.WriteError(w, err)
			return
		}

		items, err := svc.ListContacts(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]contactResponse, 0, len(items))
		for _, c := range items {
			out = append(out, contactResponse(c))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
