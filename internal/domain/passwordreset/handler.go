package passwordreset

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, limit func(http.Handler) http.Handler) {
	r.Group(func(gr chi.Router) {
		if limit != nil {
			gr.Use(limit)
		}
		gr.Post("/forgot-password", forgotHandler(svc))
		gr.Get("/reset-password/{token}", checkTokenHandler(svc))
		gr.Post("/reset-password/{token}", resetHandler(svc))
	})
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// forgotHandler godoc
// @Summary Solicitar reset de contraseña
// @Description Envía por correo un link con un token de un solo uso que expira.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body forgotRequest true "Email registrado"
// @Success 200 {object} messageResponse
// @Failure 400 {string} string "invalid input"
// @Failure 404 {string} string "email not registered"
// @Failure 502 {string} string "mail delivery failed"
// @Router /forgot-password [post]
func forgotHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forgotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := svc.Forgot(r.Context(), req.Email); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Reset link sent to your email!"})
	}
}

func checkTokenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Check(r.Context(), chi.URLParam(r, "token")); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "token valid"})
	}
}

func resetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := svc.Reset(r.Context(), chi.URLParam(r, "token"), req.Password); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Password reset successfully"})
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	case errors.Is(err, ErrInvalidToken):
		http.Error(w, "invalid or expired token", http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "email not registered", http.StatusNotFound)
	case errors.Is(err, ErrMailFailed):
		http.Error(w, "mail delivery failed", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
