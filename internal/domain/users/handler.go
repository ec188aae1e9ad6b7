package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-adoption/internal/authz"
	"pet-adoption/internal/middleware"
	"pet-adoption/internal/ports/auth"
	"pet-adoption/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

// Tokens agrupa emisión y revocación de sesiones.
type Tokens struct {
	Issuer  auth.TokenIssuer
	Revoker auth.TokenRevoker
}

// RegisterRoutes monta auth, moderación de cuentas y gestión de doctores.
// authLimit se aplica a register/login (rate limit); puede ser nil.
func RegisterRoutes(r chi.Router, svc *Service, guard *authz.Guard, tokens Tokens, authLimit func(http.Handler) http.Handler) {
	r.Group(func(ar chi.Router) {
		if authLimit != nil {
			ar.Use(authLimit)
		}
		ar.Post("/register", registerHandler(svc))
		ar.Post("/login", loginHandler(svc, tokens.Issuer))
	})
	r.Post("/logout", logoutHandler(tokens.Revoker))

	// Moderación de cuentas (admin)
	r.Get("/manage-users", manageUsersHandler(svc, guard))
	r.Post("/activate-user/{userID}", setActiveHandler(svc, guard, true))
	r.Post("/deactivate-user/{userID}", setActiveHandler(svc, guard, false))

	// Doctores (admin)
	r.Post("/add-doctor", addDoctorHandler(svc, guard))
	r.Get("/view-doctors", listDoctorsHandler(svc, guard))
	r.Post("/edit_doctor/{userID}", editDoctorHandler(svc, guard))
	r.Post("/delete_doctor/{userID}", deleteDoctorHandler(svc, guard))
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      accountResponse `json:"user"`
}

type accountResponse struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	Status         Status    `json:"status"`
	IsActive       bool      `json:"is_active"`
	Phone          *string   `json:"phone,omitempty"`
	Specialization *string   `json:"specialization,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type doctorRequest struct {
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	Phone          *string `json:"phone"`
	Specialization *string `json:"specialization"`
}

type editDoctorRequest struct {
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	Specialization *string `json:"specialization"`
}

// registerHandler godoc
// @Summary Registrar cuenta
// @Description Crea usuario y perfil en una sola operación. Rol: user, doctor o admin. Password mínimo 8 caracteres.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de registro"
// @Success 201 {object} accountResponse
// @Failure 400 {string} string "invalid input"
// @Failure 409 {string} string "username already exists"
// @Router /register [post]
func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Register(r.Context(), RegisterInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAccountResponse(a))
	}
}

// loginHandler godoc
// @Summary Login
// @Description Valida credenciales, cuenta activa y rol declarado. Cualquier falla responde el mismo 401 genérico.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales y rol"
// @Success 200 {object} loginResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "invalid credentials"
// @Router /login [post]
func loginHandler(svc *Service, issuer auth.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Login(r.Context(), LoginInput{
			Username: req.Username,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if issuer == nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		token, claims, err := issuer.Issue(r.Context(), a.User.ID, a.User.Username, string(a.Profile.Role))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{
			Token:     token,
			ExpiresAt: claims.ExpiresAt,
			User:      toAccountResponse(a),
		})
	}
}

func logoutHandler(revoker auth.TokenRevoker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Sesiones dev (X-Debug-User-ID) no tienen jti.
		if claims.TokenID != "" && revoker != nil {
			if err := revoker.Revoke(r.Context(), claims.TokenID, claims.ExpiresAt); err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func manageUsersHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := guard.Require(r, capabilities.ModerationUsers); err != nil {
			authz.WriteError(w, err)
			return
		}

		items, err := svc.ListProfiles(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toAccountResponses(items))
	}
}

// setActiveHandler godoc
// @Summary Activar / desactivar cuenta
// @Description Cambia User.IsActive y Profile.Status en una sola escritura. Requiere admin.
// @Tags moderation
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param userID path string true "ID del usuario"
// @Success 200 {object} accountResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "user not found"
// @Router /activate-user/{userID} [post]
// @Router /deactivate-user/{userID} [post]
func setActiveHandler(svc *Service, guard *authz.Guard, active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := guard.Require(r, capabilities.ModerationUsers); err != nil {
			authz.WriteError(w, err)
			return
		}

		userID := chi.URLParam(r, "userID")
		var (
			a   Account
			err error
		)
		if active {
			a, err = svc.Activate(r.Context(), userID)
		} else {
			a, err = svc.Deactivate(r.Context(), userID)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAccountResponse(a))
	}
}

func addDoctorHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := guard.Require(r, capabilities.DoctorsManage); err != nil {
			authz.WriteError(w, err)
			return
		}

		var req doctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.AddDoctor(r.Context(), DoctorInput{
			Username:       req.Username,
			Email:          req.Email,
			Password:       req.Password,
			Phone:          req.Phone,
			Specialization: req.Specialization,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAccountResponse(a))
	}
}

func listDoctorsHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := guard.Require(r, capabilities.DoctorsManage); err != nil {
			authz.WriteError(w, err)
			return
		}

		items, err := svc.ListDoctors(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toAccountResponses(items))
	}
}

func editDoctorHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := guard.Require(r, capabilities.DoctorsManage); err != nil {
			authz.WriteError(w, err)
			return
		}

		var req editDoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.UpdateDoctor(r.Context(), chi.URLParam(r, "userID"), UpdateDoctorInput{
			Email:          req.Email,
			Phone:          req.Phone,
			Specialization: req.Specialization,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAccountResponse(a))
	}
}

func deleteDoctorHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := guard.Require(r, capabilities.DoctorsManage); err != nil {
			authz.WriteError(w, err)
			return
		}

		if err := svc.DeleteDoctor(r.Context(), chi.URLParam(r, "userID")); err != nil {
			writeServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	case errors.Is(err, ErrInvalidCredentials):
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotDoctor):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, ErrConflict):
		http.Error(w, "username already exists", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toAccountResponse(a Account) accountResponse {
	return accountResponse{
		ID:             a.User.ID,
		Username:       a.User.Username,
		Email:          a.User.Email,
		Role:           a.Profile.Role,
		Status:         a.Profile.Status,
		IsActive:       a.User.IsActive,
		Phone:          a.Profile.Phone,
		Specialization: a.Profile.Specialization,
		CreatedAt:      a.User.CreatedAt,
	}
}

func toAccountResponses(items []Account) []accountResponse {
	out := make([]accountResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toAccountResponse(a))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
