package messaging

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
	r.Route("/chatroom/{petID}", func(cr chi.Router) {
		cr.Get("/", startChatHandler(svc, guard))
		cr.Get("/{otherUserID}", threadHandler(svc, guard))
		cr.Post("/{otherUserID}", postMessageHandler(svc, guard))
	})
	r.Post("/delete_message/{messageID}", deleteMessageHandler(svc, guard))
	r.Get("/seller_chats", sellerChatsHandler(svc, guard))
}

type postMessageRequest struct {
	Content string `json:"content"`
}

type messageResponse struct {
	ID         string    `json:"id"`
	PetID      string    `json:"pet_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type startChatResponse struct {
	PetID         string `json:"pet_id"`
	CounterpartID string `json:"counterpart_id"`
	ChatroomPath  string `json:"chatroom_path"`
}

type conversationResponse struct {
	PetID         string    `json:"pet_id"`
	PetName       string    `json:"pet_name"`
	CounterpartID string    `json:"counterpart_id"`
	LastMessageAt time.Time `json:"last_message_at"`
	MessageCount  int       `json:"message_count"`
}

// startChatHandler godoc
// @Summary Iniciar chat sobre una mascota
// @Description Devuelve la contraparte (el dueño) y la ruta del hilo. El dueño no puede abrir chat consigo mismo.
// @Tags messaging
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} startChatResponse
// @Failure 400 {string} string "cannot chat with yourself about your own pet"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /chatroom/{petID} [get]
func startChatHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := guard.Require(r, capabilities.Chat)
		if err != nil {
			authz.WriteError(w, err)
			return
		}

		petID := chi.URLParam(r, "petID")
		other, err := svc.StartChat(r.Context(), petID, actor.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, startChatResponse{
			PetID:         petID,
			CounterpartID: other,
			ChatroomPath:  "/chatroom/" + petID + "/" + other,
		})
	}
}

func threadHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := guard.Require(r, capabilities.Chat)
		if err != nil {
			authz.WriteError(w, err)
			return
		}

		items, err := svc.Open(r.Context(), chi.URLParam(r, "petID"), actor.UserID, chi.URLParam(r, "otherUserID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		out := make([]messageResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMessageResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func postMessageHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := guard.Require(r, capabilities.Chat)
		if err != nil {
			authz.WriteError(w, err)
			return
		}

		var req postMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		m, err := svc.Post(r.Context(), chi.URLParam(r, "petID"), actor.UserID, chi.URLParam(r, "otherUserID"), req.Content)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMessageResponse(m))
	}
}

// deleteMessageHandler godoc
// @Summary Borrar mensaje propio
// @Description Solo el remitente puede borrar. Cualquier otro recibe 403 y el mensaje no cambia.
// @Tags messaging
// @Param Authorization header string false "Bearer token"
// @Param messageID path string true "ID del mensaje"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /delete_message/{messageID} [post]
func deleteMessageHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := guard.Authenticate(r)
		if err != nil {
			authz.WriteError(w, err)
			return
		}

		if _, err := svc.Delete(r.Context(), chi.URLParam(r, "messageID"), actor.UserID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func sellerChatsHandler(svc *Service, guard *authz.Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := guard.Require(r, capabilities.Chat)
		if err != nil {
			authz.WriteError(w, err)
			return
		}

		items, err := svc.ListSellerThreads(r.Context(), actor.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]conversationResponse, 0, len(items))
		for _, c := range items {
			out = append(out, conversationResponse(c))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrSelfChat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toMessageResponse(m Message) messageResponse {
	return messageResponse{
		ID:         m.ID,
		PetID:      m.PetID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
