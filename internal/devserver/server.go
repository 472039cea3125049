package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"protocol-cli/cmd/utils"
	"protocol-cli/internal/api"
	"protocol-cli/internal/chat"
)

// Server holds the handlers behind the dev API.
type Server struct {
	repo      Repository
	diagnosis api.DiagnosisService
}

// New builds the HTTP handler, mounting every route under apiBase.
func New(repo Repository, diagnosis api.DiagnosisService, apiBase string) http.Handler {
	s := &Server{repo: repo, diagnosis: diagnosis}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Route(normalizeBase(apiBase), func(r chi.Router) {
		r.Get("/health", s.health)
		r.Post("/diagnose", s.diagnose)
		r.Post("/diagnose/details", s.details)

		r.Get("/chats", s.listChats)
		r.Post("/chats", s.createChat)
		r.Post("/chats/{id}/messages", s.addMessage)
		r.Delete("/chats/{id}", s.deleteChat)
		r.Patch("/chats/{id}", s.patchChat)
	})
	return r
}

// ListenAndServe serves h on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) diagnose(w http.ResponseWriter, r *http.Request) {
	var req api.DiagnoseRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Symptoms) == "" {
		http.Error(w, "symptoms is required", http.StatusBadRequest)
		return
	}
	items, err := s.diagnosis.Diagnose(r.Context(), req.Symptoms)
	if err != nil {
		s.fail(w, "diagnose", err)
		return
	}
	resp := api.DiagnoseResponse{Diagnoses: items}
	if resp.Diagnoses == nil {
		resp.Diagnoses = []chat.DiagnosisItem{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) details(w http.ResponseWriter, r *http.Request) {
	var req api.DetailsRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ICD10Code) == "" {
		http.Error(w, "icd10_code is required", http.StatusBadRequest)
		return
	}
	sections, err := s.diagnosis.Details(r.Context(), req.Symptoms, req.ICD10Code)
	if err != nil {
		s.fail(w, "details", err)
		return
	}
	resp := api.DetailsResponse{Sections: sections}
	if resp.Sections == nil {
		resp.Sections = []chat.DetailSection{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.repo.ListChats(r.Context())
	if err != nil {
		s.fail(w, "list chats", err)
		return
	}
	resp := api.ChatsResponse{Chats: make([]api.ChatDTO, 0, len(chats))}
	for _, c := range chats {
		resp.Chats = append(resp.Chats, api.FromChat(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createChat(w http.ResponseWriter, r *http.Request) {
	var req api.CreateChatRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := s.repo.CreateChat(r.Context(), strings.TrimSpace(req.Title))
	if err != nil {
		s.fail(w, "create chat", err)
		return
	}
	writeJSON(w, http.StatusCreated, api.FromChat(c))
}

func (s *Server) addMessage(w http.ResponseWriter, r *http.Request) {
	var req api.AddMessageRequest
	if !decode(w, r, &req) {
		return
	}
	switch req.Role {
	case chat.RoleUser, chat.RoleAssistant:
	default:
		http.Error(w, "role must be user or assistant", http.StatusBadRequest)
		return
	}
	msg := chat.Message{Role: req.Role, Content: req.Content, Diagnosis: req.DiagnosisData}
	if err := s.repo.AddMessage(r.Context(), chi.URLParam(r, "id"), msg); err != nil {
		s.fail(w, "add message", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteChat(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteChat(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "delete chat", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) patchChat(w http.ResponseWriter, r *http.Request) {
	var req api.PatchChatRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Pinned == nil && req.Title == nil {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	if req.Pinned != nil {
		if err := s.repo.SetPinned(r.Context(), id, *req.Pinned); err != nil {
			s.fail(w, "pin chat", err)
			return
		}
	}
	if req.Title != nil {
		if err := s.repo.UpdateTitle(r.Context(), id, *req.Title); err != nil {
			s.fail(w, "rename chat", err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrChatNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		utils.LogDebugf("devserver: %s failed: %v", op, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.LogDebugf("devserver: encode response: %v", err)
	}
}

func normalizeBase(base string) string {
	base = "/" + strings.Trim(base, "/")
	if base == "/" {
		return utils.DefaultAPIBase
	}
	return base
}
