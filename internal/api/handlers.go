package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hyperengineering/stockin/internal/auth"
	"github.com/hyperengineering/stockin/internal/news"
	"github.com/hyperengineering/stockin/internal/research"
	"github.com/hyperengineering/stockin/internal/store"
	"github.com/hyperengineering/stockin/internal/types"
)

// Handler implements the API handlers. All collaborators are injected at
// construction and read-only afterwards.
type Handler struct {
	store     store.Store
	identity  auth.Identity
	completer research.Completer
	news      news.Provider
	staticDir string
}

// NewHandler creates a new Handler.
func NewHandler(s store.Store, identity auth.Identity, completer research.Completer, newsProvider news.Provider, staticDir string) *Handler {
	return &Handler{
		store:     s,
		identity:  identity,
		completer: completer,
		news:      newsProvider,
		staticDir: staticDir,
	}
}

// Signup handles POST /api/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req types.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := h.identity.SignUp(r.Context(), email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUnavailable):
			slog.Error("signup provider unavailable", "error", err)
			writeError(w, http.StatusServiceUnavailable, "identity provider unavailable")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	// Best-effort welcome notification: failure is reported in the message
	// and logged, never rolls back the signup.
	message := "signup successful"
	if err := h.identity.SendWelcome(r.Context(), email); err != nil {
		slog.Warn("welcome notification failed", "error", err)
		message = "signup successful (welcome notification failed)"
	}

	writeJSON(w, http.StatusOK, types.SignupResponse{
		Message: message,
		UserID:  user.ID,
	})
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	session, err := h.identity.SignIn(r.Context(), email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			slog.Error("login provider unavailable", "error", err)
			writeError(w, http.StatusServiceUnavailable, "identity provider unavailable")
		}
		return
	}

	writeJSON(w, http.StatusOK, types.LoginResponse{
		Message:     "login successful",
		AccessToken: session.AccessToken,
		UserID:      session.User.ID,
	})
}

// Recents handles GET /api/recents.
func (h *Handler) Recents(w http.ResponseWriter, r *http.Request) {
	user := MustUserFromContext(r.Context())

	recents, err := h.store.ListRecents(r.Context(), user.ID, 0)
	if err != nil {
		slog.Error("list recents failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, types.RecentsResponse{Recents: recents})
}

// RemoveRecent handles POST /api/remove_recent. Removal is "ensure absence":
// a missing or foreign-owned id still reports deleted.
func (h *Handler) RemoveRecent(w http.ResponseWriter, r *http.Request) {
	user := MustUserFromContext(r.Context())

	var req types.RemoveRecentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == nil {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}

	if err := h.store.DeleteRecent(r.Context(), user.ID, *req.ID); err != nil {
		slog.Error("delete recent failed", "user_id", user.ID, "id", *req.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, types.StatusResponse{Status: "deleted"})
}

// ListFavourites handles GET /api/favourites.
func (h *Handler) ListFavourites(w http.ResponseWriter, r *http.Request) {
	user := MustUserFromContext(r.Context())

	favourites, err := h.store.ListFavourites(r.Context(), user.ID)
	if err != nil {
		slog.Error("list favourites failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, types.FavouritesResponse{Favourites: favourites})
}

// SaveFavourite handles POST /api/favourites. isFavourite defaults to true;
// true upserts the flag on (user, company_name), false clears it without
// deleting the row.
func (h *Handler) SaveFavourite(w http.ResponseWriter, r *http.Request) {
	user := MustUserFromContext(r.Context())

	var req types.FavouriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name := strings.TrimSpace(req.CompanyName)
	if name == "" {
		writeError(w, http.StatusBadRequest, "company_name required")
		return
	}

	isFavourite := true
	if req.IsFavourite != nil {
		isFavourite = *req.IsFavourite
	}

	var err error
	if isFavourite {
		err = h.store.UpsertFavourite(r.Context(), user.ID, req.CompanyID, name)
	} else {
		err = h.store.ClearFavourite(r.Context(), user.ID, name)
	}
	if err != nil {
		slog.Error("save favourite failed", "user_id", user.ID, "company", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, types.StatusResponse{Status: "ok"})
}

// Research handles POST /api/research. The completion outcome, degraded or
// not, is always persisted to recents before responding; only a store
// failure surfaces as an error.
func (h *Handler) Research(w http.ResponseWriter, r *http.Request) {
	user := MustUserFromContext(r.Context())

	var req types.ResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	company := strings.TrimSpace(req.Company)
	question := strings.TrimSpace(req.Question)
	tab := strings.TrimSpace(req.Tab)
	if company == "" || question == "" {
		writeError(w, http.StatusBadRequest, "company and question required")
		return
	}

	answer := h.completer.Ask(r.Context(), company, tab, question)
	if answer.Degraded {
		slog.Warn("research degraded", "user_id", user.ID, "company", company, "reason", answer.Reason)
	}

	if _, err := h.store.InsertRecent(r.Context(), user.ID, company, tab, question, answer.Text); err != nil {
		slog.Error("save recent failed", "user_id", user.ID, "company", company, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, types.ResearchResponse{Answer: answer.Text})
}

// NewsFeed handles POST /api/news_feed. An absent body or category list
// falls back to the default category set.
func (h *Handler) NewsFeed(w http.ResponseWriter, r *http.Request) {
	var req types.NewsFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	feed := h.news.TopHeadlines(r.Context(), req.Categories)
	writeJSON(w, http.StatusOK, types.NewsFeedResponse{Categories: feed})
}

// NewsForCompany handles POST /api/news_for_company. A provider failure
// degrades to an empty article list, never an HTTP error.
func (h *Handler) NewsForCompany(w http.ResponseWriter, r *http.Request) {
	var req types.CompanyNewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	company := strings.TrimSpace(req.CompanyName)
	if company == "" {
		writeError(w, http.StatusBadRequest, "company_name required")
		return
	}

	articles, err := h.news.Everything(r.Context(), company)
	if err != nil {
		slog.Warn("company news lookup failed", "company", company, "error", err)
		articles = []types.Article{}
	}

	writeJSON(w, http.StatusOK, types.CompanyNewsResponse{
		Company:  company,
		Articles: articles,
	})
}
