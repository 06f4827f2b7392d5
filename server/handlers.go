package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-pkgz/lgr"

	"github.com/feedshed/feedshed/pkg/domain"
	"github.com/feedshed/feedshed/pkg/store"
)

// subscriptionRequest is the create-subscription payload
type subscriptionRequest struct {
	UserID int64  `json:"user_id"`
	URL    string `json:"url"`
	Name   string `json:"name,omitempty"`
	Folder string `json:"folder,omitempty"`
}

// createSubscriptionHandler resolves the input URL to a feed and creates the
// subscription. Re-adding a URL the user already subscribes to returns the
// existing row with 200; a fresh subscription returns 201.
func (s *Server) createSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RenderError(w, r, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)
		return
	}
	if req.URL == "" || req.UserID == 0 {
		RenderError(w, r, fmt.Errorf("user_id and url are required"), http.StatusBadRequest)
		return
	}

	// resolution errors surface to the user here, they are not retried
	res := s.resolver.Resolve(r.Context(), req.URL)
	if !res.OK() {
		RenderError(w, r, fmt.Errorf("resolve %q: %s", req.URL, res.Err), http.StatusUnprocessableEntity)
		return
	}

	sub := &domain.Subscription{
		UserID:  req.UserID,
		URL:     req.URL,
		FeedURL: res.FeedURL,
		Name:    req.Name,
		Folder:  req.Folder,
	}
	created, err := s.storage.CreateSubscription(r.Context(), sub)
	if err != nil {
		RenderError(w, r, fmt.Errorf("create subscription: %w", err), http.StatusInternalServerError)
		return
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
		lgr.Printf("[INFO] subscription created: %s -> %s (user %d)", req.URL, res.FeedURL, req.UserID)
	}
	RenderJSON(w, r, code, sub)
}

// listSubscriptionsHandler returns the subscriptions of one user
func (s *Server) listSubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		RenderError(w, r, fmt.Errorf("user_id query parameter is required"), http.StatusBadRequest)
		return
	}

	subs, err := s.storage.GetUserSubscriptions(r.Context(), userID)
	if err != nil {
		RenderError(w, r, fmt.Errorf("get subscriptions: %w", err), http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, subs)
}

// deleteSubscriptionHandler removes a subscription and, by cascade, its items
func (s *Server) deleteSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	guid := r.PathValue("guid")

	if err := s.storage.DeleteSubscription(r.Context(), guid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			RenderError(w, r, err, http.StatusNotFound)
			return
		}
		RenderError(w, r, fmt.Errorf("delete subscription: %w", err), http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, map[string]string{"deleted": guid})
}

// listItemsHandler returns stored items for a subscription, newest first
func (s *Server) listItemsHandler(w http.ResponseWriter, r *http.Request) {
	subGUID := r.URL.Query().Get("subscription")
	if subGUID == "" {
		RenderError(w, r, fmt.Errorf("subscription query parameter is required"), http.StatusBadRequest)
		return
	}

	limit := intQueryParam(r, "limit", 50)
	offset := intQueryParam(r, "offset", 0)

	items, err := s.storage.GetItemsBySubscription(r.Context(), subGUID, limit, offset)
	if err != nil {
		RenderError(w, r, fmt.Errorf("get items: %w", err), http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, items)
}

// bookmarkRequest carries the owner of a bookmark toggle
type bookmarkRequest struct {
	UserID int64 `json:"user_id"`
}

func (s *Server) addBookmarkHandler(w http.ResponseWriter, r *http.Request) {
	guid := r.PathValue("guid")

	var req bookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		RenderError(w, r, fmt.Errorf("user_id is required"), http.StatusBadRequest)
		return
	}

	if err := s.storage.AddBookmark(r.Context(), req.UserID, guid); err != nil {
		RenderError(w, r, fmt.Errorf("add bookmark: %w", err), http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, map[string]string{"bookmarked": guid})
}

func (s *Server) removeBookmarkHandler(w http.ResponseWriter, r *http.Request) {
	guid := r.PathValue("guid")

	var req bookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		RenderError(w, r, fmt.Errorf("user_id is required"), http.StatusBadRequest)
		return
	}

	if err := s.storage.RemoveBookmark(r.Context(), req.UserID, guid); err != nil {
		RenderError(w, r, fmt.Errorf("remove bookmark: %w", err), http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, map[string]string{"unbookmarked": guid})
}

// refreshHandler triggers an immediate ingestion run, recorded in the
// ledger with webhook origin.
func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.trigger.RefreshNow(r.Context(), domain.OriginWebhook); err != nil {
		RenderError(w, r, fmt.Errorf("trigger refresh: %w", err), http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusAccepted, map[string]string{"refresh": "completed"})
}

// listMessagesHandler is the ledger inspection read path
func (s *Server) listMessagesHandler(w http.ResponseWriter, r *http.Request) {
	msgType := r.URL.Query().Get("type")
	status := domain.MessageStatus(r.URL.Query().Get("status"))
	limit := intQueryParam(r, "limit", 50)

	msgs, err := s.storage.ListMessages(r.Context(), msgType, status, limit)
	if err != nil {
		RenderError(w, r, fmt.Errorf("list messages: %w", err), http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, msgs)
}

func intQueryParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
