package handler

import (
	"encoding/json"
	"net/http"

	"intervue/internal/api/middleware"
	"intervue/internal/app/service"
	"intervue/internal/common"

	"github.com/go-chi/chi/v5"
)

type EngagementHandler struct {
	engagementService *service.EngagementService
}

func NewEngagementHandler(es *service.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagementService: es}
}

// RegisterExperienceRoutes mounts the routes nested under an experience.
func (h *EngagementHandler) RegisterExperienceRoutes(r chi.Router) {
	r.Get("/{experienceID}/upvote/count", h.upvoteCount)
	r.Get("/{experienceID}/comments", h.listComments)

	r.Group(func(authenticated chi.Router) {
		authenticated.Use(middleware.Authenticator)
		authenticated.Post("/{experienceID}/upvote", h.toggleUpvote)
		authenticated.Get("/{experienceID}/upvote/status", h.upvoteStatus)
		authenticated.Post("/{experienceID}/comments", h.addComment)
	})
}

// RegisterCommentRoutes mounts the routes addressed by comment ID.
func (h *EngagementHandler) RegisterCommentRoutes(r chi.Router) {
	r.Group(func(authenticated chi.Router) {
		authenticated.Use(middleware.Authenticator)
		authenticated.Delete("/{commentID}", h.deleteComment)
	})
}

func (h *EngagementHandler) toggleUpvote(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	experienceID := chi.URLParam(r, "experienceID")

	upvoted, err := h.engagementService.ToggleUpvote(r.Context(), actor, experienceID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]bool{"upvoted": upvoted})
}

func (h *EngagementHandler) upvoteCount(w http.ResponseWriter, r *http.Request) {
	experienceID := chi.URLParam(r, "experienceID")

	count, err := h.engagementService.UpvoteCount(r.Context(), experienceID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *EngagementHandler) upvoteStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	experienceID := chi.URLParam(r, "experienceID")

	upvoted, err := h.engagementService.IsUpvoted(r.Context(), actor, experienceID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]bool{"upvoted": upvoted})
}

func (h *EngagementHandler) addComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	experienceID := chi.URLParam(r, "experienceID")

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	comment, err := h.engagementService.AddComment(r.Context(), actor, experienceID, req.Text)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, comment)
}

func (h *EngagementHandler) listComments(w http.ResponseWriter, r *http.Request) {
	experienceID := chi.URLParam(r, "experienceID")

	comments, err := h.engagementService.ListComments(r.Context(), experienceID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, comments)
}

func (h *EngagementHandler) deleteComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	commentID := chi.URLParam(r, "commentID")

	if err := h.engagementService.DeleteComment(r.Context(), actor, commentID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
