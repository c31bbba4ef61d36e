package handler

import (
	"encoding/json"
	"net/http"

	"intervue/internal/api/middleware"
	"intervue/internal/app/service"
	"intervue/internal/common"
	"intervue/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	experienceService *service.ExperienceService
}

func NewAdminHandler(es *service.ExperienceService) *AdminHandler {
	return &AdminHandler{experienceService: es}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(admin chi.Router) {
		admin.Use(middleware.Authenticator)
		admin.Use(middleware.AdminOnly)
		admin.Get("/experiences/pending", h.listPending)
		admin.Get("/experiences", h.listAll)
		admin.Patch("/experiences/{experienceID}/status", h.setStatus)
		admin.Delete("/experiences/{experienceID}", h.deleteAny)
	})
}

func (h *AdminHandler) listPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	experiences, err := h.experienceService.ListPending(r.Context(), actor)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, experiences)
}

func (h *AdminHandler) listAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	limit, offset := parseLimitOffset(r, 20, 100)

	page, err := h.experienceService.ListAll(r.Context(), actor, limit, offset)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	experienceID := chi.URLParam(r, "experienceID")

	var req struct {
		Status model.ExperienceStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	exp, err := h.experienceService.SetStatus(r.Context(), actor, experienceID, req.Status)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, exp)
}

func (h *AdminHandler) deleteAny(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	experienceID := chi.URLParam(r, "experienceID")

	if err := h.experienceService.DeleteAny(r.Context(), actor, experienceID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
