package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"intervue/internal/api/middleware"
	"intervue/internal/app/service"
	"intervue/internal/common"

	"github.com/go-chi/chi/v5"
)

type ExperienceHandler struct {
	experienceService *service.ExperienceService
	extractionService *service.ExtractionService
	extractionTimeout time.Duration
}

func NewExperienceHandler(es *service.ExperienceService, xs *service.ExtractionService, extractionTimeout time.Duration) *ExperienceHandler {
	return &ExperienceHandler{
		experienceService: es,
		extractionService: xs,
		extractionTimeout: extractionTimeout,
	}
}

func (h *ExperienceHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(public chi.Router) {
		public.Get("/", h.list)
		public.With(middleware.OptionalAuthenticator).Get("/{experienceID}", h.get)
	})

	r.Group(func(authenticated chi.Router) {
		authenticated.Use(middleware.Authenticator)
		authenticated.Get("/mine", h.listMine)
		authenticated.Post("/", h.create)
		authenticated.Post("/fuzzy", h.createFromText)
		authenticated.Put("/{experienceID}", h.replace)
		authenticated.Delete("/{experienceID}", h.delete)
		authenticated.Post("/{experienceID}/rounds", h.addRound)
	})
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *ExperienceHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 20, 100)
	page, err := h.experienceService.ListApproved(r.Context(), limit, offset)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, page)
}

func (h *ExperienceHandler) get(w http.ResponseWriter, r *http.Request) {
	experienceID := chi.URLParam(r, "experienceID")
	viewer := middleware.MaybeActor(r.Context())

	exp, err := h.experienceService.Get(r.Context(), viewer, experienceID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, exp)
}

func (h *ExperienceHandler) listMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	experiences, err := h.experienceService.ListMine(r.Context(), actor)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, experiences)
}

func (h *ExperienceHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var input service.ExperienceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	exp, err := h.experienceService.Create(r.Context(), actor, input)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, exp)
}

func (h *ExperienceHandler) createFromText(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.extractionTimeout)
	defer cancel()

	exp, err := h.extractionService.CreateFromText(ctx, actor, req.Text)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, exp)
}

func (h *ExperienceHandler) replace(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	experienceID := chi.URLParam(r, "experienceID")

	var input service.ExperienceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	exp, err := h.experienceService.Replace(r.Context(), actor, experienceID, input)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, exp)
}

func (h *ExperienceHandler) delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	experienceID := chi.URLParam(r, "experienceID")

	if err := h.experienceService.Delete(r.Context(), actor, experienceID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ExperienceHandler) addRound(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	experienceID := chi.URLParam(r, "experienceID")

	var input service.RoundInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	round, err := h.experienceService.AddRound(r.Context(), actor, experienceID, input)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, round)
}
