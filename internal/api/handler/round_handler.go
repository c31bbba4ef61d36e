package handler

import (
	"encoding/json"
	"net/http"

	"intervue/internal/api/middleware"
	"intervue/internal/app/service"
	"intervue/internal/common"

	"github.com/go-chi/chi/v5"
)

type RoundHandler struct {
	experienceService *service.ExperienceService
}

func NewRoundHandler(es *service.ExperienceService) *RoundHandler {
	return &RoundHandler{experienceService: es}
}

func (h *RoundHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(authenticated chi.Router) {
		authenticated.Use(middleware.Authenticator)
		authenticated.Put("/{roundID}", h.update)
		authenticated.Delete("/{roundID}", h.delete)
		authenticated.Post("/{roundID}/problems", h.addProblem)
		authenticated.Post("/{roundID}/questions", h.addQuestion)
	})
}

func (h *RoundHandler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	roundID := chi.URLParam(r, "roundID")

	var input service.RoundInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	round, err := h.experienceService.UpdateRound(r.Context(), actor, roundID, input)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, round)
}

func (h *RoundHandler) delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	roundID := chi.URLParam(r, "roundID")

	if err := h.experienceService.DeleteRound(r.Context(), actor, roundID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *RoundHandler) addProblem(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	roundID := chi.URLParam(r, "roundID")

	var input service.CodingProblemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	problem, err := h.experienceService.AddProblem(r.Context(), actor, roundID, input)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *RoundHandler) addQuestion(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	roundID := chi.URLParam(r, "roundID")

	var input service.TechnicalQuestionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	question, err := h.experienceService.AddQuestion(r.Context(), actor, roundID, input)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, question)
}
