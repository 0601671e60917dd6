package handlers

import (
	"net/http"

	"github.com/Dosada05/team-roster/services"
)

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(ts services.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: ts,
	}
}

type teamForm struct {
	Name string `form:"name" validate:"required,max=255"`
}

func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.ListTeams(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err, "Error while getting all the team details.", "TeamHandler.ListTeams")
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"data": newTeamResources(teams)}, nil); err != nil {
		serverErrorResponse(w, r, err, "Error while getting all the team details.", "TeamHandler.ListTeams")
	}
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	if err := parseRequestForm(w, r); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	form := teamForm{Name: formValue(r, "name")}
	verr := &services.ValidationError{}
	validateForm(&form, verr)
	logo, err := imageFromRequest(r, "logo", true, verr)
	if err != nil {
		serverErrorResponse(w, r, err, "Error while storing the team details.", "TeamHandler.CreateTeam", "name", form.Name)
		return
	}
	if verr.HasErrors() {
		failedValidationResponse(w, r, verr)
		return
	}

	team, err := h.teamService.CreateTeam(r.Context(), services.CreateTeamInput{Name: form.Name, Logo: logo})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err, "Error while storing the team details.", "TeamHandler.CreateTeam", "name", form.Name)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"data": newTeamResource(team)}, nil); err != nil {
		serverErrorResponse(w, r, err, "Error while storing the team details.", "TeamHandler.CreateTeam")
	}
}

func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := getIDFromURL(r, "team")
	if !ok {
		notFoundResponse(w, r, services.ErrTeamNotFound)
		return
	}

	team, err := h.teamService.GetTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err, "Error while getting the specified team.", "TeamHandler.GetTeam", "team_id", teamID)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"data": newTeamResource(team)}, nil); err != nil {
		serverErrorResponse(w, r, err, "Error while getting the specified team.", "TeamHandler.GetTeam")
	}
}

func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	const message = "Error while updating the team details."

	teamID, ok := getIDFromURL(r, "team")
	if !ok {
		notFoundResponse(w, r, services.ErrTeamNotFound)
		return
	}
	// Сначала убеждаемся, что команда существует: 404 важнее ошибок валидации.
	if _, err := h.teamService.GetTeam(r.Context(), teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err, message, "TeamHandler.UpdateTeam", "team_id", teamID)
		return
	}

	if err := parseRequestForm(w, r); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	form := teamForm{Name: formValue(r, "name")}
	verr := &services.ValidationError{}
	validateForm(&form, verr)
	logo, err := imageFromRequest(r, "logo", false, verr)
	if err != nil {
		serverErrorResponse(w, r, err, message, "TeamHandler.UpdateTeam", "team_id", teamID, "name", form.Name)
		return
	}
	if verr.HasErrors() {
		failedValidationResponse(w, r, verr)
		return
	}

	team, err := h.teamService.UpdateTeam(r.Context(), teamID, services.UpdateTeamInput{Name: form.Name, Logo: logo})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err, message, "TeamHandler.UpdateTeam", "team_id", teamID, "name", form.Name)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"data": newTeamResource(team)}, nil); err != nil {
		serverErrorResponse(w, r, err, message, "TeamHandler.UpdateTeam")
	}
}

func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := getIDFromURL(r, "team")
	if !ok {
		notFoundResponse(w, r, services.ErrTeamNotFound)
		return
	}

	if err := h.teamService.DeleteTeam(r.Context(), teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err, "Error while deleting the team.", "TeamHandler.DeleteTeam", "team_id", teamID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
