package handlers

import (
	"net/http"

	"github.com/Dosada05/team-roster/services"
)

type PlayerHandler struct {
	teamService   services.TeamService
	playerService services.PlayerService
}

func NewPlayerHandler(ts services.TeamService, ps services.PlayerService) *PlayerHandler {
	return &PlayerHandler{
		teamService:   ts,
		playerService: ps,
	}
}

type playerForm struct {
	FirstName string `form:"first_name" validate:"required,max=255"`
	LastName  string `form:"last_name" validate:"required,max=255"`
}

func readPlayerForm(r *http.Request) playerForm {
	return playerForm{
		FirstName: formValue(r, "first_name"),
		LastName:  formValue(r, "last_name"),
	}
}

// playerRouteIDs resolves {team} and, when withPlayer is set, {player}.
// Malformed ids answer 404 for the respective resource.
func playerRouteIDs(w http.ResponseWriter, r *http.Request, withPlayer bool) (teamID, playerID int, ok bool) {
	teamID, ok = getIDFromURL(r, "team")
	if !ok {
		notFoundResponse(w, r, services.ErrTeamNotFound)
		return 0, 0, false
	}
	if !withPlayer {
		return teamID, 0, true
	}
	playerID, ok = getIDFromURL(r, "player")
	if !ok {
		notFoundResponse(w, r, services.ErrPlayerNotFound)
		return 0, 0, false
	}
	return teamID, playerID, true
}

func (h *PlayerHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	const message = "Error while getting all the player details."

	teamID, _, ok := playerRouteIDs(w, r, false)
	if !ok {
		return
	}

	players, err := h.playerService.ListPlayers(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err, message, "PlayerHandler.ListPlayers", "team_id", teamID)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"data": newPlayerResources(players)}, nil); err != nil {
		serverErrorResponse(w, r, err, message, "PlayerHandler.ListPlayers")
	}
}

func (h *PlayerHandler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	const message = "Error while storing the player details."

	teamID, _, ok := playerRouteIDs(w, r, false)
	if !ok {
		return
	}
	if _, err := h.teamService.GetTeam(r.Context(), teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err, message, "PlayerHandler.CreatePlayer", "team_id", teamID)
		return
	}

	if err := parseRequestForm(w, r); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	form := readPlayerForm(r)
	verr := &services.ValidationError{}
	validateForm(&form, verr)
	image, err := imageFromRequest(r, "profile_image", true, verr)
	if err != nil {
		serverErrorResponse(w, r, err, message, "PlayerHandler.CreatePlayer", "team_id", teamID)
		return
	}
	if verr.HasErrors() {
		failedValidationResponse(w, r, verr)
		return
	}

	player, err := h.playerService.CreatePlayer(r.Context(), teamID, services.CreatePlayerInput{
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		ProfileImage: image,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err, message, "PlayerHandler.CreatePlayer",
			"team_id", teamID, "first_name", form.FirstName, "last_name", form.LastName)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"data": newPlayerResource(player)}, nil); err != nil {
		serverErrorResponse(w, r, err, message, "PlayerHandler.CreatePlayer")
	}
}

func (h *PlayerHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	const message = "Error while getting the specified player."

	teamID, playerID, ok := playerRouteIDs(w, r, true)
	if !ok {
		return
	}

	player, err := h.playerService.GetPlayer(r.Context(), teamID, playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err, message, "PlayerHandler.GetPlayer", "team_id", teamID, "player_id", playerID)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"data": newPlayerResource(player)}, nil); err != nil {
		serverErrorResponse(w, r, err, message, "PlayerHandler.GetPlayer")
	}
}

func (h *PlayerHandler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	const message = "Error while updating the player details."

	teamID, playerID, ok := playerRouteIDs(w, r, true)
	if !ok {
		return
	}
	if _, err := h.playerService.GetPlayer(r.Context(), teamID, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err, message, "PlayerHandler.UpdatePlayer", "team_id", teamID, "player_id", playerID)
		return
	}

	if err := parseRequestForm(w, r); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	form := readPlayerForm(r)
	verr := &services.ValidationError{}
	validateForm(&form, verr)
	image, err := imageFromRequest(r, "profile_image", false, verr)
	if err != nil {
		serverErrorResponse(w, r, err, message, "PlayerHandler.UpdatePlayer", "team_id", teamID, "player_id", playerID)
		return
	}
	if verr.HasErrors() {
		failedValidationResponse(w, r, verr)
		return
	}

	player, err := h.playerService.UpdatePlayer(r.Context(), teamID, playerID, services.UpdatePlayerInput{
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		ProfileImage: image,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err, message, "PlayerHandler.UpdatePlayer",
			"team_id", teamID, "player_id", playerID, "first_name", form.FirstName, "last_name", form.LastName)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"data": newPlayerResource(player)}, nil); err != nil {
		serverErrorResponse(w, r, err, message, "PlayerHandler.UpdatePlayer")
	}
}

func (h *PlayerHandler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	teamID, playerID, ok := playerRouteIDs(w, r, true)
	if !ok {
		return
	}

	if err := h.playerService.DeletePlayer(r.Context(), teamID, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err, "Error while deleting the player.", "PlayerHandler.DeletePlayer",
			"team_id", teamID, "player_id", playerID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
