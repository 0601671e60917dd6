package services

import (
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/team-roster/models"
	"github.com/Dosada05/team-roster/storage"
)

const maxNameLength = 255

func populateTeamLogoURLFunc(team *models.Team, blobs storage.BlobStore) {
	if team == nil || team.LogoPath == "" || blobs == nil {
		return
	}
	if url := blobs.URL(team.LogoPath); url != "" {
		team.LogoURL = &url
	}
}

func populatePlayerDetailsFunc(player *models.Player, team *models.Team, blobs storage.BlobStore) {
	if player == nil {
		return
	}
	if player.ProfileImagePath != "" && blobs != nil {
		if url := blobs.URL(player.ProfileImagePath); url != "" {
			player.ProfileImageURL = &url
		}
	}
	if team != nil {
		populateTeamLogoURLFunc(team, blobs)
		player.Team = team
	}
}

// requireName trims value and records "required"/"max" failures for field.
func requireName(verr *ValidationError, field, label, value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		verr.Add(field, "The "+label+" field is required.")
	case utf8.RuneCountInString(value) > maxNameLength:
		verr.Add(field, "The "+label+" field must not be greater than 255 characters.")
	}
	return value
}
