package handlers

import (
	"time"

	"github.com/Dosada05/team-roster/models"
)

// Resources shape what the API exposes. Storage paths never leave the
// server, only the derived URLs do.

type teamResource struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	LogoURL   *string   `json:"logo_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type teamSummary struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	LogoURL *string `json:"logo_url"`
}

type playerResource struct {
	ID              int          `json:"id"`
	TeamID          int          `json:"team_id"`
	FirstName       string       `json:"first_name"`
	LastName        string       `json:"last_name"`
	ProfileImageURL *string      `json:"profile_image_url"`
	Team            *teamSummary `json:"team,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type userResource struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

func newTeamResource(t *models.Team) teamResource {
	return teamResource{
		ID:        t.ID,
		Name:      t.Name,
		LogoURL:   t.LogoURL,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func newTeamResources(teams []models.Team) []teamResource {
	out := make([]teamResource, 0, len(teams))
	for i := range teams {
		out = append(out, newTeamResource(&teams[i]))
	}
	return out
}

func newPlayerResource(p *models.Player) playerResource {
	res := playerResource{
		ID:              p.ID,
		TeamID:          p.TeamID,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		ProfileImageURL: p.ProfileImageURL,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.Team != nil {
		res.Team = &teamSummary{ID: p.Team.ID, Name: p.Team.Name, LogoURL: p.Team.LogoURL}
	}
	return res
}

func newPlayerResources(players []models.Player) []playerResource {
	out := make([]playerResource, 0, len(players))
	for i := range players {
		out = append(out, newPlayerResource(&players[i]))
	}
	return out
}

func newUserResource(u *models.User) userResource {
	return userResource{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin}
}
