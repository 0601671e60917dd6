package models

import "time"

const PlayerProfileImagePrefix = "profile-images"

type Player struct {
	ID        int       `json:"id" db:"id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	ProfileImagePath string  `json:"-" db:"profile_image_path"`
	ProfileImageURL  *string `json:"profile_image_url,omitempty" db:"-"`

	Team *Team `json:"team,omitempty" db:"-"`
}

func (p *Player) AssetPath() string {
	return p.ProfileImagePath
}
