package models

import "time"

const TeamLogoPrefix = "logos"

type Team struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	LogoPath string  `json:"-" db:"logo_path"`
	LogoURL  *string `json:"logo_url,omitempty" db:"-"`
}

func (t *Team) AssetPath() string {
	return t.LogoPath
}
