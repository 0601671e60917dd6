package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/team-roster/models"
	"github.com/Dosada05/team-roster/repositories"
	"github.com/Dosada05/team-roster/storage"
)

// PlayerService manages players nested under a team. Every call resolves the
// team first and then the player scoped by team_id.
type PlayerService interface {
	ListPlayers(ctx context.Context, teamID int) ([]models.Player, error)
	GetPlayer(ctx context.Context, teamID, playerID int) (*models.Player, error)
	CreatePlayer(ctx context.Context, teamID int, input CreatePlayerInput) (*models.Player, error)
	UpdatePlayer(ctx context.Context, teamID, playerID int, input UpdatePlayerInput) (*models.Player, error)
	DeletePlayer(ctx context.Context, teamID, playerID int) error
}

type CreatePlayerInput struct {
	FirstName    string
	LastName     string
	ProfileImage *storage.File
}

type UpdatePlayerInput struct {
	FirstName    string
	LastName     string
	ProfileImage *storage.File
}

type playerService struct {
	teamRepo   repositories.TeamRepository
	playerRepo repositories.PlayerRepository
	assets     *AssetManager
}

func NewPlayerService(
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	assets *AssetManager,
) PlayerService {
	return &playerService{
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		assets:     assets,
	}
}

func (s *playerService) ListPlayers(ctx context.Context, teamID int) ([]models.Player, error) {
	team, err := s.resolveTeam(ctx, nil, teamID)
	if err != nil {
		return nil, err
	}

	players, err := s.playerRepo.List(ctx, nil, repositories.Filter{"team_id": teamID})
	if err != nil {
		return nil, fmt.Errorf("failed to list players of team %d: %w", teamID, err)
	}
	if players == nil {
		return []models.Player{}, nil
	}
	for i := range players {
		teamCopy := *team
		populatePlayerDetailsFunc(&players[i], &teamCopy, s.assets.Blobs())
	}
	return players, nil
}

func (s *playerService) GetPlayer(ctx context.Context, teamID, playerID int) (*models.Player, error) {
	team, err := s.resolveTeam(ctx, nil, teamID)
	if err != nil {
		return nil, err
	}
	player, err := s.playerRepo.GetOrFail(ctx, nil, playerID, repositories.Filter{"team_id": teamID})
	if err != nil {
		return nil, mapPlayerRepoError(err, playerID)
	}
	populatePlayerDetailsFunc(player, team, s.assets.Blobs())
	return player, nil
}

func (s *playerService) CreatePlayer(ctx context.Context, teamID int, input CreatePlayerInput) (*models.Player, error) {
	// The team is resolved before anything is written so a missing team
	// never costs an upload.
	team, err := s.resolveTeam(ctx, nil, teamID)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	firstName := requireName(verr, "first_name", "first name", input.FirstName)
	lastName := requireName(verr, "last_name", "last name", input.LastName)
	if input.ProfileImage == nil {
		verr.Add("profile_image", "The profile image field is required.")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	player, err := createWithAsset(ctx, s.assets, "playerService.CreatePlayer", input.ProfileImage, models.PlayerProfileImagePrefix,
		func(ctx context.Context, exec repositories.SQLExecutor, imagePath string) (*models.Player, error) {
			player := &models.Player{
				TeamID:           teamID,
				FirstName:        firstName,
				LastName:         lastName,
				ProfileImagePath: imagePath,
			}
			if err := s.playerRepo.Create(ctx, exec, player); err != nil {
				return nil, mapPlayerRepoError(err, 0)
			}
			return player, nil
		})
	if err != nil {
		return nil, err
	}

	populatePlayerDetailsFunc(player, team, s.assets.Blobs())
	return player, nil
}

func (s *playerService) UpdatePlayer(ctx context.Context, teamID, playerID int, input UpdatePlayerInput) (*models.Player, error) {
	verr := &ValidationError{}
	firstName := requireName(verr, "first_name", "first name", input.FirstName)
	lastName := requireName(verr, "last_name", "last name", input.LastName)

	var team *models.Team
	player, err := updateWithAsset(ctx, s.assets, "playerService.UpdatePlayer", input.ProfileImage, models.PlayerProfileImagePrefix,
		func(ctx context.Context, exec repositories.SQLExecutor) (string, error) {
			var err error
			if team, err = s.resolveTeam(ctx, exec, teamID); err != nil {
				return "", err
			}
			current, err := s.playerRepo.GetOrFail(ctx, exec, playerID, repositories.Filter{"team_id": teamID})
			if err != nil {
				return "", mapPlayerRepoError(err, playerID)
			}
			// Field errors are reported only once the target is known to exist.
			if verr.HasErrors() {
				return "", verr
			}
			return current.ProfileImagePath, nil
		},
		func(ctx context.Context, exec repositories.SQLExecutor, imagePath *string) (*models.Player, error) {
			updated, err := s.playerRepo.Update(ctx, exec, playerID, repositories.PlayerUpdate{
				FirstName:        &firstName,
				LastName:         &lastName,
				ProfileImagePath: imagePath,
			}, repositories.Filter{"team_id": teamID})
			if err != nil {
				return nil, mapPlayerRepoError(err, playerID)
			}
			return updated, nil
		})
	if err != nil {
		return nil, err
	}

	populatePlayerDetailsFunc(player, team, s.assets.Blobs())
	return player, nil
}

func (s *playerService) DeletePlayer(ctx context.Context, teamID, playerID int) error {
	scope := repositories.Filter{"team_id": teamID}
	return deleteWithAssets(ctx, s.assets, "playerService.DeletePlayer",
		func(ctx context.Context, exec repositories.SQLExecutor) ([]string, error) {
			if _, err := s.resolveTeam(ctx, exec, teamID); err != nil {
				return nil, err
			}
			player, err := s.playerRepo.GetOrFail(ctx, exec, playerID, scope)
			if err != nil {
				return nil, mapPlayerRepoError(err, playerID)
			}
			return []string{player.ProfileImagePath}, nil
		},
		func(ctx context.Context, exec repositories.SQLExecutor) error {
			deleted, err := s.playerRepo.DeleteOne(ctx, exec, playerID, scope)
			if err != nil {
				return fmt.Errorf("failed to delete player %d: %w", playerID, err)
			}
			if deleted == 0 {
				return ErrPlayerNotFound
			}
			return nil
		})
}

func (s *playerService) resolveTeam(ctx context.Context, exec repositories.SQLExecutor, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetOrFail(ctx, exec, teamID, nil)
	if err != nil {
		return nil, mapTeamRepoError(err, teamID)
	}
	return team, nil
}

func mapPlayerRepoError(err error, id int) error {
	switch {
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrPlayerTeamInvalid):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return fmt.Errorf("player repository failure (id: %d): %w", id, err)
	}
}
