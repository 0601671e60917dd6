package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/team-roster/models"
	"github.com/Dosada05/team-roster/repositories"
	"github.com/Dosada05/team-roster/storage"
)

type TeamService interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	GetTeam(ctx context.Context, id int) (*models.Team, error)
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	UpdateTeam(ctx context.Context, id int, input UpdateTeamInput) (*models.Team, error)
	// DeleteTeam removes the team, all of its players and every associated image.
	DeleteTeam(ctx context.Context, id int) error
}

type CreateTeamInput struct {
	Name string
	Logo *storage.File
}

// UpdateTeamInput replaces the name; Logo is optional and kept when nil.
type UpdateTeamInput struct {
	Name string
	Logo *storage.File
}

type teamService struct {
	teamRepo   repositories.TeamRepository
	playerRepo repositories.PlayerRepository
	assets     *AssetManager
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	assets *AssetManager,
) TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		assets:     assets,
	}
}

func (s *teamService) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teamRepo.List(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	if teams == nil {
		return []models.Team{}, nil
	}
	for i := range teams {
		populateTeamLogoURLFunc(&teams[i], s.assets.Blobs())
	}
	return teams, nil
}

func (s *teamService) GetTeam(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetOrFail(ctx, nil, id, nil)
	if err != nil {
		return nil, mapTeamRepoError(err, id)
	}
	populateTeamLogoURLFunc(team, s.assets.Blobs())
	return team, nil
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	verr := &ValidationError{}
	name := requireName(verr, "name", "name", input.Name)
	if input.Logo == nil {
		verr.Add("logo", "The logo field is required.")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	team, err := createWithAsset(ctx, s.assets, "teamService.CreateTeam", input.Logo, models.TeamLogoPrefix,
		func(ctx context.Context, exec repositories.SQLExecutor, logoPath string) (*models.Team, error) {
			team := &models.Team{Name: name, LogoPath: logoPath}
			if err := s.teamRepo.Create(ctx, exec, team); err != nil {
				return nil, mapTeamRepoError(err, 0)
			}
			return team, nil
		})
	if err != nil {
		return nil, err
	}

	populateTeamLogoURLFunc(team, s.assets.Blobs())
	return team, nil
}

func (s *teamService) UpdateTeam(ctx context.Context, id int, input UpdateTeamInput) (*models.Team, error) {
	verr := &ValidationError{}
	name := requireName(verr, "name", "name", input.Name)

	team, err := updateWithAsset(ctx, s.assets, "teamService.UpdateTeam", input.Logo, models.TeamLogoPrefix,
		func(ctx context.Context, exec repositories.SQLExecutor) (string, error) {
			current, err := s.teamRepo.GetOrFail(ctx, exec, id, nil)
			if err != nil {
				return "", mapTeamRepoError(err, id)
			}
			if verr.HasErrors() {
				return "", verr
			}
			return current.LogoPath, nil
		},
		func(ctx context.Context, exec repositories.SQLExecutor, logoPath *string) (*models.Team, error) {
			updated, err := s.teamRepo.Update(ctx, exec, id, repositories.TeamUpdate{
				Name:     &name,
				LogoPath: logoPath,
			}, nil)
			if err != nil {
				return nil, mapTeamRepoError(err, id)
			}
			return updated, nil
		})
	if err != nil {
		return nil, err
	}

	populateTeamLogoURLFunc(team, s.assets.Blobs())
	return team, nil
}

func (s *teamService) DeleteTeam(ctx context.Context, id int) error {
	return deleteWithAssets(ctx, s.assets, "teamService.DeleteTeam",
		func(ctx context.Context, exec repositories.SQLExecutor) ([]string, error) {
			team, err := s.teamRepo.GetOrFail(ctx, exec, id, nil)
			if err != nil {
				return nil, mapTeamRepoError(err, id)
			}
			paths, err := s.playerRepo.ListAssetPaths(ctx, exec, repositories.Filter{"team_id": id})
			if err != nil {
				return nil, fmt.Errorf("failed to collect player images of team %d: %w", id, err)
			}
			return append(paths, team.LogoPath), nil
		},
		func(ctx context.Context, exec repositories.SQLExecutor) error {
			if _, err := s.playerRepo.DeleteMany(ctx, exec, repositories.Filter{"team_id": id}); err != nil {
				return fmt.Errorf("failed to delete players of team %d: %w", id, err)
			}
			deleted, err := s.teamRepo.DeleteOne(ctx, exec, id, nil)
			if err != nil {
				return fmt.Errorf("failed to delete team %d: %w", id, err)
			}
			if deleted == 0 {
				return ErrTeamNotFound
			}
			return nil
		})
}

func mapTeamRepoError(err error, id int) error {
	switch {
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return fmt.Errorf("team repository failure (id: %d): %w", id, err)
	}
}
