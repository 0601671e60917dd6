package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/team-roster/middleware"
	"github.com/Dosada05/team-roster/models"
	"github.com/Dosada05/team-roster/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type stubTeamService struct {
	teams   map[int]*models.Team
	err     error
	created *services.CreateTeamInput
	updated *services.UpdateTeamInput
	deleted []int
}

func newStubTeamService() *stubTeamService {
	logo := "http://localhost/storage/logos/a.png"
	return &stubTeamService{teams: map[int]*models.Team{
		1: {ID: 1, Name: "Eagles", LogoPath: "logos/a.png", LogoURL: &logo},
	}}
}

func (s *stubTeamService) ListTeams(context.Context) ([]models.Team, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []models.Team{}
	for _, t := range s.teams {
		out = append(out, *t)
	}
	return out, nil
}

func (s *stubTeamService) GetTeam(_ context.Context, id int) (*models.Team, error) {
	t, ok := s.teams[id]
	if !ok {
		return nil, services.ErrTeamNotFound
	}
	return t, nil
}

func (s *stubTeamService) CreateTeam(_ context.Context, input services.CreateTeamInput) (*models.Team, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = &input
	t := &models.Team{ID: 2, Name: input.Name, LogoPath: "logos/b" + input.Logo.Extension}
	s.teams[t.ID] = t
	return t, nil
}

func (s *stubTeamService) UpdateTeam(_ context.Context, id int, input services.UpdateTeamInput) (*models.Team, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.updated = &input
	t := s.teams[id]
	t.Name = input.Name
	return t, nil
}

func (s *stubTeamService) DeleteTeam(_ context.Context, id int) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.teams[id]; !ok {
		return services.ErrTeamNotFound
	}
	s.deleted = append(s.deleted, id)
	delete(s.teams, id)
	return nil
}

type stubPlayerService struct {
	players map[int]*models.Player
	teams   *stubTeamService
	created *services.CreatePlayerInput
	updated *services.UpdatePlayerInput
}

func (s *stubPlayerService) lookup(teamID, playerID int) (*models.Player, error) {
	if _, ok := s.teams.teams[teamID]; !ok {
		return nil, services.ErrTeamNotFound
	}
	p, ok := s.players[playerID]
	if !ok || p.TeamID != teamID {
		return nil, services.ErrPlayerNotFound
	}
	return p, nil
}

func (s *stubPlayerService) ListPlayers(_ context.Context, teamID int) ([]models.Player, error) {
	if _, ok := s.teams.teams[teamID]; !ok {
		return nil, services.ErrTeamNotFound
	}
	out := []models.Player{}
	for _, p := range s.players {
		if p.TeamID == teamID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubPlayerService) GetPlayer(_ context.Context, teamID, playerID int) (*models.Player, error) {
	return s.lookup(teamID, playerID)
}

func (s *stubPlayerService) CreatePlayer(_ context.Context, teamID int, input services.CreatePlayerInput) (*models.Player, error) {
	s.created = &input
	p := &models.Player{ID: 20, TeamID: teamID, FirstName: input.FirstName, LastName: input.LastName, Team: s.teams.teams[teamID]}
	s.players[p.ID] = p
	return p, nil
}

func (s *stubPlayerService) UpdatePlayer(_ context.Context, teamID, playerID int, input services.UpdatePlayerInput) (*models.Player, error) {
	p, err := s.lookup(teamID, playerID)
	if err != nil {
		return nil, err
	}
	s.updated = &input
	p.FirstName, p.LastName = input.FirstName, input.LastName
	return p, nil
}

func (s *stubPlayerService) DeletePlayer(_ context.Context, teamID, playerID int) error {
	if _, err := s.lookup(teamID, playerID); err != nil {
		return err
	}
	delete(s.players, playerID)
	return nil
}

type stubAuthService struct {
	services.AuthService
	loggedOut string
	err       error
}

func (s *stubAuthService) Login(_ context.Context, input services.LoginInput) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if input.Email != "admin@example.com" || input.Password != "secret123" {
		return "", (&services.ValidationError{Message: services.ErrInvalidCredentials.Error()}).
			Add("email", services.ErrInvalidCredentials.Error())
	}
	return "signed-token", nil
}

func (s *stubAuthService) Logout(_ context.Context, tokenID string) error {
	s.loggedOut = tokenID
	return s.err
}

type testAPI struct {
	router  http.Handler
	teams   *stubTeamService
	players *stubPlayerService
	auth    *stubAuthService
}

// newTestAPI mounts the handlers the same way the application does, minus
// authentication: every request carries an admin principal.
func newTestAPI() *testAPI {
	teams := newStubTeamService()
	players := &stubPlayerService{teams: teams, players: map[int]*models.Player{
		10: {ID: 10, TeamID: 1, FirstName: "Ann", LastName: "Smith", Team: teams.teams[1]},
	}}
	auth := &stubAuthService{}

	th := NewTeamHandler(teams)
	ph := NewPlayerHandler(teams, players)
	ah := NewAuthHandler(auth)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			principal := &services.Principal{User: &models.User{ID: 1, Name: "Admin", Email: "admin@example.com", IsAdmin: true}, TokenID: "tok"}
			next.ServeHTTP(w, req.WithContext(middleware.WithPrincipal(req.Context(), principal)))
		})
	})
	r.Post("/v1/login", ah.Login)
	r.Delete("/v1/session", ah.Logout)
	r.Get("/v1/user", ah.CurrentUser)
	r.Get("/v1/teams", th.ListTeams)
	r.Post("/v1/teams", th.CreateTeam)
	r.Get("/v1/teams/{team}", th.GetTeam)
	r.Put("/v1/teams/{team}", th.UpdateTeam)
	r.Delete("/v1/teams/{team}", th.DeleteTeam)
	r.Get("/v1/teams/{team}/players", ph.ListPlayers)
	r.Post("/v1/teams/{team}/players", ph.CreatePlayer)
	r.Get("/v1/teams/{team}/players/{player}", ph.GetPlayer)
	r.Put("/v1/teams/{team}/players/{player}", ph.UpdatePlayer)
	r.Delete("/v1/teams/{team}/players/{player}", ph.DeletePlayer)

	return &testAPI{router: r, teams: teams, players: players, auth: auth}
}

func (a *testAPI) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func serveFunc(h http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rec
}
