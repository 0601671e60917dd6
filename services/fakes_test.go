package services

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/team-roster/models"
	"github.com/Dosada05/team-roster/repositories"
	"github.com/Dosada05/team-roster/storage"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

// memDB is an in-memory stand-in for the teams/players tables.
type memDB struct {
	mu         sync.Mutex
	teams      map[int]models.Team
	players    map[int]models.Player
	nextTeam   int
	nextPlayer int
	// fail maps "table.Method" to an error returned by that call.
	fail map[string]error
}

type memState struct {
	teams      map[int]models.Team
	players    map[int]models.Player
	nextTeam   int
	nextPlayer int
}

func newMemDB() *memDB {
	return &memDB{
		teams:   map[int]models.Team{},
		players: map[int]models.Player{},
		fail:    map[string]error{},
	}
}

func (d *memDB) snapshot() memState {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := memState{
		teams:      make(map[int]models.Team, len(d.teams)),
		players:    make(map[int]models.Player, len(d.players)),
		nextTeam:   d.nextTeam,
		nextPlayer: d.nextPlayer,
	}
	for k, v := range d.teams {
		s.teams[k] = v
	}
	for k, v := range d.players {
		s.players[k] = v
	}
	return s
}

func (d *memDB) restore(s memState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.teams = s.teams
	d.players = s.players
	d.nextTeam = s.nextTeam
	d.nextPlayer = s.nextPlayer
}

func matches(filter repositories.Filter, id, teamID int) bool {
	for column, value := range filter {
		switch column {
		case "id":
			if value.(int) != id {
				return false
			}
		case "team_id":
			if value.(int) != teamID {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// fakeTransactor restores the memDB snapshot when fn or the commit fails.
type fakeTransactor struct {
	db        *memDB
	commitErr error
	calls     int
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, exec repositories.SQLExecutor) error) error {
	t.calls++
	snap := t.db.snapshot()
	err := fn(ctx, nil)
	if err == nil && t.commitErr != nil {
		err = t.commitErr
	}
	if err != nil {
		t.db.restore(snap)
	}
	return err
}

type memTeamRepo struct{ db *memDB }

func (r *memTeamRepo) List(_ context.Context, _ repositories.SQLExecutor, filter repositories.Filter) ([]models.Team, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Team
	for _, t := range r.db.teams {
		if matches(filter, t.ID, 0) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTeamRepo) Create(_ context.Context, _ repositories.SQLExecutor, team *models.Team) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail["teams.Create"]; err != nil {
		return err
	}
	r.db.nextTeam++
	team.ID = r.db.nextTeam
	team.CreatedAt = time.Now()
	team.UpdatedAt = team.CreatedAt
	r.db.teams[team.ID] = *team
	return nil
}

func (r *memTeamRepo) GetOrFail(_ context.Context, _ repositories.SQLExecutor, id int, filter repositories.Filter) (*models.Team, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.teams[id]
	if !ok || !matches(filter, t.ID, 0) {
		return nil, repositories.ErrTeamNotFound
	}
	return &t, nil
}

func (r *memTeamRepo) Update(_ context.Context, _ repositories.SQLExecutor, id int, input repositories.TeamUpdate, filter repositories.Filter) (*models.Team, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail["teams.Update"]; err != nil {
		return nil, err
	}
	t, ok := r.db.teams[id]
	if !ok || !matches(filter, t.ID, 0) {
		return nil, repositories.ErrTeamNotFound
	}
	if input.Name != nil {
		t.Name = *input.Name
	}
	if input.LogoPath != nil {
		t.LogoPath = *input.LogoPath
	}
	t.UpdatedAt = time.Now()
	r.db.teams[id] = t
	return &t, nil
}

func (r *memTeamRepo) DeleteOne(_ context.Context, _ repositories.SQLExecutor, id int, filter repositories.Filter) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail["teams.DeleteOne"]; err != nil {
		return 0, err
	}
	t, ok := r.db.teams[id]
	if !ok || !matches(filter, t.ID, 0) {
		return 0, nil
	}
	delete(r.db.teams, id)
	return 1, nil
}

func (r *memTeamRepo) DeleteMany(_ context.Context, _ repositories.SQLExecutor, filter repositories.Filter) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, t := range r.db.teams {
		if matches(filter, t.ID, 0) {
			delete(r.db.teams, id)
			n++
		}
	}
	return n, nil
}

type memPlayerRepo struct{ db *memDB }

func (r *memPlayerRepo) List(_ context.Context, _ repositories.SQLExecutor, filter repositories.Filter) ([]models.Player, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Player
	for _, p := range r.db.players {
		if matches(filter, p.ID, p.TeamID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memPlayerRepo) Create(_ context.Context, _ repositories.SQLExecutor, player *models.Player) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail["players.Create"]; err != nil {
		return err
	}
	if _, ok := r.db.teams[player.TeamID]; !ok {
		return repositories.ErrPlayerTeamInvalid
	}
	r.db.nextPlayer++
	player.ID = r.db.nextPlayer
	player.CreatedAt = time.Now()
	player.UpdatedAt = player.CreatedAt
	r.db.players[player.ID] = *player
	return nil
}

func (r *memPlayerRepo) GetOrFail(_ context.Context, _ repositories.SQLExecutor, id int, filter repositories.Filter) (*models.Player, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.players[id]
	if !ok || !matches(filter, p.ID, p.TeamID) {
		return nil, repositories.ErrPlayerNotFound
	}
	return &p, nil
}

func (r *memPlayerRepo) Update(_ context.Context, _ repositories.SQLExecutor, id int, input repositories.PlayerUpdate, filter repositories.Filter) (*models.Player, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail["players.Update"]; err != nil {
		return nil, err
	}
	p, ok := r.db.players[id]
	if !ok || !matches(filter, p.ID, p.TeamID) {
		return nil, repositories.ErrPlayerNotFound
	}
	if input.FirstName != nil {
		p.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		p.LastName = *input.LastName
	}
	if input.ProfileImagePath != nil {
		p.ProfileImagePath = *input.ProfileImagePath
	}
	p.UpdatedAt = time.Now()
	r.db.players[id] = p
	return &p, nil
}

func (r *memPlayerRepo) DeleteOne(_ context.Context, _ repositories.SQLExecutor, id int, filter repositories.Filter) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail["players.DeleteOne"]; err != nil {
		return 0, err
	}
	p, ok := r.db.players[id]
	if !ok || !matches(filter, p.ID, p.TeamID) {
		return 0, nil
	}
	delete(r.db.players, id)
	return 1, nil
}

func (r *memPlayerRepo) DeleteMany(_ context.Context, _ repositories.SQLExecutor, filter repositories.Filter) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail["players.DeleteMany"]; err != nil {
		return 0, err
	}
	var n int64
	for id, p := range r.db.players {
		if matches(filter, p.ID, p.TeamID) {
			delete(r.db.players, id)
			n++
		}
	}
	return n, nil
}

func (r *memPlayerRepo) ListAssetPaths(_ context.Context, _ repositories.SQLExecutor, filter repositories.Filter) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []string
	for _, p := range r.db.players {
		if matches(filter, p.ID, p.TeamID) && p.ProfileImagePath != "" {
			out = append(out, p.ProfileImagePath)
		}
	}
	sort.Strings(out)
	return out, nil
}

// flakyBlobStore lets tests break individual BlobStore calls.
type flakyBlobStore struct {
	storage.BlobStore
	putErr    error
	deleteErr error
	puts      int
}

func (f *flakyBlobStore) Put(ctx context.Context, file storage.File, prefix string) (string, error) {
	f.puts++
	if f.putErr != nil {
		return "", f.putErr
	}
	return f.BlobStore.Put(ctx, file, prefix)
}

func (f *flakyBlobStore) Delete(ctx context.Context, paths ...string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.BlobStore.Delete(ctx, paths...)
}

type testEnv struct {
	db      *memDB
	tx      *fakeTransactor
	blobs   *flakyBlobStore
	root    string
	logs    *bytes.Buffer
	teams   TeamService
	players PlayerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	local, err := storage.NewLocalStore(storage.LocalStoreConfig{
		Root:          root,
		PublicBaseURL: "http://localhost:8080/storage",
	})
	require.NoError(t, err)

	mem := newMemDB()
	tx := &fakeTransactor{db: mem}
	blobs := &flakyBlobStore{BlobStore: local}
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, nil))

	assets := NewAssetManager(tx, blobs, logger)
	teamRepo := &memTeamRepo{db: mem}
	playerRepo := &memPlayerRepo{db: mem}

	return &testEnv{
		db:      mem,
		tx:      tx,
		blobs:   blobs,
		root:    root,
		logs:    logs,
		teams:   NewTeamService(teamRepo, playerRepo, assets),
		players: NewPlayerService(teamRepo, playerRepo, assets),
	}
}

func (e *testEnv) blobExists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := e.blobs.Exists(context.Background(), path)
	require.NoError(t, err)
	return ok
}

// blobCount returns the number of files stored under prefix.
func (e *testEnv) blobCount(t *testing.T, prefix string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(filepath.Join(e.root, prefix), func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func imageFile(content string) *storage.File {
	return &storage.File{
		Reader:      bytes.NewReader([]byte(content)),
		Size:        int64(len(content)),
		ContentType: "image/png",
		Extension:   ".png",
	}
}

func (e *testEnv) mustCreateTeam(t *testing.T, name string) *models.Team {
	t.Helper()
	team, err := e.teams.CreateTeam(context.Background(), CreateTeamInput{Name: name, Logo: imageFile("logo of " + name)})
	require.NoError(t, err)
	return team
}

func (e *testEnv) mustCreatePlayer(t *testing.T, teamID int, first, last string) *models.Player {
	t.Helper()
	player, err := e.players.CreatePlayer(context.Background(), teamID, CreatePlayerInput{
		FirstName:    first,
		LastName:     last,
		ProfileImage: imageFile("photo of " + first),
	})
	require.NoError(t, err)
	return player
}
