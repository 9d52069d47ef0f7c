package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scrolla/backend/internal/auth"
	"github.com/scrolla/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)

	user := models.User{
		ID:        uuid.NewString(),
		Email:     "alice@example.com",
		Password:  "secret-hash",
		Name:      "Alice",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := models.User{
		ID:        uuid.NewString(),
		Email:     user.Email,
		Password:  "another-hash",
		Name:      "Alice Again",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate email, got %v", err)
	}

	fetched, err := repo.FindByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}

	if fetched.ID != user.ID || fetched.Email != user.Email || fetched.Name != user.Name {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}
	if fetched.IsProSubscription {
		t.Fatal("new users must not start on the pro tier")
	}

	byID, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Email != user.Email {
		t.Fatalf("unexpected user fetched by id: %+v", byID)
	}

	updated := user
	updated.Name = "Alice Updated"
	updated.IsProSubscription = true
	updated.ProfilePicture = "https://cdn.example.com/alice.png"
	updated.UpdatedAt = time.Now().UTC().Add(time.Minute)

	if err := repo.Update(ctx, updated); err != nil {
		t.Fatalf("update user: %v", err)
	}

	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}

	if fetched.Name != updated.Name || !fetched.IsProSubscription || fetched.ProfilePicture != updated.ProfilePicture {
		t.Fatalf("expected updated fields to persist, got %+v", fetched)
	}

	missing := models.User{
		ID:        uuid.NewString(),
		Email:     "missing@example.com",
		Password:  "hash",
		UpdatedAt: time.Now().UTC(),
	}

	if err := repo.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing user, got %v", err)
	}

	if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestPostgresSessionStore_SaveFindAndDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, userRepo, "owner@example.com")

	store := NewPostgresSessionStore(testPool)
	now := time.Now().UTC()
	session := auth.Session{
		AccessToken:      uuid.NewString(),
		RefreshToken:     uuid.NewString(),
		UserID:           user.ID,
		AccessExpiresAt:  now.Add(time.Hour),
		RefreshExpiresAt: now.Add(24 * time.Hour),
	}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, err := store.FindByRefresh(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find by refresh: %v", err)
	}
	if loaded.UserID != session.UserID || loaded.AccessToken != session.AccessToken {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}

	loaded, err = store.FindByAccess(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("find by access: %v", err)
	}
	if loaded.RefreshToken != session.RefreshToken {
		t.Fatalf("unexpected session loaded by access token: %+v", loaded)
	}
	if !timesClose(loaded.RefreshExpiresAt, session.RefreshExpiresAt, time.Millisecond) {
		t.Fatalf("expected refresh expiry %v got %v", session.RefreshExpiresAt, loaded.RefreshExpiresAt)
	}

	rotated := session
	rotated.AccessToken = uuid.NewString()
	rotated.AccessExpiresAt = now.Add(2 * time.Hour)
	if err := store.Save(ctx, rotated); err != nil {
		t.Fatalf("rotate session: %v", err)
	}

	loaded, err = store.FindByRefresh(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find after rotation: %v", err)
	}
	if loaded.AccessToken != rotated.AccessToken {
		t.Fatalf("expected rotated access token, got %+v", loaded)
	}

	if err := store.Delete(ctx, session.RefreshToken); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	if _, err := store.FindByRefresh(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}

	if err := store.Delete(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound deleting twice, got %v", err)
	}
}

func TestPostgresVideoRepository_AppendListAndLike(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "owner@example.com")
	other := createTestUser(t, userRepo, "other@example.com")

	repo := NewPostgresVideoRepository(testPool)

	first := []models.Video{
		{URL: "https://cdn.example.com/1.mp4", Title: "Video 1", Category: "generated"},
		{URL: "https://cdn.example.com/2.mp4", Title: "Video 2", Category: "generated"},
	}
	if err := repo.Append(ctx, owner.ID, first); err != nil {
		t.Fatalf("append first batch: %v", err)
	}

	second := []models.Video{
		{URL: "https://cdn.example.com/3.mp4", Title: "Video 3", Category: "generated"},
	}
	if err := repo.Append(ctx, owner.ID, second); err != nil {
		t.Fatalf("append second batch: %v", err)
	}

	if err := repo.Append(ctx, other.ID, []models.Video{{URL: "https://cdn.example.com/x.mp4", Title: "Other"}}); err != nil {
		t.Fatalf("append for other user: %v", err)
	}

	list, err := repo.ListForUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}

	if len(list) != 3 {
		t.Fatalf("expected 3 videos, got %d", len(list))
	}
	for i, want := range []string{"Video 1", "Video 2", "Video 3"} {
		if list[i].Title != want {
			t.Fatalf("expected %q at index %d, got %q", want, i, list[i].Title)
		}
	}

	if err := repo.SetLiked(ctx, owner.ID, 1, true); err != nil {
		t.Fatalf("set liked: %v", err)
	}

	list, err = repo.ListForUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list after like: %v", err)
	}

	if !list[1].Liked {
		t.Fatal("expected index 1 to be liked")
	}
	if list[0].Liked || list[2].Liked {
		t.Fatal("like must only affect the addressed index")
	}

	otherList, err := repo.ListForUser(ctx, other.ID)
	if err != nil {
		t.Fatalf("list other user: %v", err)
	}
	if len(otherList) != 1 || otherList[0].Liked {
		t.Fatalf("other user's collection must be unaffected: %+v", otherList)
	}

	if err := repo.SetLiked(ctx, owner.ID, 99, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for out-of-range index, got %v", err)
	}

	if err := repo.Append(ctx, owner.ID, nil); err != nil {
		t.Fatalf("append of empty batch must be a no-op: %v", err)
	}
}

func TestPostgresVideoRepository_AppendUnknownUser(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresVideoRepository(testPool)

	err := repo.Append(ctx, uuid.NewString(), []models.Video{{URL: "https://cdn.example.com/1.mp4"}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE user_videos, sessions, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, email string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  "password-hash",
		Name:      "Test User",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func timesClose(a, b time.Time, delta time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= delta
}
