package repositories

import (
	"context"
	"errors"
	"fmt"

	crdbpgxv5 "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/scrolla/backend/internal/db"
	"github.com/scrolla/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, name, is_pro_subscription, profile_picture, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, user.ID, user.Email, user.Password, user.Name, user.IsProSubscription, user.ProfilePicture, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by their identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, userID string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, password_hash, name, is_pro_subscription, profile_picture, created_at, updated_at
        FROM users
        WHERE id = $1
    `, userID)

	return scanUser(row, "select user by id")
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, password_hash, name, is_pro_subscription, profile_picture, created_at, updated_at
        FROM users
        WHERE email = $1
    `, email)

	return scanUser(row, "select user by email")
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, password_hash = $3, name = $4, is_pro_subscription = $5, profile_picture = $6, updated_at = $7
        WHERE id = $1
    `, user.ID, user.Email, user.Password, user.Name, user.IsProSubscription, user.ProfilePicture, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanUser(row pgx.Row, op string) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &user.Name, &user.IsProSubscription, &user.ProfilePicture, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for a user's
// generated video collection. Rows are keyed by (user_id, position) so the
// collection keeps its insertion order and individual entries can be addressed
// by index.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Append stores the provided videos after the user's existing collection.
// The position computation and inserts run in a single retryable transaction
// so concurrent appends for the same user cannot interleave positions.
func (r *PostgresVideoRepository) Append(ctx context.Context, userID string, videos []models.Video) error {
	if len(videos) == 0 {
		return nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var next int
		row := tx.QueryRow(ctx, `
            SELECT COALESCE(MAX(position) + 1, 0)
            FROM user_videos
            WHERE user_id = $1
        `, userID)
		if err := row.Scan(&next); err != nil {
			return fmt.Errorf("select next position: %w", err)
		}

		for i, video := range videos {
			_, err := tx.Exec(ctx, `
                INSERT INTO user_videos (user_id, position, url, title, category, liked)
                VALUES ($1, $2, $3, $4, $5, $6)
            `, userID, next+i, video.URL, video.Title, video.Category, video.Liked)
			if err != nil {
				return fmt.Errorf("insert video at position %d: %w", next+i, err)
			}
		}

		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("append videos: %w", err)
	}

	return nil
}

// ListForUser returns the user's videos in insertion order.
func (r *PostgresVideoRepository) ListForUser(ctx context.Context, userID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT url, title, category, liked
        FROM user_videos
        WHERE user_id = $1
        ORDER BY position ASC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query user videos: %w", err)
	}
	defer rows.Close()

	var list []models.Video
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(&video.URL, &video.Title, &video.Category, &video.Liked); err != nil {
			return nil, fmt.Errorf("scan user video: %w", err)
		}
		list = append(list, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user videos: %w", err)
	}

	return list, nil
}

// SetLiked updates the liked flag for the video at the given index.
func (r *PostgresVideoRepository) SetLiked(ctx context.Context, userID string, index int, liked bool) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE user_videos
        SET liked = $3
        WHERE user_id = $1 AND position = $2
    `, userID, index, liked)
	if err != nil {
		return fmt.Errorf("update video liked flag: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
