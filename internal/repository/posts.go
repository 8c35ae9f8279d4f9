package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/weavd/internal/model"
)

// ErrNotFound is returned when no post has the requested id.
var ErrNotFound = errors.New("post not found")

// Store is the document store for posts. Lists are newest first.
type Store interface {
	Create(ctx context.Context, post *model.Post) error
	Get(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, limit int) ([]model.Post, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Post, error)
	Delete(ctx context.Context, id string) error
}

// PostRepository wraps all SQL used for posts.
type PostRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository constructs a repository.
func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

const postColumns = `id, user_id, item_name, description, images, color_tags, item_tags, created_at`

// Create inserts a post and reads back the database-assigned created_at.
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	images, err := json.Marshal(nonNil(post.Images))
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO posts (id, user_id, item_name, description, images, color_tags, item_tags)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, post.ID, post.UserID, post.ItemName, post.Description, images, nonNil(post.ColorTags), nonNil(post.ItemTags))
	if err := row.Scan(&post.CreatedAt); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// Get returns a post by id.
func (r *PostRepository) Get(ctx context.Context, id string) (*model.Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select post: %w", err)
	}
	return post, nil
}

// List returns the feed.
func (r *PostRepository) List(ctx context.Context, limit int) ([]model.Post, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+postColumns+` FROM posts ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return collect(rows)
}

// ListByUser returns one user's closet.
func (r *PostRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list user posts: %w", err)
	}
	return collect(rows)
}

// Delete removes a post.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var (
		post   model.Post
		images []byte
	)
	if err := row.Scan(&post.ID, &post.UserID, &post.ItemName, &post.Description, &images, &post.ColorTags, &post.ItemTags, &post.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(images, &post.Images); err != nil {
		return nil, fmt.Errorf("decode images of %s: %w", post.ID, err)
	}
	return &post, nil
}

func collect(rows pgx.Rows) ([]model.Post, error) {
	defer rows.Close()
	out := []model.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
