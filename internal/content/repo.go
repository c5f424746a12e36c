package content

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrPostNotFound = errors.New("post not found")

type Post struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Blocks    []Block   `json:"blocks"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, slug, title string, blocks []Block) (string, error) {
	if err := ValidateBlocks(blocks); err != nil {
		return "", err
	}
	b, err := json.Marshal(blocks)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.DB.Exec(ctx, `
		INSERT INTO blog_posts(id, slug, title, blocks, published)
		VALUES ($1,$2,$3,$4,false)`, id, slug, title, b)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repo) Update(ctx context.Context, id, title string, blocks []Block, published bool) error {
	if err := ValidateBlocks(blocks); err != nil {
		return err
	}
	b, err := json.Marshal(blocks)
	if err != nil {
		return err
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE blog_posts SET title=$2, blocks=$3, published=$4, updated_at=now()
		WHERE id=$1`, id, title, b, published)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// GetPublished serves the public blog; drafts are invisible here.
func (r *Repo) GetPublished(ctx context.Context, slug string) (Post, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, slug, title, blocks, published, created_at, updated_at
		FROM blog_posts WHERE slug=$1 AND published`, slug)
	return scanPost(row)
}

func (r *Repo) ListPublished(ctx context.Context) ([]Post, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, slug, title, blocks, published, created_at, updated_at
		FROM blog_posts WHERE published ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	var raw []byte
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &raw, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrPostNotFound
	}
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(raw, &p.Blocks); err != nil {
		return p, err
	}
	return p, nil
}
