package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS users (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	address    TEXT NOT NULL DEFAULT '',
	about      TEXT NOT NULL DEFAULT '',
	number     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS users_created_at_idx ON users (created_at DESC, id DESC);
`

// Repository provides PostgreSQL backed persistence for user records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the users table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure users schema: %w", err)
	}
	return nil
}

// Create inserts a user and returns it with the assigned id and timestamp.
func (r *Repository) Create(ctx context.Context, in Input) (User, error) {
	u := User{
		Name:    in.Name,
		Email:   in.Email,
		Address: in.Address,
		About:   in.About,
		Number:  in.Number,
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, address, about, number)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		in.Name, in.Email, in.Address, in.About, in.Number,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Get fetches a single user by id.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, address, about, number, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Address, &u.About, &u.Number, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// List returns one page of users ordered newest first, plus the total count.
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, address, about, number, created_at
		 FROM users
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	list, err := scanUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListAll returns every user ordered newest first. Used by the report.
func (r *Repository) ListAll(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, address, about, number, created_at
		 FROM users
		 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list all users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// Update overwrites every field except id and created_at.
func (r *Repository) Update(ctx context.Context, id int64, in Input) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET name = $2, email = $3, address = $4, about = $5, number = $6
		 WHERE id = $1`,
		id, in.Name, in.Email, in.Address, in.About, in.Number,
	)
	if err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkCreate inserts a batch of users in a single transaction using the
// COPY protocol. Either every row becomes visible or none do; a cancelled
// context aborts the transaction before commit.
func (r *Repository) BulkCreate(ctx context.Context, batch []User) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback(ctx)

	rows := make([][]any, len(batch))
	for i, u := range batch {
		created := u.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		rows[i] = []any{u.Name, u.Email, u.Address, u.About, u.Number, created}
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"users"},
		[]string{"name", "email", "address", "about", "number", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy users: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit bulk insert: %w", err)
	}
	return n, nil
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	var list []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Address, &u.About, &u.Number, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return list, nil
}
