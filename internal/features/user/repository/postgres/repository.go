package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"accounts-backend/internal/features/user/models"
	"accounts-backend/internal/features/user/repository"
)

const uniqueViolation = "23505"

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.UserRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, email, age, password_hash, role, last_connection)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email,
		user.Age, user.PasswordHash, string(user.Role))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return repository.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, first_name, last_name, email, age, password_hash, role, last_connection, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, first_name, last_name, email, age, password_hash, role, last_connection, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.getOne(ctx, query, email)
}

func (r *postgresRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	var role string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Age,
		&user.PasswordHash, &role, &user.LastConnection, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Role = models.Role(role)

	docs, err := r.loadDocuments(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Documents = docs

	return &user, nil
}

// loadDocuments returns the user's ledger in insertion order.
func (r *postgresRepository) loadDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	query := `
		SELECT id, name, reference, created_at
		FROM documents
		WHERE user_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Reference, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func (r *postgresRepository) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return nil, repository.ErrUserNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *postgresRepository) AppendDocument(ctx context.Context, id string, doc models.Document) (*models.User, error) {
	query := `
		INSERT INTO documents (user_id, name, reference)
		SELECT id, $2, $3 FROM users WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, doc.Name, doc.Reference)
	if err != nil {
		return nil, fmt.Errorf("failed to append document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return nil, repository.ErrUserNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *postgresRepository) TouchLastConnection(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET last_connection = NOW(), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to update last connection: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}
