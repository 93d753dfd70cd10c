package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Diego23-co/GoPredict/internal/domain/account"
	qb "github.com/Diego23-co/GoPredict/internal/platform/querybuilder"
)

type accountTableModel struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Verified     bool      `db:"verified"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type accountInsertModel struct {
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Verified     bool      `db:"verified"`
	CreatedAt    time.Time `db:"created_at"`
}

func (m accountTableModel) toDomain() account.Account {
	return account.Account{
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Verified:     m.Verified,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, a account.Account) error {
	insertModel := accountInsertModel{
		Username:     a.Username,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Verified:     a.Verified,
		CreatedAt:    a.CreatedAt,
	}
	if insertModel.CreatedAt.IsZero() {
		insertModel.CreatedAt = time.Now().UTC()
	}

	// Covers both the username and the email unique constraints.
	query, args, err := qb.InsertModel("accounts", insertModel, "ON CONFLICT DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert account query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert account rows affected: %w", err)
	}
	if inserted == 0 {
		return account.ErrDuplicate
	}
	return nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (account.Account, error) {
	return r.getByColumn(ctx, "username", username)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	return r.getByColumn(ctx, "email", email)
}

func (r *AccountRepository) getByColumn(ctx context.Context, column, value string) (account.Account, error) {
	query, args, err := qb.Select("*").From("accounts").
		Where(qb.Eq(column, value)).
		ToSQL()
	if err != nil {
		return account.Account{}, fmt.Errorf("build select account query: %w", err)
	}

	var row accountTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, fmt.Errorf("select account: %w", err)
	}

	return row.toDomain(), nil
}

func (r *AccountRepository) Update(ctx context.Context, a account.Account) error {
	query, args, err := qb.Update("accounts").
		Set("email", a.Email).
		Set("password_hash", a.PasswordHash).
		Set("verified", a.Verified).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("username", a.Username)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update account query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account rows affected: %w", err)
	}
	if updated == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context) ([]account.Account, error) {
	query, args, err := qb.Select("*").From("accounts").
		OrderBy("username").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select accounts query: %w", err)
	}

	var rows []accountTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}

	out := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
