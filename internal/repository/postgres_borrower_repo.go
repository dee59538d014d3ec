package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/lendman/internal/model"
)

// PostgresBorrowerRepo はPostgreSQLを使用した利用者リポジトリ。
type PostgresBorrowerRepo struct {
	q Querier
}

// NewPostgresBorrowerRepo はPostgresBorrowerRepoを生成する。
func NewPostgresBorrowerRepo(q Querier) *PostgresBorrowerRepo {
	return &PostgresBorrowerRepo{q: q}
}

const borrowerColumns = `id, first_name, last_name, address, email, active, created_at, updated_at`

// FindByID は指定IDの利用者を取得する。見つからない場合はnilを返す。
func (r *PostgresBorrowerRepo) FindByID(ctx context.Context, id int64) (*model.Borrower, error) {
	borrower := &model.Borrower{}
	err := r.q.QueryRowContext(ctx,
		`SELECT `+borrowerColumns+` FROM borrowers WHERE id = $1`,
		id,
	).Scan(
		&borrower.ID, &borrower.FirstName, &borrower.LastName, &borrower.Address,
		&borrower.Email, &borrower.Active, &borrower.CreatedAt, &borrower.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("利用者の取得に失敗しました: %w", err)
	}
	return borrower, nil
}

// List は全利用者を返す。
func (r *PostgresBorrowerRepo) List(ctx context.Context) ([]model.Borrower, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+borrowerColumns+` FROM borrowers ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("利用者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var borrowers []model.Borrower
	for rows.Next() {
		var borrower model.Borrower
		if err := rows.Scan(
			&borrower.ID, &borrower.FirstName, &borrower.LastName, &borrower.Address,
			&borrower.Email, &borrower.Active, &borrower.CreatedAt, &borrower.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("利用者行の読み取りに失敗しました: %w", err)
		}
		borrowers = append(borrowers, borrower)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("利用者一覧の走査に失敗しました: %w", err)
	}
	return borrowers, nil
}

// Create は利用者を登録し、採番されたIDをborrower.IDに書き戻す。
func (r *PostgresBorrowerRepo) Create(ctx context.Context, borrower *model.Borrower) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO borrowers (first_name, last_name, address, email, active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		borrower.FirstName, borrower.LastName, borrower.Address, borrower.Email, borrower.Active,
	).Scan(&borrower.ID, &borrower.CreatedAt, &borrower.UpdatedAt)
	if err != nil {
		return fmt.Errorf("利用者の登録に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ BorrowerRepository = (*PostgresBorrowerRepo)(nil)
