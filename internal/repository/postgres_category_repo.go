package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/lendman/internal/model"
)

// PostgresCategoryRepo はPostgreSQLを使用した分類リポジトリ。
type PostgresCategoryRepo struct {
	q Querier
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(q Querier) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{q: q}
}

const categoryColumns = `id, description, notes, created_at, updated_at`

// FindByID は指定IDの分類を取得する。見つからない場合はnilを返す。
func (r *PostgresCategoryRepo) FindByID(ctx context.Context, id int64) (*model.Category, error) {
	category := &model.Category{}
	err := r.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`,
		id,
	).Scan(
		&category.ID, &category.Description, &category.Notes,
		&category.CreatedAt, &category.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("分類の取得に失敗しました: %w", err)
	}
	return category, nil
}

// List は全分類を返す。
func (r *PostgresCategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY description ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("分類一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var category model.Category
		if err := rows.Scan(
			&category.ID, &category.Description, &category.Notes,
			&category.CreatedAt, &category.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("分類行の読み取りに失敗しました: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("分類一覧の走査に失敗しました: %w", err)
	}
	return categories, nil
}

// Create は分類を登録し、採番されたIDをcategory.IDに書き戻す。
func (r *PostgresCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO categories (description, notes)
		 VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		category.Description, category.Notes,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("分類の登録に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
