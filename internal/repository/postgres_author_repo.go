package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/lendman/internal/model"
)

// PostgresAuthorRepo はPostgreSQLを使用した著者リポジトリ。
type PostgresAuthorRepo struct {
	q Querier
}

// NewPostgresAuthorRepo はPostgresAuthorRepoを生成する。
func NewPostgresAuthorRepo(q Querier) *PostgresAuthorRepo {
	return &PostgresAuthorRepo{q: q}
}

const authorColumns = `id, first_name, last_name, nationality, notes, created_at, updated_at`

// FindByID は指定IDの著者を取得する。見つからない場合はnilを返す。
func (r *PostgresAuthorRepo) FindByID(ctx context.Context, id int64) (*model.Author, error) {
	author := &model.Author{}
	err := r.q.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors WHERE id = $1`,
		id,
	).Scan(
		&author.ID, &author.FirstName, &author.LastName, &author.Nationality,
		&author.Notes, &author.CreatedAt, &author.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("著者の取得に失敗しました: %w", err)
	}
	return author, nil
}

// List は全著者を返す。
func (r *PostgresAuthorRepo) List(ctx context.Context) ([]model.Author, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+authorColumns+` FROM authors ORDER BY last_name ASC, first_name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("著者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var authors []model.Author
	for rows.Next() {
		var author model.Author
		if err := rows.Scan(
			&author.ID, &author.FirstName, &author.LastName, &author.Nationality,
			&author.Notes, &author.CreatedAt, &author.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("著者行の読み取りに失敗しました: %w", err)
		}
		authors = append(authors, author)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("著者一覧の走査に失敗しました: %w", err)
	}
	return authors, nil
}

// Create は著者を登録し、採番されたIDをauthor.IDに書き戻す。
func (r *PostgresAuthorRepo) Create(ctx context.Context, author *model.Author) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO authors (first_name, last_name, nationality, notes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		author.FirstName, author.LastName, author.Nationality, author.Notes,
	).Scan(&author.ID, &author.CreatedAt, &author.UpdatedAt)
	if err != nil {
		return fmt.Errorf("著者の登録に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AuthorRepository = (*PostgresAuthorRepo)(nil)
