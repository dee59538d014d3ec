package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/lendman/internal/model"
)

// PostgresBookRepo はPostgreSQLを使用した蔵書リポジトリ。
// Querierを受け取るため、単発クエリとトランザクション内の両方で使用できる。
type PostgresBookRepo struct {
	q Querier
}

// NewPostgresBookRepo はPostgresBookRepoを生成する。
func NewPostgresBookRepo(q Querier) *PostgresBookRepo {
	return &PostgresBookRepo{q: q}
}

const bookColumns = `isbn, title, publisher, published_on, category_id, author_id, notes, available, created_at, updated_at`

func scanBook(row *sql.Row) (*model.Book, error) {
	book := &model.Book{}
	err := row.Scan(
		&book.ISBN, &book.Title, &book.Publisher, &book.PublishedOn,
		&book.CategoryID, &book.AuthorID, &book.Notes, &book.Available,
		&book.CreatedAt, &book.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return book, nil
}

// FindByISBN は指定ISBNの書籍を取得する。見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	book, err := scanBook(r.q.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE isbn = $1`,
		isbn,
	))
	if err != nil {
		return nil, fmt.Errorf("書籍の取得に失敗しました: %w", err)
	}
	return book, nil
}

// FindByISBNForUpdate は指定ISBNの書籍を行ロック付きで取得する。
// 見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByISBNForUpdate(ctx context.Context, isbn string) (*model.Book, error) {
	book, err := scanBook(r.q.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE isbn = $1 FOR UPDATE`,
		isbn,
	))
	if err != nil {
		return nil, fmt.Errorf("書籍の取得（行ロック付き）に失敗しました: %w", err)
	}
	return book, nil
}

// FindWithDetailsByISBN は指定ISBNの書籍を著者・分類付きで取得する。
// 見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindWithDetailsByISBN(ctx context.Context, isbn string) (*model.BookWithDetails, error) {
	query, args, err := buildBookDetailByISBNQuery(isbn)
	if err != nil {
		return nil, err
	}

	detail := &model.BookWithDetails{}
	err = scanBookWithDetails(r.q.QueryRowContext(ctx, query, args...).Scan, detail)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("書籍詳細の取得に失敗しました: %w", err)
	}
	return detail, nil
}

// ListWithDetails は全書籍を著者・分類付きで返す。
func (r *PostgresBookRepo) ListWithDetails(ctx context.Context) ([]model.BookWithDetails, error) {
	query, args, err := buildBookListQuery(false)
	if err != nil {
		return nil, err
	}
	return r.queryBookDetails(ctx, query, args)
}

// ListAvailableWithDetails は貸出可能な書籍のみを著者・分類付きで返す。
func (r *PostgresBookRepo) ListAvailableWithDetails(ctx context.Context) ([]model.BookWithDetails, error) {
	query, args, err := buildBookListQuery(true)
	if err != nil {
		return nil, err
	}
	return r.queryBookDetails(ctx, query, args)
}

// SearchWithDetails はタイトル、ISBN、著者の名・姓のいずれかに
// termを部分文字列として含む書籍を返す。
func (r *PostgresBookRepo) SearchWithDetails(ctx context.Context, term string) ([]model.BookWithDetails, error) {
	query, args, err := buildBookSearchQuery(term)
	if err != nil {
		return nil, err
	}
	return r.queryBookDetails(ctx, query, args)
}

func (r *PostgresBookRepo) queryBookDetails(ctx context.Context, query string, args []any) ([]model.BookWithDetails, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("書籍一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []model.BookWithDetails
	for rows.Next() {
		var detail model.BookWithDetails
		if err := scanBookWithDetails(rows.Scan, &detail); err != nil {
			return nil, fmt.Errorf("書籍行の読み取りに失敗しました: %w", err)
		}
		results = append(results, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("書籍一覧の走査に失敗しました: %w", err)
	}
	return results, nil
}

// scanBookWithDetails はbookDetailColumnsの列順でスキャンする。
func scanBookWithDetails(scan func(dest ...any) error, detail *model.BookWithDetails) error {
	return scan(
		&detail.ISBN, &detail.Title, &detail.Publisher, &detail.PublishedOn,
		&detail.CategoryID, &detail.AuthorID, &detail.Notes, &detail.Available,
		&detail.CreatedAt, &detail.UpdatedAt,
		&detail.Author.ID, &detail.Author.FirstName, &detail.Author.LastName, &detail.Author.Nationality,
		&detail.Category.ID, &detail.Category.Description,
	)
}

// Create は書籍を登録する。
func (r *PostgresBookRepo) Create(ctx context.Context, book *model.Book) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO books (isbn, title, publisher, published_on, category_id, author_id, notes, available)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		book.ISBN, book.Title, book.Publisher, book.PublishedOn,
		book.CategoryID, book.AuthorID, book.Notes, book.Available,
	).Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return fmt.Errorf("書籍の登録に失敗しました: %w", err)
	}
	return nil
}

// UpdateAvailability は書籍の貸出可否フラグを更新する。
// 対象行が存在しない場合もエラーにはしない。返却処理では書籍が
// 蔵書から削除済みでも返却自体は成立させる必要があるため。
func (r *PostgresBookRepo) UpdateAvailability(ctx context.Context, isbn string, available bool) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE books SET available = $2, updated_at = NOW() WHERE isbn = $1`,
		isbn, available,
	)
	if err != nil {
		return fmt.Errorf("貸出可否フラグの更新に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ BookRepository = (*PostgresBookRepo)(nil)
