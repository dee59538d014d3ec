package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/lendman/internal/model"
)

// PostgresLoanRepo はPostgreSQLを使用した貸出記録リポジトリ。
type PostgresLoanRepo struct {
	q Querier
}

// NewPostgresLoanRepo はPostgresLoanRepoを生成する。
func NewPostgresLoanRepo(q Querier) *PostgresLoanRepo {
	return &PostgresLoanRepo{q: q}
}

const loanColumns = `id, isbn, borrower_id, loaned_at, due_at, returned_at, fee, notes, created_at, updated_at`

func scanLoan(row *sql.Row) (*model.Loan, error) {
	loan := &model.Loan{}
	err := row.Scan(
		&loan.ID, &loan.ISBN, &loan.BorrowerID, &loan.LoanedAt, &loan.DueAt,
		&loan.ReturnedAt, &loan.Fee, &loan.Notes, &loan.CreatedAt, &loan.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// FindByID は指定IDの貸出記録を取得する。見つからない場合はnilを返す。
func (r *PostgresLoanRepo) FindByID(ctx context.Context, id int64) (*model.Loan, error) {
	loan, err := scanLoan(r.q.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("貸出記録の取得に失敗しました: %w", err)
	}
	return loan, nil
}

// FindByIDForUpdate は指定IDの貸出記録を行ロック付きで取得する。
// 見つからない場合はnilを返す。
func (r *PostgresLoanRepo) FindByIDForUpdate(ctx context.Context, id int64) (*model.Loan, error) {
	loan, err := scanLoan(r.q.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("貸出記録の取得（行ロック付き）に失敗しました: %w", err)
	}
	return loan, nil
}

// Create は貸出記録を登録し、採番されたIDをloan.IDに書き戻す。
// 同一ISBNの貸出中記録が存在する場合は部分ユニークインデックス
// loans_one_open_per_isbn の違反が返る。
func (r *PostgresLoanRepo) Create(ctx context.Context, loan *model.Loan) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO loans (isbn, borrower_id, loaned_at, due_at, returned_at, fee, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		loan.ISBN, loan.BorrowerID, loan.LoanedAt, loan.DueAt,
		loan.ReturnedAt, loan.Fee, loan.Notes,
	).Scan(&loan.ID, &loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("貸出記録の登録に失敗しました: %w", err)
	}
	return nil
}

// MarkReturned は返却日時を設定する。対象が存在しない場合はエラーを返す。
func (r *PostgresLoanRepo) MarkReturned(ctx context.Context, id int64, returnedAt time.Time) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE loans SET returned_at = $2, updated_at = NOW() WHERE id = $1`,
		id, returnedAt,
	)
	if err != nil {
		return fmt.Errorf("返却日時の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("貸出記録が見つかりません: %d", id)
	}
	return nil
}

// ListOpenWithDetails は貸出中の記録を書籍・利用者情報付きで返す。
// booksはLEFT JOINで解決する。蔵書から削除済みの書籍の貸出記録も
// 返す必要があるため（タイトルは空文字列になる）。
func (r *PostgresLoanRepo) ListOpenWithDetails(ctx context.Context) ([]model.LoanWithDetails, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT
			l.id, l.isbn, l.borrower_id, l.loaned_at, l.due_at, l.returned_at,
			l.fee, l.notes, l.created_at, l.updated_at,
			COALESCE(b.title, ''),
			bw.first_name, bw.last_name, bw.email
		 FROM loans l
		 LEFT JOIN books b ON l.isbn = b.isbn
		 JOIN borrowers bw ON l.borrower_id = bw.id
		 WHERE l.returned_at IS NULL
		 ORDER BY l.loaned_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("貸出中一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []model.LoanWithDetails
	for rows.Next() {
		var detail model.LoanWithDetails
		if err := rows.Scan(
			&detail.ID, &detail.ISBN, &detail.BorrowerID, &detail.LoanedAt, &detail.DueAt,
			&detail.ReturnedAt, &detail.Fee, &detail.Notes, &detail.CreatedAt, &detail.UpdatedAt,
			&detail.BookTitle,
			&detail.BorrowerFirstName, &detail.BorrowerLastName, &detail.BorrowerEmail,
		); err != nil {
			return nil, fmt.Errorf("貸出行の読み取りに失敗しました: %w", err)
		}
		results = append(results, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("貸出中一覧の走査に失敗しました: %w", err)
	}
	return results, nil
}

// compile-time interface check
var _ LoanRepository = (*PostgresLoanRepo)(nil)
