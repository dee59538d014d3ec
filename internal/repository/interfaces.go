// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/lendman/internal/model"
)

// Querier は*sql.DBと*sql.Txの両方が満たすクエリ実行インターフェース。
// リポジトリをQuerierの上に構築することで、同じ実装を
// 単発クエリとトランザクション内の両方で使用できる。
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// BookRepository は蔵書データの永続化インターフェース。
type BookRepository interface {
	// FindByISBN は指定ISBNの書籍を取得する。見つからない場合はnilを返す。
	FindByISBN(ctx context.Context, isbn string) (*model.Book, error)

	// FindByISBNForUpdate は指定ISBNの書籍を行ロック付き（FOR UPDATE）で取得する。
	// トランザクション内で呼び出すことで、同一書籍への同時貸出を直列化する。
	// 見つからない場合はnilを返す。
	FindByISBNForUpdate(ctx context.Context, isbn string) (*model.Book, error)

	// FindWithDetailsByISBN は指定ISBNの書籍を著者・分類付きで取得する。
	// 見つからない場合はnilを返す。
	FindWithDetailsByISBN(ctx context.Context, isbn string) (*model.BookWithDetails, error)

	// ListWithDetails は全書籍を著者・分類付きで返す。
	ListWithDetails(ctx context.Context) ([]model.BookWithDetails, error)

	// ListAvailableWithDetails は貸出可能（available = true）な書籍のみを返す。
	ListAvailableWithDetails(ctx context.Context) ([]model.BookWithDetails, error)

	// SearchWithDetails はタイトル、ISBN、著者の姓・名のいずれかに
	// termを部分文字列として含む書籍を返す（LIKE '%term%'）。
	SearchWithDetails(ctx context.Context, term string) ([]model.BookWithDetails, error)

	// Create は書籍を登録する。
	Create(ctx context.Context, book *model.Book) error

	// UpdateAvailability は書籍の貸出可否フラグを更新する。
	// 書籍が存在しない場合もエラーにはならない（返却時の蔵書削除済みケースを許容）。
	UpdateAvailability(ctx context.Context, isbn string, available bool) error
}

// AuthorRepository は著者データの永続化インターフェース。
type AuthorRepository interface {
	// FindByID は指定IDの著者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Author, error)
	// List は全著者を返す。
	List(ctx context.Context) ([]model.Author, error)
	// Create は著者を登録し、採番されたIDをauthor.IDに書き戻す。
	Create(ctx context.Context, author *model.Author) error
}

// CategoryRepository は分類データの永続化インターフェース。
type CategoryRepository interface {
	// FindByID は指定IDの分類を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Category, error)
	// List は全分類を返す。
	List(ctx context.Context) ([]model.Category, error)
	// Create は分類を登録し、採番されたIDをcategory.IDに書き戻す。
	Create(ctx context.Context, category *model.Category) error
}

// BorrowerRepository は利用者データの永続化インターフェース。
type BorrowerRepository interface {
	// FindByID は指定IDの利用者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Borrower, error)
	// List は全利用者を返す。
	List(ctx context.Context) ([]model.Borrower, error)
	// Create は利用者を登録し、採番されたIDをborrower.IDに書き戻す。
	Create(ctx context.Context, borrower *model.Borrower) error
}

// LoanRepository は貸出記録の永続化インターフェース。
// 貸出記録は追記専用で、更新はMarkReturnedによる返却日時の設定のみ。
type LoanRepository interface {
	// FindByID は指定IDの貸出記録を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Loan, error)

	// FindByIDForUpdate は指定IDの貸出記録を行ロック付きで取得する。
	// 同一貸出への同時返却を直列化するためトランザクション内で使用する。
	// 見つからない場合はnilを返す。
	FindByIDForUpdate(ctx context.Context, id int64) (*model.Loan, error)

	// Create は貸出記録を登録し、採番されたIDをloan.IDに書き戻す。
	// 同一ISBNの貸出中記録がすでに存在する場合、部分ユニークインデックス
	// 違反（IsUniqueViolationで判定可能）を返す。
	Create(ctx context.Context, loan *model.Loan) error

	// MarkReturned は返却日時を設定する。対象が存在しない場合はエラーを返す。
	MarkReturned(ctx context.Context, id int64, returnedAt time.Time) error

	// ListOpenWithDetails は貸出中（returned_at IS NULL）の記録を
	// 書籍・利用者情報付きで返す。書籍はLEFT JOINで解決するため、
	// 蔵書から削除済みでも記録自体は返る。
	ListOpenWithDetails(ctx context.Context) ([]model.LoanWithDetails, error)
}

// RepositorySet はひとつのトランザクションに束ねられたリポジトリ群。
type RepositorySet interface {
	Books() BookRepository
	Borrowers() BorrowerRepository
	Loans() LoanRepository
}

// UnitOfWork は1操作=1トランザクションの実行境界を提供する。
// fnがエラーを返すか途中で失敗した場合は全変更をロールバックし、
// 正常終了時のみコミットする。
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(r RepositorySet) error) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
