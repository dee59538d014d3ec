package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresUnitOfWork はPostgreSQLトランザクション上でリポジトリ群を実行する。
type PostgresUnitOfWork struct {
	db TxBeginner
}

// NewPostgresUnitOfWork はPostgresUnitOfWorkを生成する。
func NewPostgresUnitOfWork(db TxBeginner) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{db: db}
}

// RunInTx はトランザクションを開始し、トランザクションに束ねられた
// リポジトリ群をfnに渡して実行する。fnがエラーを返した場合は
// ロールバックし、正常終了時のみコミットする。
// コミット失敗もエラーとして返るため、fn内の書き込みが中途半端に
// 観測されることはない。
func (u *PostgresUnitOfWork) RunInTx(ctx context.Context, fn func(r RepositorySet) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&postgresRepositorySet{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}

// postgresRepositorySet は同一トランザクションを共有するリポジトリ群。
type postgresRepositorySet struct {
	q Querier
}

func (s *postgresRepositorySet) Books() BookRepository {
	return NewPostgresBookRepo(s.q)
}

func (s *postgresRepositorySet) Borrowers() BorrowerRepository {
	return NewPostgresBorrowerRepo(s.q)
}

func (s *postgresRepositorySet) Loans() LoanRepository {
	return NewPostgresLoanRepo(s.q)
}

// pgUniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const pgUniqueViolation = "23505"

// IsUniqueViolation はerrが指定制約の一意制約違反かどうかを判定する。
// constraintが空文字列の場合は制約名を問わず一意制約違反であれば真を返す。
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// compile-time interface check
var _ UnitOfWork = (*PostgresUnitOfWork)(nil)
var _ RepositorySet = (*postgresRepositorySet)(nil)
