// Package loan は貸出・返却のドメインロジックを提供する。
//
// 貸出は「貸出可能 → 貸出中 → 貸出可能（返却後）」の状態機械であり、
// 各操作は1トランザクションで実行される。同一書籍への同時貸出は
// 書籍行のロック（FOR UPDATE）で直列化し、さらにloansテーブルの
// 部分ユニークインデックスがコミット時の最終防衛線となる。
package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/lendman/internal/metrics"
	"github.com/hitoshi/lendman/internal/model"
	"github.com/hitoshi/lendman/internal/repository"
)

// Result は貸出操作の結果を表す。
// プレゼンテーション層には成功可否・エラーコード・メッセージのみを
// 返し、永続化エラーをそのまま伝播することはない。
type Result struct {
	OK      bool
	Code    string
	Message string
	// Loan は貸出登録成功時に作成された記録。それ以外はnil。
	Loan *model.Loan
}

// errNoCommit は業務ルール違反でトランザクションを確定せずに
// 抜けるための番兵エラー。この時点では書き込みは行われていない。
var errNoCommit = errors.New("loan: precondition failed")

// Service は貸出・返却のサービス層。
type Service struct {
	uow      repository.UnitOfWork
	loanRepo repository.LoanRepository
	recorder metrics.Recorder

	periodDays int
	now        func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// loanRepoは読み取り専用操作（貸出中一覧）に使用する。
// periodDaysは貸出期間（日数）で、返却期限の計算に使用する。
func NewService(
	uow repository.UnitOfWork,
	loanRepo repository.LoanRepository,
	recorder metrics.Recorder,
	periodDays int,
) *Service {
	return &Service{
		uow:        uow,
		loanRepo:   loanRepo,
		recorder:   recorder,
		periodDays: periodDays,
		now:        time.Now,
	}
}

// CreateLoan は貸出を登録する。
//
// 事前条件は次の順に検査し、最初に失敗した条件で処理を打ち切る:
//  1. 書籍が存在する
//  2. 書籍が貸出可能である
//  3. 利用者が存在する
//
// 成功時は貸出記録の挿入と書籍の貸出可否フラグの更新を
// 同一トランザクションで行う。どちらかの書き込みが失敗した場合は
// 全体がロールバックされ、部分的な状態が残ることはない。
func (s *Service) CreateLoan(ctx context.Context, isbn string, borrowerID int64) Result {
	var failure *Result
	var created *model.Loan

	err := s.uow.RunInTx(ctx, func(r repository.RepositorySet) error {
		// 書籍行をロックして取得する。同一書籍への同時貸出は
		// ここで直列化され、後続のトランザクションは更新後の
		// フラグを観測する。
		book, err := r.Books().FindByISBNForUpdate(ctx, isbn)
		if err != nil {
			return err
		}
		if book == nil {
			failure = failureResult(model.NewBookNotFoundError(isbn))
			return errNoCommit
		}
		if !book.Available {
			failure = failureResult(model.NewBookAlreadyLoanedError(book.Title))
			return errNoCommit
		}

		borrower, err := r.Borrowers().FindByID(ctx, borrowerID)
		if err != nil {
			return err
		}
		if borrower == nil {
			failure = failureResult(model.NewBorrowerNotFoundError(borrowerID))
			return errNoCommit
		}

		now := s.now()
		loan := &model.Loan{
			ISBN:       isbn,
			BorrowerID: borrowerID,
			LoanedAt:   now,
			DueAt:      now.AddDate(0, 0, s.periodDays),
			ReturnedAt: nil,
			Fee:        0,
		}
		if err := r.Loans().Create(ctx, loan); err != nil {
			return err
		}
		if err := r.Books().UpdateAvailability(ctx, isbn, false); err != nil {
			return err
		}

		created = loan
		return nil
	})

	switch {
	case err == nil:
		s.recorder.RecordLoanCreated()
		return Result{
			OK:      true,
			Message: fmt.Sprintf("貸出を登録しました。返却期限は%sです。", created.DueAt.Format("2006-01-02")),
			Loan:    created,
		}

	case errors.Is(err, errNoCommit):
		if failure.Code == model.ErrCodeBookAlreadyLoaned {
			s.recorder.RecordLoanConflict()
		}
		return *failure

	case repository.IsUniqueViolation(err, "loans_one_open_per_isbn"):
		// 行ロックをすり抜けた同時貸出はコミット時にここへ到達する。
		// 利用者から見える結果は「貸出中」の失敗と同じにする。
		s.recorder.RecordLoanConflict()
		slog.Warn("貸出の一意制約違反を検出しました",
			slog.String("isbn", isbn),
			slog.Int64("borrower_id", borrowerID),
		)
		return Result{
			OK:      false,
			Code:    model.ErrCodeBookAlreadyLoaned,
			Message: "この書籍はすでに貸出中です。",
		}

	default:
		slog.Error("貸出処理に失敗しました",
			slog.String("isbn", isbn),
			slog.Int64("borrower_id", borrowerID),
			slog.String("error", err.Error()),
		)
		return Result{
			OK:      false,
			Code:    model.ErrCodePersistenceFailure,
			Message: fmt.Sprintf("貸出処理に失敗しました: %v", err),
		}
	}
}

// ReturnLoan は返却を処理する。
//
// 事前条件: 貸出記録が存在し、未返却であること。
// 成功時は返却日時の設定と書籍の貸出可否フラグの復帰を
// 同一トランザクションで行う。書籍が蔵書から削除済みの場合、
// フラグの復帰はスキップされ返却自体は成立する。
func (s *Service) ReturnLoan(ctx context.Context, loanID int64) Result {
	var failure *Result

	err := s.uow.RunInTx(ctx, func(r repository.RepositorySet) error {
		// 貸出行をロックして取得し、同一貸出への二重返却を直列化する。
		loan, err := r.Loans().FindByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if loan == nil {
			failure = failureResult(model.NewLoanNotFoundError(loanID))
			return errNoCommit
		}
		if loan.ReturnedAt != nil {
			failure = failureResult(model.NewLoanAlreadyReturnedError())
			return errNoCommit
		}

		if err := r.Loans().MarkReturned(ctx, loanID, s.now()); err != nil {
			return err
		}

		// 書籍のフラグ復帰はベストエフォート。書籍行が存在しなくても
		// UpdateAvailabilityはエラーにならず、返却は成立する。
		if err := r.Books().UpdateAvailability(ctx, loan.ISBN, true); err != nil {
			return err
		}

		return nil
	})

	switch {
	case err == nil:
		s.recorder.RecordLoanReturned()
		return Result{
			OK:      true,
			Message: "返却を受け付けました。ご利用ありがとうございました。",
		}

	case errors.Is(err, errNoCommit):
		return *failure

	default:
		slog.Error("返却処理に失敗しました",
			slog.Int64("loan_id", loanID),
			slog.String("error", err.Error()),
		)
		return Result{
			OK:      false,
			Code:    model.ErrCodePersistenceFailure,
			Message: fmt.Sprintf("返却処理に失敗しました: %v", err),
		}
	}
}

// ListOpenLoans は貸出中の記録を書籍・利用者情報付きで返す。
// 永続化エラーの場合は空スライスを返す。読み取り系は呼び出し元を
// 落とさないことを優先し、失敗はログとメトリクスで可観測にする。
func (s *Service) ListOpenLoans(ctx context.Context) []model.LoanWithDetails {
	loans, err := s.loanRepo.ListOpenWithDetails(ctx)
	if err != nil {
		slog.Error("貸出中一覧の取得に失敗しました", slog.String("error", err.Error()))
		s.recorder.RecordReadFailure("loans")
		return []model.LoanWithDetails{}
	}
	if loans == nil {
		return []model.LoanWithDetails{}
	}
	return loans
}

func failureResult(apiErr *model.APIError) *Result {
	return &Result{
		OK:      false,
		Code:    apiErr.Code,
		Message: apiErr.Message,
	}
}
