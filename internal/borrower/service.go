// Package borrower は利用者の照会・登録のドメインロジックを提供する。
package borrower

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/lendman/internal/metrics"
	"github.com/hitoshi/lendman/internal/model"
	"github.com/hitoshi/lendman/internal/repository"
	"github.com/hitoshi/lendman/internal/security"
)

// Service は利用者管理のサービス層。
type Service struct {
	borrowers repository.BorrowerRepository
	sanitizer security.NotesSanitizerService
	recorder  metrics.Recorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	borrowers repository.BorrowerRepository,
	sanitizer security.NotesSanitizerService,
	recorder metrics.Recorder,
) *Service {
	return &Service{
		borrowers: borrowers,
		sanitizer: sanitizer,
		recorder:  recorder,
	}
}

// List は全利用者を返す。エラー時は空スライスを返す。
func (s *Service) List(ctx context.Context) []model.Borrower {
	borrowers, err := s.borrowers.List(ctx)
	if err != nil {
		slog.Error("利用者一覧の取得に失敗しました", slog.String("error", err.Error()))
		s.recorder.RecordReadFailure("borrowers")
		return []model.Borrower{}
	}
	if borrowers == nil {
		return []model.Borrower{}
	}
	return borrowers
}

// FindByID は指定IDの利用者を返す。見つからない場合はnilを返す。
func (s *Service) FindByID(ctx context.Context, id int64) (*model.Borrower, error) {
	borrower, err := s.borrowers.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("利用者の取得に失敗しました: %w", err)
	}
	return borrower, nil
}

// Create は利用者を登録する。住所欄はサニタイズしてから保存する。
func (s *Service) Create(ctx context.Context, borrower *model.Borrower) error {
	if strings.TrimSpace(borrower.FirstName) == "" || strings.TrimSpace(borrower.LastName) == "" {
		return model.NewInvalidRequestError("利用者の姓名は必須です")
	}
	borrower.Address = s.sanitizer.Sanitize(borrower.Address)
	borrower.Active = true
	if err := s.borrowers.Create(ctx, borrower); err != nil {
		return fmt.Errorf("利用者の登録に失敗しました: %w", err)
	}
	return nil
}
