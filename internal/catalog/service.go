// Package catalog は蔵書の照会・登録のドメインロジックを提供する。
package catalog

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

// Service は蔵書照会・登録のサービス層。
//
// 読み取り系の操作は永続化エラー時に空の結果を返す。一覧や検索の
// 呼び出し元（画面）を一時的な障害で落とさないための方針で、
// 失敗はログとメトリクスで可観測にする。
type Service struct {
	books      repository.BookRepository
	authors    repository.AuthorRepository
	categories repository.CategoryRepository
	sanitizer  security.NotesSanitizerService
	recorder   metrics.Recorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	books repository.BookRepository,
	authors repository.AuthorRepository,
	categories repository.CategoryRepository,
	sanitizer security.NotesSanitizerService,
	recorder metrics.Recorder,
) *Service {
	return &Service{
		books:      books,
		authors:    authors,
		categories: categories,
		sanitizer:  sanitizer,
		recorder:   recorder,
	}
}

// ListAll は全書籍を著者・分類付きで返す。エラー時は空スライスを返す。
func (s *Service) ListAll(ctx context.Context) []model.BookWithDetails {
	books, err := s.books.ListWithDetails(ctx)
	if err != nil {
		s.readFailed("蔵書一覧の取得に失敗しました", err)
		return []model.BookWithDetails{}
	}
	return emptyIfNil(books)
}

// ListAvailable は貸出可能な書籍のみを返す。エラー時は空スライスを返す。
func (s *Service) ListAvailable(ctx context.Context) []model.BookWithDetails {
	books, err := s.books.ListAvailableWithDetails(ctx)
	if err != nil {
		s.readFailed("貸出可能一覧の取得に失敗しました", err)
		return []model.BookWithDetails{}
	}
	return emptyIfNil(books)
}

// Search はタイトル、ISBN、著者の名・姓のいずれかにtermを
// 部分文字列として含む書籍を返す。空のtermは全件一覧と同じ結果を返す。
// エラー時は空スライスを返す。
func (s *Service) Search(ctx context.Context, term string) []model.BookWithDetails {
	if strings.TrimSpace(term) == "" {
		return s.ListAll(ctx)
	}

	books, err := s.books.SearchWithDetails(ctx, term)
	if err != nil {
		s.readFailed("蔵書検索に失敗しました", err)
		return []model.BookWithDetails{}
	}
	return emptyIfNil(books)
}

// FindByISBN は指定ISBNの書籍を著者・分類付きで返す。
// 見つからない場合およびエラー時はnilを返す。
func (s *Service) FindByISBN(ctx context.Context, isbn string) *model.BookWithDetails {
	book, err := s.books.FindWithDetailsByISBN(ctx, isbn)
	if err != nil {
		s.readFailed("書籍詳細の取得に失敗しました", err)
		return nil
	}
	return book
}

// CreateBook は書籍を蔵書に登録する。登録時点で貸出可能となる。
// 備考欄はサニタイズしてから保存する。
func (s *Service) CreateBook(ctx context.Context, book *model.Book) error {
	if strings.TrimSpace(book.ISBN) == "" {
		return model.NewInvalidRequestError("ISBNは必須です")
	}
	if strings.TrimSpace(book.Title) == "" {
		return model.NewInvalidRequestError("タイトルは必須です")
	}

	author, err := s.authors.FindByID(ctx, book.AuthorID)
	if err != nil {
		return fmt.Errorf("著者の確認に失敗しました: %w", err)
	}
	if author == nil {
		return model.NewAuthorNotFoundError(book.AuthorID)
	}

	category, err := s.categories.FindByID(ctx, book.CategoryID)
	if err != nil {
		return fmt.Errorf("分類の確認に失敗しました: %w", err)
	}
	if category == nil {
		return model.NewCategoryNotFoundError(book.CategoryID)
	}

	book.Notes = s.sanitizer.Sanitize(book.Notes)
	book.Available = true

	if err := s.books.Create(ctx, book); err != nil {
		if repository.IsUniqueViolation(err, "books_pkey") {
			return model.NewDuplicateISBNError(book.ISBN)
		}
		return fmt.Errorf("書籍の登録に失敗しました: %w", err)
	}
	return nil
}

// ListAuthors は全著者を返す。エラー時は空スライスを返す。
func (s *Service) ListAuthors(ctx context.Context) []model.Author {
	authors, err := s.authors.List(ctx)
	if err != nil {
		s.readFailed("著者一覧の取得に失敗しました", err)
		return []model.Author{}
	}
	if authors == nil {
		return []model.Author{}
	}
	return authors
}

// CreateAuthor は著者を登録する。
func (s *Service) CreateAuthor(ctx context.Context, author *model.Author) error {
	if strings.TrimSpace(author.FirstName) == "" || strings.TrimSpace(author.LastName) == "" {
		return model.NewInvalidRequestError("著者の姓名は必須です")
	}
	author.Notes = s.sanitizer.Sanitize(author.Notes)
	if err := s.authors.Create(ctx, author); err != nil {
		return fmt.Errorf("著者の登録に失敗しました: %w", err)
	}
	return nil
}

// ListCategories は全分類を返す。エラー時は空スライスを返す。
func (s *Service) ListCategories(ctx context.Context) []model.Category {
	categories, err := s.categories.List(ctx)
	if err != nil {
		s.readFailed("分類一覧の取得に失敗しました", err)
		return []model.Category{}
	}
	if categories == nil {
		return []model.Category{}
	}
	return categories
}

// CreateCategory は分類を登録する。
func (s *Service) CreateCategory(ctx context.Context, category *model.Category) error {
	if strings.TrimSpace(category.Description) == "" {
		return model.NewInvalidRequestError("分類名は必須です")
	}
	category.Notes = s.sanitizer.Sanitize(category.Notes)
	if err := s.categories.Create(ctx, category); err != nil {
		return fmt.Errorf("分類の登録に失敗しました: %w", err)
	}
	return nil
}

func (s *Service) readFailed(msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	s.recorder.RecordReadFailure("catalog")
}

func emptyIfNil(books []model.BookWithDetails) []model.BookWithDetails {
	if books == nil {
		return []model.BookWithDetails{}
	}
	return books
}
