// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: loan, catalog, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeBookNotFound        = "BOOK_NOT_FOUND"
	ErrCodeBookAlreadyLoaned   = "BOOK_ALREADY_LOANED"
	ErrCodeBorrowerNotFound    = "BORROWER_NOT_FOUND"
	ErrCodeLoanNotFound        = "LOAN_NOT_FOUND"
	ErrCodeLoanAlreadyReturned = "LOAN_ALREADY_RETURNED"
	ErrCodePersistenceFailure  = "PERSISTENCE_FAILURE"
	ErrCodeAuthorNotFound      = "AUTHOR_NOT_FOUND"
	ErrCodeCategoryNotFound    = "CATEGORY_NOT_FOUND"
	ErrCodeDuplicateISBN       = "DUPLICATE_ISBN"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
)

// NewBookNotFoundError は書籍未検出エラーを生成する。
func NewBookNotFoundError(isbn string) *APIError {
	return &APIError{
		Code:     ErrCodeBookNotFound,
		Message:  fmt.Sprintf("指定された書籍が見つかりません: %s", isbn),
		Category: "catalog",
		Action:   "ISBNを確認してください。",
	}
}

// NewBookAlreadyLoanedError は貸出中の書籍への貸出要求エラーを生成する。
func NewBookAlreadyLoanedError(title string) *APIError {
	return &APIError{
		Code:     ErrCodeBookAlreadyLoaned,
		Message:  fmt.Sprintf("書籍『%s』はすでに貸出中です。", title),
		Category: "loan",
		Action:   "返却されるまでお待ちください。",
	}
}

// NewBorrowerNotFoundError は利用者未検出エラーを生成する。
func NewBorrowerNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeBorrowerNotFound,
		Message:  fmt.Sprintf("指定された利用者が見つかりません: %d", id),
		Category: "catalog",
		Action:   "利用者IDを確認してください。",
	}
}

// NewLoanNotFoundError は貸出記録未検出エラーを生成する。
func NewLoanNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeLoanNotFound,
		Message:  fmt.Sprintf("指定された貸出記録が見つかりません: %d", id),
		Category: "loan",
		Action:   "貸出IDを確認してください。",
	}
}

// NewLoanAlreadyReturnedError は二重返却エラーを生成する。
func NewLoanAlreadyReturnedError() *APIError {
	return &APIError{
		Code:     ErrCodeLoanAlreadyReturned,
		Message:  "この貸出はすでに返却済みです。",
		Category: "loan",
		Action:   "貸出IDを確認してください。",
	}
}

// NewAuthorNotFoundError は著者未検出エラーを生成する。
func NewAuthorNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeAuthorNotFound,
		Message:  fmt.Sprintf("指定された著者が見つかりません: %d", id),
		Category: "catalog",
		Action:   "著者IDを確認してください。",
	}
}

// NewCategoryNotFoundError は分類未検出エラーを生成する。
func NewCategoryNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeCategoryNotFound,
		Message:  fmt.Sprintf("指定された分類が見つかりません: %d", id),
		Category: "catalog",
		Action:   "分類IDを確認してください。",
	}
}

// NewDuplicateISBNError は登録済みISBNの再登録エラーを生成する。
func NewDuplicateISBNError(isbn string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateISBN,
		Message:  fmt.Sprintf("このISBNはすでに登録されています: %s", isbn),
		Category: "catalog",
		Action:   "蔵書一覧から該当書籍を確認してください。",
	}
}

// NewInvalidRequestError はリクエスト内容の不備エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエスト内容が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}
