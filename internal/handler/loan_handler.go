package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/lendman/internal/loan"
	"github.com/hitoshi/lendman/internal/model"
)

// LoanServiceInterface は貸出ハンドラーが必要とするサービスインターフェース。
type LoanServiceInterface interface {
	// CreateLoan は書籍の貸出を登録する。
	CreateLoan(ctx context.Context, isbn string, borrowerID int64) loan.Result
	// ReturnLoan は貸出の返却を処理する。
	ReturnLoan(ctx context.Context, loanID int64) loan.Result
	// ListOpenLoans は未返却の貸出一覧を返す。
	ListOpenLoans(ctx context.Context) []model.LoanWithDetails
}

// LoanHandler は貸出・返却のHTTPハンドラー。
type LoanHandler struct {
	service LoanServiceInterface
}

// NewLoanHandler はLoanHandlerを生成する。
func NewLoanHandler(service LoanServiceInterface) *LoanHandler {
	return &LoanHandler{service: service}
}

// createLoanRequest は貸出登録リクエストのボディ。
type createLoanRequest struct {
	ISBN       string `json:"isbn"`
	BorrowerID int64  `json:"borrower_id"`
}

// loanResponse は貸出情報のAPIレスポンス。
type loanResponse struct {
	ID         int64   `json:"id"`
	ISBN       string  `json:"isbn"`
	BorrowerID int64   `json:"borrower_id"`
	LoanedAt   string  `json:"loaned_at"`
	DueAt      string  `json:"due_at"`
	ReturnedAt *string `json:"returned_at"`
	Fee        float64 `json:"fee"`
	Notes      string  `json:"notes"`
}

// loanResultResponse は貸出・返却操作の結果レスポンス。
// 業務上の失敗（貸出中、返却済みなど）もこのフォーマットで返す。
type loanResultResponse struct {
	OK      bool          `json:"ok"`
	Code    string        `json:"code,omitempty"`
	Message string        `json:"message"`
	Loan    *loanResponse `json:"loan,omitempty"`
}

// openLoanResponse は未返却貸出一覧の1行分のAPIレスポンス。
type openLoanResponse struct {
	ID            int64  `json:"id"`
	ISBN          string `json:"isbn"`
	BookTitle     string `json:"book_title"`
	BorrowerID    int64  `json:"borrower_id"`
	BorrowerName  string `json:"borrower_name"`
	BorrowerEmail string `json:"borrower_email"`
	LoanedAt      string `json:"loaned_at"`
	DueAt         string `json:"due_at"`
}

// CreateLoan は書籍の貸出登録を処理する。
// POST /api/loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if req.ISBN == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("ISBNが空です"))
		return
	}

	result := h.service.CreateLoan(r.Context(), req.ISBN, req.BorrowerID)

	status := http.StatusCreated
	if !result.OK {
		status = mapLoanResultToHTTPStatus(result)
	}
	writeLoanResult(w, status, result)
}

// ReturnLoan は貸出の返却を処理する。
// POST /api/loans/:id/return
func (h *LoanHandler) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("貸出IDが不正です"))
		return
	}

	result := h.service.ReturnLoan(r.Context(), loanID)

	status := http.StatusOK
	if !result.OK {
		status = mapLoanResultToHTTPStatus(result)
	}
	writeLoanResult(w, status, result)
}

// ListOpenLoans は未返却の貸出一覧を取得する。
// GET /api/loans
func (h *LoanHandler) ListOpenLoans(w http.ResponseWriter, r *http.Request) {
	loans := h.service.ListOpenLoans(r.Context())

	resp := make([]openLoanResponse, 0, len(loans))
	for i := range loans {
		resp = append(resp, toOpenLoanResponse(&loans[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- ヘルパー関数 ---

// writeLoanResult は貸出操作結果をJSONで書き込む。
func writeLoanResult(w http.ResponseWriter, statusCode int, result loan.Result) {
	resp := loanResultResponse{
		OK:      result.OK,
		Code:    result.Code,
		Message: result.Message,
	}
	if result.Loan != nil {
		lr := toLoanResponse(result.Loan)
		resp.Loan = &lr
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// mapLoanResultToHTTPStatus は結果コードからHTTPステータスコードにマッピングする。
func mapLoanResultToHTTPStatus(result loan.Result) int {
	switch result.Code {
	case model.ErrCodeBookNotFound, model.ErrCodeBorrowerNotFound, model.ErrCodeLoanNotFound:
		return http.StatusNotFound
	case model.ErrCodeBookAlreadyLoaned, model.ErrCodeLoanAlreadyReturned:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// toLoanResponse はmodel.LoanからAPIレスポンスに変換する。
func toLoanResponse(l *model.Loan) loanResponse {
	resp := loanResponse{
		ID:         l.ID,
		ISBN:       l.ISBN,
		BorrowerID: l.BorrowerID,
		LoanedAt:   l.LoanedAt.Format(time.RFC3339),
		DueAt:      l.DueAt.Format(time.RFC3339),
		Fee:        l.Fee,
		Notes:      l.Notes,
	}
	if l.ReturnedAt != nil {
		returnedAt := l.ReturnedAt.Format(time.RFC3339)
		resp.ReturnedAt = &returnedAt
	}
	return resp
}

// toOpenLoanResponse はmodel.LoanWithDetailsからAPIレスポンスに変換する。
func toOpenLoanResponse(l *model.LoanWithDetails) openLoanResponse {
	return openLoanResponse{
		ID:            l.ID,
		ISBN:          l.ISBN,
		BookTitle:     l.BookTitle,
		BorrowerID:    l.BorrowerID,
		BorrowerName:  l.BorrowerFullName(),
		BorrowerEmail: l.BorrowerEmail,
		LoanedAt:      l.LoanedAt.Format(time.RFC3339),
		DueAt:         l.DueAt.Format(time.RFC3339),
	}
}
