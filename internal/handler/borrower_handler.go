package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/lendman/internal/model"
)

// BorrowerServiceInterface は利用者ハンドラーが必要とするサービスインターフェース。
type BorrowerServiceInterface interface {
	// List は全利用者を返す。
	List(ctx context.Context) []model.Borrower
	// FindByID は指定IDの利用者を返す。見つからない場合はnil。
	FindByID(ctx context.Context, id int64) (*model.Borrower, error)
	// Create は利用者を登録する。
	Create(ctx context.Context, borrower *model.Borrower) error
}

// BorrowerHandler は利用者管理のHTTPハンドラー。
type BorrowerHandler struct {
	service BorrowerServiceInterface
}

// NewBorrowerHandler はBorrowerHandlerを生成する。
func NewBorrowerHandler(service BorrowerServiceInterface) *BorrowerHandler {
	return &BorrowerHandler{service: service}
}

// createBorrowerRequest は利用者登録リクエストのボディ。
type createBorrowerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Email     string `json:"email"`
}

// borrowerResponse は利用者情報のAPIレスポンス。
type borrowerResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
}

// ListBorrowers は利用者一覧を取得する。
// GET /api/borrowers
func (h *BorrowerHandler) ListBorrowers(w http.ResponseWriter, r *http.Request) {
	borrowers := h.service.List(r.Context())

	resp := make([]borrowerResponse, 0, len(borrowers))
	for i := range borrowers {
		resp = append(resp, toBorrowerResponse(&borrowers[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetBorrower は利用者詳細を取得する。
// GET /api/borrowers/:id
func (h *BorrowerHandler) GetBorrower(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("利用者IDが不正です"))
		return
	}

	borrower, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if borrower == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewBorrowerNotFoundError(id))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBorrowerResponse(borrower))
}

// CreateBorrower は利用者登録を処理する。
// POST /api/borrowers
func (h *BorrowerHandler) CreateBorrower(w http.ResponseWriter, r *http.Request) {
	var req createBorrowerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	borrower := &model.Borrower{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		Email:     req.Email,
	}

	if err := h.service.Create(r.Context(), borrower); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int64{"id": borrower.ID})
}

// toBorrowerResponse はmodel.BorrowerからAPIレスポンスに変換する。
func toBorrowerResponse(b *model.Borrower) borrowerResponse {
	return borrowerResponse{
		ID:        b.ID,
		FirstName: b.FirstName,
		LastName:  b.LastName,
		Address:   b.Address,
		Email:     b.Email,
		Active:    b.Active,
	}
}
