package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/lendman/internal/model"
)

// mockBorrowerService はBorrowerServiceInterfaceのモック実装。
type mockBorrowerService struct {
	listFn     func(ctx context.Context) []model.Borrower
	findByIDFn func(ctx context.Context, id int64) (*model.Borrower, error)
	createFn   func(ctx context.Context, borrower *model.Borrower) error
}

func (m *mockBorrowerService) List(ctx context.Context) []model.Borrower {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.Borrower{}
}
func (m *mockBorrowerService) FindByID(ctx context.Context, id int64) (*model.Borrower, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockBorrowerService) Create(ctx context.Context, borrower *model.Borrower) error {
	if m.createFn != nil {
		return m.createFn(ctx, borrower)
	}
	return nil
}

func TestBorrowerHandler_ListBorrowers(t *testing.T) {
	svc := &mockBorrowerService{
		listFn: func(ctx context.Context) []model.Borrower {
			return []model.Borrower{
				{ID: 7, FirstName: "太郎", LastName: "山田", Email: "taro@example.com", Active: true},
			}
		},
	}
	h := NewBorrowerHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/borrowers", nil)
	w := httptest.NewRecorder()

	h.ListBorrowers(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var resp []borrowerResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].ID != 7 {
		t.Errorf("resp = %+v, want 1 borrower with ID 7", resp)
	}
}

func TestBorrowerHandler_GetBorrower_NotFound(t *testing.T) {
	h := NewBorrowerHandler(&mockBorrowerService{})

	req := httptest.NewRequest(http.MethodGet, "/api/borrowers/999999", nil)
	req = withChiURLParam(req, "id", "999999")
	w := httptest.NewRecorder()

	h.GetBorrower(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if body.Code != model.ErrCodeBorrowerNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeBorrowerNotFound)
	}
}

func TestBorrowerHandler_GetBorrower_InvalidID(t *testing.T) {
	h := NewBorrowerHandler(&mockBorrowerService{
		findByIDFn: func(ctx context.Context, id int64) (*model.Borrower, error) {
			t.Fatal("service should not be called for invalid id")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/borrowers/abc", nil)
	req = withChiURLParam(req, "id", "abc")
	w := httptest.NewRecorder()

	h.GetBorrower(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBorrowerHandler_CreateBorrower_Success(t *testing.T) {
	svc := &mockBorrowerService{
		createFn: func(ctx context.Context, borrower *model.Borrower) error {
			borrower.ID = 7
			return nil
		},
	}
	h := NewBorrowerHandler(svc)

	body := bytes.NewBufferString(`{"first_name":"太郎","last_name":"山田","address":"東京都","email":"taro@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/borrowers", body)
	w := httptest.NewRecorder()

	h.CreateBorrower(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}

	var resp map[string]int64
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["id"] != 7 {
		t.Errorf("id = %d, want 7", resp["id"])
	}
}

func TestBorrowerHandler_CreateBorrower_Validation(t *testing.T) {
	svc := &mockBorrowerService{
		createFn: func(ctx context.Context, borrower *model.Borrower) error {
			return model.NewInvalidRequestError("利用者の姓名は必須です")
		},
	}
	h := NewBorrowerHandler(svc)

	body := bytes.NewBufferString(`{"first_name":"太郎"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/borrowers", body)
	w := httptest.NewRecorder()

	h.CreateBorrower(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
