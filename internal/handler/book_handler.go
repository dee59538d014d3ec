package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/lendman/internal/model"
)

// CatalogServiceInterface は蔵書ハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	// ListAll は全書籍を著者・分類付きで返す。
	ListAll(ctx context.Context) []model.BookWithDetails
	// ListAvailable は貸出可能な書籍のみを返す。
	ListAvailable(ctx context.Context) []model.BookWithDetails
	// Search はタイトル、ISBN、著者名で書籍を検索する。
	Search(ctx context.Context, term string) []model.BookWithDetails
	// FindByISBN は指定ISBNの書籍を返す。見つからない場合はnil。
	FindByISBN(ctx context.Context, isbn string) *model.BookWithDetails
	// CreateBook は書籍を登録する。
	CreateBook(ctx context.Context, book *model.Book) error
	// ListAuthors は全著者を返す。
	ListAuthors(ctx context.Context) []model.Author
	// CreateAuthor は著者を登録する。
	CreateAuthor(ctx context.Context, author *model.Author) error
	// ListCategories は全分類を返す。
	ListCategories(ctx context.Context) []model.Category
	// CreateCategory は分類を登録する。
	CreateCategory(ctx context.Context, category *model.Category) error
}

// BookHandler は蔵書管理のHTTPハンドラー。
type BookHandler struct {
	service CatalogServiceInterface
}

// NewBookHandler はBookHandlerを生成する。
func NewBookHandler(service CatalogServiceInterface) *BookHandler {
	return &BookHandler{service: service}
}

// createBookRequest は書籍登録リクエストのボディ。
type createBookRequest struct {
	ISBN        string `json:"isbn"`
	Title       string `json:"title"`
	Publisher   string `json:"publisher"`
	PublishedOn string `json:"published_on"`
	CategoryID  int64  `json:"category_id"`
	AuthorID    int64  `json:"author_id"`
	Notes       string `json:"notes"`
}

// createAuthorRequest は著者登録リクエストのボディ。
type createAuthorRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Nationality string `json:"nationality"`
	Notes       string `json:"notes"`
}

// createCategoryRequest は分類登録リクエストのボディ。
type createCategoryRequest struct {
	Description string `json:"description"`
	Notes       string `json:"notes"`
}

// bookResponse は書籍情報のAPIレスポンス。著者・分類を含む。
type bookResponse struct {
	ISBN        string `json:"isbn"`
	Title       string `json:"title"`
	Publisher   string `json:"publisher"`
	PublishedOn string `json:"published_on"`
	Notes       string `json:"notes"`
	Available   bool   `json:"available"`
	AuthorID    int64  `json:"author_id"`
	AuthorName  string `json:"author_name"`
	Nationality string `json:"nationality"`
	CategoryID  int64  `json:"category_id"`
	Category    string `json:"category"`
}

// authorResponse は著者情報のAPIレスポンス。
type authorResponse struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Nationality string `json:"nationality"`
	Notes       string `json:"notes"`
}

// categoryResponse は分類情報のAPIレスポンス。
type categoryResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
}

// ListBooks は蔵書一覧・検索を処理する。
// GET /api/books?q=検索語&available=true
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var books []model.BookWithDetails
	switch {
	case query.Get("q") != "":
		books = h.service.Search(r.Context(), query.Get("q"))
	case query.Get("available") == "true":
		books = h.service.ListAvailable(r.Context())
	default:
		books = h.service.ListAll(r.Context())
	}

	resp := make([]bookResponse, 0, len(books))
	for i := range books {
		resp = append(resp, toBookResponse(&books[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetBook は書籍詳細を取得する。
// GET /api/books/:isbn
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	isbn := chi.URLParam(r, "isbn")

	book := h.service.FindByISBN(r.Context(), isbn)
	if book == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewBookNotFoundError(isbn))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBookResponse(book))
}

// CreateBook は書籍登録を処理する。
// POST /api/books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	publishedOn, err := parsePublishedOn(req.PublishedOn)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("出版日はYYYY-MM-DD形式で指定してください"))
		return
	}

	book := &model.Book{
		ISBN:        req.ISBN,
		Title:       req.Title,
		Publisher:   req.Publisher,
		PublishedOn: publishedOn,
		CategoryID:  req.CategoryID,
		AuthorID:    req.AuthorID,
		Notes:       req.Notes,
	}

	if err := h.service.CreateBook(r.Context(), book); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"isbn": book.ISBN})
}

// ListAuthors は著者一覧を取得する。
// GET /api/authors
func (h *BookHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors := h.service.ListAuthors(r.Context())

	resp := make([]authorResponse, 0, len(authors))
	for i := range authors {
		a := &authors[i]
		resp = append(resp, authorResponse{
			ID:          a.ID,
			FirstName:   a.FirstName,
			LastName:    a.LastName,
			Nationality: a.Nationality,
			Notes:       a.Notes,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// CreateAuthor は著者登録を処理する。
// POST /api/authors
func (h *BookHandler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	var req createAuthorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	author := &model.Author{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Nationality: req.Nationality,
		Notes:       req.Notes,
	}

	if err := h.service.CreateAuthor(r.Context(), author); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int64{"id": author.ID})
}

// ListCategories は分類一覧を取得する。
// GET /api/categories
func (h *BookHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.service.ListCategories(r.Context())

	resp := make([]categoryResponse, 0, len(categories))
	for i := range categories {
		c := &categories[i]
		resp = append(resp, categoryResponse{
			ID:          c.ID,
			Description: c.Description,
			Notes:       c.Notes,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// CreateCategory は分類登録を処理する。
// POST /api/categories
func (h *BookHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	category := &model.Category{
		Description: req.Description,
		Notes:       req.Notes,
	}

	if err := h.service.CreateCategory(r.Context(), category); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int64{"id": category.ID})
}

// --- ヘルパー関数 ---

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// parsePublishedOn は出版日をパースする。空文字はゼロ値として扱う。
func parsePublishedOn(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

// toBookResponse はmodel.BookWithDetailsからAPIレスポンスに変換する。
func toBookResponse(b *model.BookWithDetails) bookResponse {
	publishedOn := ""
	if !b.PublishedOn.IsZero() {
		publishedOn = b.PublishedOn.Format("2006-01-02")
	}
	return bookResponse{
		ISBN:        b.ISBN,
		Title:       b.Title,
		Publisher:   b.Publisher,
		PublishedOn: publishedOn,
		Notes:       b.Book.Notes,
		Available:   b.Available,
		AuthorID:    b.Author.ID,
		AuthorName:  b.Author.FullName(),
		Nationality: b.Author.Nationality,
		CategoryID:  b.Category.ID,
		Category:    b.Category.Description,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInvalidBodyResponse はJSONボディの解析失敗レスポンスを書き込む。
func writeInvalidBodyResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     model.ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeBookNotFound, model.ErrCodeBorrowerNotFound,
		model.ErrCodeLoanNotFound, model.ErrCodeAuthorNotFound, model.ErrCodeCategoryNotFound:
		return http.StatusNotFound
	case model.ErrCodeBookAlreadyLoaned, model.ErrCodeLoanAlreadyReturned, model.ErrCodeDuplicateISBN:
		return http.StatusConflict
	case model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodePersistenceFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
