package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/lendman/internal/metrics"
	"github.com/hitoshi/lendman/internal/middleware"
)

// HealthChecker はヘルスチェックでDB疎通確認に使うインターフェース。
// *sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger      *slog.Logger
	Recorder    metrics.Recorder
	RateLimiter *middleware.RateLimiter

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// ドメインサービス
	LoanService     LoanServiceInterface
	CatalogService  CatalogServiceInterface
	BorrowerService BorrowerServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → SecurityHeaders → Logging → RateLimit(General)
//
// 運用エンドポイント（/health、/metrics）はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Recorder))

	loanHandler := NewLoanHandler(deps.LoanService)
	bookHandler := NewBookHandler(deps.CatalogService)
	borrowerHandler := NewBorrowerHandler(deps.BorrowerService)

	// --- 運用エンドポイント ---

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 貸出・返却
		r.Route("/api/loans", func(r chi.Router) {
			r.Get("/", loanHandler.ListOpenLoans)

			// 貸出登録・返却には操作専用レート制限を追加
			r.With(deps.RateLimiter.LoanOpsMiddleware()).Post("/", loanHandler.CreateLoan)
			r.With(deps.RateLimiter.LoanOpsMiddleware()).Post("/{id}/return", loanHandler.ReturnLoan)
		})

		// 蔵書管理
		r.Route("/api/books", func(r chi.Router) {
			r.Get("/", bookHandler.ListBooks)
			r.Post("/", bookHandler.CreateBook)
			r.Get("/{isbn}", bookHandler.GetBook)
		})

		// 著者・分類
		r.Route("/api/authors", func(r chi.Router) {
			r.Get("/", bookHandler.ListAuthors)
			r.Post("/", bookHandler.CreateAuthor)
		})
		r.Route("/api/categories", func(r chi.Router) {
			r.Get("/", bookHandler.ListCategories)
			r.Post("/", bookHandler.CreateCategory)
		})

		// 利用者管理
		r.Route("/api/borrowers", func(r chi.Router) {
			r.Get("/", borrowerHandler.ListBorrowers)
			r.Post("/", borrowerHandler.CreateBorrower)
			r.Get("/{id}", borrowerHandler.GetBorrower)
		})
	})

	return r
}

// healthHandler はヘルスチェックエンドポイントのハンドラーを返す。
// DB疎通確認に成功すれば200、失敗すれば503を返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
