// Package model はドメインモデルを定義する。
package model

import "time"

// Loan は貸出記録を表す。記録は追記専用で、更新は返却時の
// ReturnedAt 設定の1回のみ。削除は行わない。
// ReturnedAt がnilの間は「貸出中」であり、同一ISBNの貸出中記録は
// 常に最大1件に保たれる（loansテーブルの部分ユニークインデックスで保証）。
type Loan struct {
	ID         int64
	ISBN       string
	BorrowerID int64
	LoanedAt   time.Time
	DueAt      time.Time
	ReturnedAt *time.Time
	// Fee は延滞料金の保存用フィールド。自動計算は行わず常に0のまま保存される。
	Fee       float64
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Open は未返却（貸出中）かどうかを返す。
func (l *Loan) Open() bool {
	return l.ReturnedAt == nil
}

// LoanWithDetails は貸出記録と書籍・利用者情報を結合した読み取り用モデル。
// 書籍が蔵書から削除済みの場合、BookTitleは空文字列になる（LEFT JOIN）。
type LoanWithDetails struct {
	Loan
	BookTitle         string
	BorrowerFirstName string
	BorrowerLastName  string
	BorrowerEmail     string
}

// BorrowerFullName は利用者の姓名を連結して返す。
func (l *LoanWithDetails) BorrowerFullName() string {
	return l.BorrowerFirstName + " " + l.BorrowerLastName
}
