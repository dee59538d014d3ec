// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// Book は蔵書1冊を表す。ISBNを主キーとする。
// Available がfalseの場合、未返却の貸出がちょうど1件存在する。
// availableフラグの更新は貸出サービスのみが行う。
type Book struct {
	ISBN        string
	Title       string
	Publisher   string
	PublishedOn time.Time
	CategoryID  int64
	AuthorID    int64
	Notes       string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Author は著者を表す。
type Author struct {
	ID          int64
	FirstName   string
	LastName    string
	Nationality string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName は姓名を連結して返す。
func (a *Author) FullName() string {
	return fmt.Sprintf("%s %s", a.FirstName, a.LastName)
}

// Category は書籍の分類（小説、歴史など）を表す。
type Category struct {
	ID          int64
	Description string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookWithDetails は書籍と著者・分類を結合した読み取り用モデル。
// booksテーブルにauthors、categoriesをJOINして取得される。
type BookWithDetails struct {
	Book
	Author   Author
	Category Category
}
