// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// Borrower は貸出を受けられる利用者を表す。
type Borrower struct {
	ID        int64
	FirstName string
	LastName  string
	Address   string
	Email     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName は姓名を連結して返す。
func (b *Borrower) FullName() string {
	return fmt.Sprintf("%s %s", b.FirstName, b.LastName)
}
