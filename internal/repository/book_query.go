package repository

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"
	// postgres方言（$1形式のプレースホルダ）を登録する。
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

// 書籍詳細クエリはgoquで組み立てる。検索条件（全件・貸出可能のみ・
// 部分一致検索）によってWHERE句が動的に変わるため、文字列結合ではなく
// クエリビルダで構築する。

const dialectPostgres = "postgres"

// bookDetailColumns は書籍・著者・分類を結合した詳細クエリのSELECT列。
// スキャン順はscanBookWithDetailsと一致させること。
var bookDetailColumns = []any{
	goqu.I("b.isbn"), goqu.I("b.title"), goqu.I("b.publisher"), goqu.I("b.published_on"),
	goqu.I("b.category_id"), goqu.I("b.author_id"), goqu.I("b.notes"), goqu.I("b.available"),
	goqu.I("b.created_at"), goqu.I("b.updated_at"),
	goqu.I("a.id"), goqu.I("a.first_name"), goqu.I("a.last_name"), goqu.I("a.nationality"),
	goqu.I("c.id"), goqu.I("c.description"),
}

// bookDetailDataset は書籍に著者・分類をJOINしたベースクエリを返す。
func bookDetailDataset() *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(goqu.T("books").As("b")).
		Join(goqu.T("authors").As("a"), goqu.On(goqu.I("b.author_id").Eq(goqu.I("a.id")))).
		Join(goqu.T("categories").As("c"), goqu.On(goqu.I("b.category_id").Eq(goqu.I("c.id")))).
		Select(bookDetailColumns...).
		Order(goqu.I("b.title").Asc())
}

// buildBookListQuery は全件一覧クエリを構築する。
// availableOnlyが真の場合は貸出可能な書籍のみに絞り込む。
func buildBookListQuery(availableOnly bool) (string, []any, error) {
	ds := bookDetailDataset()
	if availableOnly {
		ds = ds.Where(goqu.I("b.available").IsTrue())
	}
	return toSQL(ds)
}

// buildBookSearchQuery は部分一致検索クエリを構築する。
// タイトル、ISBN、著者の名・姓のいずれかにtermを含む書籍を対象とする。
// LIKEは元データの大文字小文字をそのまま比較する（部分文字列一致）。
func buildBookSearchQuery(term string) (string, []any, error) {
	pattern := "%" + term + "%"
	ds := bookDetailDataset().Where(goqu.Or(
		goqu.I("b.title").Like(pattern),
		goqu.I("b.isbn").Like(pattern),
		goqu.I("a.first_name").Like(pattern),
		goqu.I("a.last_name").Like(pattern),
	))
	return toSQL(ds)
}

// buildBookDetailByISBNQuery はISBN指定の詳細取得クエリを構築する。
func buildBookDetailByISBNQuery(isbn string) (string, []any, error) {
	ds := bookDetailDataset().Where(goqu.I("b.isbn").Eq(isbn))
	return toSQL(ds)
}

func toSQL(ds *goqu.SelectDataset) (string, []any, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("クエリの構築に失敗しました: %w", err)
	}
	return query, args, nil
}
