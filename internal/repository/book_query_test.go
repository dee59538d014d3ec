package repository

import (
	"strings"
	"testing"
)

// TestBuildBookListQuery_All は全件一覧クエリの構造を検証する。
func TestBuildBookListQuery_All(t *testing.T) {
	query, args, err := buildBookListQuery(false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, want := range []string{`"books"`, `"authors"`, `"categories"`, "ORDER BY"} {
		if !strings.Contains(query, want) {
			t.Errorf("query should contain %q, got %q", want, query)
		}
	}
	if strings.Contains(query, "WHERE") {
		t.Errorf("unfiltered list should have no WHERE clause, got %q", query)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

// TestBuildBookListQuery_AvailableOnly は貸出可能のみの絞り込みを検証する。
func TestBuildBookListQuery_AvailableOnly(t *testing.T) {
	query, _, err := buildBookListQuery(true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.Contains(query, "WHERE") || !strings.Contains(query, `"available"`) {
		t.Errorf("query should filter on available flag, got %q", query)
	}
}

// TestBuildBookSearchQuery は部分一致検索クエリを検証する。
// 検索語が%で囲まれてプレースホルダ引数として渡ること。
func TestBuildBookSearchQuery(t *testing.T) {
	query, args, err := buildBookSearchQuery("García")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.Contains(query, "LIKE") {
		t.Errorf("query should use LIKE, got %q", query)
	}
	// タイトル、ISBN、著者の名・姓の4条件
	if got := strings.Count(query, "LIKE"); got != 4 {
		t.Errorf("LIKE count = %d, want 4", got)
	}

	if len(args) != 4 {
		t.Fatalf("args = %v, want 4 elements", args)
	}
	for i, arg := range args {
		if arg != "%García%" {
			t.Errorf("args[%d] = %v, want %q", i, arg, "%García%")
		}
	}

	// 検索語がSQL文字列に直接埋め込まれていないこと
	if strings.Contains(query, "García") {
		t.Errorf("term must be passed as a placeholder, got %q", query)
	}
}

// TestBuildBookDetailByISBNQuery はISBN指定クエリを検証する。
func TestBuildBookDetailByISBNQuery(t *testing.T) {
	query, args, err := buildBookDetailByISBNQuery("978-4-06-519465-2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.Contains(query, "$1") {
		t.Errorf("query should use postgres placeholders, got %q", query)
	}
	if len(args) != 1 || args[0] != "978-4-06-519465-2" {
		t.Errorf("args = %v, want [978-4-06-519465-2]", args)
	}
}
