package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Filter はPostgRESTの列フィルタ（例: user_id=eq.<id>）を表す。
type Filter struct {
	Column   string
	Operator string
	Value    string
}

// Eq は等価フィルタを生成する。
func Eq(column, value string) Filter {
	return Filter{Column: column, Operator: "eq", Value: value}
}

// Gte は以上フィルタを生成する。
func Gte(column, value string) Filter {
	return Filter{Column: column, Operator: "gte", Value: value}
}

// Lte は以下フィルタを生成する。
func Lte(column, value string) Filter {
	return Filter{Column: column, Operator: "lte", Value: value}
}

// Query はテーブル読み取りの条件。
type Query struct {
	Columns string   // select句。空の場合は "*"
	Filters []Filter // AND結合される
	Order   string   // 例: "date.desc"
	Limit   int      // 0の場合は無制限
}

func (q Query) values() url.Values {
	v := url.Values{}
	columns := q.Columns
	if columns == "" {
		columns = "*"
	}
	v.Set("select", columns)
	addFilters(v, q.Filters)
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

func addFilters(v url.Values, filters []Filter) {
	for _, f := range filters {
		v.Add(f.Column, f.Operator+"."+f.Value)
	}
}

func tablePath(table string) string {
	return "/rest/v1/" + url.PathEscape(table)
}

// Select はテーブルの行を取得し、outにデコードする。outはスライスへのポインタ。
func (c *Client) Select(ctx context.Context, table string, q Query, out any) error {
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   tablePath(table),
		query:  q.values(),
	}, out)
}

// Insert は行を挿入する。outがnilでない場合は挿入後の行を受け取る。
func (c *Client) Insert(ctx context.Context, table string, rows any, out any) error {
	return c.do(ctx, request{
		method:  http.MethodPost,
		path:    tablePath(table),
		body:    rows,
		headers: returnHeader(out),
	}, out)
}

// Update はフィルタに一致する行をpatchで更新する。
// フィルタが空の場合は全行更新を防ぐためエラーにせず何もしない。
func (c *Client) Update(ctx context.Context, table string, filters []Filter, patch any, out any) error {
	if len(filters) == 0 {
		return nil
	}
	v := url.Values{}
	addFilters(v, filters)
	return c.do(ctx, request{
		method:  http.MethodPatch,
		path:    tablePath(table),
		query:   v,
		body:    patch,
		headers: returnHeader(out),
	}, out)
}

// Delete はフィルタに一致する行を削除する。フィルタが空の場合は何もしない。
func (c *Client) Delete(ctx context.Context, table string, filters []Filter) error {
	if len(filters) == 0 {
		return nil
	}
	v := url.Values{}
	addFilters(v, filters)
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   tablePath(table),
		query:  v,
	}, nil)
}

func returnHeader(out any) map[string]string {
	if out == nil {
		return map[string]string{"Prefer": "return=minimal"}
	}
	return map[string]string{"Prefer": "return=representation"}
}

// Upsert は行を挿入し、onConflictの列が重複する行は無視する。
func (c *Client) Upsert(ctx context.Context, table, onConflict string, rows any) error {
	v := url.Values{}
	if onConflict != "" {
		v.Set("on_conflict", onConflict)
	}
	return c.do(ctx, request{
		method:  http.MethodPost,
		path:    tablePath(table),
		query:   v,
		body:    rows,
		headers: map[string]string{"Prefer": "resolution=ignore-duplicates,return=minimal"},
	}, nil)
}
