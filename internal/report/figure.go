package report

import (
	"encoding/json"
	"html/template"
	"strconv"
)

// 系列名
const (
	SeriesTransactions = "Transactions"
	SeriesRidersActive = "Rider Active"
)

// Trace はPlotlyのbarトレース。
type Trace struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	X            []string `json:"x"`
	Y            []int    `json:"y"`
	Text         []string `json:"text"`
	TextPosition string   `json:"textposition"`
}

// Axis はPlotlyの軸設定。
type Axis struct {
	Title string `json:"title"`
	Type  string `json:"type,omitempty"`
}

// Layout はPlotlyのレイアウト設定。
type Layout struct {
	BarMode string `json:"barmode"`
	XAxis   Axis   `json:"xaxis"`
	YAxis   Axis   `json:"yaxis"`
	Height  int    `json:"height"`
}

// Figure はクライアント側でPlotly.newPlotに渡すグラフ定義。
type Figure struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// NewBarFigure はグループ集計からTransactionsとRider Activeの横並び棒グラフを生成する。
func NewBarFigure(id, title, xTitle string, groups []Group) Figure {
	x := make([]string, len(groups))
	tx := make([]int, len(groups))
	ra := make([]int, len(groups))
	for i, g := range groups {
		x[i] = g.Key
		tx[i] = g.Transactions
		ra[i] = g.RidersActive
	}
	return Figure{
		ID:    id,
		Title: title,
		Data: []Trace{
			barTrace(SeriesTransactions, x, tx),
			barTrace(SeriesRidersActive, x, ra),
		},
		Layout: Layout{
			BarMode: "group",
			// 日付や病院名を数値として解釈させない
			XAxis:  Axis{Title: xTitle, Type: "category"},
			YAxis:  Axis{Title: "จำนวน"},
			Height: 420,
		},
	}
}

// Figures はダッシュボードに表示する4つのグラフを返す。
func (r *Report) Figures() []Figure {
	return []Figure{
		NewBarFigure("fig-site", "แยกตามทีมภูมิภาค", "ทีมภูมิภาค", r.BySite),
		NewBarFigure("fig-hospital", "ภาพรวมต่อโรงพยาบาล (รวมในช่วงที่เลือก)", "โรงพยาบาล", r.ByHospital),
		NewBarFigure("fig-daily", "แนวโน้มรายวัน", "วันที่", r.Daily),
		NewBarFigure("fig-monthly", "ภาพรวมรายเดือน", "เดือน", r.Monthly),
	}
}

// FiguresJS はFiguresをscript要素に埋め込めるJSONとして返す。
func (r *Report) FiguresJS() (template.JS, error) {
	b, err := json.Marshal(r.Figures())
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

func barTrace(name string, x []string, y []int) Trace {
	text := make([]string, len(y))
	for i, v := range y {
		text[i] = strconv.Itoa(v)
	}
	return Trace{Type: "bar", Name: name, X: x, Y: y, Text: text, TextPosition: "outside"}
}
