package report

import (
	"net/url"
	"time"

	"github.com/dhi/telemed/internal/model"
)

// Preset は期間のクイック選択。
type Preset string

const (
	PresetNone      Preset = ""
	PresetLast7     Preset = "7d"
	PresetLast30    Preset = "30d"
	PresetThisMonth Preset = "month"
	PresetAll       Preset = "all"
)

// defaultRangeDays は期間未指定時の開始日（今日からの日数）。
const defaultRangeDays = 30

// Filter はダッシュボードの絞り込み条件。
type Filter struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	// Hospital は病院名。空文字列は全病院。
	Hospital     string   `json:"hospital,omitempty"`
	SiteControls []string `json:"site_controls,omitempty"`
	Regions      []string `json:"regions,omitempty"`
	Preset       Preset   `json:"preset,omitempty"`
}

// StartDate は開始日を"2006-01-02"形式で返す。
func (f Filter) StartDate() string { return f.Start.Format(model.DateLayout) }

// EndDate は終了日を"2006-01-02"形式で返す。
func (f Filter) EndDate() string { return f.End.Format(model.DateLayout) }

// Query はフィルタをURLクエリとして返す。CSVダウンロードのリンクに使用する。
func (f Filter) Query() string {
	q := url.Values{}
	q.Set("start", f.StartDate())
	q.Set("end", f.EndDate())
	if f.Hospital != "" {
		q.Set("hospital", f.Hospital)
	}
	for _, s := range f.SiteControls {
		q.Add("site", s)
	}
	for _, r := range f.Regions {
		q.Add("region", r)
	}
	return q.Encode()
}

// ParseFilter はクエリパラメータからフィルタを組み立てる。
// bounds は全Transactionの最小・最大日付を返す関数で、PresetAllの場合のみ呼び出す。
//
// 優先順位:
//  1. presetが指定されていればその期間
//  2. start/endが指定されていればその期間（逆転していれば入れ替える）
//  3. 未指定なら今日から30日前〜今日
func ParseFilter(q url.Values, today time.Time, bounds func() (time.Time, time.Time, bool)) Filter {
	today = truncateDay(today)
	f := Filter{
		Start:    today.AddDate(0, 0, -defaultRangeDays),
		End:      today,
		Hospital: q.Get("hospital"),
	}

	if start, err := time.Parse(model.DateLayout, q.Get("start")); err == nil {
		f.Start = start
	}
	if end, err := time.Parse(model.DateLayout, q.Get("end")); err == nil {
		f.End = end
	}
	if f.Start.After(f.End) {
		f.Start, f.End = f.End, f.Start
	}

	switch Preset(q.Get("preset")) {
	case PresetLast7:
		f.Preset = PresetLast7
		f.Start, f.End = today.AddDate(0, 0, -6), today
	case PresetLast30:
		f.Preset = PresetLast30
		f.Start, f.End = today.AddDate(0, 0, -29), today
	case PresetThisMonth:
		f.Preset = PresetThisMonth
		f.Start, f.End = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC), today
	case PresetAll:
		f.Preset = PresetAll
		if bounds != nil {
			if min, max, ok := bounds(); ok {
				f.Start, f.End = min, max
			}
		}
	}

	f.SiteControls = onlyChoices(q["site"], model.SiteControlChoices)
	f.Regions = onlyChoices(q["region"], model.Regions())
	return f
}

// includesDate は日付が期間内（両端を含む）かを返す。
func (f Filter) includesDate(day time.Time) bool {
	return !day.Before(f.Start) && !day.After(f.End)
}

// matchesRow は日付以外の条件に一致するかを返す。
func (f Filter) matchesRow(r Row) bool {
	if f.Hospital != "" && r.HospitalName != f.Hospital {
		return false
	}
	if len(f.SiteControls) > 0 && !model.Contains(f.SiteControls, r.SiteControl) {
		return false
	}
	if len(f.Regions) > 0 && !model.Contains(f.Regions, r.Region) {
		return false
	}
	return true
}

func onlyChoices(values, choices []string) []string {
	var out []string
	for _, v := range values {
		if model.Contains(choices, v) && !model.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
