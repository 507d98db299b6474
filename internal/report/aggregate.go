package report

import (
	"sort"
	"time"

	"github.com/dhi/telemed/internal/model"
)

// Row はTransactionに病院情報を左外部結合した1行。
// 病院が見つからない場合、病院側のフィールドは空になる。
type Row struct {
	Date              string   `json:"date"`
	HospitalID        string   `json:"hospital_id"`
	TransactionsCount int      `json:"transactions_count"`
	RidersActive      int      `json:"riders_active"`
	HospitalName      string   `json:"name"`
	Province          string   `json:"province"`
	Region            string   `json:"region"`
	SiteControl       string   `json:"site_control"`
	SystemType        string   `json:"system_type"`
	ServiceModels     []string `json:"service_models,omitempty"`
	RidersCount       int      `json:"riders_count"`
}

// KPIs はフィルタ後の行に対する指標。
type KPIs struct {
	TotalTransactions int `json:"total_transactions"`
	Hospitals         int `json:"hospitals"`
	RidersActive      int `json:"riders_active"`
	RiderCapacity     int `json:"rider_capacity"`
}

// Group はグループ単位の集計値。
type Group struct {
	Key          string `json:"key"`
	Transactions int    `json:"transactions_count"`
	RidersActive int    `json:"riders_active"`
	// RiderCapacity はチーム別・病院別の集計でのみ使用する。
	RiderCapacity int `json:"riders_count"`
}

// Report はダッシュボード1画面分の集計結果。
type Report struct {
	Filter     Filter  `json:"filter"`
	Rows       []Row   `json:"rows"`
	KPIs       KPIs    `json:"kpis"`
	BySite     []Group `json:"by_site"`
	ByHospital []Group `json:"by_hospital"`
	Daily      []Group `json:"daily"`
	Monthly    []Group `json:"monthly"`
}

// Empty は表示する行がないかを返す。
func (r *Report) Empty() bool {
	return len(r.Rows) == 0
}

// Build はTransactionを期間で絞り込み、病院と結合した上で集計する。
func Build(f Filter, hospitals []*model.Hospital, txs []*model.Transaction) *Report {
	rep := &Report{Filter: f, Rows: []Row{}}

	// 1. 期間で絞り込み
	byID := make(map[string]*model.Hospital, len(hospitals))
	for _, h := range hospitals {
		byID[h.ID] = h
	}

	for _, tx := range txs {
		day, err := tx.Day()
		if err != nil || !f.includesDate(day) {
			continue
		}

		// 2. 病院と左外部結合
		row := joinRow(tx, byID[tx.HospitalID])

		// 3. 病院名・チーム・地域で絞り込み
		if !f.matchesRow(row) {
			continue
		}
		rep.Rows = append(rep.Rows, row)
	}

	// 4. KPIとグループ集計
	rep.KPIs = computeKPIs(rep.Rows)
	rep.BySite = groupBy(rep.Rows, func(r Row) string { return r.SiteControl }, true)
	rep.ByHospital = groupBy(rep.Rows, func(r Row) string { return r.HospitalName }, true)
	sort.SliceStable(rep.ByHospital, func(i, j int) bool {
		return rep.ByHospital[i].Transactions > rep.ByHospital[j].Transactions
	})
	rep.Daily = groupBy(rep.Rows, func(r Row) string { return r.Date }, false)
	rep.Monthly = groupBy(rep.Rows, func(r Row) string { return monthOf(r.Date) }, false)
	return rep
}

// DateBounds は全Transactionの最小・最大日付を返す。解析可能な日付がない場合はokがfalse。
func DateBounds(txs []*model.Transaction) (min, max time.Time, ok bool) {
	for _, tx := range txs {
		day, err := tx.Day()
		if err != nil {
			continue
		}
		if !ok || day.Before(min) {
			min = day
		}
		if !ok || day.After(max) {
			max = day
		}
		ok = true
	}
	return min, max, ok
}

func joinRow(tx *model.Transaction, h *model.Hospital) Row {
	row := Row{
		Date:              tx.Date,
		HospitalID:        tx.HospitalID,
		TransactionsCount: tx.TransactionsCount,
		RidersActive:      tx.RidersActive,
	}
	if h != nil {
		row.HospitalName = h.Name
		row.Province = h.Province
		row.Region = h.Region
		row.SiteControl = h.SiteControl
		row.SystemType = h.SystemType
		row.ServiceModels = h.ServiceModels
		row.RidersCount = h.RidersCount
	}
	return row
}

func computeKPIs(rows []Row) KPIs {
	var k KPIs
	hospitals := make(map[string]struct{})
	for _, r := range rows {
		k.TotalTransactions += r.TransactionsCount
		k.RidersActive += r.RidersActive
		k.RiderCapacity += r.RidersCount
		hospitals[r.HospitalID] = struct{}{}
	}
	k.Hospitals = len(hospitals)
	return k
}

// groupBy はキーごとに合計し、キーの昇順で返す。
// skipEmptyがtrueの場合、キーが空の行（病院が見つからない行）は集計しない。
func groupBy(rows []Row, key func(Row) string, skipEmpty bool) []Group {
	index := make(map[string]int)
	groups := []Group{}
	for _, r := range rows {
		k := key(r)
		if k == "" && skipEmpty {
			continue
		}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Transactions += r.TransactionsCount
		groups[i].RidersActive += r.RidersActive
		groups[i].RiderCapacity += r.RidersCount
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// monthOf は"2006-01-02"形式の日付から"2006-01"を返す。
func monthOf(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}
