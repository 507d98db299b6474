package model

import "time"

// Hospital は取引を記録する病院を表す。
// RidersCount はRiderのキャパシティで、日次の RidersActive の上限となる。
type Hospital struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Province      string     `json:"province"`
	Region        string     `json:"region"`
	SiteControl   string     `json:"site_control"`
	SystemType    string     `json:"system_type"`
	ServiceModels []string   `json:"service_models"`
	RidersCount   int        `json:"riders_count"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// Transaction は病院ごとの日次取引件数とアクティブRider数を表す。
// Date は "2006-01-02" 形式の日付文字列。
type Transaction struct {
	ID                string     `json:"id"`
	HospitalID        string     `json:"hospital_id"`
	Date              string     `json:"date"`
	TransactionsCount int        `json:"transactions_count"`
	RidersActive      int        `json:"riders_active"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
}

// DateLayout はTransaction.Dateの書式。
const DateLayout = "2006-01-02"

// Day はDateをtime.Timeとして解析する。
func (t Transaction) Day() (time.Time, error) {
	return time.Parse(DateLayout, t.Date)
}
