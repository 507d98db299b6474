package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ExportKind はCSVダウンロードの種類。
type ExportKind string

const (
	ExportFiltered   ExportKind = "transactions_filtered"
	ExportBySite     ExportKind = "by_sitecontrol"
	ExportByHospital ExportKind = "by_hospital"
	ExportByMonth    ExportKind = "by_month"
)

// ExportKinds はダウンロード可能な種類と表示名。
var ExportKinds = []struct {
	Kind  ExportKind
	Label string
}{
	{ExportFiltered, "ดาวน์โหลดข้อมูลที่กรองแล้ว (รายวัน)"},
	{ExportBySite, "ดาวน์โหลดแยกตามทีมภูมิภาค"},
	{ExportByHospital, "ดาวน์โหลดภาพรวมต่อโรงพยาบาล"},
	{ExportByMonth, "ดาวน์โหลดภาพรวมรายเดือน"},
}

// utf8BOM は表計算ソフトでタイ語を正しく表示するためにCSVの先頭に付与する。
const utf8BOM = "\ufeff"

// ParseExportKind は文字列をExportKindに変換する。".csv"拡張子は無視する。
func ParseExportKind(s string) (ExportKind, bool) {
	kind := ExportKind(strings.TrimSuffix(s, ".csv"))
	switch kind {
	case ExportFiltered, ExportBySite, ExportByHospital, ExportByMonth:
		return kind, true
	default:
		return "", false
	}
}

// FileName はダウンロード時のファイル名を返す。
func (k ExportKind) FileName() string {
	return string(k) + ".csv"
}

// WriteCSV は集計結果をBOM付きUTF-8のCSVとして書き込む。
func WriteCSV(w io.Writer, kind ExportKind, rep *Report) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	var records [][]string
	switch kind {
	case ExportFiltered:
		records = append(records, []string{
			"date", "hospital_id", "name", "province", "region", "site_control",
			"transactions_count", "riders_active", "riders_count",
		})
		for _, r := range rep.Rows {
			records = append(records, []string{
				r.Date, r.HospitalID, r.HospitalName, r.Province, r.Region, r.SiteControl,
				strconv.Itoa(r.TransactionsCount), strconv.Itoa(r.RidersActive), strconv.Itoa(r.RidersCount),
			})
		}
	case ExportBySite:
		records = groupRecords("site_control", rep.BySite, true)
	case ExportByHospital:
		records = groupRecords("name", rep.ByHospital, true)
	case ExportByMonth:
		records = groupRecords("month", rep.Monthly, false)
	default:
		return fmt.Errorf("unknown export kind: %q", kind)
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func groupRecords(keyColumn string, groups []Group, withCapacity bool) [][]string {
	header := []string{keyColumn, "transactions_count", "riders_active"}
	if withCapacity {
		header = append(header, "riders_count")
	}
	records := [][]string{header}
	for _, g := range groups {
		rec := []string{g.Key, strconv.Itoa(g.Transactions), strconv.Itoa(g.RidersActive)}
		if withCapacity {
			rec = append(rec, strconv.Itoa(g.RiderCapacity))
		}
		records = append(records, rec)
	}
	return records
}
