package render

import (
	"html/template"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/report"
	"github.com/dhi/telemed/internal/transaction"
)

// DashboardData はダッシュボードの描画データ。
type DashboardData struct {
	Report    *report.Report
	Hospitals []string
	Figures   template.JS
	Presets   []PresetOption
	Sites     []string
	Regions   []string
}

// PresetOption は期間クイック選択ボタン。
type PresetOption struct {
	Preset report.Preset
	Label  string
}

// DashboardPresets はダッシュボードに表示する期間クイック選択。
var DashboardPresets = []PresetOption{
	{report.PresetLast7, "7 วันล่าสุด"},
	{report.PresetLast30, "30 วันล่าสุด"},
	{report.PresetThisMonth, "เดือนนี้"},
	{report.PresetAll, "ทั้งหมด"},
}

// Exports はダウンロード可能なCSVの一覧を返す。
func (d DashboardData) Exports() []ExportLink {
	links := make([]ExportLink, 0, len(report.ExportKinds))
	q := ""
	if d.Report != nil {
		q = d.Report.Filter.Query()
	}
	for _, k := range report.ExportKinds {
		href := "/export/" + k.Kind.FileName()
		if q != "" {
			href += "?" + q
		}
		links = append(links, ExportLink{Href: href, Label: k.Label})
	}
	return links
}

// ExportLink はCSVダウンロードリンク。
type ExportLink struct {
	Href  string
	Label string
}

// HospitalsData は病院管理ページの描画データ。
type HospitalsData struct {
	Hospitals []*model.Hospital
	// Form は編集中の病院。IDが空の場合は新規登録フォーム。
	Form          *model.Hospital
	Provinces     []string
	SiteControls  []string
	Systems       []string
	ServiceModels []string
}

// NewHospitalsData は選択肢を埋めたHospitalsDataを生成する。
func NewHospitalsData(hospitals []*model.Hospital, form *model.Hospital) HospitalsData {
	if form == nil {
		form = &model.Hospital{}
	}
	return HospitalsData{
		Hospitals:     hospitals,
		Form:          form,
		Provinces:     model.Provinces(),
		SiteControls:  model.SiteControlChoices,
		Systems:       model.SystemChoices,
		ServiceModels: model.ServiceModelChoices,
	}
}

// TransactionsData は取引管理ページの描画データ。
type TransactionsData struct {
	Entries   []transaction.Entry
	Hospitals []*model.Hospital
	// Form は編集中の取引。IDが空の場合は新規登録フォーム。
	Form          *model.Transaction
	ImportColumns []string
}

// AdminsData は管理者ページの描画データ。
type AdminsData struct {
	Admins []*model.Admin
	// Username は入力エラー時に再表示するユーザー名。
	Username string
}
