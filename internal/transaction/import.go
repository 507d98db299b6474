package transaction

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dhi/telemed/internal/model"
)

// ImportColumns はCSV取り込みに必要な列（大文字小文字を区別しない）。
var ImportColumns = []string{"hospital_name", "date", "transactions_count", "riders_active"}

const headerError = "หัวคอลัมน์ต้องมี: hospital_name, date(YYYY-MM-DD), transactions_count, riders_active"

// Import はCSVからTransactionを一括登録し、登録件数を返す。
//
// 全行を検証してから1回のリクエストで登録する。
//   - 未登録の病院名が1つでもあれば、その一覧を返して何も登録しない
//   - 最初にRiderキャパシティを超えた行で中断し、何も登録しない
func (s *Service) Import(ctx context.Context, r io.Reader) (int, error) {
	// 1. ヘッダーの検証
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return 0, model.NewInvalidCSVError("ไม่สามารถอ่านไฟล์ CSV ได้")
	}
	if len(records) == 0 {
		return 0, model.NewInvalidCSVError(headerError)
	}
	col, err := headerIndex(records[0])
	if err != nil {
		return 0, model.NewInvalidCSVError(headerError)
	}
	rows := records[1:]
	if len(rows) == 0 {
		return 0, model.NewInvalidCSVError("ไม่มีข้อมูลในไฟล์ CSV")
	}

	// 2. 病院名の解決
	hospitals, err := s.hospitals.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("病院一覧の取得に失敗しました: %w", err)
	}
	byName := make(map[string]*model.Hospital, len(hospitals))
	for _, h := range hospitals {
		byName[h.Name] = h
	}

	var missing []string
	for _, rec := range rows {
		name := field(rec, col["hospital_name"])
		if _, ok := byName[name]; !ok && !model.Contains(missing, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return 0, model.NewUnknownHospitalsError(missing)
	}

	// 3. 各行の検証
	txs := make([]*model.Transaction, 0, len(rows))
	for i, rec := range rows {
		line := i + 2
		h := byName[field(rec, col["hospital_name"])]

		date, err := parseDate(field(rec, col["date"]))
		if err != nil {
			return 0, model.NewInvalidCSVError(fmt.Sprintf("แถวที่ %d: รูปแบบวันที่ไม่ถูกต้อง", line))
		}
		count, err := strconv.Atoi(field(rec, col["transactions_count"]))
		if err != nil || count < 0 {
			return 0, model.NewInvalidCSVError(fmt.Sprintf("แถวที่ %d: transactions_count ไม่ถูกต้อง", line))
		}
		ridersActive, err := strconv.Atoi(field(rec, col["riders_active"]))
		if err != nil || ridersActive < 0 {
			return 0, model.NewInvalidCSVError(fmt.Sprintf("แถวที่ %d: riders_active ไม่ถูกต้อง", line))
		}
		if !withinCapacity(h, ridersActive) {
			return 0, model.NewRiderCapacityExceededError(h.Name, ridersActive)
		}

		txs = append(txs, &model.Transaction{
			ID:                uuid.New().String(),
			HospitalID:        h.ID,
			Date:              date,
			TransactionsCount: count,
			RidersActive:      ridersActive,
		})
	}

	// 4. 一括登録
	if err := s.txs.CreateBatch(ctx, txs); err != nil {
		return 0, fmt.Errorf("Transactionの一括登録に失敗しました: %w", err)
	}
	s.cache.Invalidate()
	return len(txs), nil
}

// headerIndex は必要な列の位置を返す。
func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	for _, c := range ImportColumns {
		if _, ok := index[c]; !ok {
			return nil, errors.New("missing column: " + c)
		}
	}
	return index, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
