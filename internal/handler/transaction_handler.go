package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/render"
	"github.com/dhi/telemed/internal/transaction"
)

// maxImportSize はCSV取り込みで受け付けるファイルサイズの上限（10MB）。
const maxImportSize = 10 << 20

// TransactionServiceInterface はTransaction管理ハンドラーが必要とするサービスインターフェース。
type TransactionServiceInterface interface {
	List(ctx context.Context) ([]transaction.Entry, error)
	Get(ctx context.Context, id string) (*model.Transaction, error)
	Create(ctx context.Context, in transaction.Input) (*model.Transaction, error)
	Update(ctx context.Context, id string, in transaction.Input) (*model.Transaction, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, r io.Reader) (int, error)
}

// HospitalLister はフォームの病院選択肢を取得するためのインターフェース。
type HospitalLister interface {
	List(ctx context.Context) ([]*model.Hospital, error)
}

// TransactionHandler はTransaction管理ページのHTTPハンドラー。
type TransactionHandler struct {
	service   TransactionServiceInterface
	hospitals HospitalLister
	renderer  *render.Renderer
}

// NewTransactionHandler はTransactionHandlerを生成する。
func NewTransactionHandler(service TransactionServiceInterface, hospitals HospitalLister, renderer *render.Renderer) *TransactionHandler {
	return &TransactionHandler{
		service:   service,
		hospitals: hospitals,
		renderer:  renderer,
	}
}

// List はTransaction一覧と新規登録フォームを表示する。
// GET /admin/transactions
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, nil, "")
}

// Edit はTransactionの編集フォームを表示する。
// GET /admin/transactions/{id}
func (h *TransactionHandler) Edit(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.page(w, r, statusForError(err), nil, errorMessage(err))
		return
	}
	h.page(w, r, http.StatusOK, tx, "")
}

// Create はTransactionを登録する。
// POST /admin/transactions
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := transactionInputFromForm(r)
	if err == nil {
		_, err = h.service.Create(r.Context(), in)
	}
	if err != nil {
		h.page(w, r, statusForError(err), formTransaction("", in), errorMessage(err))
		return
	}
	h.renderer.Redirect(w, r, "/admin/transactions", "บันทึก Transaction เรียบร้อยแล้ว")
}

// Update はTransactionを更新する。
// POST /admin/transactions/{id}
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in, err := transactionInputFromForm(r)
	if err == nil {
		_, err = h.service.Update(r.Context(), id, in)
	}
	if err != nil {
		h.page(w, r, statusForError(err), formTransaction(id, in), errorMessage(err))
		return
	}
	h.renderer.Redirect(w, r, "/admin/transactions", "บันทึกการแก้ไขเรียบร้อยแล้ว")
}

// Delete はTransactionを削除する。
// POST /admin/transactions/{id}/delete
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.page(w, r, statusForError(err), nil, errorMessage(err))
		return
	}
	h.renderer.Redirect(w, r, "/admin/transactions", "ลบ Transaction เรียบร้อยแล้ว")
}

// Import はアップロードされたCSVからTransactionを一括登録する。
// POST /admin/transactions/import
func (h *TransactionHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		h.page(w, r, http.StatusBadRequest, nil, "ไม่สามารถอ่านไฟล์ที่อัปโหลดได้")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.page(w, r, http.StatusBadRequest, nil, "กรุณาเลือกไฟล์ CSV")
		return
	}
	defer file.Close()

	n, err := h.service.Import(r.Context(), file)
	if err != nil {
		h.page(w, r, statusForError(err), nil, errorMessage(err))
		return
	}
	h.renderer.Redirect(w, r, "/admin/transactions", fmt.Sprintf("นำเข้าข้อมูลสำเร็จ %d แถว", n))
}

// page はTransaction一覧とフォームを描画する。
func (h *TransactionHandler) page(w http.ResponseWriter, r *http.Request, status int, form *model.Transaction, errMsg string) {
	entries, err := h.service.List(r.Context())
	if err != nil && errMsg == "" {
		status = statusForError(err)
		errMsg = errorMessage(err)
	}
	hospitals, err := h.hospitals.List(r.Context())
	if err != nil && errMsg == "" {
		status = statusForError(err)
		errMsg = errorMessage(err)
	}
	if form == nil {
		form = &model.Transaction{}
	}

	v := h.renderer.NewView(r, "จัดการ Transaction", "transactions")
	v.Error = errMsg
	v.Data = render.TransactionsData{
		Entries:       entries,
		Hospitals:     hospitals,
		Form:          form,
		ImportColumns: transaction.ImportColumns,
	}
	h.renderer.Page(w, r, status, "transactions", v)
}

// transactionInputFromForm はフォームの値をtransaction.Inputに変換する。
func transactionInputFromForm(r *http.Request) (transaction.Input, error) {
	if err := r.ParseForm(); err != nil {
		return transaction.Input{}, model.NewInvalidInputError("ไม่สามารถอ่านข้อมูลฟอร์มได้")
	}

	in := transaction.Input{
		HospitalID: r.PostForm.Get("hospital_id"),
		Date:       r.PostForm.Get("date"),
	}

	var err error
	if in.TransactionsCount, err = parseCount(r.PostForm.Get("transactions_count")); err != nil {
		return in, model.NewInvalidInputError("จำนวน Transactions ต้องเป็นตัวเลข")
	}
	if in.RidersActive, err = parseCount(r.PostForm.Get("riders_active")); err != nil {
		return in, model.NewInvalidInputError("จำนวน Rider Active ต้องเป็นตัวเลข")
	}
	return in, nil
}

// formTransaction は入力エラー時にフォームへ再表示する値を組み立てる。
func formTransaction(id string, in transaction.Input) *model.Transaction {
	return &model.Transaction{
		ID:                id,
		HospitalID:        in.HospitalID,
		Date:              in.Date,
		TransactionsCount: in.TransactionsCount,
		RidersActive:      in.RidersActive,
	}
}
