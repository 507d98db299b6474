package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/repository"
)

// CookieName はセッションIDを保持するCookie名。
const CookieName = "session_id"

// Session はCookieで識別されるセッション。
// IDが空の場合はまだ永続化されていない。
type Session struct {
	ID     string
	Record Record
}

// CookieOptions はセッションCookieの属性。
type CookieOptions struct {
	Secure bool
	Domain string
}

// Store はSession RecordをSessionRepositoryに保存する。
type Store struct {
	repo   repository.SessionRepository
	maxAge time.Duration
	cookie CookieOptions
	now    func() time.Time
}

// NewStore はStoreを生成する。
func NewStore(repo repository.SessionRepository, maxAge time.Duration, cookie CookieOptions) *Store {
	return &Store{
		repo:   repo,
		maxAge: maxAge,
		cookie: cookie,
		now:    time.Now,
	}
}

// Load はCookieのセッションIDからセッションを読み込む。
// Cookieがない、期限切れ、またはデータが壊れている場合は空のセッションを返す。
func (s *Store) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return &Session{}, nil
	}

	stored, err := s.repo.FindByID(ctx, cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if stored == nil {
		return &Session{}, nil
	}

	sess := &Session{ID: stored.ID}
	if len(stored.Data) > 0 {
		if err := json.Unmarshal(stored.Data, &sess.Record); err != nil {
			slog.Warn("セッションデータのデコードに失敗しました",
				slog.String("error", err.Error()),
			)
			sess.Record = Record{}
		}
	}
	return sess, nil
}

// Save はセッションを保存する。未永続化のセッションは新しいIDで作成し、Cookieを設定する。
// 未永続化かつ空のセッションは保存しない。
func (s *Store) Save(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess.ID == "" {
		if sess.Record.IsEmpty() {
			return nil
		}
		return s.create(ctx, w, sess)
	}

	data, err := json.Marshal(sess.Record)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.repo.UpdateData(ctx, sess.ID, userID(&sess.Record), data); err != nil {
		return err
	}
	return nil
}

// Rotate は既存のセッションを破棄し、同じRecordを新しいIDで保存する。
// サインイン時のセッション固定攻撃を防ぐために使用する。
func (s *Store) Rotate(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess.ID != "" {
		if err := s.repo.DeleteByID(ctx, sess.ID); err != nil {
			return err
		}
		sess.ID = ""
	}
	return s.create(ctx, w, sess)
}

// Destroy はセッションを削除し、Recordを全て破棄してCookieを失効させる。
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	id := sess.ID
	sess.ID = ""
	sess.Record.Clear()
	s.expireCookie(w)

	if id == "" {
		return nil
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	return nil
}

func (s *Store) create(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	id, err := generateSessionID()
	if err != nil {
		return fmt.Errorf("failed to generate session ID: %w", err)
	}
	data, err := json.Marshal(sess.Record)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	now := s.now()
	stored := &model.Session{
		ID:        id,
		UserID:    userID(&sess.Record),
		Data:      data,
		ExpiresAt: now.Add(s.maxAge),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, stored); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	sess.ID = id
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		Domain:   s.cookie.Domain,
		MaxAge:   int(s.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Store) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   s.cookie.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func userID(r *Record) string {
	if r.Identity == nil {
		return ""
	}
	return r.Identity.ID
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
