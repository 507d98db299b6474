package auth

import (
	"errors"

	"github.com/dhi/telemed/internal/model"
)

var (
	// ErrInvalidInput はサインイン入力が形式要件を満たさないことを表す。
	// この場合プロバイダーは呼び出されない。
	ErrInvalidInput = errors.New("invalid sign-in input")
	// ErrInvalidCredentials はCredential Storeがサインインを拒否したことを表す。
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// authError はセンチネルエラーと画面表示用のAPIErrorを組み合わせる。
// errors.Isではkind、errors.Asでは*model.APIErrorとして判定できる。
type authError struct {
	kind error
	api  *model.APIError
}

func (e *authError) Error() string {
	return e.api.Error()
}

func (e *authError) Is(target error) bool {
	return target == e.kind
}

func (e *authError) Unwrap() error {
	return e.api
}

func invalidInput(api *model.APIError) error {
	return &authError{kind: ErrInvalidInput, api: api}
}

func rejected(api *model.APIError) error {
	return &authError{kind: ErrInvalidCredentials, api: api}
}
