package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// RoleAdmin は管理画面へのアクセスに必要なロール。
const RoleAdmin = "admin"

// RoleSet はロール名の集合。重複と順序を持たない。
// nilは「未解決」、空の集合は「ロールなし」を表す。
type RoleSet map[string]struct{}

// NewRoleSet は指定ロールから集合を生成する。空文字列は無視する。
// 戻り値は常にnilでない。
func NewRoleSet(roles ...string) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r != "" {
			s[r] = struct{}{}
		}
	}
	return s
}

// Has はロールを含むかを返す。
func (s RoleSet) Has(role string) bool {
	_, ok := s[role]
	return ok
}

// ContainsAll はrequiredの全ロールを含むかを返す。requiredが空の場合はtrue。
func (s RoleSet) ContainsAll(required []string) bool {
	for _, r := range required {
		if !s.Has(r) {
			return false
		}
	}
	return true
}

// Without は指定ロールを除いた新しい集合を返す。
func (s RoleSet) Without(role string) RoleSet {
	out := make(RoleSet, len(s))
	for r := range s {
		if r != role {
			out[r] = struct{}{}
		}
	}
	return out
}

// Slice はロール名をソートして返す。
func (s RoleSet) Slice() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON はソート済みの配列としてエンコードする。nilはnullになる。
func (s RoleSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(s.Slice())
}

// UnmarshalJSON は配列からデコードする。nullの場合は何もしない。
func (s *RoleSet) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var roles []string
	if err := json.Unmarshal(data, &roles); err != nil {
		return err
	}
	*s = NewRoleSet(roles...)
	return nil
}
