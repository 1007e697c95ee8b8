package permission

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/Skotchmaster/shop_api/internal/apperrors"
)

// Permission is a capability label attached to a user. Authorization is a
// flat membership test, there is no hierarchy between labels.
type Permission string

const (
	Admin            Permission = "ADMIN"
	User             Permission = "USER"
	ItemCreate       Permission = "ITEMCREATE"
	ItemUpdate       Permission = "ITEMUPDATE"
	ItemDelete       Permission = "ITEMDELETE"
	PermissionUpdate Permission = "PERMISSIONUPDATE"
)

var known = map[Permission]bool{
	Admin:            true,
	User:             true,
	ItemCreate:       true,
	ItemUpdate:       true,
	ItemDelete:       true,
	PermissionUpdate: true,
}

func (p Permission) Valid() bool {
	return known[p]
}

func Parse(s string) (Permission, error) {
	p := Permission(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown permission %q", apperrors.ErrValidationMismatch, s)
	}
	return p, nil
}

// Set is an unordered set of permission labels, stored as a JSON text column.
type Set []Permission

func ParseSet(labels []string) (Set, error) {
	set := make(Set, 0, len(labels))
	for _, l := range labels {
		p, err := Parse(l)
		if err != nil {
			return nil, err
		}
		if !set.Has(p) {
			set = append(set, p)
		}
	}
	return set, nil
}

func (s Set) Has(p Permission) bool {
	for _, have := range s {
		if have == p {
			return true
		}
	}
	return false
}

func (s Set) Intersects(other Set) bool {
	for _, p := range other {
		if s.Has(p) {
			return true
		}
	}
	return false
}

func (s Set) Value() (driver.Value, error) {
	if s == nil {
		s = Set{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *Set) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = Set{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan permission set from %T", value)
	}
}

// Authorize succeeds iff the user holds at least one of the needed
// permissions. The error carries both sets so the caller can surface them.
func Authorize(have Set, need ...Permission) error {
	if have.Intersects(Set(need)) {
		return nil
	}
	return fmt.Errorf("%w: you need one of %v, you have %v", apperrors.ErrForbidden, need, have)
}
