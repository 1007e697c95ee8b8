package permission

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_api/internal/apperrors"
)

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name string
		have Set
		need []Permission
		ok   bool
	}{
		{"exact match", Set{User}, []Permission{User}, true},
		{"one of many", Set{User}, []Permission{Admin, User}, true},
		{"admin alone suffices", Set{Admin}, []Permission{Admin, ItemDelete}, true},
		{"no overlap", Set{User}, []Permission{Admin, PermissionUpdate}, false},
		{"empty set", Set{}, []Permission{User}, false},
		{"superset user", Set{User, Admin, ItemDelete}, []Permission{PermissionUpdate, ItemDelete}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.have, tc.need...)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, apperrors.ErrForbidden)
			}
		})
	}
}

func TestAuthorizeErrorCarriesBothSets(t *testing.T) {
	err := Authorize(Set{User}, Admin, PermissionUpdate)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ADMIN")
	require.Contains(t, err.Error(), "PERMISSIONUPDATE")
	require.Contains(t, err.Error(), "USER")
}

func TestParseSet(t *testing.T) {
	set, err := ParseSet([]string{"ADMIN", "USER", "ADMIN"})
	require.NoError(t, err)
	require.Len(t, set, 2)
	require.True(t, set.Has(Admin))
	require.True(t, set.Has(User))

	_, err = ParseSet([]string{"ADMIN", "SUPERUSER"})
	require.ErrorIs(t, err, apperrors.ErrValidationMismatch)
}

func TestSetScanValueRoundTrip(t *testing.T) {
	set := Set{Admin, ItemDelete}

	v, err := set.Value()
	require.NoError(t, err)

	var got Set
	require.NoError(t, got.Scan(v))
	require.Equal(t, set, got)

	var fromNil Set
	require.NoError(t, fromNil.Scan(nil))
	require.Empty(t, fromNil)
}
