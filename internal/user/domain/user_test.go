package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_VerificationPredicates(t *testing.T) {
	u := &User{ID: 1, Phone: StringPtr("13800000000")}
	assert.False(t, u.HasVerifiedPhone())
	assert.False(t, u.HasVerifiedEmail())

	now := time.Now().UTC()
	u.PhoneVerifiedAt = &now
	assert.True(t, u.HasVerifiedPhone())
	assert.False(t, u.HasVerifiedEmail())
}

func TestUser_Routes(t *testing.T) {
	u := &User{}
	assert.Equal(t, "", u.PhoneRoute())
	assert.Equal(t, "", u.EmailRoute())

	u.Phone = StringPtr("13800000000")
	u.Email = StringPtr("a@example.com")
	assert.Equal(t, "13800000000", u.PhoneRoute())
	assert.Equal(t, "a@example.com", u.EmailRoute())
}

func TestUser_Apply(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	u := &User{ID: 7, Username: "alice", PasswordHash: "old", CreatedAt: created, UpdatedAt: created}
	at := created.Add(time.Hour)
	phone := "13900000000"

	u.Apply(PrivilegedChange{Phone: &phone, PhoneVerifiedAt: &at}, at)

	require.NotNil(t, u.Phone)
	assert.Equal(t, phone, *u.Phone)
	require.NotNil(t, u.PhoneVerifiedAt)
	assert.True(t, u.PhoneVerifiedAt.Equal(at))
	assert.Equal(t, "old", u.PasswordHash, "untouched fields must be kept")
	assert.Nil(t, u.Email)
	assert.True(t, u.UpdatedAt.Equal(at))

	// the entity must not alias the change's pointers
	phone = "changed"
	assert.Equal(t, "13900000000", *u.Phone)
}

func TestPrivilegedChange_Empty(t *testing.T) {
	assert.True(t, PrivilegedChange{}.Empty())
	tok := "x"
	assert.False(t, PrivilegedChange{RememberToken: &tok}.Empty())
}

func TestRegistration_Validate(t *testing.T) {
	tests := []struct {
		name string
		reg  Registration
		want error
	}{
		{"phone only", Registration{Username: "a", Phone: "13800000000", Password: "p"}, nil},
		{"email only", Registration{Username: "a", Email: "a@example.com", Password: "p"}, nil},
		{"no contact", Registration{Username: "a", Password: "p"}, ErrContactRequired},
		{"bad phone", Registration{Username: "a", Phone: "138-0000", Password: "p"}, ErrInvalidPhone},
		{"long phone", Registration{Username: "a", Phone: "138000000001", Password: "p"}, ErrInvalidPhone},
		{"no username", Registration{Phone: "13800000000", Password: "p"}, ErrUsernameRequired},
		{"no password", Registration{Username: "a", Phone: "13800000000"}, ErrPasswordRequired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.reg.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRegistration_Normalize(t *testing.T) {
	r := Registration{Username: " bob ", Email: " Bob@Example.COM ", Phone: " 13800000000 "}
	r.Normalize()
	assert.Equal(t, "bob", r.Username)
	assert.Equal(t, "bob@example.com", r.Email)
	assert.Equal(t, "13800000000", r.Phone)
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("13800000000"))
	assert.True(t, ValidPhone("110"))
	assert.False(t, ValidPhone(""))
	assert.False(t, ValidPhone("138000000000"))
	assert.False(t, ValidPhone("+8613800000"))
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	p := StringPtr("x")
	require.NotNil(t, p)
	assert.Equal(t, "x", *p)
}
