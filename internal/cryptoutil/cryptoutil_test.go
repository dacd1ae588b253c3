package cryptoutil

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSealer(t *testing.T) *AESGCMSealer {
	t.Helper()
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	s, err := NewAESGCMSealer(key)
	require.NoError(t, err)
	return s
}

func TestAESGCMSealer_RoundTrip(t *testing.T) {
	s := testSealer(t)

	sealed, err := s.Seal("oauth_state", []byte("state-123"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "v1."))
	assert.NotContains(t, sealed, "state-123")
	assert.NotContainsf(t, sealed, "=", "sealed value must be cookie safe")

	got, err := s.Open("oauth_state", sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("state-123"), got)
}

func TestAESGCMSealer_Rejects(t *testing.T) {
	s := testSealer(t)
	sealed, err := s.Seal("oauth_state", []byte("payload"))
	require.NoError(t, err)

	other, err := NewAESGCMSealer(make([]byte, KeySize))
	require.NoError(t, err)

	tampered := []byte(sealed)
	tampered[len(tampered)/2] ^= 0x01

	tests := []struct {
		name   string
		sealer Sealer
		cookie string
		value  string
	}{
		{"wrong name", s, "session_id", sealed},
		{"wrong key", other, "oauth_state", sealed},
		{"tampered", s, "oauth_state", string(tampered)},
		{"no prefix", s, "oauth_state", strings.TrimPrefix(sealed, "v1.")},
		{"not base64", s, "oauth_state", "v1.***"},
		{"too short", s, "oauth_state", "v1." + base64.RawURLEncoding.EncodeToString([]byte("x"))},
		{"empty", s, "oauth_state", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.sealer.Open(tt.cookie, tt.value)
			assert.ErrorIs(t, err, ErrInvalidSealed)
		})
	}
}

func TestNewAESGCMSealer_InvalidKey(t *testing.T) {
	_, err := NewAESGCMSealer([]byte("short"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be 32 bytes")
}

func TestParseKey(t *testing.T) {
	raw := []byte("0123456789abcdef0123456789abcdef")

	for _, in := range []string{
		string(raw),
		base64.StdEncoding.EncodeToString(raw),
		base64.RawURLEncoding.EncodeToString(raw),
	} {
		got, err := ParseKey(in)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}

	_, err := ParseKey("too-short")
	assert.Error(t, err)
}

func TestSealJSON(t *testing.T) {
	s := testSealer(t)
	type bundle struct {
		State    string `json:"s"`
		Redirect string `json:"r"`
	}

	sealed, err := SealJSON(s, "oauth_state", bundle{State: "abc", Redirect: "/setup"})
	require.NoError(t, err)

	got, err := OpenJSON[bundle](s, "oauth_state", sealed)
	require.NoError(t, err)
	assert.Equal(t, bundle{State: "abc", Redirect: "/setup"}, got)

	_, err = OpenJSON[bundle](s, "other", sealed)
	assert.ErrorIs(t, err, ErrInvalidSealed)
}

func TestRandomKey(t *testing.T) {
	a, err := RandomKey()
	require.NoError(t, err)
	b, err := RandomKey()
	require.NoError(t, err)
	assert.Len(t, a, KeySize)
	assert.NotEqual(t, a, b)
}
