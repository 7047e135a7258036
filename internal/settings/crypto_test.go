package settings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropforge/supplier-bridge/internal/settings"
)

func TestSecretBox_RoundTrip(t *testing.T) {
	t.Parallel()

	box, err := settings.NewSecretBox("unit-test-secret")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
	}{
		{name: "api key", in: "cj-api-key-0123456789abcdef"},
		{name: "empty string", in: ""},
		{name: "unicode", in: "pässwörd-密钥"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sealed, err := box.Seal(tt.in)
			require.NoError(t, err)
			assert.NotEqual(t, tt.in, sealed)

			opened, err := box.Open(sealed)
			require.NoError(t, err)
			assert.Equal(t, tt.in, opened)
		})
	}
}

func TestSecretBox_NoncesDiffer(t *testing.T) {
	t.Parallel()

	box, err := settings.NewSecretBox("unit-test-secret")
	require.NoError(t, err)

	a, err := box.Seal("same plaintext")
	require.NoError(t, err)
	b, err := box.Seal("same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSecretBox_WrongSecret(t *testing.T) {
	t.Parallel()

	box1, err := settings.NewSecretBox("secret-one")
	require.NoError(t, err)
	box2, err := settings.NewSecretBox("secret-two")
	require.NoError(t, err)

	sealed, err := box1.Seal("value")
	require.NoError(t, err)

	_, err = box2.Open(sealed)
	require.ErrorIs(t, err, settings.ErrDecrypt)
}

func TestSecretBox_Tampered(t *testing.T) {
	t.Parallel()

	box, err := settings.NewSecretBox("unit-test-secret")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
	}{
		{name: "not base64", in: "%%%not-base64%%%"},
		{name: "truncated", in: "QQ=="},
		{name: "empty", in: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := box.Open(tt.in)
			require.ErrorIs(t, err, settings.ErrDecrypt)
		})
	}
}

func TestNewSecretBox_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := settings.NewSecretBox("")
	require.Error(t, err)
}
