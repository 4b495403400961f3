// Package services provides external service integrations and technical concerns like tokens and one-time codes
package services

import (
	"encoding/base32"
	"strings"
	"testing"
	"time"

	"github.com/billnet/admin-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	service := NewTOTPService("BillNet Admin")

	secret, err := service.GenerateSecret()
	require.NoError(t, err)
	assert.NotEmpty(t, secret)

	// 20 random bytes encode to 32 unpadded base32 characters
	assert.Len(t, secret, 32)
	assert.NotContains(t, secret, "=")

	decoded, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	require.NoError(t, err)
	assert.Len(t, decoded, 20)

	// Secrets must not repeat
	secret2, err := service.GenerateSecret()
	require.NoError(t, err)
	assert.NotEqual(t, secret, secret2)
}

func TestVerifyCode(t *testing.T) {
	service := NewTOTPService("BillNet Admin")
	impl := service.(*TOTPServiceImpl)

	secret, err := service.GenerateSecret()
	require.NoError(t, err)

	secretBytes, err := decodeBase32Secret(secret)
	require.NoError(t, err)

	now := utils.UTCNow()
	counter := now.Unix() / impl.period

	tests := []struct {
		name        string
		code        string
		expectValid bool
		expectError bool
	}{
		{
			name:        "current step code",
			code:        codeAt(secretBytes, counter, impl.digits),
			expectValid: true,
		},
		{
			name:        "previous step within skew",
			code:        codeAt(secretBytes, counter-2, impl.digits),
			expectValid: true,
		},
		{
			name:        "next step within skew",
			code:        codeAt(secretBytes, counter+2, impl.digits),
			expectValid: true,
		},
		{
			name:        "step outside skew",
			code:        codeAt(secretBytes, counter+3, impl.digits),
			expectValid: false,
		},
		{
			name:        "code with spaces",
			code:        " " + codeAt(secretBytes, counter, impl.digits) + " ",
			expectValid: true,
		},
		{
			name:        "empty code",
			code:        "",
			expectValid: false,
		},
		{
			name:        "too short",
			code:        "123",
			expectValid: false,
		},
		{
			name:        "non-numeric",
			code:        "abcdef",
			expectValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, err := service.VerifyCode(secret, tt.code)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectValid, valid)
		})
	}
}

func TestVerifyCodeInvalidSecret(t *testing.T) {
	service := NewTOTPService("BillNet Admin")

	tests := []struct {
		name   string
		secret string
	}{
		{name: "empty secret", secret: ""},
		{name: "not base32", secret: "!!!not-base32!!!"},
		{name: "too short", secret: "GEZDGNBV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, err := service.VerifyCode(tt.secret, "123456")
			assert.ErrorIs(t, err, ErrInvalidTOTPSecret)
			assert.False(t, valid)
		})
	}
}

func TestVerifyCodeWrongSecret(t *testing.T) {
	service := NewTOTPService("BillNet Admin")
	impl := service.(*TOTPServiceImpl)

	secret1, err := service.GenerateSecret()
	require.NoError(t, err)
	secret2, err := service.GenerateSecret()
	require.NoError(t, err)

	secret1Bytes, err := decodeBase32Secret(secret1)
	require.NoError(t, err)

	counter := utils.UTCNow().Unix() / impl.period
	code := codeAt(secret1Bytes, counter, impl.digits)

	valid, err := service.VerifyCode(secret2, code)
	assert.NoError(t, err)
	assert.False(t, valid)
}

func TestKnownTOTPVectors(t *testing.T) {
	// RFC 6238 appendix B vectors use the ASCII secret "12345678901234567890"
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).
		EncodeToString([]byte("12345678901234567890"))
	secretBytes, err := decodeBase32Secret(secret)
	require.NoError(t, err)

	tests := []struct {
		unix     int64
		expected string
	}{
		{unix: 59, expected: "287082"},
		{unix: 1111111109, expected: "081804"},
		{unix: 1111111111, expected: "050471"},
		{unix: 1234567890, expected: "005924"},
		{unix: 2000000000, expected: "279037"},
	}

	for _, tt := range tests {
		counter := time.Unix(tt.unix, 0).UTC().Unix() / utils.TOTPPeriod
		assert.Equal(t, tt.expected, codeAt(secretBytes, counter, utils.TOTPDigits))
	}
}

func TestProvisioningURI(t *testing.T) {
	service := NewTOTPService("BillNet Admin")

	secret := "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
	uri := service.ProvisioningURI("ops_admin", secret)

	assert.True(t, strings.HasPrefix(uri, "otpauth://totp/"))
	assert.Contains(t, uri, "secret="+secret)
	assert.Contains(t, uri, "issuer=BillNet+Admin")
	assert.Contains(t, uri, "algorithm=SHA1")
	assert.Contains(t, uri, "digits=6")
	assert.Contains(t, uri, "period=30")
	assert.Contains(t, uri, "BillNet%20Admin:ops_admin")
}

func TestQRCodeDataURI(t *testing.T) {
	service := NewTOTPService("BillNet Admin")

	secret, err := service.GenerateSecret()
	require.NoError(t, err)

	dataURI, err := service.QRCodeDataURI("ops_admin", secret)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dataURI, "data:image/png;base64,"))
	assert.Greater(t, len(dataURI), len("data:image/png;base64,"))
}
