// Package services provides external service integrations and technical concerns like tokens and one-time codes
package services

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/billnet/admin-api/utils"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrInvalidTOTPSecret is returned when a stored secret cannot be decoded
var ErrInvalidTOTPSecret = errors.New("invalid TOTP secret")

// TOTPService handles time-based one-time password generation and verification
// for admin MFA enrollment and login.
type TOTPService interface {
	GenerateSecret() (string, error)
	VerifyCode(secret, code string) (bool, error)
	ProvisioningURI(accountName, secret string) string
	QRCodeDataURI(accountName, secret string) (string, error)
}

// TOTPServiceImpl implements TOTPService using HMAC-SHA1 per RFC 6238
type TOTPServiceImpl struct {
	issuer string
	digits int
	period int64
	skew   int64
}

// NewTOTPService creates a new TOTP service. Skew is the number of time steps
// accepted on each side of the current one.
func NewTOTPService(issuer string) TOTPService {
	return &TOTPServiceImpl{
		issuer: issuer,
		digits: utils.TOTPDigits,
		period: utils.TOTPPeriod,
		skew:   utils.TOTPSkew,
	}
}

// GenerateSecret generates a new random secret encoded as unpadded base32
func (s *TOTPServiceImpl) GenerateSecret() (string, error) {
	// 20 bytes is a common default for TOTP secrets.
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf)
	return strings.ToUpper(secret), nil
}

// VerifyCode checks a submitted code against the secret, accepting codes from
// neighboring time steps within the configured skew. A malformed code is a
// mismatch, not an error; errors mean the stored secret itself is unusable.
func (s *TOTPServiceImpl) VerifyCode(secret, code string) (bool, error) {
	secretBytes, err := decodeBase32Secret(secret)
	if err != nil {
		return false, err
	}

	code = normalizeCode(code)
	if len(code) != s.digits {
		return false, nil
	}
	if _, err := strconv.Atoi(code); err != nil {
		return false, nil
	}

	counter := utils.UTCNow().Unix() / s.period
	for i := -s.skew; i <= s.skew; i++ {
		if codeAt(secretBytes, counter+i, s.digits) == code {
			return true, nil
		}
	}

	return false, nil
}

// ProvisioningURI builds the otpauth:// URI understood by authenticator apps
func (s *TOTPServiceImpl) ProvisioningURI(accountName, secret string) string {
	label := s.issuer
	if accountName != "" {
		label = s.issuer + ":" + accountName
	}

	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", s.issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", strconv.Itoa(s.digits))
	q.Set("period", strconv.FormatInt(s.period, 10))

	u := &url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + label,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// QRCodeDataURI renders the provisioning URI as a PNG QR code wrapped in a
// data URI, ready to embed in a setup page.
func (s *TOTPServiceImpl) QRCodeDataURI(accountName, secret string) (string, error) {
	uri := s.ProvisioningURI(accountName, secret)

	png, err := qrcode.Encode(uri, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// normalizeCode strips whitespace from a user-submitted code
func normalizeCode(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, " ", ""))
}

// decodeBase32Secret decodes an unpadded base32 secret
func decodeBase32Secret(secret string) ([]byte, error) {
	val := strings.ToUpper(strings.TrimSpace(secret))
	val = strings.ReplaceAll(val, " ", "")
	if val == "" {
		return nil, ErrInvalidTOTPSecret
	}
	dec := base32.StdEncoding.WithPadding(base32.NoPadding)
	b, err := dec.DecodeString(val)
	if err != nil || len(b) < 10 {
		return nil, ErrInvalidTOTPSecret
	}
	return b, nil
}

// codeAt computes the TOTP code for a specific counter value
func codeAt(secret []byte, counter int64, digits int) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))
	mac := hmac.New(sha1.New, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)
	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)
	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, bin%mod)
}
