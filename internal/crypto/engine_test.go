package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EngineSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	engine, err := New("unit-test-passphrase", "unit-test-salt")
	s.Require().NoError(err)
	s.engine = engine
}

func (s *EngineSuite) TestRoundTrip() {
	for name, plaintext := range map[string]string{
		"name":    "Jane Doe",
		"email":   "jane@example.com",
		"phone":   "555-1234",
		"long":    strings.Repeat("long medical history ", 200),
		"unicode": "ÄÖÜ 日本語 🏥",
	} {
		s.Run(name, func() {
			ciphertext, err := s.engine.Encrypt(plaintext)
			s.Require().NoError(err)
			s.NotEqual(plaintext, ciphertext)
			s.True(strings.HasPrefix(ciphertext, "mv1:"))

			decrypted, err := s.engine.Decrypt(ciphertext)
			s.Require().NoError(err)
			s.Equal(plaintext, decrypted)
		})
	}
}

func (s *EngineSuite) TestEmptyValuePassThrough() {
	ciphertext, err := s.engine.Encrypt("")
	s.Require().NoError(err)
	s.Equal("", ciphertext)

	plaintext, err := s.engine.Decrypt("")
	s.Require().NoError(err)
	s.Equal("", plaintext)

	body, err := s.engine.EncryptBytes(nil)
	s.Require().NoError(err)
	s.Nil(body)
}

func (s *EngineSuite) TestTamperDetection() {
	ciphertext, err := s.engine.Encrypt("patient record 42")
	s.Require().NoError(err)

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(ciphertext, "mv1:"))
	s.Require().NoError(err)
	raw[len(raw)-1] ^= 0x01
	tampered := "mv1:" + base64.RawURLEncoding.EncodeToString(raw)

	_, err = s.engine.Decrypt(tampered)
	s.Require().ErrorIs(err, ErrDecrypt)
}

func (s *EngineSuite) TestMalformedEnvelope() {
	for name, input := range map[string]string{
		"missing prefix": "bm90IGFuIGVudmVsb3Bl",
		"bad base64":     "mv1:!!!not-base64!!!",
		"truncated":      "mv1:AA",
	} {
		s.Run(name, func() {
			_, err := s.engine.Decrypt(input)
			s.Require().ErrorIs(err, ErrDecrypt)
		})
	}
}

func (s *EngineSuite) TestForeignKeyCiphertextRejected() {
	other, err := New("different-passphrase", "unit-test-salt")
	s.Require().NoError(err)

	ciphertext, err := other.Encrypt("not ours")
	s.Require().NoError(err)

	_, err = s.engine.Decrypt(ciphertext)
	s.Require().ErrorIs(err, ErrDecrypt)
}

func (s *EngineSuite) TestBytesRoundTrip() {
	body := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xFF, 0x10} // not valid UTF-8
	sealed, err := s.engine.EncryptBytes(body)
	s.Require().NoError(err)
	s.NotEqual(body, sealed)

	opened, err := s.engine.DecryptBytes(sealed)
	s.Require().NoError(err)
	s.Equal(body, opened)
}

func (s *EngineSuite) TestHash() {
	first := s.engine.Hash("jane@example.com")
	second := s.engine.Hash("jane@example.com")
	s.Equal(first, second)
	s.Len(first, 64)
	s.NotEqual(first, s.engine.Hash("john@example.com"))
	s.Equal("", s.engine.Hash(""))
}

func TestNewRequiresPassphrase(t *testing.T) {
	_, err := New("", "salt")
	require.Error(t, err)
}
