package services

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	credentialBodyLength = 12
	credentialAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	credentialSymbols    = "!@#$%^&*"
	credentialDigits     = "0123456789"
)

// GeneratedSecret is a fresh password and its one-way hash
type GeneratedSecret struct {
	Plaintext string
	Hash      string
}

// Credential is the one-time login issued for a newly created account
type Credential struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	ContactName string `json:"contactName"`
	ContactID   string `json:"contactId"`
}

// InterfaceCredentialService defines password generation and verification
type InterfaceCredentialService interface {
	Generate() (GeneratedSecret, error)
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// CredentialService generates bcrypt-hashed random passwords
type CredentialService struct {
	cost int
}

// NewCredentialService creates a credential service; costs below 12 are raised to 12
func NewCredentialService(cost int) InterfaceCredentialService {
	if cost < 12 {
		cost = 12
	}
	return &CredentialService{cost: cost}
}

// 1 Generate returns a random alphanumeric body followed by one symbol and one digit
func (s *CredentialService) Generate() (GeneratedSecret, error) {
	buf := make([]byte, 0, credentialBodyLength+2)
	for i := 0; i < credentialBodyLength; i++ {
		ch, err := randomChar(credentialAlphabet)
		if err != nil {
			return GeneratedSecret{}, err
		}
		buf = append(buf, ch)
	}
	symbol, err := randomChar(credentialSymbols)
	if err != nil {
		return GeneratedSecret{}, err
	}
	digit, err := randomChar(credentialDigits)
	if err != nil {
		return GeneratedSecret{}, err
	}
	buf = append(buf, symbol, digit)

	plaintext := string(buf)
	hash, err := s.Hash(plaintext)
	if err != nil {
		return GeneratedSecret{}, err
	}
	return GeneratedSecret{Plaintext: plaintext, Hash: hash}, nil
}

// 2 Hash hashes plaintext at the configured cost
func (s *CredentialService) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// 3 Verify reports whether plaintext matches hash
func (s *CredentialService) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

func randomChar(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, err
	}
	return alphabet[n.Int64()], nil
}
