package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"golang.org/x/crypto/scrypt"
)

const (
	// KeyLength is the length of the key used for encryption.
	KeyLength = 32
	// ResourceCost is the cost of the scrypt key derivation function.
	ResourceCost = 1 << 15
	// BlockSize is the block size of the cipher.
	BlockSize = 8

	formatVersion = 1
	sealPrefix    = "ENC["
	sealSuffix    = "]"
)

// Metadata holds the parameters needed for decryption.
type Metadata struct {
	Version    int                 `json:"v"` // Version of the encryption format
	Salt       []byte              `json:"s"` // Salt used for key derivation
	Params     KeyDerivationParams `json:"p"` // Key derivation parameters
	Nonce      []byte              `json:"n"` // Nonce used for encryption
	Ciphertext []byte              `json:"c"` // The encrypted data
}

// KeyDerivationParams defines the parameters for key derivation using scrypt.
type KeyDerivationParams struct {
	N      int `json:"n"`  // CPU/memory cost parameter (must be power of 2)
	R      int `json:"r"`  // Block size parameter
	P      int `json:"p"`  // Parallelization parameter
	KeyLen int `json:"kl"` // Length of the derived key
}

// DefaultParams returns secure default parameters for key derivation.
func DefaultParams() KeyDerivationParams {
	return KeyDerivationParams{
		N:      ResourceCost,
		R:      BlockSize,
		P:      1,
		KeyLen: KeyLength,
	}
}

// Cryptographer encrypts and decrypts individual secret values with a
// password-derived AES-GCM key. Each value carries its own salt and nonce.
type Cryptographer struct {
	params   KeyDerivationParams
	password []byte
}

// New creates a Cryptographer using DefaultParams.
func New(password string) (*Cryptographer, error) {
	return NewWithParams(password, DefaultParams())
}

// NewWithParams creates a Cryptographer with explicit scrypt parameters.
func NewWithParams(password string, params KeyDerivationParams) (*Cryptographer, error) {
	if password == "" {
		return nil, ewrap.New("encryption password is required")
	}

	if params.N <= 1 || params.N&(params.N-1) != 0 {
		return nil, ewrap.New("scrypt N must be a power of two greater than 1").WithMetadata("n", params.N)
	}

	if params.KeyLen != KeyLength {
		return nil, ewrap.New("unsupported key length").WithMetadata("key_len", params.KeyLen)
	}

	return &Cryptographer{
		params:   params,
		password: []byte(password),
	}, nil
}

// IsSealed reports whether value is in the ENC[...] form.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealPrefix) && strings.HasSuffix(value, sealSuffix)
}

// Seal encrypts plaintext and returns it in the ENC[...] form.
func (c *Cryptographer) Seal(plaintext string) (string, error) {
	encoded, err := c.Encrypt(plaintext)
	if err != nil {
		return "", err
	}

	return sealPrefix + encoded + sealSuffix, nil
}

// Open decrypts a value in the ENC[...] form. Plain values are returned as is.
func (c *Cryptographer) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}

	return c.Decrypt(strings.TrimSuffix(strings.TrimPrefix(value, sealPrefix), sealSuffix))
}

// Encrypt encrypts plaintext into a base64 encoded metadata envelope.
func (c *Cryptographer) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, KeyLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", ewrap.Wrapf(err, "generating salt")
	}

	gcm, err := c.aead(salt, c.params)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", ewrap.Wrapf(err, "generating nonce")
	}

	metadataJSON, err := json.Marshal(Metadata{
		Version:    formatVersion,
		Salt:       salt,
		Params:     c.params,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, []byte(plaintext), nil),
	})
	if err != nil {
		return "", ewrap.Wrapf(err, "marshaling metadata")
	}

	return base64.StdEncoding.EncodeToString(metadataJSON), nil
}

// Decrypt reverses Encrypt using the parameters stored in the envelope.
func (c *Cryptographer) Decrypt(encoded string) (string, error) {
	metadataJSON, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ewrap.Wrapf(err, "decoding base64")
	}

	var metadata Metadata
	if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
		return "", ewrap.Wrapf(err, "unmarshaling metadata")
	}

	if metadata.Version != formatVersion {
		return "", ewrap.New("unsupported encryption format").WithMetadata("version", metadata.Version)
	}

	gcm, err := c.aead(metadata.Salt, metadata.Params)
	if err != nil {
		return "", err
	}

	if len(metadata.Nonce) != gcm.NonceSize() {
		return "", ewrap.New("invalid nonce length")
	}

	plaintext, err := gcm.Open(nil, metadata.Nonce, metadata.Ciphertext, nil)
	if err != nil {
		return "", ewrap.Wrapf(err, "decrypting data")
	}

	return string(plaintext), nil
}

func (c *Cryptographer) aead(salt []byte, params KeyDerivationParams) (cipher.AEAD, error) {
	key, err := scrypt.Key(c.password, salt, params.N, params.R, params.P, params.KeyLen)
	if err != nil {
		return nil, ewrap.Wrapf(err, "deriving key")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ewrap.Wrapf(err, "creating cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ewrap.Wrapf(err, "creating GCM")
	}

	return gcm, nil
}
