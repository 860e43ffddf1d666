package dotenv

import (
	"context"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/joho/godotenv"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets/encryption"
)

// EncryptedProvider reads ENC[...] values from a .env file and decrypts them.
type EncryptedProvider struct {
	*Provider
	crypto *encryption.Cryptographer
}

// NewEncrypted creates an EncryptedProvider over a dotenv provider.
func NewEncrypted(config secrets.Config, password string) (*EncryptedProvider, error) {
	crypto, err := encryption.New(password)
	if err != nil {
		return nil, ewrap.Wrapf(err, "initializing cryptographer")
	}

	return NewEncryptedWith(config, crypto)
}

// NewEncryptedWith creates an EncryptedProvider using an existing cryptographer.
func NewEncryptedWith(config secrets.Config, crypto *encryption.Cryptographer) (*EncryptedProvider, error) {
	baseProvider, err := New(config)
	if err != nil {
		return nil, err
	}

	return &EncryptedProvider{
		Provider: baseProvider,
		crypto:   crypto,
	}, nil
}

// GetSecret returns the decrypted value. Values not in ENC[...] form are
// returned unchanged.
func (p *EncryptedProvider) GetSecret(ctx context.Context, key string) (string, error) {
	value, err := p.Provider.GetSecret(ctx, key)
	if err != nil {
		return "", err
	}

	plain, err := p.crypto.Open(value)
	if err != nil {
		return "", ewrap.Wrapf(err, "decrypting secret").
			WithMetadata("key", key)
	}

	return plain, nil
}

// SetSecret encrypts value before storing it.
func (p *EncryptedProvider) SetSecret(ctx context.Context, key, value string) error {
	sealed, err := p.crypto.Seal(value)
	if err != nil {
		return ewrap.Wrapf(err, "encrypting secret").
			WithMetadata("key", key)
	}

	return p.Provider.SetSecret(ctx, key, sealed)
}

// EncryptFile seals every plain value of inputPath into outputPath. Values
// already in ENC[...] form are copied as they are.
func (p *EncryptedProvider) EncryptFile(inputPath, outputPath string) (int, error) {
	return EncryptFile(p.crypto, inputPath, outputPath)
}

// EncryptFile seals every plain value of inputPath into outputPath and
// reports how many values were encrypted.
func EncryptFile(crypto *encryption.Cryptographer, inputPath, outputPath string) (int, error) {
	values, err := godotenv.Read(inputPath)
	if err != nil {
		return 0, ewrap.Wrapf(err, "reading input file").
			WithMetadata("path", inputPath)
	}

	sealed := 0

	for key, value := range values {
		if value == "" || encryption.IsSealed(value) {
			continue
		}

		enc, err := crypto.Seal(value)
		if err != nil {
			return 0, ewrap.Wrapf(err, "encrypting value").
				WithMetadata("key", key)
		}

		values[key] = enc
		sealed++
	}

	if err := godotenv.Write(values, outputPath); err != nil {
		return 0, ewrap.Wrapf(err, "writing output file").
			WithMetadata("path", outputPath)
	}

	return sealed, nil
}
