// Command encrypt seals every value of a .env file so the encrypted dotenv
// secrets provider can read it. The password comes from
// SECRETS_ENCRYPTION_PASSWORD.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/constants"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger/adapter"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets/encryption"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets/providers/dotenv"
)

func main() {
	var in, out string

	cmd := &cobra.Command{
		Use:           "encrypt",
		Short:         "Encrypt the values of a .env file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(in, out)
		},
	}

	cmd.Flags().StringVar(&in, "in", constants.SecretsEnvPath, "plain .env file")
	cmd.Flags().StringVar(&out, "out", constants.SecretsEnvPath+".encrypted", "encrypted output file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "encrypt: %v\n", err)
		os.Exit(1)
	}
}

func run(in, out string) error {
	envKey := constants.EncryptionPassword.String()

	password, ok := os.LookupEnv(envKey)
	if !ok || password == "" {
		return fmt.Errorf("%s is not set", envKey)
	}

	crypto, err := encryption.New(password)
	if err != nil {
		return err
	}

	count, err := dotenv.EncryptFile(crypto, in, out)
	if err != nil {
		return err
	}

	cfg := logger.DefaultConfig()

	log, err := adapter.NewAdapter(cfg)
	if err != nil {
		return err
	}

	log.WithFields(logger.F("in", in), logger.F("out", out), logger.F("values", count)).Info("env file encrypted")

	return nil
}
