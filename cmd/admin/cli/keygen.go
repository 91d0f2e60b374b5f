package cli

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var keysDir string

func init() {
	rootCommand.AddCommand(keygenCommand)

	keygenCommand.Flags().StringVarP(&keysDir, "dir", "d", "keys", "Directory to write the private key PEM into.")
}

var keygenCommand = &cobra.Command{
	Use:   "keygen",
	Short: "generates an rsa private key for token signing",
	Long: `Generate a new RSA private key and write it as <kid>.pem, where the kid is a
fresh uuid. Point the service at the directory and set the kid as the active
key.

Examples:
  admin keygen --dir=/etc/rsa-keys`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(keysDir, 0o700); err != nil {
			return fmt.Errorf("creating keys dir: %w", err)
		}

		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return fmt.Errorf("generating key: %w", err)
		}

		kid := uuid.NewString()
		path := filepath.Join(keysDir, kid+".pem")

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			return fmt.Errorf("creating pem file: %w", err)
		}
		defer f.Close()

		bs, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			return fmt.Errorf("marshalling key: %w", err)
		}

		block := pem.Block{
			Type:  "PRIVATE KEY",
			Bytes: bs,
		}

		if err := pem.Encode(f, &block); err != nil {
			return fmt.Errorf("encoding pem: %w", err)
		}

		fmt.Printf("wrote %s\nactive kid: %s\n", path, kid)
		return nil
	},
}
