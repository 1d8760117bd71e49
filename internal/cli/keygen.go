package cli

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openxm/marketd/internal/core/tx/sle"
	"github.com/openxm/marketd/internal/crypto"
)

var keygenPassphrase string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a marketplace account keypair",
	Long: `Generate a secp256k1 keypair and the account address derived
from it. With --passphrase the keypair is derived deterministically,
which is how the development genesis accounts are produced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var kp *crypto.Keypair
		var err error
		if keygenPassphrase != "" {
			digest := sha512.Sum512([]byte(keygenPassphrase))
			kp, err = crypto.DeriveKeypair(digest[:16])
		} else {
			kp, err = crypto.GenerateKeypair()
		}
		if err != nil {
			return fmt.Errorf("failed to generate keypair: %w", err)
		}

		address := sle.EncodeAccountID(crypto.CalcAccountID(kp.PublicKey))
		fmt.Printf("address:     %s\n", address)
		fmt.Printf("public key:  %s\n", hex.EncodeToString(kp.PublicKey))
		fmt.Printf("private key: %s\n", hex.EncodeToString(kp.PrivateKey))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().StringVar(&keygenPassphrase, "passphrase", "", "derive the keypair from a passphrase instead of random entropy")
}
