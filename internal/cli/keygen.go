package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/sessionless"
)

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signing keypair",
		Long: `Generate a secp256k1 signing keypair and print it as JSON.

With --file the keypair is written there instead, unless the file already
holds one, in which case the existing keypair is printed. This is how the
backup identity (LINKITYLINK_BACKUP_KEY_FILE) is provisioned ahead of time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := loadKeys(path)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(keys); err != nil {
				return fmt.Errorf("failed to encode keys: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "persist the keypair to this file")

	return cmd
}

func loadKeys(path string) (domain.Keys, error) {
	if path == "" {
		return sessionless.GenerateKeys()
	}
	return sessionless.LoadOrCreateKeys(path)
}
