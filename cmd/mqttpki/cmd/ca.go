package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bkern/mqttpki/pki"
)

var (
	caCommonName   string
	caOrganization string
	caCountry      string
	caState        string
	caLocality     string
	caCurve        string
	caValidityDays int
	caOutDir       string
)

var caCmd = &cobra.Command{
	Use:   "ca",
	Short: "Generate a root CA key and self-signed certificate to files",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := pki.IssueRootCA(caCurve, pki.Identity{
			CommonName:   caCommonName,
			Organization: caOrganization,
			Country:      caCountry,
			State:        caState,
			Locality:     caLocality,
		}, caValidityDays, nil)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(caOutDir, 0o700); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		keyPath := filepath.Join(caOutDir, "ca.key")
		certPath := filepath.Join(caOutDir, "ca.crt")
		if err := os.WriteFile(keyPath, []byte(bundle.KeyPEM), 0o600); err != nil {
			return fmt.Errorf("failed to write CA key: %w", err)
		}
		if err := os.WriteFile(certPath, []byte(bundle.CertPEM), 0o644); err != nil {
			return fmt.Errorf("failed to write CA certificate: %w", err)
		}

		details, err := pki.Describe(bundle.CertPEM)
		if err != nil {
			return err
		}
		fmt.Println(details)
		fmt.Printf("Wrote %s and %s\n", keyPath, certPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(caCmd)
	caCmd.Flags().StringVar(&caCommonName, "cn", "", "Common Name (default \"Root CA\")")
	caCmd.Flags().StringVar(&caOrganization, "org", "", "Organization")
	caCmd.Flags().StringVar(&caCountry, "country", "", "Country")
	caCmd.Flags().StringVar(&caState, "state", "", "State or province")
	caCmd.Flags().StringVar(&caLocality, "locality", "", "Locality")
	caCmd.Flags().StringVar(&caCurve, "curve", "", "Named curve (default P-256)")
	caCmd.Flags().IntVar(&caValidityDays, "validity-days", 0, "Validity in days (default 3650)")
	caCmd.Flags().StringVar(&caOutDir, "out", ".", "Output directory")
}
