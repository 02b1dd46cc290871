package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mqttpki",
	Short: "mqttpki issues X.509 certificates for MQTT mutual TLS",
	Long: `A stateless issuance service for MQTT deployments: EC key pairs, client
and broker CSRs, self-signed root CAs, and CA-signed leaf certificates.
No key or certificate material is persisted server-side.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
