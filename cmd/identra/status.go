package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/starkalterego/identra/internal/ipc"
)

var statusSocket string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the vault daemon is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := vaultEndpoint(statusSocket)

		c, err := ipc.Dial(endpoint)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Ping(); err != nil {
			return err
		}
		fmt.Printf("vault daemon is running at %s\n", endpoint)
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusSocket, "socket", "", "Override the IPC endpoint")
	rootCmd.AddCommand(statusCmd)
}
