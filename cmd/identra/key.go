package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/starkalterego/identra/internal/ipc"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage keys held by the vault daemon",
}

var keySocket string

var (
	storeMeta []string
	storeTTL  time.Duration
)

var keyStoreCmd = &cobra.Command{
	Use:   "store <key-id> [value]",
	Short: "Store a key in the vault",
	Long:  "Store a key. If value is omitted, reads from stdin (useful for piping).",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var payload []byte
		if len(args) == 2 {
			payload = []byte(args[1])
		} else if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Print("Enter secret value: ")
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			if err != nil {
				return fmt.Errorf("reading value: %w", err)
			}
			fmt.Println()
			payload = b
		} else {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			payload = []byte(strings.TrimRight(string(b), "\n"))
		}

		custom := make(map[string]string, len(storeMeta))
		for _, kv := range storeMeta {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("invalid --meta %q, want key=value", kv)
			}
			custom[k] = v
		}

		var expiresAt *int64
		if storeTTL > 0 {
			exp := time.Now().Add(storeTTL).Unix()
			expiresAt = &exp
		}

		c, err := ipc.Dial(vaultEndpoint(keySocket))
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.StoreKey(args[0], payload, custom, expiresAt); err != nil {
			return err
		}
		fmt.Printf("Key %q stored\n", args[0])
		return nil
	},
}

var keyGetCmd = &cobra.Command{
	Use:   "get <key-id>",
	Short: "Retrieve a key from the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ipc.Dial(vaultEndpoint(keySocket))
		if err != nil {
			return err
		}
		defer c.Close()

		kd, err := c.RetrieveKey(args[0])
		if err != nil {
			return err
		}
		// Payload may be binary; write it raw.
		os.Stdout.Write(kd.Payload)
		if term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Println()
		}
		return nil
	},
}

var keyListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List keys held by the vault",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ipc.Dial(vaultEndpoint(keySocket))
		if err != nil {
			return err
		}
		defer c.Close()

		keys, err := c.ListKeys()
		if err != nil {
			return err
		}

		if len(keys) == 0 {
			fmt.Println("No keys stored")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY ID")
		for _, k := range keys {
			fmt.Fprintln(w, k)
		}
		w.Flush()
		return nil
	},
}

var keyDeleteCmd = &cobra.Command{
	Use:     "delete <key-id>",
	Short:   "Remove a key from the vault",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ipc.Dial(vaultEndpoint(keySocket))
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.DeleteKey(args[0]); err != nil {
			return err
		}
		fmt.Printf("Key %q deleted\n", args[0])
		return nil
	},
}

var keyExistsCmd = &cobra.Command{
	Use:   "exists <key-id>",
	Short: "Check whether a key is stored",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ipc.Dial(vaultEndpoint(keySocket))
		if err != nil {
			return err
		}
		defer c.Close()

		exists, err := c.KeyExists(args[0])
		if err != nil {
			return err
		}
		fmt.Println(exists)
		return nil
	},
}

func init() {
	keyCmd.PersistentFlags().StringVar(&keySocket, "socket", "", "Override the IPC endpoint")
	keyStoreCmd.Flags().StringArrayVar(&storeMeta, "meta", nil, "Custom metadata as key=value (repeatable)")
	keyStoreCmd.Flags().DurationVar(&storeTTL, "ttl", 0, "Advisory expiry, e.g. 720h")
	keyCmd.AddCommand(keyStoreCmd)
	keyCmd.AddCommand(keyGetCmd)
	keyCmd.AddCommand(keyListCmd)
	keyCmd.AddCommand(keyDeleteCmd)
	keyCmd.AddCommand(keyExistsCmd)
	rootCmd.AddCommand(keyCmd)
}
