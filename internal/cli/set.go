package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/foresight/internal/model"
	"github.com/ppiankov/foresight/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var clearSelection bool

// setCmd remembers the product/brand used when report runs without arguments
var setCmd = &cobra.Command{
	Use:   "set <product> [brand]",
	Short: "Remember the default product and brand",
	Long: `Set stores the product and brand that report uses when called
without arguments. The selection is also updated after every
successful report.

Example:
  foresight set "iPhone 15" Apple
  foresight set --clear`,
	Args: func(cmd *cobra.Command, args []string) error {
		if clearSelection {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.RangeArgs(1, 2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		st, err := store.New(cfg.Store)
		if err != nil {
			return err
		}
		if c, ok := st.(io.Closer); ok {
			defer c.Close()
		}

		msg, err := applySelection(context.Background(), st, args, clearSelection)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

// applySelection saves the pair in args, or wipes the store when wipe is set
func applySelection(ctx context.Context, st store.Store, args []string, wipe bool) (string, error) {
	if wipe {
		if err := st.Clear(ctx); err != nil {
			return "", fmt.Errorf("clear store: %w", err)
		}
		return "✓ Default selection cleared", nil
	}

	sel := store.Selection{Product: strings.TrimSpace(args[0])}
	if len(args) > 1 {
		sel.Brand = strings.TrimSpace(args[1])
	}
	if sel.Product == "" {
		return "", &model.ValidationError{Field: "product_name", Reason: "must not be empty"}
	}
	if err := store.SaveSelection(ctx, st, sel); err != nil {
		return "", err
	}
	return "✓ Default selection: " + pairLabel(sel), nil
}

func pairLabel(sel store.Selection) string {
	if sel.Brand == "" {
		return sel.Product
	}
	return sel.Product + " (" + sel.Brand + ")"
}

func init() {
	rootCmd.AddCommand(setCmd)
	setCmd.Flags().BoolVar(&clearSelection, "clear", false, "forget the remembered product and brand")
}
