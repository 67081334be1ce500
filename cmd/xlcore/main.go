// Command xlcore inspects .xlsx workbooks from the command line: it lists
// sheet names and dumps cell contents, built on cobra for subcommands and
// viper for binding its optional --config flag, the same ambient CLI stack
// the rest of the example pack uses for its tools.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adnsv/xlcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "xlcore",
		Short:   "Inspect OOXML SpreadsheetML (.xlsx) workbooks",
		Version: xlcore.Version,
	}
	root.PersistentFlags().String("config", "", "config file (optional)")
	viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))

	root.AddCommand(newSheetsCmd())
	root.AddCommand(newDumpCmd())
	return root
}

func newSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <workbook.xlsx>",
		Short: "List the sheet names in a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := xlcore.OpenFile(args[0])
			if err != nil {
				return err
			}
			for _, name := range wb.SheetNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newDumpCmd() *cobra.Command {
	var sheetName string
	cmd := &cobra.Command{
		Use:   "dump <workbook.xlsx>",
		Short: "Print every populated cell of a sheet, row by row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := xlcore.OpenFile(args[0])
			if err != nil {
				return err
			}
			name := sheetName
			if name == "" {
				names := wb.SheetNames()
				if len(names) == 0 {
					return fmt.Errorf("workbook has no sheets")
				}
				name = names[0]
			}
			sh, ok := wb.Sheet(name)
			if !ok {
				return fmt.Errorf("no such sheet: %s", name)
			}
			for _, row := range sh.Rows() {
				for _, entry := range row {
					fmt.Printf("%s=%v\t", entry.Ref.String(), entry.Value)
				}
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sheetName, "sheet", "", "sheet name (defaults to the first sheet)")
	return cmd
}
