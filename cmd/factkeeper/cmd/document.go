package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the document as pretty JSON",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	cmd.Flags().String("out", "", "output file (stdout when empty)")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := a.ws.ExportJSON()
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the document with an exported one",
		Args:  cobra.NoArgs,
		RunE:  runImport,
	}
	cmd.Flags().String("in", "", "exported document file")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	in, _ := cmd.Flags().GetString("in")
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}
	if err := a.ws.ImportJSON(cmd.Context(), data); err != nil {
		return err
	}
	if err := a.ws.Flush(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d facts and %d rules\n", len(a.ws.Facts()), len(a.ws.Rules()))
	return nil
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all facts and rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			a.ws.Reset(cmd.Context())
			if err := a.ws.Flush(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "document cleared")
			return nil
		},
	}
}
