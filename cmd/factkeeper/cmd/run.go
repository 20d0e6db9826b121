package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solatis/factkeeper/internal/core/workspace"
	"github.com/solatis/factkeeper/internal/rules"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the stored rule set against fact values",
		Long: `Run executes every enabled rule against the given fact values and prints
the run result as JSON. Values come from a JSON object file (--values) and
from --set name=value pairs, parsed by the fact's declared type; --set wins.`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}
	cmd.Flags().String("values", "", "JSON file holding an object of fact values")
	cmd.Flags().StringArray("set", nil, "fact value as name=value (repeatable)")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	valuesFile, _ := cmd.Flags().GetString("values")
	sets, _ := cmd.Flags().GetStringArray("set")
	values, err := collectValues(a.ws, valuesFile, sets)
	if err != nil {
		return err
	}

	result, err := a.ws.Run(values)
	if err != nil {
		return err
	}
	return writeJSON(cmd, result)
}

func collectValues(ws *workspace.Workspace, valuesFile string, sets []string) (map[string]any, error) {
	values := map[string]any{}
	if valuesFile != "" {
		data, err := os.ReadFile(valuesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read values: %w", err)
		}
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("values file must hold a JSON object: %w", err)
		}
	}

	for _, set := range sets {
		name, raw, ok := strings.Cut(set, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: expected name=value", set)
		}
		fact, err := ws.FactByName(name)
		if err != nil {
			return nil, err
		}
		values[name] = rules.ParseValueForType(raw, fact.Type)
	}
	return values, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
