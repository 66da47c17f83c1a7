package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/i2y/scholarmcp/internal/usecase"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		tools, err := a.serveUC.Execute(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, t := range tools {
			summary, _, _ := strings.Cut(t.Description, "\n")
			fmt.Fprintf(w, "%s\t%s\n", t.Name, summary)
		}
		return w.Flush()
	},
}

var (
	callArgsJSON string
	callArgs     []string
)

var callCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Invoke a single tool and print its result",
	Long: `Invoke a single tool once, outside any MCP host, and print the text the
host would receive. Arguments come from --args as a JSON object and from
repeated --arg key=value flags; --arg wins on conflict. Array arguments must
be passed through --args.`,
	Example: `  scholarmcp call search_papers_via_semanticscholar --arg keyword="graph neural networks" --arg limit=3
  scholarmcp call get_papers_batch --args '{"paper_ids":["DOI:10.1038/nature14539","arXiv:1706.03762"]}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := callParams(callArgsJSON, callArgs)
		if err != nil {
			return err
		}

		a, cleanup, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := a.invokeUC.Execute(cmd.Context(), args[0], params)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), usecase.ErrorText(err))
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	callCmd.Flags().StringVar(&callArgsJSON, "args", "", "tool arguments as a JSON object")
	callCmd.Flags().StringArrayVar(&callArgs, "arg", nil, "tool argument as key=value (repeatable)")
	rootCmd.AddCommand(toolsCmd, callCmd)
}

// callParams merges the JSON object and the key=value pairs into the raw
// argument map a host would send.
func callParams(rawJSON string, pairs []string) (map[string]any, error) {
	params := map[string]any{}
	if strings.TrimSpace(rawJSON) != "" {
		if err := json.Unmarshal([]byte(rawJSON), &params); err != nil {
			return nil, fmt.Errorf("--args must be a JSON object: %w", err)
		}
	}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("--arg %q must have the form key=value", p)
		}
		params[strings.TrimSpace(k)] = v
	}
	return params, nil
}
