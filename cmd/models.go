package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/estatelens-cli/internal/ai"
	"github.com/KaramelBytes/estatelens-cli/internal/summary"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect narrative providers and known models",
	Example: `  estatelens models show
  estatelens --provider groq models show`,
}

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show providers, their default models, and known context windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		active := ""
		if cfg != nil {
			active = normalizeProvider(cfg.DefaultProvider)
		}
		fmt.Fprintln(w, "Providers:")
		providers := append(ai.Providers(), ai.ProviderNone)
		sort.Strings(providers)
		for _, p := range providers {
			marker := " "
			if p == active {
				marker = "*"
			}
			def := ai.DefaultModel(p)
			if def == "" {
				def = "-"
			}
			fmt.Fprintf(w, " %s %-12s default model: %s\n", marker, p, def)
		}
		limit := summary.DefaultPromptTokenLimit
		if cfg != nil && cfg.PromptTokenLimit > 0 {
			limit = cfg.PromptTokenLimit
		}
		fmt.Fprintln(w, "\nModels:")
		for _, mi := range ai.Catalog() {
			fmt.Fprintf(w, "  %-36s context: %7d  prompt budget: %d\n", mi.Name, mi.ContextTokens,
				ai.PromptBudget(mi.Name, narrativeReserve, limit))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
}
