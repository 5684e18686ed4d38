package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/village-memory/internal/llm"
)

func init() {
	root := &cobra.Command{
		Use:   "llm",
		Short: "Show or override the language model settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective LLM config",
		Run:   runLLMShow,
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Store LLM overrides",
		Run:   runLLMSet,
	}
	set.Flags().String("provider", "", "cerebras or openai-compatible")
	set.Flags().String("base-url", "", "API base URL")
	set.Flags().String("model", "", "Model name")
	set.Flags().String("api-key-env", "", "Env var holding the API key")
	set.Flags().Float64("temperature", 0, "Sampling temperature")
	set.Flags().Int("max-tokens", 0, "Max completion tokens")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove stored LLM overrides",
		Run:   runLLMClear,
	}

	root.AddCommand(show, set, clearCmd)
	RootCmd.AddCommand(root)
}

func runLLMShow(cmd *cobra.Command, args []string) {
	a := mustOpenApp(cmd)
	defer a.Close()

	stored, err := a.Overrides.Load(cmd.Context())
	if err != nil {
		exitErr("llm show", err)
	}
	cfg := stored.Apply(a.Config.LLM)
	printJSON(struct {
		Config  llm.Config `json:"config"`
		Enabled bool       `json:"enabled"`
	}{cfg, a.LLM != nil})
}

func runLLMSet(cmd *cobra.Command, args []string) {
	var o llm.Overrides
	flags := cmd.Flags()
	if flags.Changed("provider") {
		v, _ := flags.GetString("provider")
		o.Provider = &v
	}
	if flags.Changed("base-url") {
		v, _ := flags.GetString("base-url")
		o.BaseURL = &v
	}
	if flags.Changed("model") {
		v, _ := flags.GetString("model")
		o.Model = &v
	}
	if flags.Changed("api-key-env") {
		v, _ := flags.GetString("api-key-env")
		o.APIKeyEnv = &v
	}
	if flags.Changed("temperature") {
		v, _ := flags.GetFloat64("temperature")
		o.Temperature = &v
	}
	if flags.Changed("max-tokens") {
		v, _ := flags.GetInt("max-tokens")
		o.MaxCompletionTokens = &v
	}

	a := mustOpenApp(cmd)
	defer a.Close()

	if err := a.Overrides.Save(cmd.Context(), o); err != nil {
		exitErr("llm set", err)
	}
	fmt.Println(`{"ok":true}`)
}

func runLLMClear(cmd *cobra.Command, args []string) {
	a := mustOpenApp(cmd)
	defer a.Close()

	if err := a.Overrides.Clear(cmd.Context()); err != nil {
		exitErr("llm clear", err)
	}
	fmt.Println(`{"ok":true}`)
}
