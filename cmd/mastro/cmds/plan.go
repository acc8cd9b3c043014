package cmds

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/mastro/pkg/engine"
	"github.com/go-go-golems/mastro/pkg/engine/factory"
	"github.com/go-go-golems/mastro/pkg/planner"
	"github.com/go-go-golems/mastro/pkg/render"
	"github.com/go-go-golems/mastro/pkg/settings"
)

func RegisterCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newPlanCommand())
}

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [task]",
		Short: "Interactively turn a task description into a structured plan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().String("openai-api-key", "", "OpenAI API key")
	cmd.Flags().String("openai-base-url", "", "Override the OpenAI base URL")
	cmd.Flags().String("ai-engine", "", "Model to use")
	cmd.Flags().Int("ai-max-response-tokens", 0, "Response token budget")
	cmd.Flags().Int("timeout", 0, "Request timeout in seconds")
	cmd.Flags().Int("max-questions", 0, "Maximum number of clarifying questions")
	cmd.Flags().String("output", "text", "Output format (text, markdown, json)")
	cmd.Flags().Bool("dry-run", false, "Run against a scripted engine instead of a real endpoint")
	cmd.Flags().String("autosave-dir", "", "Directory to autosave the conversation to")

	cobra.CheckErr(viper.BindPFlags(cmd.Flags()))

	return cmd
}

func runPlan(cmd *cobra.Command, task string) error {
	stepSettings, err := settings.NewStepSettingsFromViper()
	if err != nil {
		return err
	}

	var eng engine.Engine
	if viper.GetBool("dry-run") {
		eng = newDryRunEngine()
	} else {
		eng, err = factory.NewEngineFromSettings(stepSettings)
		if err != nil {
			return err
		}
	}

	options := []planner.SessionOption{}
	if dir := viper.GetString("autosave-dir"); dir != "" {
		options = append(options, planner.WithConversationManager(
			conversationManagerWithAutosave(dir),
		))
	}

	session, err := planner.NewSession(stepSettings, eng, options...)
	if err != nil {
		return err
	}

	log.Debug().Str("session_id", session.ID.String()).Str("task", task).Msg("starting planning session")

	ctx := cmd.Context()
	outcome, err := session.Start(ctx, task)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	for !outcome.Ready {
		for _, q := range outcome.Questions {
			fmt.Println()
			fmt.Printf("? %s\n", q.Question)
			if q.Context != "" {
				fmt.Printf("  (%s)\n", q.Context)
			}
		}

		fmt.Print("\n> ")
		answer, err := reader.ReadString('\n')
		if err != nil {
			return errors.Wrap(err, "could not read answer")
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			fmt.Println("(please answer, or ctrl-c to abort)")
			continue
		}

		outcome, err = session.Answer(ctx, answer)
		if err != nil {
			return err
		}
	}

	if outcome.Summary != "" {
		fmt.Printf("\n%s\n\n", outcome.Summary)
	}

	plan := outcome.Plan
	if plan == nil {
		plan, err = session.GenerateResult(ctx)
		if err != nil {
			return err
		}
	}

	return printPlan(plan)
}

func printPlan(plan *planner.Plan) error {
	switch viper.GetString("output") {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(plan)
	case "markdown":
		fmt.Print(render.PlanToMarkdown(plan))
		return nil
	default:
		if isatty.IsTerminal(os.Stdout.Fd()) {
			out, err := render.PlanToTerminal(plan)
			if err == nil {
				fmt.Print(out)
				return nil
			}
			log.Warn().Err(err).Msg("terminal rendering failed, falling back to markdown")
		}
		fmt.Print(render.PlanToMarkdown(plan))
		return nil
	}
}
