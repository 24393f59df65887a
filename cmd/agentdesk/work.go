package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentdesk/internal/config"
	"github.com/ShayCichocki/agentdesk/internal/llm"
)

var workAll bool

var workCmd = &cobra.Command{
	Use:   "work <project> <agent>",
	Short: "Let a model work the agent's next task",
	Long: `Take the agent's next task, mark it in_progress, ask the configured
Anthropic model to do it as that agent, and report completed with the reply
(or failed with the error). With --all, repeat until the agent has no work.

Requires ANTHROPIC_API_KEY, anthropic.api_key, or anthropic.use_bedrock.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newLLMClient(cfg)
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), appOptions{events: true}, func(ctx context.Context, a *app) error {
			worker := llm.NewWorker(a.svc, client, logger)
			project, agent := args[0], args[1]

			var results []llm.StepResult
			if workAll {
				results, err = worker.Drain(ctx, project, agent)
			} else {
				var res *llm.StepResult
				res, err = worker.Step(ctx, project, agent)
				if res != nil {
					results = append(results, *res)
				}
			}

			if errors.Is(err, llm.ErrNoWork) {
				printStatus("·", fmt.Sprintf("%s has nothing pending in %s", agent, project), color.FgHiBlack)
				return nil
			}
			if jsonOutput {
				if perr := printJSON(results); perr != nil {
					return perr
				}
				return err
			}

			for _, r := range results {
				printRecord("", r.Outcome)
				for _, p := range r.Promoted {
					printStatus("→", fmt.Sprintf("Step %d released to %s", p.TaskData.WorkflowStep, p.TargetAgentID), color.FgCyan)
				}
			}
			in, out := client.Tracker().Total()
			fmt.Printf("\n%d calls, %d input / %d output tokens, ~$%.4f\n",
				client.Tracker().Calls(), in, out, llm.PriceFor(client.Model()).Cost(in, out))
			return err
		})
	},
}

func init() {
	workCmd.Flags().BoolVar(&workAll, "all", false, "Keep working until the agent has nothing pending")
}

// newLLMClient builds the model client from the anthropic config section.
func newLLMClient(c *config.Config) (*llm.Client, error) {
	key, source, err := config.ResolveAPIKey(c)
	if err != nil {
		return nil, err
	}
	if source != config.KeySourceBedrock {
		if err := config.ValidateAPIKey(key); err != nil {
			return nil, fmt.Errorf("%s API key: %w", source, err)
		}
	}
	logger.Debug("Using Anthropic credentials", "source", source, "key", config.MaskAPIKey(key))

	return llm.NewClient(llm.ClientConfig{
		Model:         anthropic.Model(c.Anthropic.Model),
		APIKey:        key,
		MaxTokens:     c.Anthropic.MaxTokens,
		UseAWSBedrock: c.Anthropic.UseBedrock,
		AWSRegion:     c.Anthropic.AWSRegion,
		AWSProfile:    c.Anthropic.AWSProfile,
	})
}
