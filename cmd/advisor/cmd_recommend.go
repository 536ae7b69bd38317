package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/services/render"
	"github.com/Egham-7/embedding-advisor/internal/services/request"
	pkgconfig "github.com/Egham-7/embedding-advisor/pkg/config"

	"github.com/spf13/cobra"
)

type recommendOptions struct {
	task        string
	description string
	asJSON      bool
}

func newRecommendCommand(root *rootOptions) *cobra.Command {
	opts := &recommendOptions{}

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank embedding models for a project description",
		Long: `Rank up to three embedding models for a project description.

The task selects the benchmark score column used as the primary ranking axis.
Descriptions that are not about embeddings get an off-topic answer instead.`,
		Example: `  advisor recommend --task Retrieval --description "Semantic search over French legal contracts"
  advisor recommend -t sts -d "Detect duplicate support tickets" --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := opts.parse()
			if err != nil {
				return err
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			comp, err := pkgconfig.NewComponents(ctx, cfg)
			if err != nil {
				return err
			}
			defer comp.Close()

			analysis, err := comp.Advisor.Recommend(ctx, models.RecommendationRequest{
				Task:        task,
				Description: opts.description,
			}, request.GenerateRequestID())
			if err != nil {
				return err
			}

			return writeAnalysis(cmd.OutOrStdout(), analysis, opts.asJSON)
		},
	}

	cmd.Flags().StringVarP(&opts.task, "task", "t", string(models.TaskRetrieval), "Primary task: "+strings.Join(models.TaskNames(), ", "))
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "Project description (required)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the analysis as JSON instead of cards")

	return cmd
}

// parse checks flag values before any configuration or network work
func (o *recommendOptions) parse() (models.Task, error) {
	task, ok := models.ParseTask(o.task)
	if !ok {
		return "", &inputError{msg: fmt.Sprintf("unknown task %q, expected one of: %s", o.task, strings.Join(models.TaskNames(), ", "))}
	}
	if strings.TrimSpace(o.description) == "" {
		return "", &inputError{msg: "description must not be empty"}
	}
	return task, nil
}

func writeAnalysis(w io.Writer, analysis *models.Analysis, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}
	return render.Result(w, analysis.Task, analysis.Result)
}
