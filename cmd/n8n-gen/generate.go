package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/catalog"
	"github.com/Defantinis/n8n-ultimate-sub007/internal/generator"
	"github.com/Defantinis/n8n-ultimate-sub007/internal/llm"
)

func newGenerateCmd(flags *rootFlags) *cobra.Command {
	var (
		requirementsPath string
		description      string
		outputPath       string
		offline          bool
		enhance          bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a workflow document from a requirements file or description",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			req, err := loadRequirements(requirementsPath, description)
			if err != nil {
				return err
			}

			registry := catalog.NewRegistry()
			if cfg.Catalog.OverlayPath != "" {
				if err := registry.LoadOverlay(cfg.Catalog.OverlayPath); err != nil {
					return err
				}
			}

			var client *llm.Client
			if !offline {
				var clientOpts []llm.ClientOption
				if cfg.Cache.Enabled {
					clientOpts = append(clientOpts,
						llm.WithCache(llm.NewResponseCache(cfg.Cache.Capacity, cfg.Cache.TTL)))
				}
				client = llm.NewClient(cfg.ClientConfig(), clientOpts...)
			}

			gen := generator.New(
				cfg.PipelineConfig(),
				generator.NewAnalyzer(client, slog.Default()),
				generator.NewPlanner(client, registry, slog.Default()),
				generator.NewFactory(registry),
				generator.NewConnectionBuilder(registry, slog.Default()),
				registry,
			)

			result, err := gen.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if enhance {
				gen.EnhanceErrorHandling(result.Workflow)
			}

			reportValidation(result)

			doc, err := json.MarshalIndent(result.Workflow, "", "  ")
			if err != nil {
				return err
			}
			if outputPath != "" {
				return os.WriteFile(outputPath, append(doc, '\n'), 0o644)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(doc))
			return nil
		},
	}

	cmd.Flags().StringVarP(&requirementsPath, "file", "f", "", "requirements file (YAML or JSON)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "inline requirement description")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the workflow document to a file")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the AI service and use deterministic fallbacks")
	cmd.Flags().BoolVar(&enhance, "enhance", false, "attach retry policies to nodes doing external work")

	return cmd
}

// loadRequirements reads the requirement object from a file or builds a
// minimal one from an inline description.
func loadRequirements(path, description string) (*generator.Requirements, error) {
	if path == "" && description == "" {
		return nil, fmt.Errorf("either --file or --description is required")
	}

	req := &generator.Requirements{Description: description}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read requirements file: %w", err)
		}
		if err := yaml.Unmarshal(data, req); err != nil {
			return nil, fmt.Errorf("failed to parse requirements file: %w", err)
		}
		if description != "" {
			req.Description = description
		}
	}
	return req, nil
}

func reportValidation(result *generator.Result) {
	logger := slog.Default()
	for _, issue := range result.Validation.Errors {
		logger.Error("validation error", "category", issue.Category, "node", issue.Node, "message", issue.Message)
	}
	for _, issue := range result.Validation.Warnings {
		logger.Warn("validation warning", "category", issue.Category, "node", issue.Node, "message", issue.Message)
	}
	for _, w := range result.Warnings {
		logger.Warn("generation warning", "message", w)
	}
}
