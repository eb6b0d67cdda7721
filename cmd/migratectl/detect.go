package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/storemigrate/internal/core"
	"github.com/spf13/cobra"
)

// detectOutput is printed by the detect command.
type detectOutput struct {
	File   string `json:"file"`
	Source string `json:"source"`
	core.Detection
}

func newDetectCmd(opts *rootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "detect <file>",
		Short: "Detect the platform that produced an export or storefront page",
		Long: `Detect reads an HTML page saved from a storefront and looks for platform
markers, or reads an export file (CSV, JSON or XLSX) and matches its header
row against known platform signatures.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			out := detectOutput{File: filepath.Base(path)}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".html", ".htm":
				out.Source = "markup"
				out.Detection = core.DetectPlatform(string(data))
			default:
				k, err := core.ParseKind(kind)
				if err != nil {
					return err
				}
				parsed, err := core.ParseFile(path, data, k)
				if err != nil {
					return err
				}
				out.Source = "headers"
				out.Detection = core.DetectFromHeaders(parsed.Headers)
				opts.logger.Debug("parsed export",
					"format", parsed.Format,
					"rows", parsed.Rows,
					"headers", len(parsed.Headers),
				)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(core.KindProduct), "entity kind of an export file: product, customer or order")
	return cmd
}
