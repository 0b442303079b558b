package main

import (
	"fmt"

	"github.com/benjaminschreck/reportstencil/pkg/stencil"
	"github.com/spf13/cobra"
)

var (
	renderData     string
	renderOut      string
	renderLocale   string
	renderTheme    string
	renderLayouts  []string
	renderStrict   bool
	renderWarnings bool
)

var renderCmd = &cobra.Command{
	Use:   "render <template>",
	Short: "Render a template file",
	Long: `Render a template file with data from a YAML, TOML or JSON file.

Parent templates referenced by {{extends "name"}} are loaded with --layouts,
e.g. --layouts "layouts/**/*.html". The output goes to stdout unless --out is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderData, "data", "d", "", "data file (.yaml, .yml, .toml, .json)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "write output to this file")
	renderCmd.Flags().StringVarP(&renderLocale, "locale", "l", "", "locale for {{i18n:...}} tokens and helpers")
	renderCmd.Flags().StringVarP(&renderTheme, "theme", "t", "", "theme for {{theme:...}} tokens")
	renderCmd.Flags().StringSliceVar(&renderLayouts, "layouts", nil, "glob patterns of parent templates")
	renderCmd.Flags().BoolVar(&renderStrict, "strict", false, "fail on any render warning")
	renderCmd.Flags().BoolVar(&renderWarnings, "warnings", true, "print render warnings to stderr")
}

func runRender(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(func(c *stencil.Config) {
		if renderStrict {
			c.StrictMode = true
		}
	})
	if err != nil {
		return err
	}

	for _, pattern := range renderLayouts {
		if _, err := engine.LoadGlob(pattern); err != nil {
			return err
		}
	}

	tmpl, err := engine.LoadFile(args[0])
	if err != nil {
		return err
	}

	data := stencil.TemplateData{}
	if renderData != "" {
		data, err = stencil.LoadData(renderData)
		if err != nil {
			return err
		}
	}

	ctx := stencil.NewContext(data)
	if renderLocale != "" {
		ctx = ctx.WithLocale(renderLocale)
	}
	if renderTheme != "" {
		ctx = ctx.WithTheme(renderTheme)
	}

	var result *stencil.RenderResult
	if renderOut != "" {
		result = engine.RenderToFile(tmpl.ID, ctx, renderOut)
	} else {
		result = engine.Render(tmpl.ID, ctx)
	}

	if renderWarnings {
		for _, w := range result.Warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), warningStyle.Render("warning:"), w)
		}
	}
	if !result.Success {
		return result.Err()
	}

	if renderOut == "" {
		fmt.Fprint(cmd.OutOrStdout(), result.Output)
		return nil
	}

	logger.Info().
		Str("template", result.TemplateID).
		Str("path", result.OutputPath).
		Dur("duration", result.Duration).
		Msg("Rendered template")
	return nil
}
