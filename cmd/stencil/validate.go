package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"slices"

	"github.com/benjaminschreck/reportstencil/pkg/stencil"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	validateJSON      bool
	validateMaxIssues int
	validateQuiet     bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|pattern>...",
	Short: "Validate template syntax",
	Long: `Validate template files without rendering them. Arguments may be doublestar
patterns such as "templates/**/*.html". The command fails when any file has
errors; warnings and informational findings are reported but do not fail.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print reports as JSON")
	validateCmd.Flags().IntVar(&validateMaxIssues, "max-issues", 0, "limit issues per file (0 = unlimited)")
	validateCmd.Flags().BoolVarP(&validateQuiet, "quiet", "q", false, "only report errors")
}

type fileReport struct {
	Path   string                    `json:"path"`
	Report *stencil.ValidationReport `json:"report"`
}

// expandPatterns resolves every argument as a doublestar pattern. Plain paths
// match themselves.
func expandPatterns(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)
	return slices.Compact(paths), nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	paths, err := expandPatterns(args)
	if err != nil {
		return err
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	reports := make([]fileReport, len(paths))
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			report, err := engine.ValidateFile(path, validateMaxIssues)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports[i] = fileReport{Path: path, Report: report}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if validateJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else {
		for _, fr := range reports {
			printReport(out, fr)
		}
	}

	invalid := 0
	for _, fr := range reports {
		if !fr.Report.Valid {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d templates have errors", invalid, len(reports))
	}
	return nil
}

func printReport(w io.Writer, fr fileReport) {
	report := fr.Report
	if report.Valid && (validateQuiet || len(report.Issues) == 0) {
		fmt.Fprintf(w, "%s %s\n", okStyle.Render("✓"), fileStyle.Render(fr.Path))
		return
	}

	fmt.Fprintf(w, "%s\n", fileStyle.Render(fr.Path))
	for _, issue := range report.Issues {
		if validateQuiet && issue.Severity != stencil.IssueSeverityError {
			continue
		}
		fmt.Fprintf(w, "  %s %s %s %s\n",
			locationStyle.Render(fmt.Sprintf("%d:%d", issue.Location.Line, issue.Location.Column)),
			severityStyle(issue.Severity).Render(string(issue.Severity)),
			issue.Code,
			issue.Message,
		)
	}
	if report.IssuesTruncated {
		fmt.Fprintf(w, "  %s\n", locationStyle.Render(fmt.Sprintf("(%d issues shown)", report.Summary.ReturnedIssueCount)))
	}
}
