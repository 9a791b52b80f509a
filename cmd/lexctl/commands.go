package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"lexdraft/internal/compliance"
	"lexdraft/internal/generation/generator"
	generationservice "lexdraft/internal/generation/service"
	formstore "lexdraft/internal/generation/store"
	"lexdraft/internal/platform/logger"
	"lexdraft/internal/profile/models"
	"lexdraft/internal/profile/reconcile"
	profileservice "lexdraft/internal/profile/service"
	profilestore "lexdraft/internal/profile/store"
	"lexdraft/pkg/requestcontext"
)

func newValidateCmd(_ *globalFlags) *cobra.Command {
	var in inputFlags
	var format string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Report the gaps that would block or weaken the selected documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, form, docs, err := in.load()
			if err != nil {
				return err
			}
			gaps := compliance.NewValidator().Validate(profile, form, docs)
			if err := printGaps(cmd.OutOrStdout(), format, gaps); err != nil {
				return err
			}
			return blockedError(gaps)
		},
	}
	in.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

func newReconcileCmd(_ *globalFlags) *cobra.Command {
	var in inputFlags
	var showDiff bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Apply a form to a profile and print the merged profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, form, docs, err := in.load()
			if err != nil {
				return err
			}
			merged, err := reconcile.ReconcileAll(profile, form, docs)
			if err != nil {
				return codeError(exitFailed, "reconcile: %s", err)
			}
			after, err := canonicalJSON(merged)
			if err != nil {
				return err
			}
			if !showDiff {
				_, err = io.WriteString(cmd.OutOrStdout(), after)
				return err
			}
			before, err := canonicalJSON(profile)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), lineDiff(before, after))
			return err
		},
	}
	in.bind(cmd)
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Print only the lines the form changes")
	return cmd
}

func newOutlineCmd(_ *globalFlags) *cobra.Command {
	var in inputFlags
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Print the conditional section outline of each document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, form, docs, err := in.load()
			if err != nil {
				return err
			}
			merged, err := reconcile.ReconcileAll(profile, form, docs)
			if err != nil {
				return codeError(exitFailed, "reconcile: %s", err)
			}
			var desc string
			if form.ProductDescription != nil {
				desc = *form.ProductDescription
			}
			for i, doc := range docs {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "---")
				}
				out, err := generator.RenderOutline(merged, doc, desc)
				if err != nil {
					return codeError(exitFailed, "%s", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	in.bind(cmd)
	return cmd
}

func newGenerateCmd(g *globalFlags) *cobra.Command {
	var in inputFlags
	var dbPath, outDir string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Validate, save the profile locally and draft the selected documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, form, docs, err := in.load()
			if err != nil {
				return err
			}
			log := logger.NewWithWriter(cmd.ErrOrStderr(), g.logLevel)

			db, err := profilestore.OpenBadger(dbPath)
			if err != nil {
				return codeError(exitFailed, "open profile store: %s", err)
			}
			defer db.Close()

			profiles := profileservice.New(profilestore.NewBadger(db), profileservice.WithLogger(log))
			svc := generationservice.New(profiles, generator.NewOutline(profiles),
				generationservice.WithLogger(log),
				generationservice.WithFormLog(formstore.NewInMemoryFormLog()),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			ctx = requestcontext.WithOperator(ctx, g.operator)

			res, err := svc.ValidateAndGenerate(ctx, generationservice.Request{Profile: profile, Form: form, DocTypes: docs})
			if res != nil {
				if err := writeDocuments(cmd, outDir, res); err != nil {
					return err
				}
				if perr := printGaps(cmd.ErrOrStderr(), "text", res.Gaps); perr != nil {
					return perr
				}
			}
			if err != nil {
				return codeError(exitFailed, "%s", err)
			}
			if res.Blocked {
				return blockedError(res.Gaps)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "profile %s saved to %s\n", res.Profile.ID, dbPath)
			return nil
		},
	}
	in.bind(cmd)
	cmd.Flags().StringVar(&dbPath, "db", ".lexdraft", "Local profile store directory")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Write <doc>.md files here instead of stdout")
	return cmd
}

func writeDocuments(cmd *cobra.Command, outDir string, res *generationservice.Result) error {
	for i, doc := range res.Documents {
		if outDir == "" {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "---")
			}
			fmt.Fprint(cmd.OutOrStdout(), doc.Markdown)
			continue
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		path := filepath.Join(outDir, string(doc.DocType)+".md")
		if err := os.WriteFile(path, []byte(doc.Markdown), 0o644); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "wrote", path)
	}
	return nil
}

func blockedError(gaps []models.Gap) error {
	n := 0
	for _, gap := range gaps {
		if gap.Severity == models.SeverityError {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return codeError(exitBlocked, "generation is blocked by %d error gap(s)", n)
}

func printGaps(w io.Writer, format string, gaps []models.Gap) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Gaps    []models.Gap `json:"gaps"`
			Blocked bool         `json:"blocked"`
		}{Gaps: gaps, Blocked: models.HasBlocking(gaps)})
	}
	if len(gaps) == 0 {
		_, err := fmt.Fprintln(w, "no gaps")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, gap := range gaps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", strings.ToUpper(string(gap.Severity)), orDash(gap.Field), gap.Message, orDash(gap.Rule))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func canonicalJSON(p *models.Profile) (string, error) {
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw) + "\n", nil
}

// lineDiff lists the removed and added lines between two texts.
func lineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line != "" {
				out.WriteString(prefix + line)
			}
		}
	}
	return out.String()
}
