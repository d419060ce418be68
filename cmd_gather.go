package main

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/lexandro/contexter/aggregate"
	"github.com/lexandro/contexter/discovery"
	"github.com/lexandro/contexter/tokens"
)

func newGatherCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gather [DIR]",
		Short: "Gather a directory into one document",
		Long: `Gather walks DIR (default: the current directory), applies the ignore
rules and filters, and writes the assembled document to stdout, a file or the
clipboard.`,
		Example: `  contexter gather . -e go -e md
  contexter gather ./api -x '^vendor/' --metadata -o context.txt
  contexter gather --include 'cmd/**' --tokens -c`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runGather(cmd, a, dir)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceP("extension", "e", nil, "only include files with this extension (repeatable)")
	flags.StringSliceP("exclude", "x", nil, "regular expression for paths to skip (repeatable)")
	flags.StringSlice("include", nil, "glob the relative path must match (repeatable)")
	flags.Bool("hidden", false, "include dot-files and dot-directories")
	flags.Int64("max-file-size", 0, "skip files larger than this many bytes (0: no limit)")
	flags.Bool("metadata", false, "add size and modification time to file headers")
	flags.Bool("tokens", false, "print the token count of the document to stderr")
	flags.String("model", tokens.DefaultModel, "model whose tokenizer --tokens uses")
	flags.StringP("output", "o", "", "write the document to this file")
	flags.BoolP("clipboard", "c", false, "copy the document to the clipboard")
	bindFlags(a.v, "gather", flags)

	return cmd
}

func runGather(cmd *cobra.Command, a *app, dir string) error {
	v := a.v
	logger := a.logger("")
	ctx := cmd.Context()

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	records, err := discovery.Discover(ctx, dir, discovery.Options{
		Extensions:       v.GetStringSlice("gather.extension"),
		Excludes:         v.GetStringSlice("gather.exclude"),
		Include:          v.GetStringSlice("gather.include"),
		Hidden:           v.GetBool("gather.hidden"),
		MaxFileSizeBytes: v.GetInt64("gather.max-file-size"),
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	doc, err := aggregate.Aggregate(ctx, discovery.Paths(records), aggregate.Options{
		IncludeMetadata: v.GetBool("gather.metadata"),
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	summary := fmt.Sprintf("Gathered %d files", len(doc.Files))
	if doc.Duplicates > 0 {
		summary += fmt.Sprintf(", %d duplicates skipped", doc.Duplicates)
	}
	if doc.Skipped > 0 {
		summary += fmt.Sprintf(", %d unreadable", doc.Skipped)
	}

	if v.GetBool("gather.tokens") {
		counter, err := tokens.NewCounter(v.GetString("gather.model"))
		if err != nil {
			return err
		}
		summary += fmt.Sprintf(" (%d tokens, %s)", counter.Count(doc.Content), counter.Model())
	}

	switch output := v.GetString("gather.output"); {
	case output != "":
		if err := os.WriteFile(output, []byte(doc.Content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		summary += " -> " + output
	case v.GetBool("gather.clipboard"):
		if err := clipboard.WriteAll(doc.Content); err != nil {
			return fmt.Errorf("copying to clipboard: %w", err)
		}
		summary += " -> clipboard"
	default:
		fmt.Fprint(a.stdout, doc.Content)
	}

	fmt.Fprintln(a.stderr, SuccessStyle.Render(summary))
	return nil
}
