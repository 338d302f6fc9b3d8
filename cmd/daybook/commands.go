package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/pders01/daybook/internal/archive"
	"github.com/pders01/daybook/internal/media"
	"github.com/pders01/daybook/internal/storage"
	"github.com/pders01/daybook/internal/validation"
)

var weatherCodes = map[string]int{
	"sunny":  1,
	"cloudy": 2,
	"rainy":  3,
	"snowy":  4,
	"windy":  5,
	"foggy":  6,
}

// dayArg resolves an optional DATE argument, defaulting to today.
func dayArg(args []string) (string, error) {
	if len(args) == 0 {
		return time.Now().Format(storage.DateLayout), nil
	}
	t, err := time.Parse(storage.DateLayout, args[0])
	if err != nil {
		return "", fmt.Errorf("date must look like 2006-01-02: %w", err)
	}
	return t.Format(storage.DateLayout), nil
}

// parseItem splits "title: comment". The comment may be omitted.
func parseItem(raw string) storage.Item {
	title, comment, _ := strings.Cut(raw, ":")
	return storage.Item{Title: strings.TrimSpace(title), Comment: strings.TrimSpace(comment)}
}

func newAddCmd(opts *options) *cobra.Command {
	var title, weather, attachment string
	var items []string

	cmd := &cobra.Command{
		Use:   "add [DATE]",
		Short: "Write or replace the entry for a day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dayArg(args)
			if err != nil {
				return err
			}
			if len(items) > storage.ItemCount {
				return fmt.Errorf("at most %d items per day, got %d", storage.ItemCount, len(items))
			}
			if err := validation.ValidateAttachment(attachment); err != nil {
				return err
			}
			rec := &storage.Record{Date: date, Title: title, Attachment: attachment}
			if weather != "" {
				code, ok := weatherCodes[strings.ToLower(weather)]
				if !ok {
					return fmt.Errorf("unknown weather %q", weather)
				}
				rec.Weather = code
			}
			for i, raw := range items {
				rec.Items[i] = parseItem(raw)
			}

			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.repo.Save(cmd.Context(), rec); err != nil {
				return fmt.Errorf("saving %s: %w", date, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", date)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title of the day")
	cmd.Flags().StringVar(&weather, "weather", "", "sunny, cloudy, rainy, snowy, windy or foggy")
	cmd.Flags().StringVar(&attachment, "attachment", "", "File path or http(s) URL to attach")
	cmd.Flags().StringArrayVar(&items, "item", nil, `Item as "title: comment" (repeat up to 5 times)`)
	return cmd
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete DATE",
		Short: "Remove the entry for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dayArg(args)
			if err != nil {
				return err
			}
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.repo.Delete(cmd.Context(), date); err != nil {
				return fmt.Errorf("deleting %s: %w", date, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", date)
			return nil
		},
	}
}

func newShowCmd(opts *options) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show [DATE]",
		Short: "Print one day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dayArg(args)
			if err != nil {
				return err
			}
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			rec, err := e.repo.Get(cmd.Context(), date)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("nothing written on %s", date)
			}
			if err != nil {
				return err
			}

			md := archive.Markdown(rec)
			if raw {
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(e.cfg.UI.WordWrap),
			)
			if err != nil {
				return fmt.Errorf("creating renderer: %w", err)
			}
			out, err := r.Render(md)
			if err != nil {
				return fmt.Errorf("rendering %s: %w", date, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without styling")
	return cmd
}

func newOpenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "open [DATE]",
		Short: "Open a day's attachment with the configured opener",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dayArg(args)
			if err != nil {
				return err
			}
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			rec, err := e.repo.Get(cmd.Context(), date)
			if err != nil {
				return fmt.Errorf("reading %s: %w", date, err)
			}
			launcher, err := media.NewLauncher(&e.cfg.Media)
			if err != nil {
				return err
			}
			if err := launcher.Open(rec.Attachment); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", rec.Attachment)
			return nil
		},
	}
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Load days from a TOML or JSON archive, replacing days with the same date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			path, format, err := e.paths.ArchivePath(args[0])
			if err != nil {
				return fmt.Errorf("archive path: %w", err)
			}
			records, err := archive.ImportFile(path, archive.Format(format))
			if err != nil {
				return err
			}
			if err := e.repo.Save(cmd.Context(), records...); err != nil {
				return fmt.Errorf("saving imported days: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d days from %s\n", len(records), path)
			return nil
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write every day to an archive (format from the extension unless --format)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			path, _, err := e.paths.ArchivePath(args[0])
			if err != nil {
				return fmt.Errorf("archive path: %w", err)
			}
			if _, err := e.paths.EnsureDirectory(filepath.Dir(path)); err != nil {
				return fmt.Errorf("export directory: %w", err)
			}
			f := archive.FormatForPath(path)
			if format != "" {
				f = archive.Format(format)
			}

			records, err := e.repo.All(cmd.Context())
			if err != nil {
				return err
			}
			if err := archive.ExportFile(path, f, records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d days to %s\n", len(records), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "toml, json or markdown")
	return cmd
}

func newReindexCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()
			if e.index == nil {
				return fmt.Errorf("backend %q has no search index, use --backend bleve", e.cfg.Database.Backend)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), collectTimeout)
			defer cancel()
			if err := e.reindex(ctx); err != nil {
				return fmt.Errorf("rebuilding index: %w", err)
			}
			n, err := e.index.DocCount()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d days\n", n)
			return nil
		},
	}
}
