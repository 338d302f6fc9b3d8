package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/pders01/daybook/internal/listing"
	"github.com/pders01/daybook/internal/storage"
	"github.com/pders01/daybook/internal/tui"
)

// collectTimeout bounds a whole list or search run.
const collectTimeout = 30 * time.Second

// collect drives a controller the way the interactive lists do: one NEW
// load, then ADD loads while more results remain, up to pages loads in
// total. pages <= 0 means until the end.
func collect[T listing.Day](ctx context.Context, build func(listing.Consumer[T]) *listing.Controller[T], pages int) (listing.ResultList[T], error) {
	events := listing.NewChanConsumer[T](1)
	c := build(events)
	defer c.Close()

	var result listing.ResultList[T]
	kind := listing.LoadNew
	for n := 0; pages <= 0 || n < pages; n++ {
		if err := c.Request(kind); err != nil {
			return result, err
		}
		select {
		case ev := <-events.Events():
			if ev.Err != nil {
				return result, fmt.Errorf("%s: %w", ev.Kind, ev.Err)
			}
			result = ev.Result
		case <-ctx.Done():
			return result, ctx.Err()
		}
		if result.Terminal != listing.TerminalProgress {
			break
		}
		kind = listing.LoadAdd
	}
	return result, nil
}

func newListCmd(opts *options) *cobra.Command {
	var before string
	var pages int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print diary days grouped by month, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if before != "" {
				if _, err := time.Parse(storage.DateLayout, before); err != nil {
					return fmt.Errorf("--before: %w", err)
				}
			}
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), collectTimeout)
			defer cancel()

			result, err := collect(ctx, func(c listing.Consumer[listing.DayItem]) *listing.Controller[listing.DayItem] {
				ctrl := listing.NewDiaryController(listing.ListDiary, e.source, c, e.cfg.List.PageSize)
				ctrl.SetQuery(storage.Query{Before: before})
				return ctrl
			}, pages)
			if err != nil {
				return err
			}
			printDiary(cmd.OutOrStdout(), result, e.cfg.UI.DateFormat)
			return nil
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Only days on or before this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&pages, "pages", 0, "Stop after this many pages (0 loads everything)")
	return cmd
}

func newSearchCmd(opts *options) *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "search TERM",
		Short: "Find days containing TERM (literal, case-sensitive)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := args[0]
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			if n := e.cfg.List.SearchMinLength; len([]rune(term)) < n {
				return fmt.Errorf("search term must be at least %d characters", n)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), collectTimeout)
			defer cancel()

			result, err := collect(ctx, func(c listing.Consumer[listing.SearchDayItem]) *listing.Controller[listing.SearchDayItem] {
				ctrl := listing.NewSearchController(listing.ListSearch, e.source, c, e.cfg.List.PageSize)
				ctrl.SetQuery(storage.Query{Term: term})
				return ctrl
			}, pages)
			if err != nil {
				return err
			}
			printSearch(cmd.OutOrStdout(), result, e.cfg.UI.DateFormat)
			return nil
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 0, "Stop after this many pages (0 loads everything)")
	return cmd
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print how many days were written per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), collectTimeout)
			defer cancel()

			result, err := collect(ctx, func(c listing.Consumer[listing.DayItem]) *listing.Controller[listing.DayItem] {
				return listing.NewDiaryController(listing.ListDiary, e.source, c, e.cfg.List.PageSize)
			}, 0)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), monthTable(result))
			return nil
		},
	}
}

func monthTable(result listing.ResultList[listing.DayItem]) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("MONTH", "DAYS", "ATTACHMENTS")

	var attached int
	for _, b := range result.Buckets {
		n := 0
		for _, d := range b.Items {
			if d.HasAttachment() {
				n++
			}
		}
		attached += n
		tbl.AddRow(b.YearMonth.String(), len(b.Items), n)
	}
	tbl.AddRow("total", result.Loaded(), attached)
	return tbl
}

func printDiary(w io.Writer, result listing.ResultList[listing.DayItem], dateFormat string) {
	if result.Empty() {
		fmt.Fprintln(w, tui.EmptyStyle.Render("No days."))
		return
	}
	for _, b := range result.Buckets {
		fmt.Fprintln(w, tui.MonthStyle.Render(b.YearMonth.String()))
		for _, d := range b.Items {
			line := "  " + tui.TimeStyle.Render(d.Date.Format(dateFormat)) + "  " + d.Title
			if d.HasAttachment() {
				line += " " + tui.AttachmentStyle.Render("◆")
			}
			fmt.Fprintln(w, line)
		}
	}
	printFooter(w, result.Loaded(), result.Total, result.Terminal)
}

func printSearch(w io.Writer, result listing.ResultList[listing.SearchDayItem], dateFormat string) {
	if result.Empty() {
		fmt.Fprintln(w, tui.EmptyStyle.Render("No matches."))
		return
	}
	for _, b := range result.Buckets {
		fmt.Fprintln(w, tui.MonthStyle.Render(b.YearMonth.String()))
		for _, hit := range b.Items {
			var sb strings.Builder
			sb.WriteString("  ")
			sb.WriteString(tui.TimeStyle.Render(hit.Date.Format(dateFormat)))
			sb.WriteString("  ")
			sb.WriteString(tui.RenderHighlighted(hit.HighlightedTitle, tui.ItemStyle))
			fmt.Fprintf(&sb, "  #%d ", hit.ShownItem)
			sb.WriteString(tui.RenderHighlighted(hit.FieldTitle, tui.ItemStyle))
			if hit.FieldComment.Text != "" {
				sb.WriteString(": ")
				sb.WriteString(tui.RenderHighlighted(hit.FieldComment, tui.ItemStyle))
			}
			fmt.Fprintln(w, sb.String())
		}
	}
	printFooter(w, result.Loaded(), result.Total, result.Terminal)
}

func printFooter(w io.Writer, loaded, total int, terminal listing.Terminal) {
	switch terminal {
	case listing.TerminalProgress:
		fmt.Fprintln(w, tui.HelpStyle.Render(fmt.Sprintf("%d of %d shown, more available", loaded, total)))
	default:
		fmt.Fprintln(w, tui.HelpStyle.Render(fmt.Sprintf("%d of %d shown", loaded, total)))
	}
}
