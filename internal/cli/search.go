package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/runnerr0/archistory/internal/storage"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	profileStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
	a, err := openApp(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithApp(context.Background(), a, args)
}

// executeWithApp runs the search against a provided app (for testing).
func (c *SearchCommand) executeWithApp(ctx context.Context, a *app, args []string) error {
	if c.Refresh {
		a.snapshots.Refresh(ctx)
	}

	params := storage.FilterParams{
		Keyword: strings.Join(args, " "),
		Start:   c.Start,
		End:     c.End,
		Profile: c.Profile,
		Page:    strconv.Itoa(c.Page),
	}
	if c.PerPage > 0 {
		params.PerPage = strconv.Itoa(c.PerPage)
	}

	filter, errs := storage.ParseFilter(params, a.cfg.ProfileNames(), a.cfg.Search.PerPage)
	for _, err := range errs {
		a.logger.Debug("search option replaced by default", "error", err)
	}

	page := a.searcher.Search(ctx, filter)

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(storage.NewPageJSON(page))
	}
	return c.printHuman(filter, page)
}

func (c *SearchCommand) printHuman(f storage.Filter, page storage.SearchPage) error {
	if page.TotalCount == 0 {
		if f.Keyword != "" {
			fmt.Printf("No results found for %q\n", f.Keyword)
		} else {
			fmt.Println("No results found")
		}
		return nil
	}

	resultWord := "results"
	if page.TotalCount == 1 {
		resultWord = "result"
	}
	header := fmt.Sprintf("Found %s %s", humanize.Comma(int64(page.TotalCount)), resultWord)
	if f.Keyword != "" {
		header += fmt.Sprintf(" for %q", f.Keyword)
	}
	fmt.Printf("%s (page %d of %d)\n\n", header, page.Page, page.TotalPages)

	if len(page.Records) == 0 {
		fmt.Printf("Page %d is past the last page.\n", page.Page)
		return nil
	}

	offset := (page.Page - 1) * page.PerPage
	for i, r := range page.Records {
		fmt.Printf("%d. %s [%s]\n", offset+i+1, titleStyle.Render(r.Title), profileStyle.Render(r.Profile))
		fmt.Printf("   %s\n", r.URL)
		fmt.Printf("   %s\n", r.VisitTime.Local().Format(storage.DisplayLayout))

		if i < len(page.Records)-1 {
			fmt.Println()
		}
	}

	return nil
}
