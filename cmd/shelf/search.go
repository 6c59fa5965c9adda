package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/search"
	"github.com/mmcdole/shelf/internal/tui/styles"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                                  \r"

var (
	searchPage   int
	searchCovers bool
	searchRecord bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search Open Library",
	Long:  "Search Open Library and print one page of results as a table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if searchPage < 1 {
			return fmt.Errorf("--page must be at least 1")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		query := strings.Join(args, " ")
		if searchRecord && strings.TrimSpace(query) != "" {
			a.collection.RecordSearch(query)
		}

		state := searchWithSpinner(cmd.Context(), a.search, query, searchPage)
		if state.Error != "" {
			return errors.New(state.Error)
		}
		if len(state.Results) == 0 {
			fmt.Println("No books found.")
			return nil
		}

		var covers map[string]string
		if searchCovers {
			covers = lookupCovers(cmd.Context(), a, state.Results)
		}

		fmt.Println(resultsTable(a, state, covers))
		if state.HasMore {
			fmt.Printf("\nMore results: shelf search --page %d %s\n", state.Page+1, query)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 1, "result page to fetch")
	searchCmd.Flags().BoolVar(&searchCovers, "covers", false, "look up cover image URLs")
	searchCmd.Flags().BoolVar(&searchRecord, "record", true, "add the query to recent searches")
}

// searchWithSpinner runs the search, animating a spinner on an interactive stderr
func searchWithSpinner(ctx context.Context, orch *search.Orchestrator, query string, page int) search.State {
	if ctx == nil {
		ctx = context.Background()
	}
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return orch.SearchBooks(ctx, query, page)
	}

	resultCh := make(chan search.State, 1)
	go func() {
		resultCh <- orch.SearchBooks(ctx, query, page)
	}()

	frame := 0
	fmt.Fprintf(os.Stderr, "\r%s Searching for %s...", styles.SpinnerFrames[frame], query)

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case state := <-resultCh:
			fmt.Fprint(os.Stderr, clearSpinnerLine)
			return state
		case <-ticker.C:
			frame++
			fmt.Fprintf(os.Stderr, "\r%s Searching for %s...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)], query)
		}
	}
}

func lookupCovers(ctx context.Context, a *app, results []domain.CatalogEntry) map[string]string {
	if ctx == nil {
		ctx = context.Background()
	}
	covers := make(map[string]string)
	size := string(a.cfg.CoverSize())
	for _, e := range results {
		if e.CoverEditionKey == "" {
			continue
		}
		covers[e.ID] = a.search.FetchBookCover(ctx, e.CoverEditionKey, size)
	}
	return covers
}

func resultsTable(a *app, state search.State, covers map[string]string) *table.Table {
	headers := []string{"#", "", "Title", "Author", "Year", "Key"}
	if covers != nil {
		headers = append(headers, "Cover")
	}

	// a fresh process holds only the requested page
	t := newTable(headers...)
	offset := (state.Page - 1) * a.search.PageSize()
	for i, e := range state.Results {
		cells := []string{
			strconv.Itoa(offset + i + 1),
			marks(a, e.ID),
			styles.Truncate(e.Title, 48),
			styles.Truncate(e.AuthorLine(), 28),
			e.YearString(),
			e.ID,
		}
		if covers != nil {
			cells = append(cells, covers[e.ID])
		}
		t.Row(cells...)
	}
	return t
}

// marks shows list membership the way the TUI does
func marks(a *app, id string) string {
	fav, want := styles.EmptyChar, styles.EmptyChar
	if a.collection.IsFavorite(id) {
		fav = styles.FavoriteMark
	}
	if a.collection.IsInWantToRead(id) {
		want = styles.WantMark
	}
	return fav + want
}

func newTable(headers ...string) *table.Table {
	var (
		headerStyle = lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
		cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	)

	return table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		}).
		Headers(headers...)
}
