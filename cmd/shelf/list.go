package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/tui/styles"
	"github.com/spf13/cobra"
)

var listFilter string

var listCmd = &cobra.Command{
	Use:       "list <favorites|wantToRead|recentlySearched>",
	Short:     "Show a saved list",
	Args:      cobra.ExactArgs(1),
	ValidArgs: listNameArgs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := parseListName(args[0])
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		state := a.collection.State()
		if name == domain.ListRecentlySearched {
			if len(state.RecentlySearched) == 0 {
				fmt.Println("No recent searches.")
				return nil
			}
			t := newTable("#", "Query", "Searched")
			for i, e := range state.RecentlySearched {
				t.Row(strconv.Itoa(i+1), e.Query, e.IssuedAt.Local().Format("2006-01-02 15:04"))
			}
			fmt.Println(t)
			return nil
		}

		books := state.List(name)
		if listFilter != "" {
			books = books[:0:0]
			for _, r := range a.collection.Filter(listFilter) {
				if r.List == name {
					books = append(books, r.Book)
				}
			}
		}
		if len(books) == 0 {
			fmt.Printf("%s is empty.\n", name.Label())
			return nil
		}

		t := newTable("#", "Title", "Author", "Year", "Key")
		for i, b := range books {
			t.Row(strconv.Itoa(i+1),
				styles.Truncate(b.Title, 48),
				styles.Truncate(b.AuthorLine(), 28),
				b.YearString(),
				b.ID)
		}
		fmt.Printf("\n%s (%d)\n", name.Label(), len(books))
		fmt.Println(t)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <favorites|wantToRead> <key>",
	Short: "Remove a book from a saved list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := parseListName(args[0])
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id := args[1]
		switch name {
		case domain.ListFavorites:
			if !a.collection.IsFavorite(id) {
				return fmt.Errorf("%s is not in %s", id, name.Label())
			}
			a.collection.RemoveFromFavorites(id)
		case domain.ListWantToRead:
			if !a.collection.IsInWantToRead(id) {
				return fmt.Errorf("%s is not in %s", id, name.Label())
			}
			a.collection.RemoveFromWantToRead(id)
		default:
			return fmt.Errorf("entries cannot be removed from %s; use 'shelf clear %s'", name.Label(), name)
		}
		if msg := a.collection.State().LastError; msg != "" {
			return fmt.Errorf("%s", msg)
		}
		fmt.Printf("Removed %s from %s\n", id, name.Label())
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:       "clear <favorites|wantToRead|recentlySearched>",
	Short:     "Empty a saved list",
	Args:      cobra.ExactArgs(1),
	ValidArgs: listNameArgs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := parseListName(args[0])
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.collection.ClearList(name)
		if msg := a.collection.State().LastError; msg != "" {
			return fmt.Errorf("%s", msg)
		}
		fmt.Printf("Cleared %s\n", name.Label())
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "fuzzy filter on titles")
}

func listNameArgs() []string {
	names := domain.ListNames()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

func parseListName(arg string) (domain.ListName, error) {
	name := domain.ListName(arg)
	if name.Valid() {
		return name, nil
	}
	// accept the config spelling with any case
	for _, n := range domain.ListNames() {
		if strings.EqualFold(string(n), arg) {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want one of %s)", domain.ErrInvalidListName, arg, strings.Join(listNameArgs(), ", "))
}
