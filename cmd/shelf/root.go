package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/shelf/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:     "shelf",
	Short:   "Find books and keep track of the ones you want",
	Long:    "Search Open Library, keep favorites and a want-to-read list, and revisit recent searches from a TUI or the command line",
	Version: Version,
	Args:    cobra.NoArgs,
	// errors are printed once by main
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("the interactive UI needs a terminal; see 'shelf --help' for scriptable commands")
		}
		return runTUI()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "directory holding config.yaml")
	rootCmd.SetVersionTemplate("shelf {{.Version}}\n")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runTUI() error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	model := tui.NewModel(tui.Options{
		Collection:  a.collection,
		Search:      a.search,
		Launcher:    a.launcher,
		CatalogURL:  a.cfg.Catalog.BaseURL,
		CoverSize:   a.cfg.CoverSize(),
		DefaultView: tui.ParseView(a.cfg.UI.DefaultView),
		Logger:      a.logger,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())

	a.logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
