// file: cmd/diagnostics.go
// version: 2.1.0
// guid: c8f6a0d4-2a8b-48cf-9d08-02cc9915d9fc

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jdfalk/bookclub/internal/config"
	"github.com/jdfalk/bookclub/internal/covers"
	"github.com/jdfalk/bookclub/internal/database"
	"github.com/jdfalk/bookclub/internal/server"
	"github.com/spf13/cobra"
)

var (
	diagnosticsCmd = &cobra.Command{
		Use:   "diagnostics",
		Short: "Debugging helpers",
		Long:  "Diagnostic utilities for inspecting the store and the cover sources.",
	}

	storeCmd = &cobra.Command{
		Use:   "store",
		Short: "Show the raw stored current-book record",
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := ensureDiagnosticsStore(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return runStoreDiagnostics(cmd.Context(), cmd.OutOrStdout(), database.GlobalStore)
		},
	}

	coversCmd = &cobra.Command{
		Use:   "covers",
		Short: "Probe every cover candidate for a book",
		Long: `Resolve a book and probe each cover candidate in order, reporting the
outcome of every attempt rather than stopping at the first success.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			author, _ := cmd.Flags().GetString("author")
			if title == "" || author == "" {
				cleanup, err := ensureDiagnosticsStore(cmd.Context())
				if err != nil {
					return err
				}
				defer cleanup()
				sel, _ := server.NewCurrentBookService(database.GlobalStore).Selection(cmd.Context(), config.AppConfig.DefaultBook)
				title, author = sel.Title, sel.Author
			}
			return runCoverDiagnostics(cmd.Context(), cmd.OutOrStdout(), config.AppConfig, http.DefaultClient, title, author)
		},
	}
)

func init() {
	coversCmd.Flags().String("title", "", "title to resolve (default: current book)")
	coversCmd.Flags().String("author", "", "author to resolve (default: current book)")

	diagnosticsCmd.AddCommand(storeCmd)
	diagnosticsCmd.AddCommand(coversCmd)
}

func ensureDiagnosticsStore(ctx context.Context) (func(), error) {
	if err := database.InitializeStore(ctx, config.AppConfig.StoreOptions()); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	cleanup := func() {
		database.CloseStore()
	}
	return cleanup, nil
}

func runStoreDiagnostics(ctx context.Context, out io.Writer, store database.KVStore) error {
	if store == nil {
		return database.ErrStorageUnavailable
	}
	fmt.Fprintf(out, "Backend: %s\n", store.Kind())

	raw, ok, err := store.Get(ctx, database.CurrentBookKey)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", database.CurrentBookKey, err)
	}
	if !ok {
		fmt.Fprintf(out, "Key %q: not set (the default book is rendered)\n", database.CurrentBookKey)
		return nil
	}
	fmt.Fprintf(out, "Key %q: %s\n", database.CurrentBookKey, truncateString(raw, 200))

	rec, err := database.GetCurrentBook(ctx, store)
	if err != nil {
		fmt.Fprintf(out, "Decode: FAILED (%v)\n", err)
		return nil
	}
	fmt.Fprintf(out, "Decode: ok (%q by %q, updated %s)\n", rec.Title, rec.Author, rec.UpdatedAt.Format(time.RFC3339))
	return nil
}

func runCoverDiagnostics(ctx context.Context, out io.Writer, cfg config.Config, client *http.Client, title, author string) error {
	detail := server.NewResolver(cfg, nil).Resolve(ctx, title, author)
	candidates := covers.DeriveCandidates(detail, cfg.Covers.ServiceURL)
	prober := server.NewProber(cfg, client)

	fmt.Fprintf(out, "Book: %s by %s\n", detail.Title, detail.Author)
	if len(candidates) == 0 {
		fmt.Fprintln(out, "No cover candidates; the placeholder is shown.")
		return nil
	}

	first := ""
	for i, candidate := range candidates {
		status := "ok"
		if err := prober.Probe(ctx, candidate); err != nil {
			status = "failed: " + err.Error()
			if errors.Is(err, covers.ErrTooSmall) {
				status = "too small"
			}
		} else if first == "" {
			first = candidate
		}
		fmt.Fprintf(out, "%2d. %s [%s]\n", i+1, truncateString(candidate, 120), status)
	}
	if first == "" {
		fmt.Fprintln(out, "Selected: placeholder")
	} else {
		fmt.Fprintf(out, "Selected: %s\n", first)
	}
	return nil
}

func truncateString(in string, max int) string {
	runes := []rune(in)
	if len(runes) <= max {
		return in
	}
	return string(runes[:max]) + "..."
}
