// file: cmd/root.go
// version: 2.0.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jdfalk/bookclub/internal/config"
	"github.com/jdfalk/bookclub/internal/covers"
	"github.com/jdfalk/bookclub/internal/database"
	"github.com/jdfalk/bookclub/internal/metadata"
	"github.com/jdfalk/bookclub/internal/realtime"
	"github.com/jdfalk/bookclub/internal/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var cfgFile string
var envFile string
var databasePath string
var databaseType string
var enableSQLite bool
var postgresDSN string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bookclub",
	Short: "Serve the literary society's \"currently reading\" page",
	Long: `Bookclub serves a single page showing the book the society is
currently reading, enriched with Google Books metadata and cover art,
and a small API for choosing the next book.`,
	SilenceUsage: true,
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.InitializeStore(cmd.Context(), config.AppConfig.StoreOptions()); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.CloseStore()

		fmt.Printf("Using database: %s (%s)\n", database.GlobalStore.Kind(), config.AppConfig.DatabasePath)

		// Initialize real-time event hub
		realtime.InitializeEventHub()

		srv := server.NewServer()
		watchConfig(srv)

		cfg, err := serverConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		return srv.Start(cfg)
	},
}

// setCmd represents the set command
var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the current book",
	Long:  `Set the current book with the same validation and normalization as POST /book.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		author, _ := cmd.Flags().GetString("author")

		if err := database.InitializeStore(cmd.Context(), config.AppConfig.StoreOptions()); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.CloseStore()

		return runSet(cmd.Context(), cmd.OutOrStdout(), database.GlobalStore, title, author)
	},
}

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Resolve and print the current book",
	Long: `Resolve the current book against the metadata service and print the
result, including cover candidates, as YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		explain, _ := cmd.Flags().GetBool("explain")

		if err := database.InitializeStore(cmd.Context(), config.AppConfig.StoreOptions()); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.CloseStore()

		return runShow(cmd.Context(), cmd.OutOrStdout(), database.GlobalStore, config.AppConfig, explain)
	},
}

func runSet(ctx context.Context, out io.Writer, store database.KVStore, title, author string) error {
	rec, err := server.NewCurrentBookService(store).Update(ctx, server.UpdateBookRequest{Title: title, Author: author})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Current book: %s by %s (updated %s)\n", rec.Title, rec.Author, rec.UpdatedAt.Format(time.RFC3339))
	return nil
}

type showOutput struct {
	Book        server.Selection      `yaml:"book"`
	Detail      metadata.BookDetail   `yaml:"detail"`
	Candidates  []string              `yaml:"candidates"`
	Explanation *metadata.Explanation `yaml:"explanation,omitempty"`
}

func runShow(ctx context.Context, out io.Writer, store database.KVStore, cfg config.Config, explain bool) error {
	sel, err := server.NewCurrentBookService(store).Selection(ctx, cfg.DefaultBook)
	if err != nil {
		log.Printf("[WARN] Failed to load current book, using default: %v", err)
	}

	resolver := server.NewResolver(cfg, nil)
	result := showOutput{Book: sel}
	if explain {
		exp := resolver.Explain(ctx, sel.Title, sel.Author)
		result.Explanation = &exp
		result.Detail = exp.Detail
	} else {
		result.Detail = resolver.Resolve(ctx, sel.Title, sel.Author)
	}
	result.Candidates = covers.DeriveCandidates(result.Detail, cfg.Covers.ServiceURL)

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}

func serverConfigFromFlags(cmd *cobra.Command) (server.ServerConfig, error) {
	cfg := server.GetDefaultServerConfig()
	if config.AppConfig.Host != "" {
		cfg.Host = config.AppConfig.Host
	}
	if config.AppConfig.Port != "" {
		cfg.Port = config.AppConfig.Port
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetString("port")
	}
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	for name, target := range map[string]*time.Duration{
		"read-timeout":  &cfg.ReadTimeout,
		"write-timeout": &cfg.WriteTimeout,
		"idle-timeout":  &cfg.IdleTimeout,
	} {
		if !flags.Changed(name) {
			continue
		}
		raw, _ := flags.GetString(name)
		d, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid --%s %q: %w", name, raw, err)
		}
		*target = d
	}
	return cfg, nil
}

// watchConfig re-applies the config file whenever it changes. Listener
// settings (host, port, timeouts) and the database need a restart.
func watchConfig(srv *server.Server) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		log.Printf("[INFO] Config file changed (%s), reloading", e.Name)
		config.InitConfig()
		srv.ApplyConfig(config.AppConfig)
	})
	viper.WatchConfig()
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bookclub.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "bookclub.pebble", "path to database (PebbleDB directory or SQLite file)")
	rootCmd.PersistentFlags().StringVar(&databaseType, "db-type", "pebble", "database type: pebble (default), sqlite, postgres or memory")
	rootCmd.PersistentFlags().BoolVar(&enableSQLite, "enable-sqlite3-i-know-the-risks", false, "enable SQLite3 database (WARNING: cross-compilation issues, PebbleDB recommended)")
	rootCmd.PersistentFlags().StringVar(&postgresDSN, "postgres-dsn", "", "PostgreSQL connection string when --db-type=postgres")

	_ = viper.BindPFlag("database_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("database_type", rootCmd.PersistentFlags().Lookup("db-type"))
	_ = viper.BindPFlag("enable_sqlite3_i_know_the_risks", rootCmd.PersistentFlags().Lookup("enable-sqlite3-i-know-the-risks"))
	_ = viper.BindPFlag("postgres_dsn", rootCmd.PersistentFlags().Lookup("postgres-dsn"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(diagnosticsCmd)

	// Add serve command specific flags
	serveCmd.Flags().String("port", "8080", "port to run the web server on")
	serveCmd.Flags().String("host", "localhost", "host to bind the web server to")
	serveCmd.Flags().String("read-timeout", "15s", "read timeout (e.g. 15s, 1m)")
	serveCmd.Flags().String("write-timeout", "15s", "write timeout (e.g. 15s, 1m)")
	serveCmd.Flags().String("idle-timeout", "60s", "idle timeout (e.g. 60s, 2m)")

	setCmd.Flags().String("title", "", "book title")
	setCmd.Flags().String("author", "", "book author")
	_ = setCmd.MarkFlagRequired("title")
	_ = setCmd.MarkFlagRequired("author")

	showCmd.Flags().Bool("explain", false, "include the ranked candidate report")
}

func initConfig() {
	// .env values never override variables already set in the environment.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Printf("Warning: could not load %s: %v\n", envFile, err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bookclub")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	// Ensure database directory exists
	if databasePath != "" {
		dbDir := filepath.Dir(databasePath)
		if dbDir != "." {
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				fmt.Printf("Error creating database directory: %v\n", err)
			}
		}
	}

	config.InitConfig()
}
