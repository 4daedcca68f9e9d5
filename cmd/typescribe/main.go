// Package main provides the CLI entrypoint for typescribe.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sbsidd17/type-scribe-zen/internal/config"
	"github.com/sbsidd17/type-scribe-zen/internal/model"
	"github.com/sbsidd17/type-scribe-zen/internal/server"
	"github.com/sbsidd17/type-scribe-zen/internal/stats"
	"github.com/sbsidd17/type-scribe-zen/internal/store"
	"github.com/sbsidd17/type-scribe-zen/internal/texts"
)

const (
	defaultHost        = "0.0.0.0"
	defaultPort        = 8080
	defaultOrigin      = "http://localhost:3000"
	defaultTimeLimit   = 60
	defaultMode        = "full"
	defaultLeaderboard = 20
	defaultGenLang     = "en"
	defaultGenWords    = 50
	defaultGenCaps     = 0.5
	defaultGenPunct    = 0.5
)

const defaultPunctSet = ".,!?;:\"'{}()[]-=/<>`"

var (
	serveHost      string
	servePort      int
	serveDB        string
	serveOrigin    string
	serveTimeLimit int
	serveMode      string

	statsUsername string
	statsSince    string
	statsLast     int

	leaderboardLimit int

	genLang     string
	genTitle    string
	genWords    int
	genCaps     float64
	genPunct    float64
	genPunctSet string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typescribe",
		Short:         "Typing speed test server and tools",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newTextsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the typing session server",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveHost, "host", defaultHost, "listen host")
	cmd.Flags().IntVar(&servePort, "port", defaultPort, "listen port")
	cmd.Flags().StringVar(&serveDB, "db", config.DefaultDBPath(), "SQLite database path")
	cmd.Flags().StringVar(&serveOrigin, "origin", defaultOrigin, "allowed CORS origin")
	cmd.Flags().IntVar(&serveTimeLimit, "time-limit", defaultTimeLimit, "default session time limit in seconds")
	cmd.Flags().StringVar(&serveMode, "mode", defaultMode, "default backspace mode (full|word|disabled)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logErrf("failed to load .env: %v\n", err)
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "host", &serveHost, fileCfg.Server.Host)
	applyIntConfig(cmd, "port", &servePort, fileCfg.Server.Port)
	applyStringConfig(cmd, "db", &serveDB, fileCfg.Server.DBPath)
	applyIntConfig(cmd, "time-limit", &serveTimeLimit, fileCfg.Practice.TimeLimitSeconds)
	applyStringConfig(cmd, "mode", &serveMode, fileCfg.Practice.BackspaceMode)
	if v := os.Getenv("TYPESCRIBE_DB"); v != "" && !cmd.Flags().Changed("db") {
		serveDB = v
	}

	mode := model.BackspaceMode(serveMode)
	if !mode.Valid() {
		return fmt.Errorf("--mode must be one of full, word, disabled")
	}
	if serveTimeLimit <= 0 {
		return fmt.Errorf("--time-limit must be > 0")
	}
	if servePort <= 0 || servePort > 65535 {
		return fmt.Errorf("--port must be between 1 and 65535")
	}

	st, err := store.Open(serveDB)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	srv := server.New(server.Config{
		Host:                    serveHost,
		Port:                    servePort,
		AllowedOrigin:           serveOrigin,
		DefaultTimeLimitSeconds: serveTimeLimit,
		DefaultMode:             mode,
	}, st)

	httpSrv := &http.Server{
		Addr:         srv.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket sessions write for their full lifetime
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logErrf("listening on http://%s\n", httpSrv.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logErrln("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show result history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsUsername, "username", "", "username filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N results")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	records, err := st.ListResults(context.Background(), model.ResultFilter{
		Username: statsUsername,
		Since:    sinceTime,
		Last:     statsLast,
	})
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, records); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	if err := stats.RenderHistory(out, records); err != nil {
		return fmt.Errorf("failed to render history: %w", err)
	}
	return nil
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	cmd.Flags().IntVar(&leaderboardLimit, "limit", defaultLeaderboard, "number of entries")
	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	if leaderboardLimit <= 0 {
		return fmt.Errorf("--limit must be > 0")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	entries, err := st.Leaderboard(context.Background(), leaderboardLimit)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return stats.RenderLeaderboard(cmd.OutOrStdout(), entries)
}

func newTextsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "texts",
		Short: "Manage reference passages",
	}
	cmd.AddCommand(newTextsImportCmd())
	cmd.AddCommand(newTextsGenerateCmd())
	cmd.AddCommand(newTextsListCmd())
	return cmd
}

func newTextsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Import passages from text files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTextsImportCmd,
	}
}

func runTextsImportCmd(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	for _, path := range args {
		text, err := texts.ImportFile(path)
		if err != nil {
			return fmt.Errorf("failed to import passage: %w", err)
		}
		id, err := st.InsertText(ctx, text)
		if err != nil {
			return fmt.Errorf("failed to store passage %s: %w", path, err)
		}
		logErrf("imported %s as text %d (%d words)\n", path, id, text.WordCount)
	}
	return nil
}

func newTextsGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random passage from a word list",
		Args:  cobra.NoArgs,
		RunE:  runTextsGenerateCmd,
	}
	cmd.Flags().StringVar(&genLang, "lang", defaultGenLang, "word list language code")
	cmd.Flags().StringVar(&genTitle, "title", "", "passage title (default: generated-<timestamp>)")
	cmd.Flags().IntVar(&genWords, "words", defaultGenWords, "words per passage")
	cmd.Flags().Float64Var(&genCaps, "caps", defaultGenCaps, "probability of capitalized first letter (0-1)")
	cmd.Flags().Float64Var(&genPunct, "punct", defaultGenPunct, "punctuation probability per word (0-1)")
	cmd.Flags().StringVar(&genPunctSet, "punct-set", defaultPunctSet, "punctuation set")
	return cmd
}

func runTextsGenerateCmd(_ *cobra.Command, _ []string) error {
	if genWords <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if genCaps < 0 || genCaps > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if genPunct < 0 || genPunct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}

	wordPath := config.DefaultWordListPath(genLang)
	words, err := texts.LoadWords(wordPath)
	if err != nil {
		return wordListLoadError(genLang, wordPath, err)
	}

	title := genTitle
	if title == "" {
		title = fmt.Sprintf("generated-%s", time.Now().Format("20060102-150405"))
	}
	gen := texts.NewGenerator()
	body := gen.Compose(words, genWords, genCaps, genPunct, []rune(genPunctSet))
	text, err := texts.FromBody(title, body)
	if err != nil {
		return fmt.Errorf("failed to build passage: %w", err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	id, err := st.InsertText(context.Background(), text)
	if err != nil {
		return fmt.Errorf("failed to store passage: %w", err)
	}
	logErrf("generated text %d (%d words)\n", id, text.WordCount)
	return nil
}

func newTextsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored passages",
		Args:  cobra.NoArgs,
		RunE:  runTextsListCmd,
	}
}

func runTextsListCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	list, err := st.ListTexts(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list passages: %w", err)
	}
	if len(list) == 0 {
		logErrln("No passages stored. Import with: typescribe texts import <file>")
		return nil
	}
	for _, text := range list {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d words\n", text.ID, text.Title, text.WordCount); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func openStore() (*store.Store, error) {
	path := serveDB
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typescribe configuration
# Uncomment a value to enable it. CLI flags override config values.

[server]
# host = %q            # Listen host
# port = %d            # Listen port
# db-path = ""         # SQLite database path (default: XDG data dir)

[practice]
# time-limit = %d      # Default session time limit in seconds
# backspace-mode = %q  # Default correction policy: full, word, or disabled
`,
		defaultHost,
		defaultPort,
		defaultTimeLimit,
		defaultMode,
	)
}

func wordListLoadError(lang, path string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load word list: %v", err),
		fmt.Sprintf("expected word list at: %s", path),
		fmt.Sprintf("language %q not found", lang),
		"Place a newline-separated word list at that path and retry.",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
