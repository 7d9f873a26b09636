// Package main provides the CLI entrypoint for trep.
package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/trep/internal/config"
	"github.com/verte-zerg/trep/internal/eventlog"
	"github.com/verte-zerg/trep/internal/model"
	"github.com/verte-zerg/trep/internal/parser"
	"github.com/verte-zerg/trep/internal/recorder"
	"github.com/verte-zerg/trep/internal/stats"
	"github.com/verte-zerg/trep/internal/statsui"
)

const (
	defaultUnit        = string(model.UnitDay)
	defaultCurveWindow = 5
)

var (
	logFile string

	initTitle      string
	initAuthor     string
	initLanguage   string
	initTotalPages float64

	listUnit string

	reportUnit        string
	reportSince       string
	reportLast        int
	reportCurveWindow int
	reportPlain       bool
	reportJSON        bool
	reportWatch       bool
	reportWidth       int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "trep",
		Short:         "Translation progress recorder and reporter",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&logFile, "file", "f", config.DefaultLogFile, "action log file")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newRecCmd())
	rootCmd.AddCommand(newMarkCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

// settings are the resolved log location and format.
type settings struct {
	path   string
	format eventlog.Format
	file   config.FileConfig
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	env := config.LoadEnv()
	fileCfg, err := config.LoadConfig(env.ConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	format := eventlog.DefaultFormat()
	applyStringValue(&format.Separator, fileCfg.Log.Separator)
	applyStringValue(&format.RecordsTitle, fileCfg.Log.RecordsTitle)
	applyStringValue(&format.EndToken, fileCfg.Log.EndToken)
	if err := validateFormat(format); err != nil {
		return settings{}, err
	}
	return settings{
		path:   config.ResolveLogPath(logFile, cmd.Flags().Changed("file"), env, fileCfg),
		format: format,
		file:   fileCfg,
	}, nil
}

func (s settings) log(opts ...eventlog.Option) *eventlog.Log {
	return eventlog.New(s.path, s.format, opts...)
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new action log",
		Args:  cobra.NoArgs,
		RunE:  runInitCmd,
	}
	cmd.Flags().StringVar(&initTitle, "title", "", "title of the translated work")
	cmd.Flags().StringVar(&initAuthor, "author", "", "author of the work")
	cmd.Flags().StringVar(&initLanguage, "language", "", "source language")
	cmd.Flags().Float64Var(&initTotalPages, "total-pages", 0, "total pages of the work")
	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if initTotalPages < 0 {
		return fmt.Errorf("--total-pages must be >= 0")
	}
	header := model.Header{
		Title:      initTitle,
		Author:     initAuthor,
		Language:   initLanguage,
		TotalPages: initTotalPages,
	}
	if err := s.log().Init(header); err != nil {
		if errors.Is(err, eventlog.ErrLogExists) {
			logErrln("use --file or TREP_FILE to create a log elsewhere")
		}
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", s.path)
	return err
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the action log",
		Args:  cobra.NoArgs,
		RunE:  runCheckCmd,
	}
}

func runCheckCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log := s.log()
	st, err := log.Status()
	if err != nil {
		return err
	}
	blocks := st.Blocks
	if st.State == parser.NotStarted {
		snap, err := log.Read()
		if err != nil {
			return err
		}
		blocks = snap.Blocks
	}
	sessions, err := parser.ParseSessions(blocks, s.format.EndToken)
	if err != nil {
		return err
	}
	if _, err := stats.Enrich(sessions, model.UnitDay); err != nil {
		return err
	}
	if st.State != parser.NotStarted {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: OK, %d sessions, one %s\n", s.path, len(sessions), st.State)
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: OK, %d sessions\n", s.path, len(sessions))
	return err
}

func newRecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rec",
		Short: "Record a translation session",
		Args:  cobra.NoArgs,
		RunE:  runRecCmd,
	}
}

func runRecCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	rec, err := recorder.NewModel(s.log(), time.Now)
	if err != nil {
		return err
	}
	program := tea.NewProgram(rec, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run recorder: %w", err)
	}
	if summary := rec.Summary(); summary != "" {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Session saved: %s\n", summary)
		return err
	}
	if rec.InProgress() {
		logErrln("session left in progress; run trep rec again to resume or finish it")
	}
	return nil
}

func newMarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark <start|pause|resume|finish> [position]",
		Short: "Append a single action without the recorder UI",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runMarkCmd,
	}
}

func runMarkCmd(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	kind, ok := parser.ParseKind(args[0], s.format.EndToken)
	if !ok {
		return fmt.Errorf("unknown action %q", args[0])
	}
	var position *float64
	if len(args) == 2 {
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid position %q", args[1])
		}
		position = &v
	}
	log := s.log()
	var action model.Action
	switch kind {
	case model.KindFinish:
		if position == nil {
			return fmt.Errorf("finish needs an end position")
		}
		action, err = log.Finish(*position)
	case model.KindStart:
		if position == nil {
			if position, err = log.LastPosition(); err != nil {
				return err
			}
			if position == nil {
				zero := 0.0
				position = &zero
			}
		}
		action, err = log.Append(kind, position)
	default:
		if position != nil {
			return fmt.Errorf("%s takes no position", kind)
		}
		action, err = log.Append(kind, nil)
	}
	if err != nil {
		return err
	}
	line := fmt.Sprintf("%s %s", parser.FormatTimestamp(action.At), kind)
	if action.HasPosition() {
		line += " " + parser.FormatPosition(action.Page())
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), line)
	return err
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List finished sessions",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
	cmd.Flags().StringVar(&listUnit, "unit", defaultUnit, "speed unit (day or hour)")
	return cmd
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "unit", &listUnit, s.file.Report.Unit)
	unit, err := model.ParseSpeedUnit(listUnit)
	if err != nil {
		return err
	}
	snap, err := s.log().Read()
	if err != nil {
		return err
	}
	report, err := stats.BuildReport(snap, model.ReportConfig{Unit: unit})
	if err != nil {
		return err
	}
	return stats.RenderSessions(cmd.OutOrStdout(), report.Records)
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the progress report",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().StringVar(&reportUnit, "unit", defaultUnit, "speed unit (day or hour)")
	cmd.Flags().StringVar(&reportSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&reportLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&reportCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&reportPlain, "plain", false, "print a plain-text report")
	cmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&reportWatch, "watch", false, "reload when the log changes")
	cmd.Flags().IntVar(&reportWidth, "width", 0, "plain-text width (default: terminal width)")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "unit", &reportUnit, s.file.Report.Unit)
	applyIntConfig(cmd, "curve-window", &reportCurveWindow, s.file.Report.CurveWindow)

	cfg, err := reportConfig()
	if err != nil {
		return err
	}
	log := s.log()
	switch {
	case reportJSON || reportPlain:
		snap, err := log.Read()
		if err != nil {
			return err
		}
		report, err := stats.BuildReport(snap, cfg)
		if err != nil {
			return err
		}
		if reportJSON {
			return stats.RenderJSON(cmd.OutOrStdout(), report)
		}
		return stats.RenderReport(cmd.OutOrStdout(), report, stats.RenderOptions{Width: reportWidth})
	}

	var opts []statsui.Option
	if reportWatch {
		watcher, err := statsui.NewWatcher(s.path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := watcher.Close(); cerr != nil {
				logErrf("failed to close watcher: %v\n", cerr)
			}
		}()
		opts = append(opts, statsui.WithWatcher(watcher))
	}
	ui := statsui.NewModel(log.Read, cfg, opts...)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run report TUI: %w", err)
	}
	return nil
}

func reportConfig() (model.ReportConfig, error) {
	if reportJSON && reportPlain {
		return model.ReportConfig{}, fmt.Errorf("--json and --plain are mutually exclusive")
	}
	if reportWatch && (reportJSON || reportPlain) {
		return model.ReportConfig{}, fmt.Errorf("--watch only applies to the interactive report")
	}
	if reportLast < 0 {
		return model.ReportConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if reportCurveWindow < 1 {
		return model.ReportConfig{}, fmt.Errorf("--curve-window must be >= 1")
	}
	unit, err := model.ParseSpeedUnit(reportUnit)
	if err != nil {
		return model.ReportConfig{}, err
	}
	var since *time.Time
	if reportSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", reportSince, time.Local)
		if err != nil {
			return model.ReportConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		since = &parsed
	}
	return model.ReportConfig{
		Unit:        unit,
		Since:       since,
		Last:        reportLast,
		CurveWindow: reportCurveWindow,
	}, nil
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
	path := config.LoadEnv().ConfigPath()
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
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringValue(target, value *string) {
	if value != nil {
		*target = *value
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
	def := eventlog.DefaultFormat()
	return fmt.Sprintf(`# trep configuration
# Uncomment a value to enable it. CLI flags and %s override the log path.

[log]
# path = %q            # Action log file
# separator = %q         # Line that closes each session
# records-title = %q  # Line that starts the records section
# end-token = %q            # Word written for a finished session

[report]
# unit = %q               # Speed unit: day or hour
# curve-window = %d          # Moving average window for the speed curve
`,
		config.EnvFile,
		config.DefaultLogFile,
		def.Separator,
		def.RecordsTitle,
		def.EndToken,
		defaultUnit,
		defaultCurveWindow,
	)
}

func validateFormat(f eventlog.Format) error {
	if strings.TrimSpace(f.Separator) == "" {
		return fmt.Errorf("log separator must not be empty")
	}
	if strings.TrimSpace(f.RecordsTitle) == "" {
		return fmt.Errorf("log records-title must not be empty")
	}
	if strings.ContainsAny(f.EndToken, " \t") || f.EndToken == "" {
		return fmt.Errorf("log end-token must be a single word")
	}
	switch model.ActionKind(f.EndToken) {
	case model.KindStart, model.KindPause, model.KindResume:
		return fmt.Errorf("log end-token %q clashes with an action name", f.EndToken)
	}
	if f.Separator == f.RecordsTitle {
		return fmt.Errorf("log separator and records-title must differ")
	}
	return nil
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
