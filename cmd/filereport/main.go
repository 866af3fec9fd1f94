package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filereport/internal/acronym"
	"filereport/internal/config"
	"filereport/internal/logging"
	"filereport/internal/report"
	"filereport/internal/scan"
	"filereport/internal/store"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Report flags
	baseDir    string
	ext        string
	acronFile  string
	outputDir  string
	sqlitePath string
	workers    int

	// Logger
	logger *logging.Logger

	// now is swapped in tests to pin the report file name.
	now = time.Now
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "filereport",
	Short: "Report XML or PDF files per acronym and volume",
	Long: `filereport walks <base-dir>/<ext>/<acronym>/... and writes one
semicolon-separated row per matching file: acronym, directory, volume,
name, modification date and size. XML reports add the article text size,
document type and DOI.

Examples:
  filereport --base-dir /var/www/scielosp_org/bases --ext xml
  filereport --base-dir /var/www/scielosp_org/bases --ext pdf --acron-file acronyms.txt`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runReport,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")

	rootCmd.Flags().StringVar(&baseDir, "base-dir", "", `Base directory up to "/bases" (e.g. /var/www/scielosp_org/bases)`)
	rootCmd.Flags().StringVar(&ext, "ext", "", "File extension to report: xml or pdf")
	rootCmd.Flags().StringVar(&acronFile, "acron-file", "", "Text file with one acronym per line (default: every directory under <base-dir>/<ext>)")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", "", `Directory for the CSV report (default "output")`)
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Also record the rows in this SQLite database")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "Concurrent file inspectors (default: number of CPUs, max 20)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig merges the config file, environment and command line flags,
// in increasing precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-dir") {
		cfg.BaseDir = baseDir
	}
	if flags.Changed("ext") {
		cfg.Ext = ext
	}
	if flags.Changed("acron-file") {
		cfg.AcronFile = acronFile
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir = outputDir
	}
	if flags.Changed("sqlite") {
		cfg.Output.SQLite = sqlitePath
	}
	if flags.Changed("workers") {
		cfg.Scan.Workers = workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runReport generates one report.
func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err = logging.New(cfg.Logging, verbose)
	if err != nil {
		return err
	}
	boot := logger.Get(logging.CategoryBoot)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fileExt := cfg.NormalizedExt()
	root := cfg.Root()
	fs := osfs.New(root)

	started := now()
	output, err := report.OutputPath(cfg.Output.Dir, fileExt, started)
	if err != nil {
		return err
	}
	boot.Info("report started",
		zap.String("root", root),
		zap.String("ext", fileExt),
		zap.Time("at", started),
		zap.Int("workers", cfg.Scan.Workers))

	acronyms, err := resolveAcronyms(cfg, fs)
	if err != nil {
		return err
	}
	boot.Debug("acronyms resolved", zap.Int("count", len(acronyms)))

	csvw, err := report.CreateCSV(output, fileExt)
	if err != nil {
		return err
	}
	writers := []report.RowWriter{csvw}

	var idx *store.Index
	if cfg.Output.SQLite != "" {
		idx, err = store.Open(ctx, cfg.Output.SQLite, fileExt, root, logger.Get(logging.CategoryStore))
		if err != nil {
			csvw.Close()
			return err
		}
		defer idx.Close()
		writers = append(writers, idx)
	}

	gen := &report.Generator{
		Scanner: scan.NewScanner(fs, fileExt, logger.Get(logging.CategoryScan)),
		Builder: report.NewBuilder(fs, root, fileExt, logger.Get(logging.CategoryXML)),
		Writers: writers,
		Workers: cfg.Scan.Workers,
		Logger:  logger.Get(logging.CategoryReport),
	}

	sum, genErr := gen.Generate(ctx, acronyms)
	if err := csvw.Close(); err != nil && genErr == nil {
		genErr = err
	}
	if genErr != nil {
		return genErr
	}

	if idx != nil {
		if err := idx.Finish(ctx); err != nil {
			return err
		}
		boot.Info("rows indexed", zap.String("database", cfg.Output.SQLite), zap.String("run", idx.RunID()))
	}

	boot.Debug("rows per acronym", zap.Any("counts", sum.PerAcronym))
	fmt.Fprint(cmd.ErrOrStderr(), sum.Render(output))
	boot.Info("report generated", zap.String("file", output), zap.Int("rows", csvw.Count()))
	return nil
}

// resolveAcronyms reads the acronym file when one is configured and lists
// the extension root otherwise.
func resolveAcronyms(cfg *config.Config, root billy.Filesystem) ([]string, error) {
	if cfg.AcronFile != "" {
		return acronym.FromFile(osfs.Default, cfg.AcronFile)
	}
	return acronym.FromDir(root, ".")
}
