package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chiawen/aiwriter/internal/batch"
	"github.com/chiawen/aiwriter/internal/config"
	"github.com/chiawen/aiwriter/internal/generator"
	"github.com/chiawen/aiwriter/internal/images"
	"github.com/chiawen/aiwriter/internal/llm"
	"github.com/chiawen/aiwriter/internal/markdown"
	"github.com/chiawen/aiwriter/internal/model"
)

var (
	genSite     string
	genCategory string
	genLength   string
	genTitles   string
	genOut      string
	genStart    string
	genInterval int
	genSingle   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate articles from a titles file and write Markdown to a directory",
	Long: `Reads one title per line from the titles file, generates each article
with images, and writes the publishable Markdown (frontmatter included)
into the output directory. No database required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate()
	},
}

func init() {
	generateCmd.Flags().StringVar(&genSite, "site", "", "Site slug for style and image settings")
	generateCmd.Flags().StringVar(&genCategory, "category", "生活實用", "Article category")
	generateCmd.Flags().StringVar(&genLength, "length", "2000-2500字", "Target article length, passed to the model")
	generateCmd.Flags().StringVar(&genTitles, "titles", "", "Path to a file with one article title per line")
	generateCmd.Flags().StringVar(&genOut, "out", "./articles", "Output directory for .md files")
	generateCmd.Flags().StringVar(&genStart, "start", "", "First publish date (YYYY-MM-DD, default today)")
	generateCmd.Flags().IntVar(&genInterval, "interval", 1, "Days between publish dates")
	generateCmd.Flags().BoolVar(&genSingle, "single", false, "Generate sequentially with long pauses between articles")
	generateCmd.MarkFlagRequired("titles")
}

func runGenerate() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	styles, err := config.LoadSiteStyles(siteStylesPath)
	if err != nil {
		return err
	}

	titles, err := readTitles(genTitles)
	if err != nil {
		return err
	}
	if len(titles) == 0 {
		return fmt.Errorf("no titles in %s", genTitles)
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	if genStart != "" {
		start, err = time.Parse("2006-01-02", genStart)
		if err != nil {
			return fmt.Errorf("parsing --start: %w", err)
		}
	}

	if err := os.MkdirAll(genOut, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	completer, err := llm.NewClient(cfg.AnthropicAPIKey, cfg.LLMModel, cfg.LLMMaxTokens, cfg.LLMTemperature)
	if err != nil {
		return err
	}
	gen := generator.New(completer, styles)

	var secondary images.Provider
	if cfg.UnsplashAPIKey != "" {
		secondary = images.NewUnsplashProvider(cfg.UnsplashAPIKey)
	}
	resolver := images.NewResolver(
		images.NewPexelsProvider(cfg.PexelsAPIKey),
		secondary,
		cfg.ImagePageSize,
		logger,
	)

	mode := model.ModeBatch
	if genSingle {
		mode = model.ModeSingle
	}
	b := &model.Batch{
		Mode:             mode,
		ArticleLength:    genLength,
		ScheduleStart:    start,
		ScheduleInterval: genInterval,
	}

	in := batch.Inputs{Titles: make([]model.Title, len(titles))}
	for i, title := range titles {
		in.Titles[i] = model.Title{
			Title:    title,
			Category: genCategory,
			SiteSlug: genSite,
			Checked:  true,
		}
	}

	orch := batch.New(gen, resolver, nil, styles, logger, batch.Options{
		Concurrency:     cfg.Concurrency,
		WindowPause:     cfg.WindowPause,
		SinglePause:     cfg.SingleModePause,
		GenerateTimeout: cfg.LLMTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	articles := orch.Run(ctx, b, in)

	author := styles.For(genSite).Author
	for i := range articles {
		article := &articles[i]
		path := filepath.Join(genOut, markdown.ExportFilename(article))
		if err := os.WriteFile(path, []byte(markdown.BuildExport(article, author)), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		logger.Info("article written",
			zap.String("path", path),
			zap.String("title", article.Title))
	}

	fmt.Printf("Generated %d of %d articles into %s\n", len(articles), len(titles), genOut)
	return nil
}

func readTitles(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening titles file: %w", err)
	}
	defer f.Close()

	var titles []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		titles = append(titles, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading titles file: %w", err)
	}
	return titles, nil
}
