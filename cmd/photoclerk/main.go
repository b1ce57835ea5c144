package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/calegria/photoclerk/internal/config"
	"github.com/calegria/photoclerk/internal/intake"
	"github.com/calegria/photoclerk/internal/notify"
	"github.com/calegria/photoclerk/internal/photo"
	"github.com/calegria/photoclerk/internal/record"
	"github.com/calegria/photoclerk/internal/vision"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	rootFlags := ff.NewFlagSet("photoclerk")
	configPath := rootFlags.StringLong("config", "", "Path to YAML config file")
	dbPath := rootFlags.StringLong("db", "photoclerk.db", "Database file path")
	archivePath := rootFlags.StringLong("archive", "./archive", "Receipt image archive directory")
	showVersion := rootFlags.BoolLong("version", "Show version information")

	scanFlags := ff.NewFlagSet("scan").SetParent(rootFlags)
	scanAlbum := scanFlags.StringLong("album", "Receipts", "Album to scan")
	scanDate := scanFlags.StringLong("date", "", "Only photos added on this day (YYYY-MM-DD, UTC)")

	sendFlags := ff.NewFlagSet("send").SetParent(rootFlags)
	sendAlbum := sendFlags.StringLong("album", "", "Album to send (defaults to the configured person album)")
	sendDate := sendFlags.StringLong("date", "", "Only photos added on this day (YYYY-MM-DD, UTC)")

	summaryFlags := ff.NewFlagSet("summary").SetParent(rootFlags)
	pingFlags := ff.NewFlagSet("ping").SetParent(rootFlags)

	root := &ff.Command{
		Name:  "photoclerk",
		Usage: "photoclerk [flags] <subcommand>",
		Flags: rootFlags,
		Exec: func(ctx context.Context, args []string) error {
			if *showVersion {
				fmt.Println(version)
				return nil
			}
			return fmt.Errorf("no subcommand given")
		},
	}

	root.Subcommands = []*ff.Command{
		{
			Name:      "scan",
			Usage:     "photoclerk scan [--album NAME | FILE...]",
			ShortHelp: "Run the intake pipeline over an album or the given image files",
			Flags:     scanFlags,
			Exec: func(ctx context.Context, args []string) error {
				return runScan(ctx, *configPath, *dbPath, *archivePath, *scanAlbum, *scanDate, args)
			},
		},
		{
			Name:      "send",
			Usage:     "photoclerk send [--album NAME] [--date DAY]",
			ShortHelp: "Send all photos of an album to the chat destination",
			Flags:     sendFlags,
			Exec: func(ctx context.Context, args []string) error {
				return runSend(ctx, *configPath, *dbPath, *sendAlbum, *sendDate)
			},
		},
		{
			Name:      "summary",
			Usage:     "photoclerk summary",
			ShortHelp: "Send today's purchase summary to the chat destination",
			Flags:     summaryFlags,
			Exec: func(ctx context.Context, args []string) error {
				return runSummary(ctx, *configPath, *dbPath)
			},
		},
		{
			Name:      "ping",
			Usage:     "photoclerk ping",
			ShortHelp: "Send a connectivity-check message to the chat destination",
			Flags:     pingFlags,
			Exec: func(ctx context.Context, args []string) error {
				return runPing(ctx, *configPath)
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ParseAndRun(ctx, os.Args[1:], ff.WithEnvVarPrefix("PHOTOCLERK"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func buildSource(cfg config.Config) photo.Source {
	if cfg.Photos.Backend == "remote" {
		return photo.NewRemoteSource(cfg.Photos.APIURL, cfg.Photos.AccessToken)
	}
	return photo.NewLocalSource(photo.NewDirIndex(cfg.Photos.LocalRoot))
}

func buildEngine(cfg config.Config) (vision.Engine, error) {
	switch cfg.Vision.Provider {
	case "gemini":
		if cfg.Vision.GeminiKey == "" {
			return nil, fmt.Errorf("gemini API key is required (set vision.geminiKey or %s)", "PHOTOCLERK_GEMINI_API_KEY")
		}
		return vision.NewGemini(cfg.Vision.GeminiKey, cfg.Vision.GeminiModel)
	case "ollama":
		return vision.NewOllama(cfg.Vision.OllamaURL, cfg.Vision.OllamaModel)
	default:
		return nil, fmt.Errorf("unknown vision provider %q (use gemini or ollama)", cfg.Vision.Provider)
	}
}

func buildRouter(cfg config.Config, db record.DB) *notify.Router {
	chat := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	email := notify.NewSMTPEmail(cfg.Email.Host, cfg.Email.Port, cfg.Email.Username, cfg.Email.Password, cfg.Email.Recipient)
	return notify.NewRouter(chat, email, db, cfg.Person.Name, cfg.Send.MaxPhotos)
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	day, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("parsing --date: %w", err)
	}
	return &day, nil
}

func runScan(ctx context.Context, configPath, dbPath, archivePath, album, date string, files []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := record.NewBoltDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	archive, err := record.NewDirArchive(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	source := buildSource(cfg)
	router := buildRouter(cfg, db)
	pipeline := intake.NewPipeline(source, engine, db, archive, router, cfg.Batch.Workers)

	var photos []photo.Ref
	if len(files) > 0 {
		photos = fileRefs(files)
	} else {
		day, err := parseDay(date)
		if err != nil {
			return err
		}
		photos, err = source.Resolve(ctx, photo.AlbumQuery{Album: album, Day: day})
		if err != nil {
			return fmt.Errorf("resolving album %q: %w", album, err)
		}
		if len(photos) == 0 {
			fmt.Printf("No photos found in album %q\n", album)
			return nil
		}
	}

	slog.Info("Starting batch", "photos", len(photos))
	result := pipeline.Run(ctx, photos)
	fmt.Println(result.Summary())
	return nil
}

// fileRefs turns direct file selections into photo references.
func fileRefs(files []string) []photo.Ref {
	refs := make([]photo.Ref, 0, len(files))
	for _, path := range files {
		refs = append(refs, photo.Ref{
			ID:          path,
			URI:         path,
			Filename:    filepath.Base(path),
			ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		})
	}
	return refs
}

func runSend(ctx context.Context, configPath, dbPath, album, date string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if album == "" {
		album = cfg.Person.Album
	}
	if album == "" {
		return fmt.Errorf("no album given and no person album configured")
	}

	db, err := record.NewBoltDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	day, err := parseDay(date)
	if err != nil {
		return err
	}

	source := buildSource(cfg)
	photos, err := source.Resolve(ctx, photo.AlbumQuery{Album: album, Day: day})
	if err != nil {
		return fmt.Errorf("resolving album %q: %w", album, err)
	}
	if len(photos) == 0 {
		fmt.Printf("No photos found in album %q\n", album)
		return nil
	}

	caption := fmt.Sprintf("📸 Photo from %s album", album)
	if cfg.Person.Name != "" {
		caption = fmt.Sprintf("📸 Photo of %s from %s album", cfg.Person.Name, album)
	}

	fetchers := make([]func(ctx context.Context) ([]byte, error), 0, len(photos))
	for _, ref := range photos {
		ref := ref
		fetchers = append(fetchers, func(ctx context.Context) ([]byte, error) {
			return source.Open(ctx, ref)
		})
	}

	router := buildRouter(cfg, db)
	outcome := router.SendPhotoBatch(ctx, caption, fetchers)
	fmt.Printf("Sent %d photo(s), %d failed\n", outcome.Delivered, outcome.Failed)
	return nil
}

func runSummary(ctx context.Context, configPath, dbPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := record.NewBoltDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	receipts, err := db.ReceiptsForDay(time.Now())
	if err != nil {
		return fmt.Errorf("loading receipts: %w", err)
	}
	if len(receipts) == 0 {
		fmt.Println("No receipts recorded today")
		return nil
	}

	chat := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err := chat.SendText(ctx, notify.DailySummary(receipts, time.Now())); err != nil {
		return fmt.Errorf("sending summary: %w", err)
	}
	fmt.Printf("Summary of %d receipt(s) sent\n", len(receipts))
	return nil
}

func runPing(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	chat := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err := chat.Ping(ctx); err != nil {
		return fmt.Errorf("telegram connection test failed: %w", err)
	}
	fmt.Println("Telegram connection test successful")
	return nil
}
