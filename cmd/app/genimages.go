package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"crypto-persona-backend/internal/catalog"
	"crypto-persona-backend/internal/config"
	"crypto-persona-backend/internal/db"
	"crypto-persona-backend/internal/llm"
	"crypto-persona-backend/internal/metrics"
	"crypto-persona-backend/internal/model"
	"crypto-persona-backend/internal/repository"
	"crypto-persona-backend/internal/service"
	"crypto-persona-backend/internal/transport"
	"crypto-persona-backend/utilities"
)

func newGenImagesCommand() *cobra.Command {
	var configPath string
	var codes string
	var concurrency int
	var skipDB bool
	var skipExisting bool

	cmd := &cobra.Command{
		Use:   "genimages",
		Short: "Generate profile artwork through the image API",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return genImages(configPath, parseCodes(codes), concurrency, skipDB, skipExisting)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.xml", "Path to the XML configuration")
	cmd.Flags().StringVar(&codes, "codes", "", "Comma-separated codes to generate (default: all)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel requests (default: from config)")
	cmd.Flags().BoolVar(&skipDB, "skip-db", false, "Do not record generated images in the database")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Skip codes that already have a recorded image on disk")
	return cmd
}

func parseCodes(raw string) []model.PersonalityCode {
	var out []model.PersonalityCode
	for _, part := range strings.Split(raw, ",") {
		if code := transport.NormalizeCode(part); code != "" {
			out = append(out, code)
		}
	}
	return out
}

func genImages(configPath string, codes []model.PersonalityCode, concurrency int, skipDB, skipExisting bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}
	defer utilities.Sync()

	if cfg.Secrets.ImageAPIKey == "" {
		return llm.ErrMissingAPIKey
	}
	cat, err := catalog.Load()
	if err != nil {
		return err
	}

	bus := utilities.NewEventBus()
	var repo repository.ImageRepository
	if !skipDB {
		if _, err := db.InitDBFromConfig(cfg); err != nil {
			return err
		}
		defer db.Close()
		repo = repository.NewImageRepository(db.GetDB())
		service.InitImageEventListeners(bus, repo)
	}
	if skipExisting {
		if repo == nil {
			return errors.New("--skip-existing needs the database")
		}
		if codes, err = pendingCodes(repo, cat, codes); err != nil {
			return err
		}
		if len(codes) == 0 {
			fmt.Println("every profile already has an image")
			return nil
		}
	}

	rec, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = cfg.Images.Concurrency
	}
	client := llm.NewChatImageClient(cfg.Images.APIBase, cfg.Secrets.ImageAPIKey, cfg.Images.Model,
		time.Duration(cfg.Images.TimeoutSeconds)*time.Second)
	svc := service.NewImageService(cat, client, bus, service.ImageOptions{
		StaticDir:     cfg.Images.StaticDir,
		ReferenceDir:  cfg.Images.ReferenceDir,
		RatePerSecond: cfg.Images.RatePerSecond,
		Burst:         cfg.Images.Burst,
		Concurrency:   concurrency,
		Metrics:       rec,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	images, err := svc.Generate(ctx, codes)
	bus.Wait()
	if err != nil {
		return fmt.Errorf("image generation: %w", err)
	}
	for _, img := range images {
		fmt.Printf("%s  %s\n", img.Code, img.Path)
	}
	if repo != nil {
		recorded, err := repo.ListImages()
		if err != nil {
			return err
		}
		fmt.Printf("%d images recorded\n", len(recorded))
	}
	return nil
}

// pendingCodes drops codes whose latest recorded image is still on disk. An empty
// selection means every profile.
func pendingCodes(repo repository.ImageRepository, cat *catalog.Catalog, codes []model.PersonalityCode) ([]model.PersonalityCode, error) {
	if len(codes) == 0 {
		for _, p := range cat.Profiles() {
			codes = append(codes, p.Code)
		}
	}
	var pending []model.PersonalityCode
	for _, code := range codes {
		img, err := repo.LatestImage(string(code))
		if errors.Is(err, repository.ErrImageNotFound) {
			pending = append(pending, code)
			continue
		}
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(img.Path); err != nil {
			pending = append(pending, code)
		}
	}
	return pending, nil
}
