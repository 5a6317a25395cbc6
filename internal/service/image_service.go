package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"crypto-persona-backend/internal/llm"
	"crypto-persona-backend/internal/metrics"
	"crypto-persona-backend/internal/model"
	"crypto-persona-backend/internal/repository"
	"crypto-persona-backend/utilities"
)

// ProfileSource is the part of the catalog the pipeline reads.
type ProfileSource interface {
	Lookup(code model.PersonalityCode) (model.PersonalityProfile, bool)
	Profiles() []model.PersonalityProfile
}

// GeneratedImage is published on the event bus after an image is written.
type GeneratedImage struct {
	Code      model.PersonalityCode
	Path      string
	SourceURL string
	Prompt    string
}

type ImageService interface {
	Generate(ctx context.Context, codes []model.PersonalityCode) ([]GeneratedImage, error)
}

type ImageOptions struct {
	StaticDir     string
	ReferenceDir  string
	RatePerSecond float64
	Burst         int
	Concurrency   int
	Metrics       *metrics.Recorder
}

type imageService struct {
	profiles ProfileSource
	client   llm.ImageClient
	bus      *utilities.EventBus
	limiter  *rate.Limiter
	opts     ImageOptions
}

func NewImageService(profiles ProfileSource, client llm.ImageClient, bus *utilities.EventBus, opts ImageOptions) ImageService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if bus == nil {
		bus = utilities.GlobalEventBus
	}
	return &imageService{
		profiles: profiles,
		client:   client,
		bus:      bus,
		limiter:  rate.NewLimiter(limit, opts.Burst),
		opts:     opts,
	}
}

// Generate produces artwork for the given codes, or for every profile when codes is
// empty. The first failure cancels the remaining work and is returned.
func (s *imageService) Generate(ctx context.Context, codes []model.PersonalityCode) ([]GeneratedImage, error) {
	targets, err := s.targets(codes)
	if err != nil {
		return nil, err
	}
	refs, err := referenceImages(s.opts.ReferenceDir)
	if err != nil {
		return nil, err
	}
	outDir := filepath.Join(s.opts.StaticDir, "profiles")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	results := make([]GeneratedImage, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, profile := range targets {
		g.Go(func() error {
			img, err := s.generateOne(ctx, profile, refs, outDir)
			if err != nil {
				return err
			}
			results[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *imageService) targets(codes []model.PersonalityCode) ([]model.PersonalityProfile, error) {
	if len(codes) == 0 {
		return s.profiles.Profiles(), nil
	}
	out := make([]model.PersonalityProfile, 0, len(codes))
	for _, code := range codes {
		p, ok := s.profiles.Lookup(model.PersonalityCode(strings.ToUpper(string(code))))
		if !ok {
			return nil, fmt.Errorf("unknown personality code %q", code)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *imageService) generateOne(ctx context.Context, p model.PersonalityProfile, refs []string, outDir string) (GeneratedImage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return GeneratedImage{}, err
	}

	prompt := Prompt(p)
	start := time.Now()
	res, err := s.client.GenerateImage(ctx, prompt, refs)
	s.opts.Metrics.ImageGenerated(time.Since(start), err)
	if err != nil {
		return GeneratedImage{}, fmt.Errorf("generate image for %s: %w", p.Code, err)
	}

	path := filepath.Join(outDir, string(p.Code)+".png")
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return GeneratedImage{}, fmt.Errorf("failed to save image: %w", err)
	}
	utilities.L().Info("profile image generated",
		zap.String("code", string(p.Code)),
		zap.String("path", path),
		zap.Duration("took", time.Since(start)),
	)

	img := GeneratedImage{Code: p.Code, Path: path, SourceURL: res.SourceURL, Prompt: prompt}
	s.bus.Publish(utilities.EventProfileImageGenerated, img)
	return img, nil
}

// Prompt describes a profile for the image model.
func Prompt(p model.PersonalityProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s), crypto personality %s.", p.Name.EN, p.Name.ZH, p.Code)
	if p.Description != "" {
		b.WriteString(" ")
		b.WriteString(p.Description)
	}
	if len(p.Tags) > 0 {
		b.WriteString(" Keywords: ")
		b.WriteString(strings.Join(p.Tags, ", "))
		b.WriteString(".")
	}
	return b.String()
}

// referenceImages lists the style references in dir. A missing dir means none.
func referenceImages(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read reference images: %w", err)
	}
	var refs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			refs = append(refs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(refs)
	return refs, nil
}

// InitImageEventListeners records every generated image in the ledger.
func InitImageEventListeners(bus *utilities.EventBus, repo repository.ImageRepository) {
	bus.Subscribe(utilities.EventProfileImageGenerated, func(data interface{}) {
		img, ok := data.(GeneratedImage)
		if !ok {
			utilities.Warn("invalid payload received for %s", utilities.EventProfileImageGenerated)
			return
		}
		record := &model.ProfileImage{
			Code:      string(img.Code),
			SourceURL: img.SourceURL,
			Path:      img.Path,
			Prompt:    img.Prompt,
		}
		if err := repo.SaveImage(record); err != nil {
			utilities.Error("failed to record image for %s: %v", img.Code, err)
		}
	})
}
