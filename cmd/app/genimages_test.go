package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-persona-backend/internal/catalog"
	"crypto-persona-backend/internal/model"
	"crypto-persona-backend/internal/repository"
)

type ledger map[string]*model.ProfileImage

func (l ledger) SaveImage(image *model.ProfileImage) error {
	l[image.Code] = image
	return nil
}

func (l ledger) LatestImage(code string) (*model.ProfileImage, error) {
	if img, ok := l[code]; ok {
		return img, nil
	}
	return nil, repository.ErrImageNotFound
}

func (l ledger) ListImages() ([]model.ProfileImage, error) {
	var out []model.ProfileImage
	for _, img := range l {
		out = append(out, *img)
	}
	return out, nil
}

func TestPendingCodes(t *testing.T) {
	dir := t.TempDir()
	onDisk := filepath.Join(dir, "LCEP.png")
	require.NoError(t, os.WriteFile(onDisk, []byte("png"), 0o644))

	repo := ledger{
		"LCEP": {Code: "LCEP", Path: onDisk},
		"SAEB": {Code: "SAEB", Path: filepath.Join(dir, "gone.png")},
	}
	cat := catalog.MustLoad()

	pending, err := pendingCodes(repo, cat, []model.PersonalityCode{"LCEP", "SAEB", "LAEB"})
	require.NoError(t, err)
	assert.Equal(t, []model.PersonalityCode{"SAEB", "LAEB"}, pending)

	pending, err = pendingCodes(repo, cat, nil)
	require.NoError(t, err)
	assert.Len(t, pending, catalog.ProfileCount-1)
	assert.NotContains(t, pending, model.PersonalityCode("LCEP"))
}
