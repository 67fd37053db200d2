package recognize

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// galleryFile is the on-disk format produced by enrollment.
type galleryFile struct {
	Model       string             `json:"model"`
	GeneratedAt time.Time          `json:"generated_at"`
	Embeddings  []GalleryEmbedding `json:"embeddings"`
}

// SaveGalleryFile writes enrolled embeddings to disk.
func SaveGalleryFile(path, model string, embeddings []GalleryEmbedding) error {
	data, err := json.MarshalIndent(galleryFile{
		Model:       model,
		GeneratedAt: time.Now(),
		Embeddings:  embeddings,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("could not serialize embeddings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("could not write embeddings %s: %w", path, err)
	}
	return nil
}

// LoadGalleryFile reads enrolled embeddings from disk.
func LoadGalleryFile(path string) ([]GalleryEmbedding, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("could not read embeddings %s: %w", path, err)
	}

	var f galleryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("could not parse embeddings %s: %w", path, err)
	}
	return f.Embeddings, f.Model, nil
}
