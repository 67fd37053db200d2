package cmd

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/memory-mirror/internal/config"
	"github.com/kozaktomas/memory-mirror/internal/engine"
	"github.com/kozaktomas/memory-mirror/internal/gallery"
	"github.com/kozaktomas/memory-mirror/internal/recognize"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Compute embeddings for all gallery images",
	Long: `Enroll the reference images in the gallery directory: every image is
sent to the face engine and the resulting embeddings are stored next to the
gallery. Run this after adding or removing reference photos.`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	client := engine.New(cfg.Engine.URL)
	if !client.Available() {
		return fmt.Errorf("face engine is not configured, set MIRROR_ENGINE_URL")
	}

	store := gallery.NewStore(cfg.Gallery.Path, cfg.Gallery.MetadataPath)
	if err := store.Refresh(); err != nil {
		return err
	}

	var total int
	persons := store.PersonIDs()
	for _, id := range persons {
		total += len(store.Images(id))
	}
	if total == 0 {
		return fmt.Errorf("no reference images found in %s", cfg.Gallery.Path)
	}

	fmt.Printf("Enrolling %d images for %d persons\n\n", total, len(persons))

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var embeddings []recognize.GalleryEmbedding
	var failed int

	for _, personID := range persons {
		for _, path := range store.Images(personID) {
			bar.Add(1)

			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "\ncould not read %s: %v\n", path, err)
				failed++
				continue
			}

			embedding, err := client.EmbedFace(ctx, data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "\ncould not embed %s: %v\n", path, err)
				failed++
				continue
			}

			embeddings = append(embeddings, recognize.GalleryEmbedding{
				PersonID:  personID,
				ImagePath: path,
				Embedding: embedding,
			})
		}
	}

	if len(embeddings) == 0 {
		return fmt.Errorf("no images could be embedded (%d failures)", failed)
	}

	path := embeddingsPath(cfg)
	if err := recognize.SaveGalleryFile(path, cfg.Recognition.ModelName, embeddings); err != nil {
		return err
	}

	index := recognize.NewIndex()
	index.Build(embeddings)

	fmt.Printf("\n\nEnrolled %d embeddings for %d persons (%d failures)\n",
		len(embeddings), len(persons), failed)
	fmt.Printf("Embeddings written to %s\n", path)
	return nil
}
