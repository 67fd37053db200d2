package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/memory-mirror/internal/config"
	"github.com/kozaktomas/memory-mirror/internal/gallery"
)

var personsCmd = &cobra.Command{
	Use:   "persons",
	Short: "List enrolled persons and their profiles",
	RunE:  runPersons,
}

func init() {
	rootCmd.AddCommand(personsCmd)
}

func runPersons(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	store := gallery.NewStore(cfg.Gallery.Path, cfg.Gallery.MetadataPath)
	if err := store.Refresh(); err != nil {
		return err
	}

	profiles := store.Profiles()
	if len(profiles) == 0 {
		fmt.Printf("No persons enrolled in %s\n", cfg.Gallery.Path)
		return nil
	}

	for _, p := range profiles {
		fmt.Printf("%s\n", p.DisplayName())
		fmt.Printf("  ID:        %s\n", p.ID)
		if p.Relationship != "" {
			fmt.Printf("  Relation:  %s\n", p.Relationship)
		}
		if p.Language != "" {
			fmt.Printf("  Language:  %s\n", p.Language)
		}
		fmt.Printf("  Images:    %d\n", len(store.Images(p.ID)))
		fmt.Printf("  Greeting:  %s\n", p.VoiceMessageFor(p.Language))
		fmt.Println()
	}

	stats := store.Stats()
	fmt.Printf("%d persons, %d reference images\n", stats.Persons, stats.TotalImages)
	return nil
}
