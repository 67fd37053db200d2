package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/memory-mirror/internal/audio"
	"github.com/kozaktomas/memory-mirror/internal/config"
	"github.com/kozaktomas/memory-mirror/internal/speech"
)

var sayLanguage string

var sayCmd = &cobra.Command{
	Use:   "say [text...]",
	Short: "Synthesize and play a message, for testing the speaker setup",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSay,
}

func init() {
	rootCmd.AddCommand(sayCmd)
	sayCmd.Flags().StringVar(&sayLanguage, "language", "en", "Language of the message")
}

func runSay(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	synth, err := speech.NewSynthesizer(ctx, cfg)
	if err != nil {
		return err
	}
	if synth == nil {
		return fmt.Errorf("no TTS engine configured, set MIRROR_TTS_ENGINE")
	}

	player, err := audio.NewCommandPlayer(cfg.Audio.PlayerCommand)
	if err != nil {
		return err
	}
	player.SetVolume(cfg.Audio.Volume)

	text := strings.Join(args, " ")
	fmt.Printf("Synthesizing with %s...\n", synth.Name())

	data, err := synth.Synthesize(ctx, text, sayLanguage)
	if err != nil {
		return err
	}

	fmt.Printf("Playing %d bytes\n", len(data))
	return player.Play(ctx, data)
}
