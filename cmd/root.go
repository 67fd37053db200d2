package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "memory-mirror",
	Short: "A face recognition kiosk that greets familiar people",
	Long: `Memory Mirror is a kiosk for people living with memory loss. It watches
a camera feed, recognizes enrolled family members and caregivers, and greets
them by name with a personalized voice message.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
