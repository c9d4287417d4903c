package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hackgrid/hackgrid/internal/app/progression"
)

func init() {
	rootCmd.AddCommand(levelCmd)
}

var levelCmd = &cobra.Command{
	Use:   "level XP",
	Short: "Show the level, title and progress for an XP total",
	Args:  cobra.ExactArgs(1),
	RunE:  runLevel,
}

func runLevel(cmd *cobra.Command, args []string) error {
	xp, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || xp < 0 {
		return fmt.Errorf("XP must be a non-negative integer, got %q", args[0])
	}

	info := progression.Info(xp)
	fmt.Printf("Level:    %d (%s)\n", info.Level, progression.TitleForLevel(info.Level))
	fmt.Printf("XP:       %d\n", info.CurrentXP)
	fmt.Printf("Next:     level %d at %d XP (%d to go)\n", info.Level+1, info.XPForNextLevel, info.XPNeededForNext)
	fmt.Printf("Progress: %s\n", renderBar(info.ProgressPct))
	return nil
}
