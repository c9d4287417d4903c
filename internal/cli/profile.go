package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackgrid/hackgrid/internal/daemon"
)

func init() {
	leaderboardCmd.Flags().IntVarP(&leaderboardLimit, "limit", "n", 10, "Number of entries")
	rootCmd.AddCommand(profileCmd, leaderboardCmd)
}

var leaderboardLimit int

var profileCmd = &cobra.Command{
	Use:   "profile USER",
	Short: "Show a user's level, balance and streak",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfile,
}

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"top"},
	Short:   "List the top users by XP",
	Args:    cobra.NoArgs,
	RunE:    runLeaderboard,
}

func runProfile(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	p, err := d.Engine.Levels.Profile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	current, longest, err := d.Engine.Streaks.Streak(cmd.Context(), args[0], time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("User:     %s\n", p.User.ID)
	fmt.Printf("Level:    %d (%s)\n", p.Level.Level, p.Title)
	fmt.Printf("XP:       %d\n", p.User.XP)
	fmt.Printf("Progress: %s\n", renderBar(p.Level.ProgressPct))
	fmt.Printf("Coins:    %d\n", p.User.Coins)
	fmt.Printf("Streak:   %d days (best %d)\n", current, longest)
	fmt.Printf("Active:   %s\n", formatAge(p.User.LastActive, time.Now()))
	return nil
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	board, err := d.Engine.Levels.Leaderboard(cmd.Context(), leaderboardLimit)
	if err != nil {
		return err
	}
	if len(board) == 0 {
		fmt.Println("No players yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tUSER\tLEVEL\tTITLE\tXP")
	for _, e := range board {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%d\n", e.Rank, e.UserID, e.Level, e.Title, e.XP)
	}
	return w.Flush()
}
