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
	rootCmd.AddCommand(achievementsCmd)
}

var achievementsCmd = &cobra.Command{
	Use:   "achievements USER",
	Short: "Show a user's unlocked and available achievements",
	Args:  cobra.ExactArgs(1),
	RunE:  runAchievements,
}

func runAchievements(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	ov, err := d.Engine.Achievements.Overview(cmd.Context(), args[0], time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Unlocked %d of %d\n\n", len(ov.Unlocked), ov.Total)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, u := range ov.Unlocked {
		fmt.Fprintf(w, "[x]\t%s\t%s\t%s\n", u.Achievement.Name, u.Achievement.Description,
			u.UnlockedAt.Format("2006-01-02"))
	}
	for _, a := range ov.Available {
		fmt.Fprintf(w, "[ ]\t%s\t%s\t%s\n", a.Achievement.Name, a.Achievement.Description,
			renderBar(a.ProgressPct))
	}
	return w.Flush()
}
