package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackgrid/hackgrid/internal/app/progression"
	"github.com/hackgrid/hackgrid/internal/daemon"
)

func init() {
	missionsPreviewCmd.Flags().Int64Var(&previewSeed, "seed", 0, "Random seed (default: current time)")
	missionsCmd.AddCommand(missionsPreviewCmd)
	rootCmd.AddCommand(missionsCmd)
}

var previewSeed int64

var missionsCmd = &cobra.Command{
	Use:   "missions USER",
	Short: "List a user's active missions",
	Args:  cobra.ExactArgs(1),
	RunE:  runMissions,
}

var missionsPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Roll a sample daily mission set without touching the database",
	Args:  cobra.NoArgs,
	RunE:  runMissionsPreview,
}

func runMissions(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	missions, err := d.Engine.Missions.Active(cmd.Context(), args[0], time.Now())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPERIOD\tMISSION\tPROGRESS\tREWARD\tSTATE\tLEFT")
	for _, m := range missions {
		state := "open"
		switch {
		case m.Instance.Claimed:
			state = "claimed"
		case m.Completed:
			state = "claimable"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d XP, %d coins\t%s\t%s\n",
			m.Instance.ID,
			m.Instance.Period,
			m.Mission.Title,
			m.Progress, m.Mission.Target,
			m.Mission.XPReward, m.Mission.CoinReward,
			state,
			m.TimeRemaining,
		)
	}
	return w.Flush()
}

func runMissionsPreview(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	catalog, err := progression.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	seed := previewSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen := progression.NewGenerator(catalog, cfg.Missions)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MISSION\tTYPE\tTARGET\tREWARD")
	for _, m := range gen.Daily(progression.NewRand(seed)) {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d XP, %d coins\n", m.ID, m.Type, m.Target, m.XPReward, m.CoinReward)
	}
	return w.Flush()
}
