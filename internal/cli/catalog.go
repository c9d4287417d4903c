package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hackgrid/hackgrid/internal/app/progression"
	"github.com/hackgrid/hackgrid/internal/domain"
)

func init() {
	catalogCmd.AddCommand(catalogValidateCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect mission and achievement content",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [FILE]",
	Short: "Validate a catalog file (default: the embedded catalog)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalogValidate,
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	c, err := progression.LoadCatalog(path)
	if err != nil {
		return err
	}

	daily, weekly := 0, 0
	for _, m := range c.Missions {
		switch m.Period {
		case domain.PeriodDaily:
			daily++
		case domain.PeriodWeekly:
			weekly++
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Daily missions:\t%d\n", daily)
	fmt.Fprintf(w, "Weekly missions:\t%d\n", weekly)
	fmt.Fprintf(w, "Achievements:\t%d\n", len(c.Achievements))
	fmt.Fprintf(w, "Actions:\t%d\n", len(c.Actions))
	if err := w.Flush(); err != nil {
		return err
	}

	warnings := c.Warnings()
	for _, msg := range warnings {
		fmt.Printf("warning: %s\n", msg)
	}
	if len(warnings) == 0 {
		fmt.Println("ok")
	}
	return nil
}
