package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ubike-availability/internal/classify"
	"ubike-availability/internal/history"
	"ubike-availability/internal/registry"
)

var rankTop int

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Print the station availability tier ranking and exit",
	RunE:  rank,
}

func init() {
	rankCmd.Flags().IntVarP(&rankTop, "top", "n", 0, "limit to the top N stations (0 = all)")
	rootCmd.AddCommand(rankCmd)
}

func rank(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	stations, err := registry.Load(cfg.StationsPath)
	if err != nil {
		return fmt.Errorf("load station registry: %w", err)
	}

	stats, err := history.Load(cfg.StatsSource)
	if err != nil {
		return fmt.Errorf("load historical stats: %w", err)
	}

	results := classify.New(stats).TopN(rankTop)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSTATION\tNAME\tRATE\tTIER\tHOURS")
	for i, result := range results {
		name := ""
		if st, err := stations.ByID(result.StationID); err == nil {
			name = st.Name
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.3f\t%s\t%d\n",
			i+1, result.StationID, name, result.EffectiveSeeBikeRate, result.Tier, result.ObservedHours)
	}
	return w.Flush()
}
