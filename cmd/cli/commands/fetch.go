package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download yearly HOEP/predispatch reports from IESO",
	Long: `Downloads PUB_PriceHOEPPredispOR_<year>.csv from the public IESO
reports site into a local directory, one file per year.

Examples:
  cli fetch --year 2019 --dir data
  cli fetch --years 2018,2019 --dir data`,
	RunE: runFetch,
}

var (
	fetchYear  int
	fetchYears []int
	fetchDir   string
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().IntVar(&fetchYear, "year", 0, "report year (defaults to data.year)")
	fetchCmd.Flags().IntSliceVar(&fetchYears, "years", nil, "several report years, comma separated")
	fetchCmd.Flags().StringVar(&fetchDir, "dir", "data", "destination directory")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	years := append([]int(nil), fetchYears...)
	if fetchYear != 0 {
		years = append(years, fetchYear)
	}
	if len(years) == 0 {
		years = []int{cfg.Data.Year}
	}
	ctx, cancel := signalContext()
	defer cancel()

	client := reportClient(cfg, newLogger(cfg))
	for _, year := range years {
		path, err := client.Download(ctx, year, fetchDir)
		if err != nil {
			return fmt.Errorf("fetch %d: %w", year, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	}
	return nil
}
