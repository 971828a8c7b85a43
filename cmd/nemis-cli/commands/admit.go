package commands

import (
	"log/slog"

	"nemis-backend/lib/scrapers/nemis"
	"nemis-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var admitIndexNo *string
var admitName *string

func init() {
	admitIndexNo = admitCmd.Flags().String("index", "", "The KCPE index number of the placed candidate.")
	admitName = admitCmd.Flags().String("name", "", "The candidate's full name, for cross-checking.")
	admitCmd.MarkFlagRequired("index")
	admitCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(admitCmd)
}

var admitCmd = &cobra.Command{
	Use:   "admit --index <index_no> --name <name>",
	Short: "Admits a placed candidate into the institution.",
	Run: func(cmd *cobra.Command, args []string) {
		client := createClient()

		result, err := client.AdmitLearner(cmd.Context(), nemis.AdmitLearnerRequest{
			IndexNo: *admitIndexNo,
			Name:    *admitName,
		})
		if err != nil {
			serviceutil.Fatal("failed to admit learner", err)
		}
		slog.Info("admitted learner", "index_no", *admitIndexNo, "upi", result.Upi)
	},
}
