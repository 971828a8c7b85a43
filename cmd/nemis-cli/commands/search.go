package commands

import (
	"log/slog"

	"nemis-backend/lib/scrapers/nemis"
	"nemis-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var searchUpi *string
var searchBirthCert *string

func init() {
	searchUpi = searchCmd.Flags().String("upi", "", "The UPI to look up.")
	searchBirthCert = searchCmd.Flags().String("birth-cert", "", "The birth certificate number to look up.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [--upi <upi>] [--birth-cert <number>]",
	Short: "Looks up a single learner nationwide.",
	Run: func(cmd *cobra.Command, args []string) {
		client := createClient()

		details, err := client.SearchLearner(cmd.Context(), nemis.SearchLearnerRequest{
			Upi:         *searchUpi,
			BirthCertNo: *searchBirthCert,
		})
		if err != nil {
			serviceutil.Fatal("failed to search learner", err)
		}

		slog.Info("found learner",
			"upi", details.Upi,
			"name", details.Name,
			"gender", details.Gender,
			"date_of_birth", details.DateOfBirth,
			"birth_cert_no", details.BirthCertNo,
			"grade", details.Grade,
			"institution", details.Institution)
	},
}
