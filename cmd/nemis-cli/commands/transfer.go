package commands

import (
	"log/slog"

	"nemis-backend/lib/scrapers/nemis"
	"nemis-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var transferUpi *string
var transferReason *string

func init() {
	transferUpi = transferCmd.Flags().String("upi", "", "The UPI of the learner to transfer in.")
	transferReason = transferCmd.Flags().String("reason", "", "The reason for the transfer.")
	transferCmd.MarkFlagRequired("upi")
	transferCmd.MarkFlagRequired("reason")
	rootCmd.AddCommand(transferCmd)
}

var transferCmd = &cobra.Command{
	Use:   "transfer --upi <upi> --reason <reason>",
	Short: "Requests the transfer-in of a learner held by another institution.",
	Run: func(cmd *cobra.Command, args []string) {
		client := createClient()

		result, err := client.TransferLearner(cmd.Context(), nemis.TransferLearnerRequest{
			Upi:    *transferUpi,
			Reason: *transferReason,
		})
		if err != nil {
			serviceutil.Fatal("failed to request transfer", err)
		}
		slog.Info("transfer requested", "upi", *transferUpi, "request_no", result.RequestNo)
	},
}
