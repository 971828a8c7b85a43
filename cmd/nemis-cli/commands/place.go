package commands

import (
	"log/slog"

	"nemis-backend/lib/scrapers/nemis"
	"nemis-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var placeIndexNo *string
var placeName *string
var placeGender *string
var placeParentName *string
var placeParentPhone *string
var placeParentIdNo *string
var placeBoarding *bool

func init() {
	placeIndexNo = placeCmd.Flags().String("index", "", "The KCPE index number of the joining learner.")
	placeName = placeCmd.Flags().String("name", "", "The learner's full name.")
	placeGender = placeCmd.Flags().String("gender", "", "The learner's gender, M or F.")
	placeParentName = placeCmd.Flags().String("parent-name", "", "The guardian's full name.")
	placeParentPhone = placeCmd.Flags().String("parent-phone", "", "The guardian's phone number.")
	placeParentIdNo = placeCmd.Flags().String("parent-id", "", "The guardian's national ID number.")
	placeBoarding = placeCmd.Flags().Bool("boarding", false, "Request a boarding place.")
	placeCmd.MarkFlagRequired("index")
	placeCmd.MarkFlagRequired("name")
	placeCmd.MarkFlagRequired("gender")
	placeCmd.MarkFlagRequired("parent-name")
	placeCmd.MarkFlagRequired("parent-phone")
	placeCmd.MarkFlagRequired("parent-id")
	rootCmd.AddCommand(placeCmd)
}

var placeCmd = &cobra.Command{
	Use:   "place --index <index_no> --name <name> --gender <M|F> --parent-name <name> --parent-phone <phone> --parent-id <id_no> [--boarding]",
	Short: "Requests placement for a learner not pre-selected to this institution.",
	Run: func(cmd *cobra.Command, args []string) {
		client := createClient()

		result, err := client.RequestPlacement(cmd.Context(), nemis.RequestPlacementRequest{
			IndexNo:           *placeIndexNo,
			Name:              *placeName,
			Gender:            *placeGender,
			ParentName:        *placeParentName,
			ParentPhone:       *placeParentPhone,
			ParentIdNo:        *placeParentIdNo,
			PreferredBoarding: *placeBoarding,
		})
		if err != nil {
			serviceutil.Fatal("failed to request placement", err)
		}
		slog.Info("placement requested", "index_no", *placeIndexNo, "request_no", result.RequestNo)
	},
}
