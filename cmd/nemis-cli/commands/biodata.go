package commands

import (
	"log/slog"
	"time"

	"nemis-backend/lib/scrapers/nemis"
	"nemis-backend/lib/serviceutil"
	"nemis-backend/lib/timezone"

	"github.com/spf13/cobra"
)

var biodataIndexNo *string
var biodataName *string
var biodataGender *string
var biodataDob *string
var biodataBirthCert *string
var biodataGrade *string

func init() {
	biodataIndexNo = biodataCmd.Flags().String("index", "", "The KCPE index number of the admitted learner.")
	biodataName = biodataCmd.Flags().String("name", "", "The learner's full name.")
	biodataGender = biodataCmd.Flags().String("gender", "", "The learner's gender, M or F.")
	biodataDob = biodataCmd.Flags().String("dob", "", "The learner's date of birth, dd/mm/yyyy.")
	biodataBirthCert = biodataCmd.Flags().String("birth-cert", "", "The learner's birth certificate number.")
	biodataGrade = biodataCmd.Flags().String("grade", "", "The grade the learner joins.")
	biodataCmd.MarkFlagRequired("index")
	biodataCmd.MarkFlagRequired("name")
	biodataCmd.MarkFlagRequired("gender")
	biodataCmd.MarkFlagRequired("dob")
	biodataCmd.MarkFlagRequired("birth-cert")
	biodataCmd.MarkFlagRequired("grade")
	rootCmd.AddCommand(biodataCmd)
}

var biodataCmd = &cobra.Command{
	Use:   "biodata --index <index_no> --name <name> --gender <M|F> --dob <dd/mm/yyyy> --birth-cert <number> --grade <grade>",
	Short: "Captures the biodata record of an admitted learner.",
	Run: func(cmd *cobra.Command, args []string) {
		dob, err := time.ParseInLocation("02/01/2006", *biodataDob, timezone.Location)
		if err != nil {
			serviceutil.Fatal("failed to parse date of birth", err)
		}

		client := createClient()

		result, err := client.CaptureBiodata(cmd.Context(), nemis.CaptureBiodataRequest{
			IndexNo:     *biodataIndexNo,
			Name:        *biodataName,
			Gender:      *biodataGender,
			DateOfBirth: dob,
			BirthCertNo: *biodataBirthCert,
			Grade:       *biodataGrade,
		})
		if err != nil {
			serviceutil.Fatal("failed to capture biodata", err)
		}
		slog.Info("biodata captured", "index_no", *biodataIndexNo, "upi", result.Upi)
	},
}
