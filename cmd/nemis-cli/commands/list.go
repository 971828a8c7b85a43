package commands

import (
	"log/slog"
	"time"

	devenv "nemis-backend/dev/env"
	"nemis-backend/lib/learnerstore"
	"nemis-backend/lib/learnerstore/db"
	"nemis-backend/lib/scrapers/nemis"
	"nemis-backend/lib/serviceutil"
	"nemis-backend/lib/sqliteutil"

	"github.com/spf13/cobra"

	_ "modernc.org/sqlite"
)

var listGrade *string
var listDb *string

func init() {
	listGrade = listCmd.Flags().String("grade", "", "The grade whose learners to list.")
	listDb = listCmd.Flags().String("db", "<dev_state>/learners.db", "The database to mirror the roster into.")
	listCmd.MarkFlagRequired("grade")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list --grade <grade> [--db <path/to/learners.db>]",
	Short: "Lists the institution's learners in a grade and mirrors them locally.",
	Run: func(cmd *cobra.Command, args []string) {
		client := createClient()

		t1 := time.Now()
		learners, err := client.ListLearners(cmd.Context(), nemis.ListLearnersRequest{
			Grade: *listGrade,
		})
		if err != nil {
			serviceutil.Fatal("failed to list learners", err)
		}
		slog.Info("listed learners",
			"grade", *listGrade,
			"count", len(learners),
			"seconds", time.Since(t1).Seconds())

		for _, l := range learners {
			slog.Info("learner",
				"upi", l.Upi,
				"name", l.Name,
				"gender", l.Gender,
				"birth_cert_no", l.BirthCertNo,
				"index_no", l.IndexNo)
		}

		path, err := devenv.ResolvePath(*listDb)
		if err != nil {
			serviceutil.Fatal("failed to resolve db path", err)
		}
		database, err := sqliteutil.OpenDB(db.Schema, path)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()

		records := make([]learnerstore.Record, len(learners))
		for i, l := range learners {
			records[i] = learnerstore.Record{
				Upi:         l.Upi,
				Name:        l.Name,
				Gender:      l.Gender,
				DateOfBirth: l.DateOfBirth,
				BirthCertNo: l.BirthCertNo,
				Grade:       l.Grade,
				IndexNo:     l.IndexNo,
			}
		}
		store := learnerstore.NewStore(database)
		err = store.Push(cmd.Context(), learnerstore.PushRequest{
			Institution: client.Session.Username,
			Grade:       *listGrade,
			Learners:    records,
		})
		if err != nil {
			serviceutil.Fatal("failed to mirror roster", err)
		}
	},
}
