package learnerstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"nemis-backend/lib/learnerstore/db"
	"nemis-backend/lib/timezone"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports a lookup for a learner the store has never seen.
var ErrNotFound = errors.New("learner not found in store")

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// Record is one learner as last observed on the portal.
type Record struct {
	Upi         string
	Name        string
	Gender      string
	DateOfBirth time.Time
	BirthCertNo string
	Grade       string
	IndexNo     string
	UpdatedAt   time.Time
}

type PushRequest struct {
	Institution string
	Grade       string
	Learners    []Record
}

// Push replaces the stored roster of one grade with a fresh portal
// snapshot. Learners that disappeared from the grid since the last
// push are dropped.
func (s Store) Push(ctx context.Context, req PushRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	err = txqry.DeleteLearnersByGrade(ctx, db.DeleteLearnersByGradeParams{
		Institution: req.Institution,
		Grade:       req.Grade,
	})
	if err != nil {
		return err
	}

	now := timezone.Now().Unix()
	for _, l := range req.Learners {
		err := txqry.UpsertLearner(ctx, db.UpsertLearnerParams{
			Institution: req.Institution,
			Upi:         l.Upi,
			Name:        l.Name,
			Gender:      l.Gender,
			DateOfBirth: l.DateOfBirth.Unix(),
			BirthCertNo: l.BirthCertNo,
			Grade:       req.Grade,
			IndexNo:     l.IndexNo,
			UpdatedAt:   now,
		})
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s Store) Get(ctx context.Context, institution, upi string) (Record, error) {
	row, err := s.qry.GetLearner(ctx, db.GetLearnerParams{
		Institution: institution,
		Upi:         upi,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return recordFromRow(row), nil
}

func (s Store) Pull(ctx context.Context, institution, grade string) ([]Record, error) {
	rows, err := s.qry.GetLearnersByGrade(ctx, db.GetLearnersByGradeParams{
		Institution: institution,
		Grade:       grade,
	})
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(rows))
	for i, r := range rows {
		records[i] = recordFromRow(r)
	}
	return records, nil
}

func recordFromRow(row db.Learner) Record {
	return Record{
		Upi:         row.Upi,
		Name:        row.Name,
		Gender:      row.Gender,
		DateOfBirth: time.Unix(row.DateOfBirth, 0).In(timezone.Location),
		BirthCertNo: row.BirthCertNo,
		Grade:       row.Grade,
		IndexNo:     row.IndexNo,
		UpdatedAt:   time.Unix(row.UpdatedAt, 0).In(timezone.Location),
	}
}
