package nemis

import "time"

// Learner is one row of the institution's learner grid.
type Learner struct {
	Upi         string
	Name        string
	Gender      string
	DateOfBirth time.Time
	BirthCertNo string
	Grade       string
	IndexNo     string

	// grid control sequence addressing this row's action element,
	// inferred positionally during extraction
	ActionId string
}

// LearnerDetails is the full record the portal renders for a single
// learner lookup.
type LearnerDetails struct {
	Upi         string
	Name        string
	Gender      string
	DateOfBirth time.Time
	BirthCertNo string
	Grade       string
	Institution string
}

type ListLearnersRequest struct {
	Grade string `validate:"required"`
}

type SearchLearnerRequest struct {
	// either works, UPI wins when both are set
	Upi         string `validate:"required_without=BirthCertNo"`
	BirthCertNo string `validate:"required_without=Upi"`
}

type RequestPlacementRequest struct {
	IndexNo           string `validate:"required,numeric"`
	Name              string `validate:"required"`
	Gender            string `validate:"required,oneof=M F"`
	ParentName        string `validate:"required"`
	ParentPhone       string `validate:"required"`
	ParentIdNo        string `validate:"required"`
	PreferredBoarding bool
}

type PlacementResult struct {
	RequestNo string
}

type AdmitLearnerRequest struct {
	IndexNo string `validate:"required,numeric"`
	Name    string `validate:"required"`
}

type AdmitResult struct {
	// the identifier the portal assigned on admission, empty when the
	// portal defers assignment to biodata capture
	Upi string
}

type CaptureBiodataRequest struct {
	IndexNo     string    `validate:"required,numeric"`
	Name        string    `validate:"required"`
	Gender      string    `validate:"required,oneof=M F"`
	DateOfBirth time.Time `validate:"required"`
	BirthCertNo string    `validate:"required"`
	Grade       string    `validate:"required"`
}

type CaptureBiodataResult struct {
	Upi string
}

type TransferLearnerRequest struct {
	Upi    string `validate:"required"`
	Reason string `validate:"required"`
}

type TransferResult struct {
	// the portal acknowledges with a tracking number on some captures
	RequestNo string
}
