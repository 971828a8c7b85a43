package nemis

import (
	"context"
	"net/url"

	"nemis-backend/lib/timezone"
)

const (
	admitPath            = "/Learner/Studindex.aspx"
	requestPlacementPath = "/Learner/Studindexreq.aspx"
	captureBiodataPath   = "/Learner/Biodatacap.aspx"

	fieldIndexNo   = "ctl00$ContentPlaceHolder1$txtIndexNo"
	fieldFindCmd   = "ctl00$ContentPlaceHolder1$BtnIndex"
	fieldAdmitCmd  = "ctl00$ContentPlaceHolder1$BtnAdmit"
	fieldIgnore    = "ctl00$ContentPlaceHolder1$chkIgnore"
	fieldName      = "ctl00$ContentPlaceHolder1$txtName"
	fieldGender    = "ctl00$ContentPlaceHolder1$SelectGender"
	fieldDob       = "ctl00$ContentPlaceHolder1$txtDOB"
	fieldBirthCert = "ctl00$ContentPlaceHolder1$txtBirthCert"
	fieldGrade     = "ctl00$ContentPlaceHolder1$SelectGrade"
	fieldSaveCmd   = "ctl00$ContentPlaceHolder1$BtnSave"

	fieldParentName  = "ctl00$ContentPlaceHolder1$txtParentName"
	fieldParentPhone = "ctl00$ContentPlaceHolder1$txtParentPhone"
	fieldParentIdNo  = "ctl00$ContentPlaceHolder1$txtParentID"
	fieldBoarding    = "ctl00$ContentPlaceHolder1$chkBoarding"
	fieldRequestCmd  = "ctl00$ContentPlaceHolder1$BtnRequest"

	labelUpi       = "ctl00_ContentPlaceHolder1_lblUPI"
	labelRequestNo = "ctl00_ContentPlaceHolder1_lblRequestNo"
)

// AdmitLearner admits a placed candidate by KCPE index number. The
// anchor page doubles as the feature gate: when the portal has closed
// admissions it says so there and the operation stops before any
// mutation.
func (c *Client) AdmitLearner(ctx context.Context, req AdmitLearnerRequest) (AdmitResult, error) {
	err := validateRequest(req)
	if err != nil {
		return AdmitResult{}, err
	}

	var result AdmitResult
	err = c.withSession(ctx, "client:AdmitLearner", func(ctx context.Context) error {
		res, err := c.Session.Get(ctx, admitPath)
		if err != nil {
			return err
		}
		err = classifyBusiness(res.String())
		if err != nil {
			return err
		}

		// load the candidate record for this index number
		fields := url.Values{}
		fields.Set(fieldIndexNo, req.IndexNo)
		fields.Set(fieldFindCmd, "Find")
		res, err = c.Session.Postback(ctx, admitPath, fields)
		if err != nil {
			return err
		}
		err = classifyBusiness(res.String())
		if err != nil {
			return err
		}

		fields = url.Values{}
		fields.Set(fieldIndexNo, req.IndexNo)
		fields.Set(fieldName, req.Name)
		fields.Set(fieldAdmitCmd, "Admit")
		res, err = c.submitWithConflictOverride(ctx, admitPath, fields, fieldIgnore)
		if err != nil {
			return err
		}
		err = finalizeOutcome(res.String())
		if err != nil {
			return err
		}

		result = AdmitResult{Upi: labelText(res, labelUpi)}
		return nil
	})
	return result, err
}

// RequestPlacement submits a placement request for a joining learner
// who was not pre-selected to this institution.
func (c *Client) RequestPlacement(ctx context.Context, req RequestPlacementRequest) (PlacementResult, error) {
	err := validateRequest(req)
	if err != nil {
		return PlacementResult{}, err
	}

	var result PlacementResult
	err = c.withSession(ctx, "client:RequestPlacement", func(ctx context.Context) error {
		res, err := c.Session.Get(ctx, requestPlacementPath)
		if err != nil {
			return err
		}
		err = classifyBusiness(res.String())
		if err != nil {
			return err
		}

		fields := url.Values{}
		fields.Set(fieldIndexNo, req.IndexNo)
		fields.Set(fieldName, req.Name)
		fields.Set(fieldGender, req.Gender)
		fields.Set(fieldParentName, req.ParentName)
		fields.Set(fieldParentPhone, req.ParentPhone)
		fields.Set(fieldParentIdNo, req.ParentIdNo)
		if req.PreferredBoarding {
			fields.Set(fieldBoarding, "on")
		}
		fields.Set(fieldRequestCmd, "Request")
		res, err = c.submitWithConflictOverride(ctx, requestPlacementPath, fields, fieldIgnore)
		if err != nil {
			return err
		}
		err = finalizeOutcome(res.String())
		if err != nil {
			return err
		}

		result = PlacementResult{RequestNo: labelText(res, labelRequestNo)}
		return nil
	})
	return result, err
}

// CaptureBiodata fills in the supplementary record of an admitted
// learner. The exchange is two submissions: the index lookup that
// opens the capture form, then the biodata save. A duplicate-record
// conflict on the save is resubmitted once with the override flag.
func (c *Client) CaptureBiodata(ctx context.Context, req CaptureBiodataRequest) (CaptureBiodataResult, error) {
	err := validateRequest(req)
	if err != nil {
		return CaptureBiodataResult{}, err
	}

	var result CaptureBiodataResult
	err = c.withSession(ctx, "client:CaptureBiodata", func(ctx context.Context) error {
		res, err := c.Session.Get(ctx, captureBiodataPath)
		if err != nil {
			return err
		}
		err = classifyBusiness(res.String())
		if err != nil {
			return err
		}

		// initial fields: open the capture form for this admission
		fields := url.Values{}
		fields.Set(fieldIndexNo, req.IndexNo)
		fields.Set(fieldFindCmd, "Find")
		res, err = c.Session.Postback(ctx, captureBiodataPath, fields)
		if err != nil {
			return err
		}
		err = classifyBusiness(res.String())
		if err != nil {
			return err
		}

		// final submission
		fields = url.Values{}
		fields.Set(fieldIndexNo, req.IndexNo)
		fields.Set(fieldName, req.Name)
		fields.Set(fieldGender, req.Gender)
		fields.Set(fieldDob, req.DateOfBirth.In(timezone.Location).Format(portalDateLayout))
		fields.Set(fieldBirthCert, req.BirthCertNo)
		fields.Set(fieldGrade, req.Grade)
		fields.Set(fieldSaveCmd, "Save")
		res, err = c.submitWithConflictOverride(ctx, captureBiodataPath, fields, fieldIgnore)
		if err != nil {
			return err
		}
		err = finalizeOutcome(res.String())
		if err != nil {
			return err
		}

		result = CaptureBiodataResult{Upi: labelText(res, labelUpi)}
		return nil
	})
	return result, err
}
