package nemis

import (
	"context"
	"net/url"
)

const (
	transferPath = "/Learner/StudReceive.aspx"

	fieldTransferUpi    = "ctl00$ContentPlaceHolder1$txtSearchUPI"
	fieldTransferFind   = "ctl00$ContentPlaceHolder1$BtnSearch"
	fieldTransferReason = "ctl00$ContentPlaceHolder1$txtReason"
	fieldReceiveCmd     = "ctl00$ContentPlaceHolder1$BtnReceive"
)

// TransferLearner requests the transfer-in of a learner currently
// held by another institution. The releasing side approves out of
// band, the portal only acknowledges the request here.
func (c *Client) TransferLearner(ctx context.Context, req TransferLearnerRequest) (TransferResult, error) {
	err := validateRequest(req)
	if err != nil {
		return TransferResult{}, err
	}

	var result TransferResult
	err = c.withSession(ctx, "client:TransferLearner", func(ctx context.Context) error {
		res, err := c.Session.Get(ctx, transferPath)
		if err != nil {
			return err
		}
		err = classifyBusiness(res.String())
		if err != nil {
			return err
		}

		// locate the learner on the releasing institution
		fields := url.Values{}
		fields.Set(fieldTransferUpi, req.Upi)
		fields.Set(fieldTransferFind, "Search")
		res, err = c.Session.Postback(ctx, transferPath, fields)
		if err != nil {
			return err
		}
		err = classifyBusiness(res.String())
		if err != nil {
			return err
		}

		fields = url.Values{}
		fields.Set(fieldTransferUpi, req.Upi)
		fields.Set(fieldTransferReason, req.Reason)
		fields.Set(fieldReceiveCmd, "Receive")
		res, err = c.submitWithConflictOverride(ctx, transferPath, fields, fieldIgnore)
		if err != nil {
			return err
		}
		err = finalizeOutcome(res.String())
		if err != nil {
			return err
		}

		result = TransferResult{RequestNo: labelText(res, labelRequestNo)}
		return nil
	})
	return result, err
}
