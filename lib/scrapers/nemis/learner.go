package nemis

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"nemis-backend/lib/htmlutil"
	"nemis-backend/lib/scrapers/nemis/core"
	"nemis-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	listLearnersPath  = "/Learner/Listlearners.aspx"
	searchLearnerPath = "/Learner/Searchui.aspx"

	fieldSelectGrade = "ctl00$ContentPlaceHolder1$SelectCat"
	fieldSelectRecs  = "ctl00$ContentPlaceHolder1$SelectRecs"
	fieldSearchText  = "ctl00$ContentPlaceHolder1$txtSearch"
	fieldSearchCmd   = "ctl00$ContentPlaceHolder1$SearchCmd"

	learnerGridId   = "ctl00_ContentPlaceHolder1_grdLearners"
	learnerDetailId = "ctl00_ContentPlaceHolder1_dtlLearner"

	// full listings always run at this scope so callers never receive
	// a silently truncated page
	allRecordsScope = "all"
)

// the portal renders dates as dd/mm/yyyy
const portalDateLayout = "02/01/2006"

func parseDocument(res *resty.Response) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, core.ErrProtocol{Reason: fmt.Sprintf("unparsable response markup: %v", err)}
	}
	return doc, nil
}

// ListLearners returns every learner of the requested grade. Before
// extraction the returned page-size control is reconciled against the
// full-listing scope with at most one page-size-change postback.
func (c *Client) ListLearners(ctx context.Context, req ListLearnersRequest) ([]Learner, error) {
	err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	var learners []Learner
	err = c.withSession(ctx, "client:ListLearners", func(ctx context.Context) error {
		res, err := c.Session.Get(ctx, listLearnersPath)
		if err != nil {
			return err
		}

		// select the grade, a full grid postback
		fields := url.Values{}
		fields.Set("__EVENTTARGET", fieldSelectGrade)
		fields.Set(fieldSelectGrade, req.Grade)
		res, err = c.Session.Postback(ctx, listLearnersPath, fields)
		if err != nil {
			return err
		}
		err = classifyBusiness(res.String())
		if err != nil {
			return err
		}
		doc, err := parseDocument(res)
		if err != nil {
			return err
		}

		doc, err = c.reconcilePageSize(ctx, doc, req.Grade)
		if err != nil {
			return err
		}

		learners, err = extractLearners(ctx, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return learners, nil
}

// reconcilePageSize inspects the page-size select of a rendered grid
// page. when the selected scope is not the full listing it issues
// exactly one page-size-change postback and returns the re-rendered
// document, otherwise the document is returned untouched.
func (c *Client) reconcilePageSize(ctx context.Context, doc *goquery.Document, grade string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "reconcilePageSize")
	defer span.End()

	selected := doc.Find(
		fmt.Sprintf("select[name='%s'] option[selected]", fieldSelectRecs),
	).AttrOr("value", "")
	span.SetAttributes(attribute.String("selected", selected))

	if selected == allRecordsScope {
		return doc, nil
	}

	span.AddEvent("page size mismatch, requesting full listing", trace.WithAttributes(
		attribute.String("current", selected),
		attribute.String("want", allRecordsScope),
	))

	fields := url.Values{}
	fields.Set("__EVENTTARGET", fieldSelectRecs)
	fields.Set(fieldSelectRecs, allRecordsScope)
	fields.Set(fieldSelectGrade, grade)
	res, err := c.Session.Postback(ctx, listLearnersPath, fields)
	if err != nil {
		return nil, err
	}
	err = classifyBusiness(res.String())
	if err != nil {
		return nil, err
	}
	return parseDocument(res)
}

func extractLearners(ctx context.Context, doc *goquery.Document) ([]Learner, error) {
	table := doc.Find(fmt.Sprintf("table#%s", learnerGridId))
	rows, err := htmlutil.ExtractTable(ctx, table, htmlutil.NormalizeRules{
		InferActionIds: true,
	})
	if err != nil {
		return nil, err
	}

	learners := make([]Learner, len(rows))
	for i, row := range rows {
		learners[i] = Learner{
			Upi:         row.Get("upi"),
			Name:        row.Get("name"),
			Gender:      row.Get("gender"),
			BirthCertNo: row.Get("birth cert no"),
			Grade:       row.Get("grade"),
			IndexNo:     row.Get("index no"),
			ActionId:    row.ActionId,
		}
		if learners[i].Name == "" {
			learners[i].Name = row.Get("learner name")
		}
		dob := row.Get("date of birth")
		if dob != "" {
			parsed, err := time.ParseInLocation(portalDateLayout, dob, timezone.Location)
			if err == nil {
				learners[i].DateOfBirth = parsed
			}
		}
	}
	return learners, nil
}

// SearchLearner looks a learner up by UPI or birth certificate number.
// Lookups are read-only so results may be served from the cache.
func (c *Client) SearchLearner(ctx context.Context, req SearchLearnerRequest) (LearnerDetails, error) {
	err := validateRequest(req)
	if err != nil {
		return LearnerDetails{}, err
	}

	query := req.Upi
	if query == "" {
		query = req.BirthCertNo
	}

	cached, err := c.cache.get(ctx, c.Session.Username, query)
	if err == nil {
		return cached, nil
	}

	var details LearnerDetails
	err = c.withSession(ctx, "client:SearchLearner", func(ctx context.Context) error {
		_, err := c.Session.Get(ctx, searchLearnerPath)
		if err != nil {
			return err
		}

		fields := url.Values{}
		fields.Set(fieldSearchText, query)
		fields.Set(fieldSearchCmd, "Search")
		res, err := c.Session.Postback(ctx, searchLearnerPath, fields)
		if err != nil {
			return err
		}
		err = classifyBusiness(res.String())
		if err != nil {
			return err
		}
		doc, err := parseDocument(res)
		if err != nil {
			return err
		}

		details, err = extractLearnerDetails(doc)
		return err
	})
	if err != nil {
		return LearnerDetails{}, err
	}

	cacheErr := c.cache.set(ctx, c.Session.Username, query, details)
	if cacheErr != nil {
		trace.SpanFromContext(ctx).RecordError(cacheErr)
	}
	return details, nil
}

// the lookup result renders as a two-column label/value table
func extractLearnerDetails(doc *goquery.Document) (LearnerDetails, error) {
	rows := doc.Find(fmt.Sprintf("table#%s tr", learnerDetailId))
	if len(rows.Nodes) == 0 {
		return LearnerDetails{}, core.ErrProtocol{Reason: "learner detail table missing from response"}
	}

	fields := map[string]string{}
	rows.Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if len(cells.Nodes) < 2 {
			return
		}
		label := strings.ToLower(htmlutil.CleanText(cells.Nodes[0]))
		label = strings.TrimSuffix(label, ":")
		fields[label] = htmlutil.CleanText(cells.Nodes[1])
	})

	details := LearnerDetails{
		Upi:         fields["upi"],
		Name:        fields["name"],
		Gender:      fields["gender"],
		BirthCertNo: fields["birth cert no"],
		Grade:       fields["grade"],
		Institution: fields["institution"],
	}
	if details.Upi == "" {
		return LearnerDetails{}, core.ErrProtocol{Reason: "learner detail table has no upi"}
	}
	dob := fields["date of birth"]
	if dob != "" {
		parsed, err := time.ParseInLocation(portalDateLayout, dob, timezone.Location)
		if err == nil {
			details.DateOfBirth = parsed
		}
	}
	return details, nil
}
