package nemis

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"nemis-backend/lib/htmlutil"
	"nemis-backend/lib/scrapers/nemis/core"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// submitWithConflictOverride posts a final-submission payload. when
// the portal answers with a conflict it explicitly allows overriding,
// the payload is resubmitted exactly once with the ignore flag set and
// the second response replaces the first. no further resubmission
// happens regardless of what comes back.
func (c *Client) submitWithConflictOverride(ctx context.Context, path string, fields url.Values, ignoreField string) (*resty.Response, error) {
	res, err := c.Session.Postback(ctx, path, fields)
	if err != nil {
		return nil, err
	}

	phrase, conflicted := isIgnorableConflict(res.String())
	if !conflicted {
		return res, nil
	}

	span := trace.SpanFromContext(ctx)
	span.AddEvent("ignorable conflict, resubmitting with override", trace.WithAttributes(
		attribute.String("phrase", phrase),
	))

	override := url.Values{}
	for key, values := range fields {
		for _, v := range values {
			override.Set(key, v)
		}
	}
	override.Set(ignoreField, "on")
	return c.Session.Postback(ctx, path, override)
}

// finalizeOutcome turns the final response of a mutating operation
// into its outcome. a conflict phrase that survived the override run
// is fatal, and an unmatched response is never assumed successful.
func finalizeOutcome(body string) error {
	err := classifyBusiness(body)
	if err != nil {
		return err
	}
	if phrase, ok := isIgnorableConflict(body); ok {
		return core.ErrBusiness{
			Phrase:  phrase,
			Message: messageText(body),
		}
	}
	if !isSuccess(body) {
		return core.ErrUnknown{Snippet: messageText(body)}
	}
	return nil
}

// labelText extracts the text of a rendered label span by control id,
// tolerating both full documents and updatePanel fragments
func labelText(res *resty.Response, controlId string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return ""
	}
	sel := doc.Find(fmt.Sprintf("#%s", controlId))
	if len(sel.Nodes) == 0 {
		return ""
	}
	return htmlutil.CleanText(sel.Nodes[0])
}
