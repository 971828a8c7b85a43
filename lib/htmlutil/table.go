package htmlutil

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrExtraction wraps everything that can go wrong while turning a
// markup table into rows. callers treat it as fatal for the current
// call, the markup cannot be trusted.
type ErrExtraction struct {
	Reason string
}

func (e ErrExtraction) Error() string {
	return fmt.Sprintf("table extraction: %s", e.Reason)
}

// TableRow is an insertion-ordered header to cell-text mapping for one
// data row, plus the action identifier derived for actionable rows.
type TableRow struct {
	headers []string
	cells   map[string]string

	// the zero-padded grid control sequence ("03", "04", ...) that
	// addresses this row's action element in a postback. empty when
	// inference was not requested.
	ActionId string
}

func (r TableRow) Headers() []string {
	return r.headers
}

// Get looks up a cell by header, case-insensitively.
func (r TableRow) Get(header string) string {
	return r.cells[strings.ToLower(strings.TrimSpace(header))]
}

func (r TableRow) Has(header string) bool {
	_, ok := r.cells[strings.ToLower(strings.TrimSpace(header))]
	return ok
}

// NormalizeRules controls per-column cell cleanup. trimming and
// non-breaking-space filler removal always happen.
type NormalizeRules struct {
	// columns (by lowercased header) whose cell text is lowercased
	CaseFoldColumns []string
	// when true, locate the grid anchor id on the first data row and
	// assign consecutive sequence numbers to every row. extraction
	// fails if no anchor id can be found.
	InferActionIds bool
}

func (r NormalizeRules) caseFolds(header string) bool {
	for _, c := range r.CaseFoldColumns {
		if c == header {
			return true
		}
	}
	return false
}

// the portal only emits a usable control id on the first data row's
// action anchor, e.g. id="ctl00_ContentPlaceHolder1_grdLearners_ctl03_BtnView"
var gridAnchorIdRegex = regexp.MustCompile(`_ctl(\d+)_`)

// ExtractTable converts a <table> selection into ordered rows keyed by
// column header. parsing the same fragment twice yields identical,
// identically-ordered results.
func ExtractTable(ctx context.Context, table *goquery.Selection, rules NormalizeRules) ([]TableRow, error) {
	ctx, span := tracer.Start(ctx, "ExtractTable")
	defer span.End()

	if len(table.Nodes) == 0 {
		err := ErrExtraction{Reason: "no table found in fragment"}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var headers []string
	table.Find("tr").First().Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.ToLower(CleanText(th.Nodes[0])))
	})
	if len(headers) == 0 {
		// some grids render headers as a plain first row of cells
		table.Find("tr").First().Find("td").Each(func(_ int, td *goquery.Selection) {
			headers = append(headers, strings.ToLower(CleanText(td.Nodes[0])))
		})
	}
	if len(headers) == 0 {
		err := ErrExtraction{Reason: "table has no header row"}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.StringSlice("headers", headers))

	var rows []TableRow
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := tr.Find("td")
		if len(cells.Nodes) == 0 {
			return
		}

		row := TableRow{
			headers: headers,
			cells:   map[string]string{},
		}
		cells.Each(func(j int, td *goquery.Selection) {
			if j >= len(headers) {
				return
			}
			value := CleanText(td.Nodes[0])
			if rules.caseFolds(headers[j]) {
				value = strings.ToLower(value)
			}
			row.cells[headers[j]] = value
		})
		rows = append(rows, row)
	})

	if rules.InferActionIds {
		err := inferActionIds(rows, table)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to infer row action ids")
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("rows", len(rows)))
	return rows, nil
}

// the grid omits anchor ids on every data row but the first, so the
// remaining identifiers are reconstructed positionally from that one
// known value. guessing without the anchor would address the wrong
// rows, so its absence is an error.
func inferActionIds(rows []TableRow, table *goquery.Selection) error {
	if len(rows) == 0 {
		return nil
	}

	anchorId := ""
	table.Find("tr a[id], tr input[id]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		id := a.AttrOr("id", "")
		if gridAnchorIdRegex.MatchString(id) {
			anchorId = id
			return false
		}
		return true
	})
	if anchorId == "" {
		return ErrExtraction{Reason: "no grid anchor id present on any row"}
	}

	groups := gridAnchorIdRegex.FindStringSubmatch(anchorId)
	first, err := strconv.Atoi(groups[1])
	if err != nil {
		return ErrExtraction{Reason: fmt.Sprintf("unparsable grid anchor sequence in %q", anchorId)}
	}
	width := len(groups[1])

	for i := range rows {
		rows[i].ActionId = fmt.Sprintf("%0*d", width, first+i)
	}
	return nil
}
