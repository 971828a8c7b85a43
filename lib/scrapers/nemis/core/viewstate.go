package core

import (
	"bytes"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ViewState is the hidden token set the portal requires on every
// postback to reconstruct server-side page state. The values are
// opaque, we only shuttle them between responses and the next
// submission. Stale tokens make the server reject the postback.
type ViewState struct {
	State         string // __VIEWSTATE
	Generator     string // __VIEWSTATEGENERATOR
	Validation    string // __EVENTVALIDATION
	EventTarget   string // __EVENTTARGET
	EventArgument string // __EVENTARGUMENT
	LastFocus     string // __LASTFOCUS
}

// Form renders the token set as the hidden fields of the next
// outbound postback.
func (v ViewState) Form() url.Values {
	fields := url.Values{}
	fields.Set("__VIEWSTATE", v.State)
	fields.Set("__VIEWSTATEGENERATOR", v.Generator)
	fields.Set("__EVENTVALIDATION", v.Validation)
	fields.Set("__EVENTTARGET", v.EventTarget)
	fields.Set("__EVENTARGUMENT", v.EventArgument)
	fields.Set("__LASTFOCUS", v.LastFocus)
	return fields
}

// AbsorbViewState parses the hidden token set out of a response body
// and overwrites the session's current set. Full documents are read
// through the markup, partial AJAX responses through the pipe-delimited
// delta format. Failing to find the primary state token is fatal for
// the calling operation, any further postback would carry stale state.
// Callers hold the session lock, there is never more than one writer.
func AbsorbViewState(s *Session, body []byte) error {
	fields := viewStateFromDocument(body)
	if fields["__VIEWSTATE"] == "" {
		fields = viewStateFromDelta(string(body))
	}
	if fields["__VIEWSTATE"] == "" {
		return ErrProtocol{Reason: "no __VIEWSTATE token in response body"}
	}

	s.ViewState = ViewState{
		State:         fields["__VIEWSTATE"],
		Generator:     fields["__VIEWSTATEGENERATOR"],
		Validation:    fields["__EVENTVALIDATION"],
		EventTarget:   fields["__EVENTTARGET"],
		EventArgument: fields["__EVENTARGUMENT"],
		LastFocus:     fields["__LASTFOCUS"],
	}
	return nil
}

func viewStateFromDocument(body []byte) map[string]string {
	fields := map[string]string{}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return fields
	}
	doc.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if strings.HasPrefix(name, "__") {
			fields[name] = input.AttrOr("value", "")
		}
	})
	return fields
}

// partial postback responses use the MS AJAX delta format, a flat
// sequence of `length|type|id|content|` entries. token updates arrive
// as `hiddenField` entries. content may itself contain pipes, hence
// the length prefix.
func viewStateFromDelta(body string) map[string]string {
	fields := map[string]string{}
	rest := body
	for {
		parts := strings.SplitN(rest, "|", 4)
		if len(parts) < 4 {
			return fields
		}
		length, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || length < 0 || len(parts[3]) < length {
			return fields
		}

		kind := parts[1]
		id := parts[2]
		content := parts[3][:length]
		if kind == "hiddenField" && strings.HasPrefix(id, "__") {
			fields[id] = content
		}

		rest = parts[3][length:]
		// each entry is terminated by a pipe
		rest = strings.TrimPrefix(rest, "|")
		if rest == "" {
			return fields
		}
	}
}
