package nemis

import (
	"strings"

	"nemis-backend/lib/scrapers/nemis/core"
	"nemis-backend/lib/textutil"
)

// classifyBusiness inspects a structurally-sound response body for the
// portal's free-text outcome messages. order matters: an ignorable
// conflict is not a failure here, the operation layer resolves it with
// a single resubmission first.
func classifyBusiness(body string) error {
	if _, ok := textutil.FindPhrase(body, ignorableConflictPhrases); ok {
		return nil
	}
	if phrase, ok := textutil.FindPhrase(body, businessErrorPhrases); ok {
		return core.ErrBusiness{
			Phrase:  phrase,
			Message: messageText(body),
		}
	}
	return nil
}

func isIgnorableConflict(body string) (string, bool) {
	return textutil.FindPhrase(body, ignorableConflictPhrases)
}

func isSuccess(body string) bool {
	return textutil.MatchPhrase(body, successPhrases)
}

// messageText pulls a short human-readable slice out of the response
// for error reporting, raw markup and all if need be
func messageText(body string) string {
	text := strings.Trim(body, " \t\n")
	if len(text) > 240 {
		text = text[:240] + "..."
	}
	return text
}
