package nemis

// The portal reports outcomes as free-text messages inside the
// re-rendered page, so outcome detection is substring matching over
// normalized text. The catalogs live here as data, not code: the
// portal's wording has drifted between captures and a re-derivation
// from the live portal should only ever touch this file.
//
// all entries are lowercase with single spaces, the matcher normalizes
// the page text the same way before comparing.

// conflicts the portal explicitly allows overriding by resubmitting
// with the ignore flag set. specific wordings first, the generic
// prompt fragments are a catch-all for variants not seen yet
var ignorableConflictPhrases = []string{
	"duplicate birth certificate",
	"duplicate index number",
	"learner with similar details already exists",
	"do you want to ignore",
	"ignore and proceed",
}

// recognized hard rejections, mapped to ErrBusiness
var businessErrorPhrases = []string{
	"already admitted",
	"already captured",
	"already placed",
	"vacancies exhausted",
	"no vacancies",
	"admission is closed",
	"transfers are closed",
	"no learner found",
	"learner not found",
	"invalid index number",
	"invalid upi",
	"not selected to this institution",
}

// positive confirmations, anything else sound-but-unmatched becomes
// ErrUnknown with a snippet
var successPhrases = []string{
	"saved successfully",
	"captured successfully",
	"admitted successfully",
	"submitted successfully",
	"transferred successfully",
	"request placed successfully",
	"record updated",
}
