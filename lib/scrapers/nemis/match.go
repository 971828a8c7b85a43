package nemis

import (
	"context"

	"nemis-backend/lib/scrapers/nemis/core"
	"nemis-backend/lib/textutil"

	"github.com/antzucaro/matchr"
)

// names on the portal rarely match paper records exactly (ordering,
// spacing, the odd typo), so name lookups go through a similarity
// ranking instead of equality
const minNameCorrelation = 0.84

// FindLearnerByName lists the grade and returns the learner whose name
// best matches, with its Jaro-Winkler correlation. A best match below
// the threshold is reported as the portal not knowing the learner.
func (c *Client) FindLearnerByName(ctx context.Context, grade, name string) (Learner, float64, error) {
	learners, err := c.ListLearners(ctx, ListLearnersRequest{Grade: grade})
	if err != nil {
		return Learner{}, 0, err
	}

	target := textutil.NormalizeName(name)

	var best Learner
	var bestCorrelation float64
	for _, l := range learners {
		correlation := matchr.JaroWinkler(target, textutil.NormalizeName(l.Name), false)
		if correlation > bestCorrelation {
			bestCorrelation = correlation
			best = l
		}
	}

	if bestCorrelation < minNameCorrelation {
		return Learner{}, bestCorrelation, core.ErrBusiness{
			Phrase:  "learner not found",
			Message: "no listed learner matches the requested name",
		}
	}
	return best, bestCorrelation, nil
}
