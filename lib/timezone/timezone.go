package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Africa/Nairobi")
	if err != nil {
		panic(err)
	}
}

// force timezone to be EAT because the portal renders and validates
// dates in Nairobi time regardless of where our servers end up, which
// matters when building dates from <time.Time>.Year()/Month()/Day()
func Now() time.Time {
	return time.Now().In(Location)
}
