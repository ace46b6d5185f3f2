package bars

import "fmt"

// ResolutionSpec is the (template, default limit) pair the query planner renders a URL
// from. The Fetcher and FrameAssembler downstream are resolution-agnostic; only the
// planner consults this table.
type ResolutionSpec struct {
	PathSegment  string // e.g. "1/minute"
	DefaultLimit int
}

// resolutionTable is the dynamic-dispatch registry named in the design notes: adding a
// resolution is one row here plus one entry in the Resolution enum.
var resolutionTable = map[Resolution]ResolutionSpec{
	Minute: {PathSegment: "1/minute", DefaultLimit: 5000},
	Day:    {PathSegment: "1/day", DefaultLimit: 5000},
	Week:   {PathSegment: "1/week", DefaultLimit: 5000},
	Month:  {PathSegment: "1/month", DefaultLimit: 5000},
}

// SpecFor looks up a resolution's template parameters.
func SpecFor(r Resolution) (ResolutionSpec, error) {
	spec, ok := resolutionTable[r]
	if !ok {
		return ResolutionSpec{}, fmt.Errorf("bars: no template registered for resolution %q", r)
	}
	return spec, nil
}
