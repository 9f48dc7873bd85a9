package entity

// FetchCategory is the unit of fetch deduplication: at most one request per
// category may be in flight.
type FetchCategory int

const (
	CategoryOverview FetchCategory = iota
	CategoryCoin
	CategorySearch
)

func (c FetchCategory) String() string {
	switch c {
	case CategoryOverview:
		return "overview"
	case CategoryCoin:
		return "coin"
	case CategorySearch:
		return "search"
	default:
		return "unknown"
	}
}

// FetchState is the lifecycle of a category's fetch slot.
type FetchState int

const (
	FetchIdle FetchState = iota
	FetchPending
	FetchApplying
	FetchFailed
)

func (s FetchState) String() string {
	switch s {
	case FetchIdle:
		return "idle"
	case FetchPending:
		return "pending"
	case FetchApplying:
		return "applying"
	case FetchFailed:
		return "failed"
	default:
		return "unknown"
	}
}
