package stockrequest

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusShipped  Status = "shipped"
	StatusReceived Status = "received"
)

// rejected and received are sinks.
var validNext = map[Status]map[Status]bool{
	StatusPending:  {StatusApproved: true, StatusRejected: true},
	StatusApproved: {StatusShipped: true},
	StatusShipped:  {StatusReceived: true},
	StatusRejected: {},
	StatusReceived: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func (s Status) Terminal() bool {
	return s.Valid() && len(validNext[s]) == 0
}
