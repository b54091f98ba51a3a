package orders

type Status string

const (
	StatusPending   Status = "pending"
	StatusInProcess Status = "in_process"
	StatusPaid      Status = "paid"
	StatusRejected  Status = "rejected"
	StatusError     Status = "error"
)

// Manual status changes allowed through the order API. Paid and rejected come only
// from the gateway, so checkout writes them directly.
var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusInProcess: true, StatusError: true},
	StatusInProcess: {StatusPending: true, StatusError: true},
	StatusRejected:  {StatusPending: true},
	StatusError:     {StatusPending: true},
	StatusPaid:      {},
}

func CanTransition(from, to Status) bool {
	return from == to || validNext[from][to]
}

// Final reports whether the order is settled.
func (s Status) Final() bool { return s == StatusPaid }

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Session status values stored in Order.PaymentStatus besides the raw gateway status.
const (
	SessionPreparing     = "PREPARING"
	SessionInitiated     = "INITIATED"
	SessionResumed       = "RESUMED"
	SessionExpired       = "EXPIRED"
	SessionErrorToken    = "ERROR_TOKEN"
	SessionErrorCreation = "ERROR_CREATION"
	SessionRejected      = "REJECTED"
	SessionError         = "ERROR"
)
