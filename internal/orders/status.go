package orders

// Status is shared by products and orders. Buyer-side orders use
// pending/delivered, seller-side listings and orders use active/sold.
// The two vocabularies do not map onto each other.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"

	StatusActive Status = "active"
	StatusSold   Status = "sold"
)

var (
	BuyerStatuses  = []Status{StatusPending, StatusDelivered}
	SellerStatuses = []Status{StatusActive, StatusSold}
)

func (s Status) IsBuyer() bool  { return s == StatusPending || s == StatusDelivered }
func (s Status) IsSeller() bool { return s == StatusActive || s == StatusSold }

// ParseStatus accepts any status from either vocabulary.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	if st.IsBuyer() || st.IsSeller() {
		return st, true
	}
	return "", false
}
