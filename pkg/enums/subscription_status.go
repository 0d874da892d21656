package enums

// SubscriptionStatus is where a subscription record sits in its lifecycle.
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
)

var subscriptionStatuses = set[SubscriptionStatus]{
	SubscriptionStatusTrialing,
	SubscriptionStatusActive,
	SubscriptionStatusPastDue,
	SubscriptionStatusCanceled,
	SubscriptionStatusExpired,
}

// CurrentSubscriptionStatuses make a record the user's current one; at most
// one such row may exist per user.
var CurrentSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusTrialing,
	SubscriptionStatusPastDue,
}

func (s SubscriptionStatus) String() string { return string(s) }
func (s SubscriptionStatus) IsValid() bool  { return subscriptionStatuses.has(s) }
