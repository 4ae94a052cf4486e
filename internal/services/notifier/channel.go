package notifier

import "github.com/google/uuid"

// ChannelFor returns the broker channel carrying real-time events for one
// user. The publish side and the subscribe side must agree on this name;
// it is the single invariant binding the whole fan-out model.
func ChannelFor(userID uuid.UUID) string {
	return "user:" + userID.String()
}
