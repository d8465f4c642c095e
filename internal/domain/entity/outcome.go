package entity

// DeliveryOutcome is how a single processing attempt of a message ended.
type DeliveryOutcome string

const (
	OutcomeDelivered              DeliveryOutcome = "delivered"
	OutcomeSuppressedPushDisabled DeliveryOutcome = "suppressed_push_disabled"
	OutcomeSuppressedQuietHours   DeliveryOutcome = "suppressed_quiet_hours"
	OutcomeNoDevices              DeliveryOutcome = "no_devices"
	OutcomeFailed                 DeliveryOutcome = "failed"
)

// Completed reports whether the message needs no further attempts.
// Suppression and the absence of devices count as completion.
func (o DeliveryOutcome) Completed() bool {
	return o != OutcomeFailed && o != ""
}
