package audit

import "time"

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers changes to doctor records.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers sign-in and sign-out activity.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine reads worth tracing.
	CategoryOperations EventCategory = "operations"
)

// Action names an audited admin action.
type Action string

const (
	ActionLoginSucceeded Action = "login_succeeded"
	ActionLoginFailed    Action = "login_failed"
	ActionLogout         Action = "logout"
	ActionDoctorCreated  Action = "doctor_created"
	ActionDoctorVerified Action = "doctor_verified"
	ActionDoctorUpdated  Action = "doctor_updated"
	ActionDoctorDeleted  Action = "doctor_deleted"
	ActionRegistryLookup Action = "registry_lookup"
)

var actionCategories = map[Action]EventCategory{
	ActionLoginSucceeded: CategorySecurity,
	ActionLoginFailed:    CategorySecurity,
	ActionLogout:         CategorySecurity,
	ActionDoctorCreated:  CategoryCompliance,
	ActionDoctorVerified: CategoryCompliance,
	ActionDoctorUpdated:  CategoryCompliance,
	ActionDoctorDeleted:  CategoryCompliance,
	ActionRegistryLookup: CategoryOperations,
}

// Category returns the category for this action.
// Unknown actions default to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Category   EventCategory `json:"category"`
	Action     Action        `json:"action"`
	Timestamp  time.Time     `json:"timestamp"`
	ActorID    string        `json:"actorId,omitempty"`
	ActorEmail string        `json:"actorEmail,omitempty"`
	// Subject is the doctor id or registration number acted on.
	Subject   string `json:"subject,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	ClientIP  string `json:"clientIp,omitempty"`
	Device    string `json:"device,omitempty"`
}
