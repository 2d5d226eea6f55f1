package models

import "time"

type NotificationKind string

const (
	NotificationKindRouteAssigned   NotificationKind = "route_assigned"
	NotificationKindRouteStarted    NotificationKind = "route_started"
	NotificationKindRouteCompleted  NotificationKind = "route_completed"
	NotificationKindDriverOnboarded NotificationKind = "driver_onboarded"
	NotificationKindSafetyIssue     NotificationKind = "safety_issue"
)

type Notification struct {
	ID             string            `json:"id" bson:"_id" firestore:"id"`
	OrganizationID string            `json:"organization_id" bson:"organization_id" firestore:"organization_id"`
	UserID         string            `json:"user_id" bson:"user_id" firestore:"user_id"`
	Kind           NotificationKind  `json:"kind" bson:"kind" firestore:"kind"`
	Title          string            `json:"title" bson:"title" firestore:"title"`
	Body           string            `json:"body" bson:"body" firestore:"body"`
	Data           map[string]string `json:"data,omitempty" bson:"data,omitempty" firestore:"data,omitempty"`
	Read           bool              `json:"read" bson:"read" firestore:"read"`
	CreatedAt      time.Time         `json:"created_at" bson:"created_at" firestore:"created_at"`
}

func (n *Notification) GetID() string   { return n.ID }
func (n *Notification) SetID(id string) { n.ID = id }

// NotificationText returns the title and body shown for a kind. Values in
// data fill the placeholders the kind uses.
func NotificationText(kind NotificationKind, data map[string]string) (string, string) {
	route := data["route_name"]
	if route == "" {
		route = data["route_id"]
	}

	switch kind {
	case NotificationKindRouteAssigned:
		return "New route assigned", "You have been assigned to route " + route + "."
	case NotificationKindRouteStarted:
		return "Route started", "Route " + route + " is on the road."
	case NotificationKindRouteCompleted:
		return "Route completed", "Route " + route + " has been completed."
	case NotificationKindDriverOnboarded:
		return "Welcome aboard", "Your driver profile is ready, " + data["driver_name"] + "."
	case NotificationKindSafetyIssue:
		return "Safety issue reported", "The pre-trip inspection for route " + route + " flagged " + data["issue_count"] + " item(s)."
	default:
		return "Notification", ""
	}
}
