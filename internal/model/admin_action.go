package model

import "time"

// AdminActionKind names an administrative override.
type AdminActionKind string

const (
    ActionCancelBooking   AdminActionKind = "CANCEL_BOOKING"
    ActionActivateStation AdminActionKind = "ACTIVATE_STATION"
    ActionBlockStation    AdminActionKind = "BLOCK_STATION"
)

// AdminAction is an append-only audit record written whenever an
// administrator cancels a booking or changes a station's status.
type AdminAction struct {
    ID        string          `db:"id" json:"id"`                // admin_actions.id
    UserID    string          `db:"user_id" json:"userId"`       // admin_actions.user_id (actor)
    Action    AdminActionKind `db:"action" json:"action"`        // admin_actions.action
    TargetID  string          `db:"target_id" json:"targetId"`   // admin_actions.target_id
    Reason    string          `db:"reason" json:"reason"`        // admin_actions.reason
    CreatedAt time.Time       `db:"created_at" json:"createdAt"` // admin_actions.created_at
}

// AdminActionView is an audit record joined with its actor.
type AdminActionView struct {
    AdminAction
    ActorName  string `db:"actor_name" json:"actorName"`
    ActorEmail string `db:"actor_email" json:"actorEmail"`
}

// Page describes a slice of a paginated listing.
type Page struct {
    Page  int `json:"page"`
    Limit int `json:"limit"`
    Total int `json:"total"`
    Pages int `json:"pages"`
}

// NewPage computes the page count for total items.
func NewPage(page, limit, total int) Page {
    pages := 0
    if limit > 0 {
        pages = (total + limit - 1) / limit
    }
    return Page{Page: page, Limit: limit, Total: total, Pages: pages}
}
