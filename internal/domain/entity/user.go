package entity

import "time"

// User is owned by the auth/profile service; this subsystem only reads it,
// except for LastSeen which is persisted when a connection drops.
type User struct {
	ID         string    `json:"id" firestore:"id"`
	Email      string    `json:"email" firestore:"email"`
	FullName   string    `json:"full_name" firestore:"fullName"`
	ProfilePic string    `json:"profile_pic,omitempty" firestore:"profilePic,omitempty"`
	LastSeen   time.Time `json:"last_seen" firestore:"lastSeen"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt  time.Time `json:"updated_at" firestore:"updatedAt"`
}
