package domain

import "time"

const (
	RoleEmployer = "employer"
	RoleWorker   = "worker"
)

// ValidRole reports whether role is one of the two marketplace roles.
func ValidRole(role string) bool {
	return role == RoleEmployer || role == RoleWorker
}

// Degree is a single academic title inside a CV.
type Degree struct {
	Title       string `json:"title" bson:"title"`
	Institution string `json:"institution" bson:"institution"`
	Year        int    `json:"year,omitempty" bson:"year,omitempty"`
}

// Experience is a single work-history entry inside a CV.
type Experience struct {
	Title       string `json:"title" bson:"title"`
	Company     string `json:"company" bson:"company"`
	From        string `json:"from,omitempty" bson:"from,omitempty"`
	To          string `json:"to,omitempty" bson:"to,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// CV is the optional curriculum substructure of a worker profile.
type CV struct {
	Summary        string       `json:"summary,omitempty" bson:"summary,omitempty"`
	Skills         []string     `json:"skills,omitempty" bson:"skills,omitempty"`
	Certifications []string     `json:"certifications,omitempty" bson:"certifications,omitempty"`
	Degrees        []Degree     `json:"degrees,omitempty" bson:"degrees,omitempty"`
	Experiences    []Experience `json:"experiences,omitempty" bson:"experiences,omitempty"`
}

// Profile is the signed-in user's marketplace identity. It is created at
// onboarding and never deleted by the sync engine; the engine only reads and
// subscribes to it.
type Profile struct {
	ID        string    `json:"id" bson:"_id"`
	Role      string    `json:"role" bson:"role"`
	Name      string    `json:"name" bson:"name"`
	Surname   string    `json:"surname" bson:"surname"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	City      string    `json:"city,omitempty" bson:"city,omitempty"`
	CV        *CV       `json:"cv,omitempty" bson:"cv,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
