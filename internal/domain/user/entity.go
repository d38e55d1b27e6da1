package user

// Field limits enforced on every stored user.
const (
	MinAge        = 18
	MaxAge        = 100
	MaxNameLength = 255
)

// User represents a user entity in the system.
type User struct {
	ID    string // ID is assigned by the storage layer on first save
	Name  string // Name is the full name of the user
	Email string // Email is the unique email address of the user
	Age   int    // Age is between MinAge and MaxAge inclusive
}

// IsPersisted reports whether the storage layer has assigned an ID.
func (u User) IsPersisted() bool {
	return u.ID != ""
}
