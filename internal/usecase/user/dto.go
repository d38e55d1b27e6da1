package user

// UserInput carries the client-writable fields of a user for create and update.
// Age is a pointer so that a missing value can be told apart from zero.
type UserInput struct {
	Name  string
	Email string
	Age   *int
}
