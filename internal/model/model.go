package model

// User is a registered caller. PasswordHash is a bcrypt digest and never
// leaves the server.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Post is a blog entry. The id is issued by the postid counter and serialized
// as "_id" to match the store's primary-key convention.
type Post struct {
	ID      int64  `json:"_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Counter is a named monotonic sequence. Exactly one row exists per name.
type Counter struct {
	Name string
	Seq  int64
}
