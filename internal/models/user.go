package models

// Identity is the resolved user behind a connection.
type Identity struct {
	ID       string `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Avatar   string `db:"avatar" json:"avatar"`
}
