package board

// Item is a single todo entry as exchanged with the remote service.
type Item struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	UserID int    `json:"user_id"`
	ListID int    `json:"todolist_id"`
	Column Column `json:"column"`
	// LastUpdated is a human readable local timestamp. It is display data only and must not be
	// parsed or used for ordering.
	LastUpdated string `json:"lastUpdated"`
	Creator     string `json:"creator"`
}

// List groups items. Items are always added to the user's last used list.
type List struct {
	ID     int    `json:"id"`
	UserID int    `json:"user_id"`
	Slug   string `json:"slug,omitempty"`
}

// User is the single identity active per running instance.
type User struct {
	ID                 int    `json:"id"`
	Username           string `json:"username"`
	LastUsedTodolistID int    `json:"lastUsedTodolistId"`
}

// Valid reports whether u identifies a remote user.
func (u *User) Valid() bool {
	return u != nil && u.ID != 0
}

// TimestampLayout is the local display format used for LastUpdated values.
const TimestampLayout = "1/2/2006, 3:04:05 PM"
