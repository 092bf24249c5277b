package session

// User is the identity record persisted under the user key. Role and
// Permissions feed the permission evaluator; Attributes carries opaque
// profile fields the UI displays.
type User struct {
	ID          string            `json:"id"`
	Role        string            `json:"role"`
	Name        string            `json:"name,omitempty"`
	Email       string            `json:"email,omitempty"`
	Permissions []string          `json:"permissions,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Clone returns a deep copy of u. Clone of nil is nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Permissions != nil {
		out.Permissions = append([]string(nil), u.Permissions...)
	}
	if u.Attributes != nil {
		out.Attributes = make(map[string]string, len(u.Attributes))
		for k, v := range u.Attributes {
			out.Attributes[k] = v
		}
	}
	return &out
}

// Record is the persisted triple. An empty token string means absent.
type Record struct {
	User         *User
	AccessToken  string
	RefreshToken string
}

// Complete reports whether the record can back an authenticated session.
func (r Record) Complete() bool {
	return r.User != nil && r.AccessToken != ""
}
