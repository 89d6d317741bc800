package session

import (
	"strconv"
	"time"
)

// User is the server-issued identity snapshot. It is owned by the Store and
// replaced wholesale on every successful backend response, never mutated in
// place. Roles and Permissions are unique sets and are never nil.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          *string    `json:"name"`
	EmailVerified bool       `json:"emailVerified"`
	LastLoginAt   *time.Time `json:"lastLoginAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Roles         []string   `json:"roles"`
	Permissions   []string   `json:"permissions"`
}

// NormalizeUser coerces a loosely-shaped server payload into a valid User.
// It is total: missing or malformed fields fall back to safe defaults so a
// partial payload never breaks the UI. Raw is the decoded JSON object for the
// "user" field.
func NormalizeUser(raw map[string]any) User {
	u := User{
		ID:          coerceString(raw["id"]),
		Email:       coerceString(raw["email"]),
		Roles:       coerceStringSet(raw["roles"]),
		Permissions: coerceStringSet(raw["permissions"]),
	}
	if name, ok := raw["name"].(string); ok {
		u.Name = &name
	}
	if v, ok := raw["emailVerified"].(bool); ok {
		u.EmailVerified = v
	}
	if t, ok := coerceTime(raw["lastLoginAt"]); ok {
		u.LastLoginAt = &t
	}
	if t, ok := coerceTime(raw["createdAt"]); ok {
		u.CreatedAt = t
	}
	if t, ok := coerceTime(raw["updatedAt"]); ok {
		u.UpdatedAt = t
	}
	return u
}

// normalized repairs a User that arrived through persistence rather than
// NormalizeUser, keeping the set invariants after a round-trip through JSON.
func (u User) normalized() User {
	if u.Roles == nil {
		u.Roles = []string{}
	}
	if u.Permissions == nil {
		u.Permissions = []string{}
	}
	return u
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		// JSON numbers; ids sometimes arrive numeric from older backends.
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func coerceStringSet(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func coerceTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
