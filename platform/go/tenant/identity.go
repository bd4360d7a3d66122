package tenant

// ID is an opaque, validated tenant identifier. It is immutable once
// resolved for a request and is the only value ever bound to the database
// session variable that RLS policies compare against.
type ID string

const maxIDLength = 64

// Parse validates a candidate tenant identifier against the identifier
// grammar: ASCII letters, digits, hyphen, underscore, 1-64 characters.
// UUID strings satisfy the grammar. A candidate that fails validation is
// reported as absent rather than as an error; a malformed value must never
// resolve to a real tenant.
func Parse(candidate string) (ID, bool) {
	if candidate == "" || len(candidate) > maxIDLength {
		return "", false
	}
	for i := 0; i < len(candidate); i++ {
		c := candidate[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return "", false
		}
	}
	return ID(candidate), true
}

func (id ID) String() string {
	return string(id)
}
