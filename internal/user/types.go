// Package user derives workshop usernames from participant names and
// generates the credential artifacts consumed by the Hub.
package user

// DefaultPasswordLength is the length of generated participant passwords.
const DefaultPasswordLength = 16

// FallbackUsername is used when a name yields no usable characters.
const FallbackUsername = "user"

// Output file names written by the Generator.
const (
	UsersFileName     = "users.csv"
	AllowlistFileName = "allowlist.txt"
	AdminsFileName    = "admins.txt"
	LockFileName      = ".hubkit.lock"
)

// backupLayout is the timestamp layout of users-YYYYMMDD-HHMMSS.csv backups.
const backupLayout = "20060102-150405"

// Credential is one row of the credential table.
type Credential struct {
	// Name is the display name.
	Name string `json:"name"`

	// Username is the allocated login name, unique within a run.
	Username string `json:"username"`

	// Password is the shared admin password or a fresh random one.
	Password string `json:"password"`

	// Admin reports whether the user is granted Hub admin rights.
	Admin bool `json:"is_admin"`
}

// Result summarizes a generation run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	// Credentials holds one record per entry, admins first.
	Credentials []Credential

	// Files lists every path written, in write order.
	Files []string
}

// Usernames returns the usernames of creds in order.
func Usernames(creds []Credential) []string {
	out := make([]string, 0, len(creds))
	for _, c := range creds {
		out = append(out, c.Username)
	}
	return out
}
