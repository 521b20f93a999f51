package user

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// credentialHeader is the header row of users.csv.
var credentialHeader = []string{"name", "username", "password", "is_admin"}

func writeCredentialTable(fs afero.Fs, path string, creds []Credential) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(credentialHeader); err != nil {
		return fmt.Errorf("encoding credential header: %w", err)
	}
	for _, c := range creds {
		if err := w.Write([]string{c.Name, c.Username, c.Password, strconv.FormatBool(c.Admin)}); err != nil {
			return fmt.Errorf("encoding credential row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding credential table: %w", err)
	}

	// Passwords inside.
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// SortedUnique returns the sorted distinct values of names.
func SortedUnique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func writeUserList(fs afero.Fs, path string, users []string) error {
	data := strings.Join(SortedUnique(users), "\n") + "\n"
	if err := afero.WriteFile(fs, path, []byte(data), 0644); err != nil { //nolint:gosec // G306: usernames are not secret
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadCredentialTable parses a users.csv written by the Generator.
func ReadCredentialTable(fs afero.Fs, path string) ([]Credential, error) {
	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("credential table not found: %s", path)
		}
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var creds []Credential
	for i, rec := range records[1:] {
		if len(rec) != len(credentialHeader) {
			return nil, fmt.Errorf("%s: row %d has %d fields, want %d", path, i+2, len(rec), len(credentialHeader))
		}
		admin, err := strconv.ParseBool(rec[3])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: is_admin: %w", path, i+2, err)
		}
		creds = append(creds, Credential{Name: rec[0], Username: rec[1], Password: rec[2], Admin: admin})
	}
	return creds, nil
}
