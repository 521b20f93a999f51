package user

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// ReadLines returns the trimmed, non-empty lines of path that do not start
// with '#'. A missing file is reported as an error wrapping os.ErrNotExist.
func ReadLines(fs afero.Fs, path string) ([]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return parseLines(data)
}

func parseLines(data []byte) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning lines: %w", err)
	}
	return lines, nil
}

// ReadRoster reads participant names from the roster file.
func ReadRoster(fs afero.Fs, path string) ([]string, error) {
	names, err := ReadLines(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRosterNotFound, path)
		}
		return nil, fmt.Errorf("reading roster: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRosterEmpty, path)
	}
	return names, nil
}

// ReadAdminPassword reads the shared admin password, trimmed.
func ReadAdminPassword(fs afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrAdminPasswordNotFound, path)
		}
		return "", fmt.Errorf("reading admin password: %w", err)
	}
	pw := strings.TrimSpace(string(data))
	if pw == "" {
		return "", fmt.Errorf("%w: %s", ErrAdminPasswordEmpty, path)
	}
	return pw, nil
}
