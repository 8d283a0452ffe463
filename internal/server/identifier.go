package server

import (
	"fmt"
	"regexp"
)

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// maxIdentifierLen is PostgreSQL's NAMEDATALEN - 1
const maxIdentifierLen = 63

// ValidateIdentifier checks that name is a plain, unquoted SQL identifier
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("schema name is required")
	}
	if len(name) > maxIdentifierLen {
		return fmt.Errorf("schema name must be at most %d characters", maxIdentifierLen)
	}
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("schema name must match [a-zA-Z_][a-zA-Z0-9_]*")
	}
	return nil
}
