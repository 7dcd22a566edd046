package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/shlex"
)

var ErrMalformedLine = errors.New("malformed command line")

// Request is one chat command, already attributed to a conversation and a user.
type Request struct {
	ConversationID string
	UserID         string
	UserName       string
	Command        string
	Args           []string
}

// ParseLine splits `<conversation> <user> <name> <command> [args...]` with shell quoting,
// so display names may contain spaces when quoted. A leading "!" on the command is dropped.
func ParseLine(line string) (Request, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}

	if len(fields) < 4 {
		return Request{}, fmt.Errorf("%w: want at least 4 fields, got %d", ErrMalformedLine, len(fields))
	}

	return Request{
		ConversationID: fields[0],
		UserID:         fields[1],
		UserName:       fields[2],
		Command:        strings.ToLower(strings.TrimPrefix(fields[3], "!")),
		Args:           fields[4:],
	}, nil
}
