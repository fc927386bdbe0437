package commands

import "errors"

var ErrNotCommand = errors.New("not a command")

const (
	ReasonNotCommand        = "not_command"
	ReasonEmptyVerb         = "empty_verb"
	ReasonUnknownVerb       = "unknown_verb"
	ReasonNotModerator      = "not_moderator"
	ReasonMissingPermission = "missing_permission"
	ReasonMissingArgument   = "missing_argument"
	ReasonInvalidTarget     = "invalid_target"
	ReasonTargetOwner       = "target_owner"
	ReasonTargetModerator   = "target_moderator"
	ReasonInvalidLimit      = "invalid_limit"
	ReasonNameLength        = "name_length"
)

// Rejection is returned for a message that must not be forwarded. An empty
// Reply means the message is dropped without answering.
type Rejection struct {
	Verb   string
	Reason string
	Reply  string
	Err    error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return "command rejected: " + r.Reason + ": " + r.Err.Error()
	}
	return "command rejected: " + r.Reason
}

func (r *Rejection) Unwrap() error { return r.Err }

// Silent reports whether the rejection carries no reply.
func (r *Rejection) Silent() bool { return r.Reply == "" }

func drop(reason string) error {
	return &Rejection{Reason: reason}
}

func reject(reason, reply string) error {
	return &Rejection{Reason: reason, Reply: reply}
}
