// Package access evaluates cluster access policies.
package access

import "fmt"

// Level is a visibility level for one operation class.
type Level string

// Visibility levels.
const (
	Public        Level = "public"
	Authenticated Level = "authenticated"
	Private       Level = "private"
)

// ParseLevel validates a raw level. Empty input yields Private.
func ParseLevel(raw string) (Level, error) {
	switch l := Level(raw); l {
	case "":
		return Private, nil
	case Public, Authenticated, Private:
		return l, nil
	default:
		return "", fmt.Errorf("access level must be public, authenticated or private, got %q", raw)
	}
}

// Class is the operation class being authorized.
type Class int

// Operation classes.
const (
	Read Class = iota
	Write
)

func (c Class) String() string {
	if c == Write {
		return "write"
	}
	return "read"
}

// ClassForMethod maps an HTTP method to its operation class.
func ClassForMethod(method string) Class {
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return Write
	default:
		return Read
	}
}

// Policy is the access configuration of one cluster.
type Policy struct {
	OwnerID string
	Read    Level
	Write   Level
}

// Request describes who asks for what. An empty Requester is anonymous.
type Request struct {
	Requester string
	Class     Class
	OwnerOnly bool
}

// Decide reports whether the request is allowed under the policy.
// The owner is always allowed. OwnerOnly requests ignore the visibility levels.
func Decide(p Policy, r Request) bool {
	if r.Requester != "" && r.Requester == p.OwnerID {
		return true
	}
	if r.OwnerOnly {
		return false
	}
	level := p.Read
	if r.Class == Write {
		level = p.Write
	}
	switch level {
	case Public:
		return true
	case Authenticated:
		return r.Requester != ""
	default:
		return false
	}
}
