// Package delegation resolves council delegation pointers into trees of
// token-weighted voting power.
package delegation

import (
	"encoding/base64"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/stellar/go/strkey"
)

// PointerKind classifies a delegation data entry.
type PointerKind int

const (
	PointerNone   PointerKind = iota // no delegation, potential root
	PointerTarget                    // delegates to another account
	PointerReady                     // volunteers for the council, terminal
)

func (k PointerKind) String() string {
	switch k {
	case PointerTarget:
		return "target"
	case PointerReady:
		return "ready"
	default:
		return "none"
	}
}

// Pointer is a parsed delegation data entry.
type Pointer struct {
	Kind   PointerKind
	Target string // set for PointerTarget only
}

// ParsePointer decodes the raw base64 data entry value of account self.
// Self references, undecodable values and anything that is neither an
// account id nor the ready sentinel collapse to PointerNone.
func ParsePointer(self, raw, readyValue string) Pointer {
	if raw == "" {
		return Pointer{}
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return Pointer{}
	}
	v := strings.TrimSpace(string(b))
	switch {
	case readyValue != "" && strings.EqualFold(v, readyValue):
		return Pointer{Kind: PointerReady}
	case v == self:
		return Pointer{}
	case strkey.IsValidEd25519PublicKey(v):
		return Pointer{Kind: PointerTarget, Target: v}
	default:
		return Pointer{}
	}
}

// AccountRecord is the per-run state of one member.
type AccountRecord struct {
	ID        string
	OwnAmount uint64 // voting token balance, whole units
	Pointer   Pointer

	// DelegateTo is the resolved outgoing edge; None for roots and for
	// accounts whose target could not be fetched.
	DelegateTo    optional.Option[string]
	DelegatedFrom []string

	Ready      bool
	Verified   bool
	Broken     bool // member of a delegation cycle
	Incomplete bool // target could not be fetched, chain stops here
}

// IsRoot reports whether the account anchors a non-broken tree.
func (r *AccountRecord) IsRoot() bool {
	return !r.Broken && r.DelegateTo.IsNone()
}
