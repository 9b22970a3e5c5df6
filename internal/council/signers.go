package council

import (
	"encoding/json"
	"errors"
	"maps"
	"slices"

	"council-delegation/internal/ledger"

	"github.com/moznion/go-optional"
)

// ErrEmptyCouncil is returned when planning against an empty desired signer
// set; applying such a plan would leave the account without signers.
var ErrEmptyCouncil = errors.New("desired signer set is empty")

// Action is the kind of signer change.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionRemove Action = "remove"
)

// SignerChange sets one signer key from OldWeight to NewWeight.
type SignerChange struct {
	Key       string `json:"key"`
	Action    Action `json:"action"`
	OldWeight int32  `json:"old_weight"`
	NewWeight int32  `json:"new_weight"`
}

// ThresholdChange moves the account thresholds from Old to New.
type ThresholdChange struct {
	Old ledger.Thresholds `json:"old"`
	New ledger.Thresholds `json:"new"`
}

// Plan is the change set that brings one account to the desired signers.
type Plan struct {
	Account string
	Signers []SignerChange
	// Thresholds is set when med or high differ from the target.
	Thresholds optional.Option[ThresholdChange]
	// MasterKey holds the current master key weight when it must be zeroed.
	MasterKey optional.Option[int32]
}

// Empty reports whether the account already matches the desired state.
func (p Plan) Empty() bool {
	return len(p.Signers) == 0 && p.Thresholds.IsNone() && p.MasterKey.IsNone()
}

type planJSON struct {
	Account    string           `json:"account"`
	Signers    []SignerChange   `json:"signers"`
	Thresholds *ThresholdChange `json:"thresholds,omitempty"`
	MasterKey  *int32           `json:"master_key_weight,omitempty"`
}

// MarshalJSON omits absent threshold and master key changes.
func (p Plan) MarshalJSON() ([]byte, error) {
	out := planJSON{Account: p.Account, Signers: p.Signers}
	if out.Signers == nil {
		out.Signers = []SignerChange{}
	}
	if t, err := p.Thresholds.Take(); err == nil {
		out.Thresholds = &t
	}
	if w, err := p.MasterKey.Take(); err == nil {
		out.MasterKey = &w
	}
	return json.Marshal(out)
}

// PlanSigners compares the desired signer weights and threshold with the
// observed account. Additions and updates come first, then removals, each
// sorted by key. The account's own key is handled only through MasterKey:
// it is never added as an ordinary signer, and a nonzero master weight is
// always zeroed so it cannot bypass the quorum. Low threshold is left as is.
func PlanSigners(current ledger.Account, desired map[string]uint8, threshold uint8) (Plan, error) {
	if len(desired) == 0 {
		return Plan{}, ErrEmptyCouncil
	}
	plan := Plan{Account: current.ID}

	currentWeights := make(map[string]int32, len(current.Signers))
	for _, s := range current.Signers {
		if s.Key != current.ID {
			currentWeights[s.Key] = s.Weight
		}
	}

	for _, key := range slices.Sorted(maps.Keys(desired)) {
		if key == current.ID {
			continue
		}
		want := int32(desired[key])
		have, ok := currentWeights[key]
		switch {
		case !ok || have == 0:
			plan.Signers = append(plan.Signers, SignerChange{Key: key, Action: ActionAdd, OldWeight: 0, NewWeight: want})
		case have != want:
			plan.Signers = append(plan.Signers, SignerChange{Key: key, Action: ActionUpdate, OldWeight: have, NewWeight: want})
		}
	}
	for _, key := range slices.Sorted(maps.Keys(currentWeights)) {
		if _, ok := desired[key]; ok || currentWeights[key] == 0 {
			continue
		}
		plan.Signers = append(plan.Signers, SignerChange{Key: key, Action: ActionRemove, OldWeight: currentWeights[key], NewWeight: 0})
	}

	if current.Thresholds.Med != threshold || current.Thresholds.High != threshold {
		plan.Thresholds = optional.Some(ThresholdChange{
			Old: current.Thresholds,
			New: ledger.Thresholds{Low: current.Thresholds.Low, Med: threshold, High: threshold},
		})
	}
	if current.MasterWeight != 0 {
		plan.MasterKey = optional.Some(current.MasterWeight)
	}
	return plan, nil
}
