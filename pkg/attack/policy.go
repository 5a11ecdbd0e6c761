// Package attack drives node-removal simulations. A Driver repeatedly ranks
// the remaining nodes under a Policy, removes the winner and records the
// component structure, until the giant component falls below two nodes.
package attack

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// ErrUnknownPolicy is returned when a policy or centrality name is not recognised.
var ErrUnknownPolicy = errors.New("unknown attack policy")

// Centrality selects the signal used to rank nodes.
type Centrality int

const (
	Betweenness Centrality = iota
	Degree
	Random
)

var centralityNames = [...]string{"betweenness", "degree", "random"}
var centralityAbbrev = [...]string{"Btw", "Deg", "Ran"}

func (c Centrality) String() string {
	if c < 0 || int(c) >= len(centralityNames) {
		return fmt.Sprintf("Centrality(%d)", int(c))
	}
	return centralityNames[c]
}

// ParseCentrality accepts the full name or its three letter abbreviation,
// case-insensitively.
func ParseCentrality(s string) (Centrality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i := range centralityNames {
		if s == centralityNames[i] || s == strings.ToLower(centralityAbbrev[i]) {
			return Centrality(i), nil
		}
	}
	return 0, fmt.Errorf("%w: centrality %q", ErrUnknownPolicy, s)
}

// Policy is a removal rule.
type Policy struct {
	Centrality Centrality
	// FollowGiant restricts candidates to the current giant component.
	FollowGiant bool
	// Update recomputes the ranking after every removal. Without it the
	// ranking is computed once on the initial graph; for Random that means a
	// single seeded shuffle.
	Update bool
}

// Prefix returns the short attack name used in file and directory names,
// e.g. BtwGU, DegU, RanG. Random never carries the U suffix, so update and
// static random attacks share a prefix.
func (p Policy) Prefix() string {
	var b strings.Builder
	b.WriteString(p.abbrev())
	if p.FollowGiant {
		b.WriteByte('G')
	}
	if p.Update && p.Centrality != Random {
		b.WriteByte('U')
	}
	return b.String()
}

func (p Policy) abbrev() string {
	if p.Centrality < 0 || int(p.Centrality) >= len(centralityAbbrev) {
		return "?"
	}
	return centralityAbbrev[p.Centrality]
}

func (p Policy) String() string {
	var flags []string
	if p.FollowGiant {
		flags = append(flags, "follow-giant")
	}
	if p.Update {
		flags = append(flags, "update")
	} else {
		flags = append(flags, "static")
	}
	return fmt.Sprintf("%s(%s)", p.Centrality, strings.Join(flags, ","))
}

// ParsePolicy parses an attack prefix such as BtwGU or Ran. Since the prefix
// cannot tell static from updating random attacks, Ran and RanG parse as
// updating.
func ParsePolicy(prefix string) (Policy, error) {
	if len(prefix) < 3 {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, prefix)
	}
	c, err := ParseCentrality(prefix[:3])
	if err != nil {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, prefix)
	}

	p := Policy{Centrality: c, Update: c == Random}
	rest := prefix[3:]
	if strings.HasPrefix(rest, "G") {
		p.FollowGiant = true
		rest = rest[1:]
	}
	if rest == "U" && c != Random {
		p.Update = true
		rest = ""
	}
	if rest != "" {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, prefix)
	}
	return p, nil
}

// ranker builds the Ranker implementing the policy.
func (p Policy) ranker(rng *rand.Rand) Ranker {
	switch {
	case p.Centrality == Random && p.Update:
		return &randomRanker{rng: rng}
	case p.Centrality == Random:
		return &staticRanker{followGiant: p.FollowGiant, order: shuffleOrder(rng)}
	case p.Update:
		return &updateRanker{centrality: p.Centrality}
	default:
		return &staticRanker{followGiant: p.FollowGiant, order: centralityOrder(p.Centrality)}
	}
}
