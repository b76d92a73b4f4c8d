// Package astro holds the closed set of celestial bodies the service computes
// positions for, along with the shared angular and calendrical helpers used by
// the compute and serving layers.
package astro

import (
	"strings"

	"github.com/pkg/errors"
)

// Body identifies one of the celestial bodies supported by the service.
type Body string

const (
	Sun      Body = "Sun"
	Moon     Body = "Moon"
	Mercury  Body = "Mercury"
	Venus    Body = "Venus"
	Mars     Body = "Mars"
	Jupiter  Body = "Jupiter"
	Saturn   Body = "Saturn"
	Uranus   Body = "Uranus"
	Neptune  Body = "Neptune"
	Pluto    Body = "Pluto"
	TrueNode Body = "TrueNode"
	MeanNode Body = "MeanNode"
)

// ErrUnknownBody is returned when a body name does not resolve against the
// supported set.
var ErrUnknownBody = errors.New("unknown celestial body")

// Kernel series numbering. Sun through Pluto follow the conventional 0-9
// ordering, the lunar node series come after.
var bodyIDs = map[Body]uint32{
	Sun:      0,
	Moon:     1,
	Mercury:  2,
	Venus:    3,
	Mars:     4,
	Jupiter:  5,
	Saturn:   6,
	Uranus:   7,
	Neptune:  8,
	Pluto:    9,
	MeanNode: 10,
	TrueNode: 11,
}

var bodiesByID map[uint32]Body

func init() {
	bodiesByID = make(map[uint32]Body, len(bodyIDs))
	for b, id := range bodyIDs {
		bodiesByID[id] = b
	}
}

// All returns every supported body in kernel series order.
func All() []Body {
	return []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto, MeanNode, TrueNode}
}

// ID returns the kernel series number for b.
func (b Body) ID() uint32 {
	return bodyIDs[b]
}

// Valid reports whether b is a member of the supported set.
func (b Body) Valid() bool {
	_, ok := bodyIDs[b]
	return ok
}

// FromID maps a kernel series number back to its body.
func FromID(id uint32) (Body, bool) {
	b, ok := bodiesByID[id]
	return b, ok
}

// ParseBody resolves a body name case-insensitively. Accepts both the
// canonical CamelCase names and snake_case variants for the node bodies.
func ParseBody(name string) (Body, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "")
	for b := range bodyIDs {
		if strings.ToLower(string(b)) == n {
			return b, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownBody, "%q", name)
}
