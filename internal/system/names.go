// Package system holds every Input, Execute, Clean and Reactive system of a
// simulation world.
package system

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/message"
)

// System names, used for predecessor declarations and triggers.
const (
	NameWorldInit       = "WorldInit"
	NameEventDispatch   = "EventDispatch"
	NameInput           = "Input"
	NameRoom            = "Room"
	NameSpace           = "Space"
	NameMovementRequest = "MovementRequest"
	NameBuilding        = "Building"
	NameMonster         = "Monster"
	NameWorkRequest     = "WorkRequest"
	NameNavigation      = "Navigation"
	NameMovement        = "Movement"
	NameProductionWork  = "ProductionWork"
	NameBuildingWork    = "BuildingWork"
	NameRestWork        = "RestWork"
	NameSyntheticWork   = "SyntheticWork"
	NameWorkFlow        = "WorkFlow"
	NameCleanup         = "Cleanup"
	NameResync          = "Resync"
)

// MaxNameLength caps avatar and monster names, in runes.
const MaxNameLength = 24

// normalizeName folds compatibility forms (full-width letters and the like),
// drops control characters, collapses whitespace and caps the length.
func normalizeName(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > MaxNameLength {
		s = strings.TrimSpace(string(r[:MaxNameLength]))
	}
	return s
}

// eachMessage hands every pending message of type t in avatar inboxes to fn.
func eachMessage(w *ecs.World, t message.Type, fn func(avatar *ecs.Entity, m message.Message)) {
	ecs.Each2(w, component.KindAvatar, component.KindInbox, func(e *ecs.Entity, _ *component.Avatar, in *component.Inbox) {
		for _, m := range in.Take(t) {
			fn(e, m)
		}
	})
}
