// Package access decides whether an authenticated user may act on a
// resource. Every rule lives in one policy table keyed by resource type and
// action; ROLE_ADMIN passes every rule that exists in the table.
package access

import (
	"fmt"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/server/models"
)

type Resource string

const (
	Baby        Resource = "Baby"
	Measurement Resource = "Measurement"
	Record      Resource = "Record"
	GrowthGuide Resource = "GrowthGuide"
	Admin       Resource = "Admin"
)

type Action string

const (
	Read   Action = "read"
	List   Action = "list"
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
	Manage Action = "manage"
)

// Actor is the authenticated identity a request acts as.
type Actor struct {
	Username string
	Role     models.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Subject carries the ownership facts a rule looks at. For Measurement and
// Record creation it describes the parent baby.
type Subject struct {
	Owner      string
	Caregivers models.StringList
	Author     string
}

func BabySubject(b *models.Baby) Subject {
	return Subject{Owner: b.Owner, Caregivers: b.Caregivers}
}

func MeasurementSubject(m *models.Measurement) Subject {
	return Subject{Author: m.Author}
}

func RecordSubject(r *models.Record) Subject {
	return Subject{Author: r.Author}
}

// Decision is the outcome of a rule. Reason is set on denial.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// Predicate evaluates a rule for a non-admin actor.
type Predicate func(actor Actor, subject Subject) Decision

type rule struct {
	resource Resource
	action   Action
}

// Evaluator holds the policy table. It has no mutable state after
// construction and is safe for concurrent use.
type Evaluator struct {
	policies map[rule]Predicate
}

// NewEvaluator returns an Evaluator with the default policy table.
func NewEvaluator() *Evaluator {
	e := &Evaluator{policies: make(map[rule]Predicate)}

	e.set(Baby, Read, ownerOrCaregiver("view this baby"))
	e.set(Baby, List, authenticated)
	e.set(Baby, Create, authenticated)
	e.set(Baby, Update, caregiver("update this baby"))
	e.set(Baby, Delete, owner("delete this baby"))

	e.set(Measurement, Create, caregiver("add measurements to this baby"))
	e.set(Measurement, Read, authenticated)
	e.set(Measurement, List, authenticated)
	e.set(Measurement, Update, author("update this measurement"))
	e.set(Measurement, Delete, author("delete this measurement"))

	e.set(Record, Create, caregiver("add records to this baby"))
	e.set(Record, Read, authenticated)
	e.set(Record, List, authenticated)
	e.set(Record, Update, author("update this record"))
	e.set(Record, Delete, author("delete this record"))

	e.set(GrowthGuide, Read, authenticated)
	e.set(GrowthGuide, List, authenticated)
	e.set(GrowthGuide, Update, adminOnly("update growth guides"))

	e.set(Admin, Manage, adminOnly("use the admin panel"))

	return e
}

func (e *Evaluator) set(res Resource, act Action, p Predicate) {
	e.policies[rule{res, act}] = p
}

// Evaluate applies the rule for (res, act). Pairs missing from the table are
// denied for everyone, admins included.
func (e *Evaluator) Evaluate(actor Actor, res Resource, act Action, subject Subject) Decision {
	p, ok := e.policies[rule{res, act}]
	if !ok {
		return deny("no policy allows %s on %s", act, res)
	}
	if actor.Username == "" {
		return deny("authentication required")
	}
	if actor.IsAdmin() {
		return allow()
	}
	return p(actor, subject)
}

// Authorize is Evaluate returning common.ErrorForbidden with the reason.
func (e *Evaluator) Authorize(actor Actor, res Resource, act Action, subject Subject) error {
	d := e.Evaluate(actor, res, act, subject)
	if d.Allowed {
		return nil
	}
	return common.Forbidden(d.Reason)
}

// BabyVisible is the Baby list filter: owners and caregivers see a baby.
// Admins use the admin listing instead.
func BabyVisible(actor Actor, b *models.Baby) bool {
	return b.Owner == actor.Username || b.Caregivers.Contains(actor.Username)
}

func authenticated(Actor, Subject) Decision { return allow() }

func adminOnly(what string) Predicate {
	return func(Actor, Subject) Decision {
		return deny("only administrators may %s", what)
	}
}

func owner(what string) Predicate {
	return func(a Actor, s Subject) Decision {
		if a.Username == s.Owner {
			return allow()
		}
		return deny("only the owner may %s", what)
	}
}

func caregiver(what string) Predicate {
	return func(a Actor, s Subject) Decision {
		if s.Caregivers.Contains(a.Username) {
			return allow()
		}
		return deny("only caregivers may %s", what)
	}
}

func ownerOrCaregiver(what string) Predicate {
	return func(a Actor, s Subject) Decision {
		if a.Username == s.Owner || s.Caregivers.Contains(a.Username) {
			return allow()
		}
		return deny("only the owner or caregivers may %s", what)
	}
}

func author(what string) Predicate {
	return func(a Actor, s Subject) Decision {
		if a.Username == s.Author {
			return allow()
		}
		return deny("only the author may %s", what)
	}
}
