package schema

import (
	"context"
	"fmt"

	"trendseed/cli/internal/backend"
	apperr "trendseed/cli/internal/errors"
)

// Presence is the outcome of the existence probe.
type Presence int

const (
	Absent Presence = iota
	Present
)

func (p Presence) String() string {
	if p == Present {
		return "present"
	}
	return "absent"
}

// Step identifies a provisioning step.
type Step string

const (
	StepCheck  Step = "check"
	StepDelete Step = "delete"
	StepCreate Step = "create"
)

// Outcome describes a completed provisioning run.
type Outcome struct {
	Collection string
	Replaced   bool
	Created    []byte
}

// Provisioner drives the probe → delete → create sequence.
type Provisioner struct {
	be     backend.API
	onStep func(Step, string)
}

// NewProvisioner returns a Provisioner. onStep, when non-nil, is called before every step.
func NewProvisioner(be backend.API, onStep func(step Step, collection string)) *Provisioner {
	return &Provisioner{be: be, onStep: onStep}
}

func (p *Provisioner) step(s Step, name string) {
	if p.onStep != nil {
		p.onStep(s, name)
	}
}

// Probe reports whether the named collection exists.
func (p *Provisioner) Probe(ctx context.Context, token, name string) (Presence, error) {
	exists, err := p.be.CollectionExists(ctx, token, name)
	if err != nil {
		return Absent, err
	}
	if exists {
		return Present, nil
	}
	return Absent, nil
}

// Ensure leaves the backend with exactly def: a present collection is deleted
// unconditionally, then def is created. Any failure is a Schema error and aborts.
func (p *Provisioner) Ensure(ctx context.Context, token string, def backend.Collection) (Outcome, error) {
	out := Outcome{Collection: def.Name}

	p.step(StepCheck, def.Name)
	presence, err := p.Probe(ctx, token, def.Name)
	if err != nil {
		return out, apperr.Wrap(apperr.Schema, fmt.Sprintf("check collection %q", def.Name), err)
	}

	switch presence {
	case Present:
		p.step(StepDelete, def.Name)
		if err := p.be.DeleteCollection(ctx, token, def.Name); err != nil {
			return out, apperr.Wrap(apperr.Schema, fmt.Sprintf("delete collection %q", def.Name), err)
		}
		out.Replaced = true
	case Absent:
	}

	p.step(StepCreate, def.Name)
	created, err := p.be.CreateCollection(ctx, token, def)
	if err != nil {
		return out, apperr.Wrap(apperr.Schema, fmt.Sprintf("create collection %q", def.Name), err)
	}
	out.Created = created
	return out, nil
}
