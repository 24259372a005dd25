// Package rpc dispatches named procedures to the domain services through an
// ordered Authenticate, Authorize, Log pipeline.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"inkwell/internal/models"
	"inkwell/internal/validation"
)

// Kind separates read-only procedures from state-changing ones.
type Kind string

const (
	KindQuery    Kind = "query"
	KindMutation Kind = "mutation"
)

// Access is the identity a caller needs to run a procedure.
type Access int

const (
	AccessPublic Access = iota
	AccessProtected
	AccessAdmin
)

func (a Access) String() string {
	switch a {
	case AccessProtected:
		return "protected"
	case AccessAdmin:
		return "admin"
	default:
		return "public"
	}
}

// Handler runs one procedure on its raw JSON input.
type Handler func(ctx context.Context, input json.RawMessage) (interface{}, error)

// Procedure is a named, typed entry point.
type Procedure struct {
	Name    string
	Kind    Kind
	Access  Access
	Handler Handler
}

// Query builds a read-only procedure that decodes and validates In before calling fn.
func Query[In any, Out any](name string, fn func(context.Context, In) (Out, error)) Procedure {
	return Procedure{Name: name, Kind: KindQuery, Handler: typed(fn)}
}

// Mutation builds a state-changing procedure that decodes and validates In before calling fn.
func Mutation[In any, Out any](name string, fn func(context.Context, In) (Out, error)) Procedure {
	return Procedure{Name: name, Kind: KindMutation, Handler: typed(fn)}
}

// NoInput is the input of procedures that take none.
type NoInput struct{}

func typed[In any, Out any](fn func(context.Context, In) (Out, error)) Handler {
	return func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var in In
		if err := decodeInput(raw, &in); err != nil {
			return nil, err
		}
		if err := validation.Validate(in); err != nil {
			return nil, err
		}
		return fn(ctx, in)
	}
}

func decodeInput(raw json.RawMessage, dst interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return models.NewValidationError(fmt.Sprintf("Invalid input: %v", err))
	}
	return nil
}

// Registry holds procedures by name.
type Registry struct {
	procs map[string]Procedure
}

// NewRegistry indexes procs. A duplicate name panics: it is a wiring bug.
func NewRegistry(procs ...Procedure) *Registry {
	r := &Registry{procs: make(map[string]Procedure, len(procs))}
	for _, p := range procs {
		if _, dup := r.procs[p.Name]; dup {
			panic("rpc: duplicate procedure " + p.Name)
		}
		r.procs[p.Name] = p
	}
	return r
}

// Lookup finds a procedure by name.
func (r *Registry) Lookup(name string) (Procedure, bool) {
	p, ok := r.procs[name]
	return p, ok
}

// Names lists registered procedures in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.procs))
	for name := range r.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
