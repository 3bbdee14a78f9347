// Package hook installs replacement method implementations through the
// runtime metadata bridge. It owns overload disambiguation and converts
// every resolution or installation error into a failed record; nothing it
// does can abort processing of other targets.
package hook

import (
	"context"
	"fmt"

	"github.com/joss/unpin/internal/bridge"
	"github.com/joss/unpin/internal/implementor"
	"github.com/joss/unpin/internal/logging"
	"github.com/joss/unpin/internal/target"
)

// Status is the outcome of one installation attempt.
type Status string

const (
	StatusInstalled Status = "installed"
	StatusFailed    Status = "failed"
)

// Record is one installation attempt's outcome. Records are immutable once
// created; the orchestrator only appends them to its report.
type Record struct {
	Class     string           `json:"class"`
	Signature target.Signature `json:"signature"`
	Kind      target.Kind      `json:"kind"`
	Status    Status           `json:"status"`
	Reason    string           `json:"reason,omitempty"`
	Heuristic bool             `json:"heuristic,omitempty"`
}

// Description is the record's one-line form for reports.
func (r Record) Description() string {
	return fmt.Sprintf("%s.%s [%s]", r.Class, r.Signature, r.Kind.Label())
}

// Installer installs replacement bodies for resolved targets.
type Installer struct {
	bridge bridge.Bridge
	impls  *implementor.Factory
	log    *logging.Logger
}

// New creates an installer over the given bridge.
func New(b bridge.Bridge, impls *implementor.Factory) *Installer {
	return &Installer{
		bridge: b,
		impls:  impls,
		log:    logging.New("hook"),
	}
}

// Apply installs a static-table descriptor. With explicit signatures only
// the exactly-matching overloads are patched; with none, every overload of
// the descriptor's method is. Re-applying a descriptor re-assigns the same
// bodies and never errors. The returned records carry one entry per
// attempted overload (or one failed entry when the class itself is absent).
func (in *Installer) Apply(ctx context.Context, d target.Descriptor) []Record {
	class, err := in.bridge.ResolveClass(ctx, d.Class)
	if err != nil {
		return []Record{in.failed(d, target.Signature{Name: d.Method}, err)}
	}

	body, err := in.body(ctx, d)
	if err != nil {
		return []Record{in.failed(d, target.Signature{Name: d.Method}, err)}
	}

	if len(d.Signatures) == 0 {
		return in.installAll(ctx, class, d, body)
	}
	return in.installMatching(ctx, class, d, body)
}

// ApplyMethod installs a body over every overload of a heuristic match.
// A method with no overloads yields no records: heuristic misses are
// skipped, not reported.
func (in *Installer) ApplyMethod(ctx context.Context, className, method string, kind target.Kind) []Record {
	class, err := in.bridge.ResolveClass(ctx, className)
	if err != nil {
		return nil
	}

	overloads, err := in.bridge.Overloads(ctx, class, method)
	if err != nil || len(overloads) == 0 {
		return nil
	}

	body, err := bodyFor(kind)
	if err != nil {
		return nil
	}

	var records []Record
	for _, m := range overloads {
		r := in.install(ctx, m, kind, body)
		r.Heuristic = true
		records = append(records, r)
	}
	return records
}

// installAll patches every overload the runtime exposes for the method.
func (in *Installer) installAll(ctx context.Context, class bridge.ClassHandle, d target.Descriptor, body bridge.Body) []Record {
	overloads, err := in.bridge.Overloads(ctx, class, d.Method)
	if err != nil {
		return []Record{in.failed(d, target.Signature{Name: d.Method}, err)}
	}
	if len(overloads) == 0 {
		return []Record{in.failed(d, target.Signature{Name: d.Method},
			&bridge.MethodNotFoundError{Class: d.Class, Method: d.Method})}
	}

	var records []Record
	for _, m := range overloads {
		records = append(records, in.install(ctx, m, d.Kind, body))
	}
	return records
}

// installMatching patches exactly the overloads whose parameter-type
// sequence equals one of the descriptor's signatures, and no others.
func (in *Installer) installMatching(ctx context.Context, class bridge.ClassHandle, d target.Descriptor, body bridge.Body) []Record {
	var records []Record
	for _, sig := range d.Signatures {
		overloads, err := in.bridge.Overloads(ctx, class, sig.Name)
		if err != nil {
			records = append(records, in.failed(d, sig, err))
			continue
		}

		found := false
		for _, m := range overloads {
			if !sig.MatchesParams(m.Params) {
				continue
			}
			found = true
			records = append(records, in.install(ctx, m, d.Kind, body))
		}
		if !found {
			records = append(records, in.failed(d, sig, &bridge.OverloadMismatchError{
				Class:  d.Class,
				Method: sig.Name,
				Params: sig.Params,
			}))
		}
	}
	return records
}

// install patches a single overload and converts the outcome to a record.
func (in *Installer) install(ctx context.Context, m bridge.MethodHandle, kind target.Kind, body bridge.Body) Record {
	sig := target.Signature{Name: m.Name, Params: m.Params}
	if err := in.bridge.Install(ctx, m, body); err != nil {
		in.log.Warn("install_failed", map[string]any{
			"class": m.Class, "method": sig.String(),
		}, err)
		return Record{Class: m.Class, Signature: sig, Kind: kind, Status: StatusFailed, Reason: err.Error()}
	}
	in.log.Debug("installed", map[string]any{
		"class": m.Class, "method": sig.String(), "kind": string(kind),
	})
	return Record{Class: m.Class, Signature: sig, Kind: kind, Status: StatusInstalled}
}

func (in *Installer) failed(d target.Descriptor, sig target.Signature, err error) Record {
	in.log.Warn("target_skipped", map[string]any{
		"class": d.Class, "method": sig.Name,
	}, err)
	return Record{
		Class:     d.Class,
		Signature: sig,
		Kind:      d.Kind,
		Status:    StatusFailed,
		Reason:    err.Error(),
	}
}

// body builds the declarative replacement for a descriptor, constructing
// the substitute instance when the kind delegates.
func (in *Installer) body(ctx context.Context, d target.Descriptor) (bridge.Body, error) {
	switch d.Kind {
	case target.DelegateWithSubstitutedArg:
		obj, err := in.impls.Instance(ctx, d.SubstituteRole)
		if err != nil {
			return bridge.Body{}, fmt.Errorf("substitute %s: %w", d.SubstituteRole, err)
		}
		return bridge.Body{
			Kind:       bridge.BodyDelegate,
			ArgIndex:   d.SubstituteArg,
			Substitute: &obj,
		}, nil
	case target.InvokeArgMethod:
		return bridge.Body{
			Kind:         bridge.BodyInvokeArg,
			ArgIndex:     d.InvokeArg,
			InvokeMethod: d.InvokeMethod,
		}, nil
	default:
		return bodyFor(d.Kind)
	}
}

func bodyFor(kind target.Kind) (bridge.Body, error) {
	switch kind {
	case target.ReturnTrue:
		return bridge.Body{Kind: bridge.BodyReturnTrue}, nil
	case target.ReturnInputUnchanged:
		return bridge.Body{Kind: bridge.BodyReturnFirstArg}, nil
	case target.NoOp:
		return bridge.Body{Kind: bridge.BodyNoOp}, nil
	default:
		return bridge.Body{}, fmt.Errorf("replacement kind %q needs descriptor context", kind)
	}
}
