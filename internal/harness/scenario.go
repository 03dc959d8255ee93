package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/daniloab/relay/internal/selection"
	"github.com/daniloab/relay/internal/store"
	"github.com/daniloab/relay/internal/value"
)

// Scenario defines a conformance test for the mutation engine: a base
// record source, a sequence of transaction steps, and expectations on the
// resulting sink and backup.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files key on it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Base is the pristine snapshot the transaction runs over, in
	// serialized record source form (identity to record or null).
	Base map[string]map[string]any `yaml:"base,omitempty"`

	// Steps is the transaction's mutation sequence.
	Steps []Step `yaml:"steps"`

	// Expect optionally asserts on the transaction's outcome.
	Expect *Expectation `yaml:"expect,omitempty"`
}

// Step is one mutation. Exactly one of the fields must be set.
type Step struct {
	Create           *CreateStep           `yaml:"create,omitempty"`
	Delete           *DeleteStep           `yaml:"delete,omitempty"`
	SetValue         *SetValueStep         `yaml:"set_value,omitempty"`
	SetLinkedRecord  *SetLinkedRecordStep  `yaml:"set_linked_record,omitempty"`
	SetLinkedRecords *SetLinkedRecordsStep `yaml:"set_linked_records,omitempty"`
	CommitPayload    *CommitPayloadStep    `yaml:"commit_payload,omitempty"`
}

// CreateStep creates a fresh record.
type CreateStep struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`
}

// DeleteStep tombstones a record.
type DeleteStep struct {
	ID string `yaml:"id"`
}

// SetValueStep writes a scalar field.
type SetValueStep struct {
	ID    string         `yaml:"id"`
	Field string         `yaml:"field"`
	Args  map[string]any `yaml:"args,omitempty"`
	Value any            `yaml:"value"`
}

// SetLinkedRecordStep links a record to a target by identity.
type SetLinkedRecordStep struct {
	ID     string         `yaml:"id"`
	Field  string         `yaml:"field"`
	Args   map[string]any `yaml:"args,omitempty"`
	Target string         `yaml:"target"`
}

// SetLinkedRecordsStep stores an ordered reference list. A null target is
// an explicit null list element.
type SetLinkedRecordsStep struct {
	ID      string         `yaml:"id"`
	Field   string         `yaml:"field"`
	Args    map[string]any `yaml:"args,omitempty"`
	Targets []*string      `yaml:"targets"`
}

// CommitPayloadStep merges a response payload against an inline selection.
type CommitPayloadStep struct {
	Operation OperationSpec  `yaml:"operation"`
	Payload   map[string]any `yaml:"payload"`
}

// OperationSpec is the YAML form of a selection operation.
type OperationSpec struct {
	Name   string      `yaml:"name"`
	Fields []FieldSpec `yaml:"fields"`
}

// FieldSpec is the YAML form of a selected field. A field with child
// selections is linked; one without is scalar.
type FieldSpec struct {
	Name   string         `yaml:"name"`
	Args   map[string]any `yaml:"args,omitempty"`
	Type   string         `yaml:"type,omitempty"`
	Plural bool           `yaml:"plural,omitempty"`
	Handle string         `yaml:"handle,omitempty"`
	Fields []FieldSpec    `yaml:"fields,omitempty"`
}

// Expectation asserts on the transaction outcome in serialized record
// source form. A null record entry expects a tombstone. Matches are exact
// per named identity; identities not named are not checked.
type Expectation struct {
	Sink   map[string]map[string]any `yaml:"sink,omitempty"`
	Backup map[string]map[string]any `yaml:"backup,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var scenario Scenario
	if err := dec.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	if scenario.Name == "" {
		return nil, fmt.Errorf("scenario name is required")
	}
	for i, step := range scenario.Steps {
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return &scenario, nil
}

func (s *Step) validate() error {
	count := 0
	if s.Create != nil {
		count++
	}
	if s.Delete != nil {
		count++
	}
	if s.SetValue != nil {
		count++
	}
	if s.SetLinkedRecord != nil {
		count++
	}
	if s.SetLinkedRecords != nil {
		count++
	}
	if s.CommitPayload != nil {
		count++
	}
	if count != 1 {
		return fmt.Errorf("exactly one action per step, got %d", count)
	}
	return nil
}

// Result captures one executed transaction triple.
type Result struct {
	Base   *store.MapRecordSource
	Sink   *store.MapRecordSource
	Backup *store.MapRecordSource
}

// Run executes a scenario as a single transaction over a fresh triple.
func Run(scenario *Scenario) (*Result, error) {
	baseObj, err := value.FromGo(anyMap(scenario.Base))
	if err != nil {
		return nil, fmt.Errorf("scenario %q: base: %w", scenario.Name, err)
	}
	base, err := store.ParseRecordSource(baseObj.(value.Object))
	if err != nil {
		return nil, fmt.Errorf("scenario %q: base: %w", scenario.Name, err)
	}

	sink := store.NewMapRecordSource()
	backup := store.NewMapRecordSource()
	mutator := store.NewMutator(base, sink, backup)
	proxy := store.NewRecordSourceProxy(mutator, nil, nil)

	for i, step := range scenario.Steps {
		if err := runStep(proxy, step); err != nil {
			return nil, fmt.Errorf("scenario %q: step %d: %w", scenario.Name, i, err)
		}
	}

	result := &Result{Base: base, Sink: sink, Backup: backup}
	if scenario.Expect != nil {
		if err := checkExpectation(scenario.Expect, result); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}
	}
	return result, nil
}

func runStep(proxy *store.RecordSourceProxy, step Step) error {
	switch {
	case step.Create != nil:
		_, err := proxy.Create(store.DataID(step.Create.ID), step.Create.Type)
		return err

	case step.Delete != nil:
		return proxy.Delete(store.DataID(step.Delete.ID))

	case step.SetValue != nil:
		record, err := resolveRecord(proxy, step.SetValue.ID)
		if err != nil {
			return err
		}
		v, err := value.FromGo(step.SetValue.Value)
		if err != nil {
			return err
		}
		args, err := convertArgs(step.SetValue.Args)
		if err != nil {
			return err
		}
		return record.SetValue(v, step.SetValue.Field, args)

	case step.SetLinkedRecord != nil:
		record, err := resolveRecord(proxy, step.SetLinkedRecord.ID)
		if err != nil {
			return err
		}
		target, err := resolveRecord(proxy, step.SetLinkedRecord.Target)
		if err != nil {
			return err
		}
		args, err := convertArgs(step.SetLinkedRecord.Args)
		if err != nil {
			return err
		}
		return record.SetLinkedRecord(target, step.SetLinkedRecord.Field, args)

	case step.SetLinkedRecords != nil:
		record, err := resolveRecord(proxy, step.SetLinkedRecords.ID)
		if err != nil {
			return err
		}
		targets := make([]*store.RecordProxy, len(step.SetLinkedRecords.Targets))
		for i, targetID := range step.SetLinkedRecords.Targets {
			if targetID == nil {
				continue
			}
			target, err := resolveRecord(proxy, *targetID)
			if err != nil {
				return err
			}
			targets[i] = target
		}
		args, err := convertArgs(step.SetLinkedRecords.Args)
		if err != nil {
			return err
		}
		return record.SetLinkedRecords(targets, step.SetLinkedRecords.Field, args)

	case step.CommitPayload != nil:
		op, err := buildOperation(&step.CommitPayload.Operation)
		if err != nil {
			return err
		}
		payload, err := value.FromGo(step.CommitPayload.Payload)
		if err != nil {
			return err
		}
		return proxy.CommitPayload(op, payload.(value.Object))

	default:
		return fmt.Errorf("empty step")
	}
}

func resolveRecord(proxy *store.RecordSourceProxy, id string) (*store.RecordProxy, error) {
	record, known := proxy.Get(store.DataID(id))
	if !known || record == nil {
		return nil, fmt.Errorf("record %q is not existent", id)
	}
	return record, nil
}

// buildOperation converts the YAML operation form into a validated
// selection descriptor.
func buildOperation(spec *OperationSpec) (*selection.Operation, error) {
	fields, err := buildFields(spec.Fields)
	if err != nil {
		return nil, err
	}
	op := &selection.Operation{Name: spec.Name, Fields: fields}
	if err := selection.Validate(op); err != nil {
		return nil, err
	}
	return op, nil
}

func buildFields(specs []FieldSpec) ([]selection.Field, error) {
	fields := make([]selection.Field, 0, len(specs))
	for i := range specs {
		spec := &specs[i]
		field := selection.Field{
			Name:     spec.Name,
			Kind:     selection.KindScalar,
			Plural:   spec.Plural,
			TypeName: spec.Type,
		}
		if spec.Args != nil {
			args, err := convertArgs(spec.Args)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", spec.Name, err)
			}
			field.Args = args
		}
		if spec.Handle != "" {
			field.Handle = &selection.Handle{Name: spec.Handle}
		}
		if len(spec.Fields) > 0 {
			children, err := buildFields(spec.Fields)
			if err != nil {
				return nil, err
			}
			field.Fields = children
			field.Kind = selection.KindLinked
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func convertArgs(args map[string]any) (value.Object, error) {
	if args == nil {
		return nil, nil
	}
	converted, err := value.FromGo(args)
	if err != nil {
		return nil, err
	}
	return converted.(value.Object), nil
}

// checkExpectation compares the named identities of sink and backup
// against the scenario's expectations.
func checkExpectation(expect *Expectation, result *Result) error {
	if err := checkSource("sink", expect.Sink, result.Sink); err != nil {
		return err
	}
	return checkSource("backup", expect.Backup, result.Backup)
}

func checkSource(label string, expected map[string]map[string]any, src *store.MapRecordSource) error {
	if expected == nil {
		return nil
	}
	serialized := src.Serialize()
	for id, want := range expected {
		got, ok := serialized[id]
		if !ok {
			return fmt.Errorf("%s: expected an entry for %q, found none", label, id)
		}
		wantValue, err := value.FromGo(anyRecord(want))
		if err != nil {
			return fmt.Errorf("%s[%q]: %w", label, id, err)
		}
		if !value.Equal(wantValue, got) {
			gotJSON, _ := value.MarshalCanonical(got)
			wantJSON, _ := value.MarshalCanonical(wantValue)
			return fmt.Errorf("%s[%q]: got %s, want %s", label, id, gotJSON, wantJSON)
		}
	}
	return nil
}

// anyMap widens the YAML map type for value conversion; nil record maps
// stay nil so they convert to tombstones.
func anyMap(m map[string]map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = anyRecord(v)
	}
	return out
}

func anyRecord(rec map[string]any) any {
	if rec == nil {
		return nil
	}
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
