package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/daniloab/relay/internal/value"
)

// Snapshot serializes the transaction triple as canonical JSON, keyed by
// scenario name. Canonical form keeps the bytes deterministic so golden
// comparisons never flap on map order.
func (r *Result) Snapshot(scenarioName string) ([]byte, error) {
	obj := value.Object{
		"scenario_name": value.String(scenarioName),
		"base":          r.Base.Serialize(),
		"sink":          r.Sink.Serialize(),
		"backup":        r.Backup.Serialize(),
	}
	data, err := value.MarshalCanonical(obj)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares the resulting triple
// snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if scenario execution or serialization fails; a
// snapshot/golden mismatch fails the test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already-executed result against the golden file
// named scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := result.Snapshot(scenarioName)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)

	return nil
}
