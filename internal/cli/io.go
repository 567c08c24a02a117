package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/jaskrrish/go-starq/circuit"
	"github.com/jaskrrish/go-starq/qpu"
)

func readCircuit(path string) (circuit.Circuit, error) {
	var c circuit.Circuit
	data, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "reading circuit")
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, errors.Wrapf(err, "parsing circuit %s", path)
	}
	return c, nil
}

func readArchitecture(path string) (*qpu.DynamicArchitecture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading architecture")
	}
	var arch qpu.DynamicArchitecture
	if err := json.Unmarshal(data, &arch); err != nil {
		return nil, errors.Wrapf(err, "parsing architecture %s", path)
	}
	if err := arch.Validate(); err != nil {
		return nil, err
	}
	return &arch, nil
}

func writeCircuit(c circuit.Circuit, path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding circuit")
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}

// parseMapping turns a "logical=physical,logical=physical" flag value into a
// qubit mapping. An empty value means no mapping.
func parseMapping(spec string) (map[string]string, error) {
	if spec == "" {
		return nil, nil
	}
	mapping := make(map[string]string)
	for _, pair := range strings.Split(spec, ",") {
		logical, physical, ok := strings.Cut(pair, "=")
		if !ok || logical == "" || physical == "" {
			return nil, fmt.Errorf("malformed mapping entry %q, want logical=physical", pair)
		}
		mapping[logical] = physical
	}
	return mapping, nil
}
