package client

import (
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jaskrrish/go-starq/circuit"
	"github.com/jaskrrish/go-starq/qpu"
	"github.com/jaskrrish/go-starq/transpile"
)

// Status of a submitted job.
type Status string

const (
	StatusPendingCompilation Status = "pending compilation"
	StatusPendingExecution   Status = "pending execution"
	StatusReady              Status = "ready"
	StatusFailed             Status = "failed"
	StatusAborted            Status = "aborted"
)

// Finished reports whether the job has reached a terminal state.
func (s Status) Finished() bool {
	switch s {
	case StatusReady, StatusFailed, StatusAborted:
		return true
	}
	return false
}

// HeraldingMode selects whether shots are post-selected on a heralding
// measurement taken after qubit initialization.
type HeraldingMode string

const (
	// HeraldingNone runs every shot without heralding.
	HeraldingNone HeraldingMode = "none"
	// HeraldingZeros heralds after initialization and keeps only the shots
	// whose heralding result is all zeros. Fewer shots than requested may
	// come back.
	HeraldingZeros HeraldingMode = "zeros"
)

// MoveFrameTrackingMode selects how much of the MOVE gate phase bookkeeping
// the service applies during compilation.
type MoveFrameTrackingMode string

const (
	// FrameTrackingFull applies detuning and long range phase corrections.
	FrameTrackingFull MoveFrameTrackingMode = "full"
	// FrameTrackingNoDetuning skips the detuning correction, for the case
	// where it is already included in the calibrated MOVE pulse.
	FrameTrackingNoDetuning MoveFrameTrackingMode = "no_detuning_correction"
	// FrameTrackingNone leaves all frame tracking to the caller.
	FrameTrackingNone MoveFrameTrackingMode = "none"
)

// QubitMapping maps one logical qubit name used in a circuit to a physical
// component name on the device.
type QubitMapping struct {
	LogicalName  string `json:"logical_name"`
	PhysicalName string `json:"physical_name"`
}

// SerializeQubitMapping converts a mapping of logical to physical qubit names
// into the wire representation, sorted by logical name.
func SerializeQubitMapping(mapping map[string]string) []QubitMapping {
	if len(mapping) == 0 {
		return nil
	}
	out := make([]QubitMapping, 0, len(mapping))
	for logical, physical := range mapping {
		out = append(out, QubitMapping{LogicalName: logical, PhysicalName: physical})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LogicalName < out[j].LogicalName })
	return out
}

// CircuitCompilationOptions bundles the compilation switches a job can carry.
type CircuitCompilationOptions struct {
	// MaxCircuitDurationOverT2 disqualifies circuits longer than this ratio
	// of the qubits' T2 time. 0.0 disables the check, nil uses the service
	// default.
	MaxCircuitDurationOverT2 *float64
	Heralding                HeraldingMode
	// MoveValidation is applied to circuits containing MOVE instructions,
	// both client-side and by the service.
	MoveValidation transpile.MoveValidationMode
	FrameTracking  MoveFrameTrackingMode
}

// DefaultCompilationOptions returns the options the service assumes when none
// are given.
func DefaultCompilationOptions() CircuitCompilationOptions {
	return CircuitCompilationOptions{
		Heralding:      HeraldingNone,
		MoveValidation: transpile.MoveValidationStrict,
		FrameTracking:  FrameTrackingFull,
	}
}

// Validate rejects option combinations the service cannot honor.
func (o CircuitCompilationOptions) Validate() error {
	if o.FrameTracking == FrameTrackingFull &&
		o.MoveValidation != transpile.MoveValidationStrict &&
		o.MoveValidation != transpile.MoveValidationAllowPRX &&
		o.MoveValidation != "" {
		return errors.New("full MOVE frame tracking requires strict or allow_prx MOVE validation")
	}
	return nil
}

// RunRequest asks the service to run a batch of circuits. All circuits in a
// batch must measure the same qubits.
type RunRequest struct {
	Circuits []circuit.Circuit `json:"circuits"`
	// CustomSettings overrides service-side settings and calibration data.
	// Leave nil in normal use.
	CustomSettings map[string]interface{} `json:"custom_settings,omitempty"`
	// CalibrationSetID selects the calibration set to run against, nil for
	// the service's latest.
	CalibrationSetID *uuid.UUID `json:"calibration_set_id,omitempty"`
	// QubitMapping translates the circuits' logical qubit names to physical
	// components, nil when the circuits already use physical names.
	QubitMapping             []QubitMapping               `json:"qubit_mapping,omitempty"`
	Shots                    int                          `json:"shots"`
	MaxCircuitDurationOverT2 *float64                     `json:"max_circuit_duration_over_t2,omitempty"`
	HeraldingMode            HeraldingMode                `json:"heralding_mode"`
	MoveValidationMode       transpile.MoveValidationMode `json:"move_validation_mode"`
	MoveFrameTrackingMode    MoveFrameTrackingMode        `json:"move_gate_frame_tracking_mode"`
}

// NewRunRequest builds a request for the given batch with the compilation
// options expanded into their wire fields. A nil opts uses the defaults.
func NewRunRequest(circuits []circuit.Circuit, shots int, opts *CircuitCompilationOptions) (*RunRequest, error) {
	options := DefaultCompilationOptions()
	if opts != nil {
		options = *opts
		if options.Heralding == "" {
			options.Heralding = HeraldingNone
		}
		if options.MoveValidation == "" {
			options.MoveValidation = transpile.MoveValidationStrict
		}
		if options.FrameTracking == "" {
			options.FrameTracking = FrameTrackingFull
		}
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return &RunRequest{
		Circuits:                 circuits,
		Shots:                    shots,
		MaxCircuitDurationOverT2: options.MaxCircuitDurationOverT2,
		HeraldingMode:            options.Heralding,
		MoveValidationMode:       options.MoveValidation,
		MoveFrameTrackingMode:    options.FrameTracking,
	}, nil
}

// Validate runs the client-side checks a request must pass before submission:
// a positive shot count, structurally valid circuits, and a qubit mapping
// that is injective and covers every qubit the circuits use.
func (r *RunRequest) Validate() error {
	if r.Shots < 1 {
		return errors.New("number of shots must be greater than zero")
	}
	if len(r.Circuits) == 0 {
		return errors.New("request contains no circuits")
	}
	for i := range r.Circuits {
		if err := r.Circuits[i].Validate(); err != nil {
			return errors.Wrapf(err, "circuit %d", i)
		}
	}
	if r.QubitMapping == nil {
		return nil
	}

	logical := make(map[string]string, len(r.QubitMapping))
	physical := make(map[string]string, len(r.QubitMapping))
	for _, m := range r.QubitMapping {
		if _, dup := logical[m.LogicalName]; dup {
			return errors.Errorf("qubit %s is mapped twice", m.LogicalName)
		}
		if other, dup := physical[m.PhysicalName]; dup {
			return errors.Errorf("qubits %s and %s both map to %s", other, m.LogicalName, m.PhysicalName)
		}
		logical[m.LogicalName] = m.PhysicalName
		physical[m.PhysicalName] = m.LogicalName
	}
	for i := range r.Circuits {
		for _, q := range r.Circuits[i].AllQubits() {
			if _, ok := logical[q]; !ok {
				return errors.Errorf("qubit %s of circuit %d is missing from the qubit mapping", q, i)
			}
		}
	}
	return nil
}

// ValidateForDevice checks the request against a known architecture: every
// instruction must use calibrated loci and the MOVE instructions must pass
// the validation mode the request carries.
func (r *RunRequest) ValidateForDevice(arch *qpu.DynamicArchitecture) error {
	if err := r.Validate(); err != nil {
		return err
	}
	mapping := make(map[string]string, len(r.QubitMapping))
	for _, m := range r.QubitMapping {
		mapping[m.LogicalName] = m.PhysicalName
	}
	if len(mapping) == 0 {
		mapping = nil
	}
	for i := range r.Circuits {
		if err := qpu.ValidateCircuit(arch, r.Circuits[i], mapping); err != nil {
			return errors.Wrapf(err, "circuit %d", i)
		}
		if err := transpile.ValidateMoves(arch, r.Circuits[i], mapping, r.MoveValidationMode); err != nil {
			return errors.Wrapf(err, "circuit %d", i)
		}
	}
	return nil
}

// MeasurementResults holds the outcomes of one circuit: for each measurement
// key, a shots by qubits array of basis states.
type MeasurementResults map[string][][]int64

// Metadata describes an execution job.
type Metadata struct {
	CalibrationSetID *uuid.UUID        `json:"calibration_set_id,omitempty"`
	Request          *RunRequest       `json:"request,omitempty"`
	ServerVersion    string            `json:"server_version,omitempty"`
	Timestamps       map[string]string `json:"timestamps,omitempty"`
}

// RunResult is the state of a job, including measurement results once the
// status is ready and an error message when it is failed.
type RunResult struct {
	Status       Status               `json:"status"`
	Measurements []MeasurementResults `json:"measurements,omitempty"`
	Message      string               `json:"message,omitempty"`
	Warnings     []string             `json:"warnings,omitempty"`
	Metadata     Metadata             `json:"metadata"`
}

// RunStatus is the lightweight status view of a job.
type RunStatus struct {
	Status   Status   `json:"status"`
	Message  string   `json:"message,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
