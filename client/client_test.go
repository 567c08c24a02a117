package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaskrrish/go-starq/circuit"
	"github.com/jaskrrish/go-starq/qpu"
	"github.com/jaskrrish/go-starq/transpile"
)

var calibrationSetID = uuid.MustParse("9c8a34e9-5e1f-4f8a-95f1-8c3340c9e584")

func serviceArchitecture() *qpu.DynamicArchitecture {
	return &qpu.DynamicArchitecture{
		CalibrationSetID:        calibrationSetID,
		Qubits:                  []string{"QB1", "QB2", "QB3"},
		ComputationalResonators: []string{"COMP_R"},
		Gates: map[string]qpu.GateInfo{
			"prx": {
				Implementations: map[string]qpu.GateImplementationInfo{
					"drag_gaussian": {Loci: []circuit.Locus{{"QB1"}, {"QB2"}, {"QB3"}}},
				},
				DefaultImplementation: "drag_gaussian",
			},
			"cz": {
				Implementations: map[string]qpu.GateImplementationInfo{
					"tgss": {Loci: []circuit.Locus{{"QB1", "COMP_R"}, {"QB2", "COMP_R"}}},
				},
				DefaultImplementation: "tgss",
			},
			"move": {
				Implementations: map[string]qpu.GateImplementationInfo{
					"tgss_crf": {Loci: []circuit.Locus{{"QB3", "COMP_R"}}},
				},
				DefaultImplementation: "tgss_crf",
			},
			"measure": {
				Implementations: map[string]qpu.GateImplementationInfo{
					"constant": {Loci: []circuit.Locus{{"QB1"}, {"QB2"}, {"QB3"}}},
				},
				DefaultImplementation: "constant",
			},
		},
	}
}

func measuredCircuit() circuit.Circuit {
	return circuit.Circuit{
		Name: "bell measure",
		Instructions: []circuit.Instruction{
			{Name: "prx", Locus: circuit.Locus{"QB1"}, Args: circuit.Args{"angle_t": 0.25, "phase_t": 0.0}},
			{Name: "cz", Locus: circuit.Locus{"QB1", "COMP_R"}, Args: circuit.Args{}},
			{Name: "measure", Locus: circuit.Locus{"QB1", "QB2"}, Args: circuit.Args{"key": "m1"}},
		},
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewClient(Config{BaseURL: server.URL, Token: "token123"})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrMissingBaseURL)

	_, err = NewClient(Config{BaseURL: "ftp://example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http or https")

	c, err := NewClient(Config{BaseURL: "https://station.example.com/api"})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestNewClientFromEnv(t *testing.T) {
	t.Setenv(EnvURL, "https://station.example.com")
	t.Setenv(EnvToken, "secret")
	c, err := NewClientFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "secret", c.token)

	t.Setenv(EnvURL, "")
	_, err = NewClientFromEnv()
	assert.ErrorIs(t, err, ErrMissingBaseURL)
}

func TestGetArchitecture(t *testing.T) {
	arch := serviceArchitecture()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/calibration/default/gates", r.URL.Path)
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		require.NoError(t, json.NewEncoder(w).Encode(arch))
	}))

	got, err := c.GetArchitecture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, calibrationSetID, got.CalibrationSetID)
	assert.Equal(t, arch.Qubits, got.Qubits)
	assert.Equal(t, arch.ComputationalResonators, got.ComputationalResonators)
	assert.True(t, got.SupportsMove())
}

func TestGetArchitectureForCalibration(t *testing.T) {
	arch := serviceArchitecture()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calibration/"+calibrationSetID.String()+"/gates", r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(arch))
	}))

	got, err := c.GetArchitectureForCalibration(context.Background(), calibrationSetID)
	require.NoError(t, err)
	assert.Equal(t, calibrationSetID, got.CalibrationSetID)
}

func TestGetArchitectureInconsistent(t *testing.T) {
	arch := serviceArchitecture()
	arch.Gates["move"] = qpu.GateInfo{
		Implementations: map[string]qpu.GateImplementationInfo{
			"tgss_crf": {Loci: []circuit.Locus{{"QB1", "QB2"}}},
		},
		DefaultImplementation: "tgss_crf",
	}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(arch))
	}))

	_, err := c.GetArchitecture(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inconsistent architecture")
}

func TestSubmitCircuits(t *testing.T) {
	jobID := uuid.MustParse("29b9f3d3-92f9-4a05-9f06-4e8cbf99c0e2")
	var received map[string]interface{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/jobs", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]string{"id": jobID.String()}))
	}))

	req, err := NewRunRequest([]circuit.Circuit{measuredCircuit()}, 1024, nil)
	require.NoError(t, err)
	req.QubitMapping = SerializeQubitMapping(map[string]string{
		"QB1": "QB1", "QB2": "QB2", "COMP_R": "COMP_R",
	})

	got, err := c.SubmitCircuits(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, jobID, got)

	assert.Equal(t, float64(1024), received["shots"])
	assert.Equal(t, "none", received["heralding_mode"])
	assert.Equal(t, "strict", received["move_validation_mode"])
	assert.Equal(t, "full", received["move_gate_frame_tracking_mode"])
	mapping, ok := received["qubit_mapping"].([]interface{})
	require.True(t, ok)
	require.Len(t, mapping, 3)
	first, ok := mapping[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "COMP_R", first["logical_name"])
	assert.Equal(t, "COMP_R", first["physical_name"])
}

func TestSubmitCircuitsValidation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the service")
	}))

	tests := []struct {
		name    string
		mutate  func(*RunRequest)
		wantErr string
	}{
		{
			"zero shots",
			func(r *RunRequest) { r.Shots = 0 },
			"greater than zero",
		},
		{
			"no circuits",
			func(r *RunRequest) { r.Circuits = nil },
			"no circuits",
		},
		{
			"invalid circuit",
			func(r *RunRequest) { r.Circuits[0].Instructions[0].Name = "hadamard" },
			"unknown operation",
		},
		{
			"duplicate logical qubit",
			func(r *RunRequest) {
				r.QubitMapping = []QubitMapping{
					{LogicalName: "QB1", PhysicalName: "QB1"},
					{LogicalName: "QB1", PhysicalName: "QB2"},
				}
			},
			"mapped twice",
		},
		{
			"non-injective mapping",
			func(r *RunRequest) {
				r.QubitMapping = []QubitMapping{
					{LogicalName: "QB1", PhysicalName: "QB1"},
					{LogicalName: "QB2", PhysicalName: "QB1"},
				}
			},
			"both map to",
		},
		{
			"uncovered qubit",
			func(r *RunRequest) {
				r.QubitMapping = []QubitMapping{{LogicalName: "QB1", PhysicalName: "QB1"}}
			},
			"missing from the qubit mapping",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewRunRequest([]circuit.Circuit{measuredCircuit()}, 16, nil)
			require.NoError(t, err)
			tt.mutate(req)
			_, err = c.SubmitCircuits(context.Background(), req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSubmitCircuitsServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "invalid token"}`))
	}))

	req, err := NewRunRequest([]circuit.Circuit{measuredCircuit()}, 16, nil)
	require.NoError(t, err)
	_, err = c.SubmitCircuits(context.Background(), req)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid token", apiErr.Detail)
}

func TestGetRunResult(t *testing.T) {
	jobID := uuid.MustParse("1a63c0e2-5f76-4c3e-8cb6-8b9ae8cf4f27")
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/"+jobID.String(), r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(RunResult{
			Status: StatusReady,
			Measurements: []MeasurementResults{
				{"m1": [][]int64{{0, 1}, {1, 1}}},
			},
			Metadata: Metadata{CalibrationSetID: &calibrationSetID, ServerVersion: "2.11"},
		}))
	}))

	result, err := c.GetRunResult(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, result.Status)
	assert.True(t, result.Status.Finished())
	require.Len(t, result.Measurements, 1)
	assert.Equal(t, [][]int64{{0, 1}, {1, 1}}, result.Measurements[0]["m1"])
	require.NotNil(t, result.Metadata.CalibrationSetID)
	assert.Equal(t, calibrationSetID, *result.Metadata.CalibrationSetID)
}

func TestGetRunStatus(t *testing.T) {
	jobID := uuid.MustParse("5d7cfa7f-2e0c-4a29-b2d3-0f7dd832af65")
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/"+jobID.String()+"/status", r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(RunStatus{Status: StatusPendingExecution}))
	}))

	status, err := c.GetRunStatus(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingExecution, status.Status)
	assert.False(t, status.Status.Finished())
}

func TestAbortJob(t *testing.T) {
	jobID := uuid.MustParse("f6df2c30-c183-4478-87f6-d64e85f5b1f1")

	t.Run("accepted", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/jobs/"+jobID.String()+"/abort", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		assert.NoError(t, c.AbortJob(context.Background(), jobID))
	})

	t.Run("rejected", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail": "failed to abort job"}`))
		}))
		err := c.AbortJob(context.Background(), jobID)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "failed to abort job", apiErr.Detail)
	})
}

func TestSerializeQubitMapping(t *testing.T) {
	assert.Nil(t, SerializeQubitMapping(nil))
	got := SerializeQubitMapping(map[string]string{"b": "QB2", "a": "QB3"})
	assert.Equal(t, []QubitMapping{
		{LogicalName: "a", PhysicalName: "QB3"},
		{LogicalName: "b", PhysicalName: "QB2"},
	}, got)
}

func TestNewRunRequestOptions(t *testing.T) {
	req, err := NewRunRequest([]circuit.Circuit{measuredCircuit()}, 8, nil)
	require.NoError(t, err)
	assert.Equal(t, HeraldingNone, req.HeraldingMode)
	assert.Equal(t, transpile.MoveValidationStrict, req.MoveValidationMode)
	assert.Equal(t, FrameTrackingFull, req.MoveFrameTrackingMode)

	_, err = NewRunRequest([]circuit.Circuit{measuredCircuit()}, 8, &CircuitCompilationOptions{
		MoveValidation: transpile.MoveValidationNone,
		FrameTracking:  FrameTrackingFull,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame tracking")

	req, err = NewRunRequest([]circuit.Circuit{measuredCircuit()}, 8, &CircuitCompilationOptions{
		MoveValidation: transpile.MoveValidationNone,
		FrameTracking:  FrameTrackingNone,
	})
	require.NoError(t, err)
	assert.Equal(t, transpile.MoveValidationNone, req.MoveValidationMode)
}

func TestRunRequestValidateForDevice(t *testing.T) {
	arch := serviceArchitecture()

	clean := circuit.Circuit{
		Name: "routed",
		Instructions: []circuit.Instruction{
			{Name: "move", Locus: circuit.Locus{"QB3", "COMP_R"}, Args: circuit.Args{}},
			{Name: "cz", Locus: circuit.Locus{"QB1", "COMP_R"}, Args: circuit.Args{}},
			{Name: "move", Locus: circuit.Locus{"QB3", "COMP_R"}, Args: circuit.Args{}},
			{Name: "measure", Locus: circuit.Locus{"QB1"}, Args: circuit.Args{"key": "m1"}},
		},
	}
	req, err := NewRunRequest([]circuit.Circuit{clean}, 16, nil)
	require.NoError(t, err)
	assert.NoError(t, req.ValidateForDevice(arch))

	unsafe := circuit.Circuit{
		Name: "unsafe",
		Instructions: []circuit.Instruction{
			{Name: "move", Locus: circuit.Locus{"QB3", "COMP_R"}, Args: circuit.Args{}},
			{Name: "measure", Locus: circuit.Locus{"QB3"}, Args: circuit.Args{"key": "m1"}},
			{Name: "move", Locus: circuit.Locus{"QB3", "COMP_R"}, Args: circuit.Args{}},
		},
	}
	req, err = NewRunRequest([]circuit.Circuit{unsafe}, 16, nil)
	require.NoError(t, err)
	err = req.ValidateForDevice(arch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "while its state is in resonator")

	req, err = NewRunRequest([]circuit.Circuit{unsafe}, 16, &CircuitCompilationOptions{
		MoveValidation: transpile.MoveValidationNone,
		FrameTracking:  FrameTrackingNone,
	})
	require.NoError(t, err)
	assert.NoError(t, req.ValidateForDevice(arch))
}
