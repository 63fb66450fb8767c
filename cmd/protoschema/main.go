// Command protoschema emits a JSON schema describing the wire payloads the
// dashboard accepts, keyed by event type. Renderer and simulator teams consume
// it to validate their frames without importing Go code.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"floorsight/dashboard/internal/proto"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "output path for the JSON schema")
	flag.Parse()

	if outPath == "" {
		log.Fatal("protoschema: missing -out path")
	}

	data, err := json.MarshalIndent(buildSchema(), "", "  ")
	if err != nil {
		log.Fatalf("protoschema: marshal schema: %v", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Fatalf("protoschema: create output dir: %v", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		log.Fatalf("protoschema: write schema: %v", err)
	}
}

// payloadTypes maps wire event types to the Go payload each carries. Pure
// noise types and the batch wrapper are omitted: a batch nests plain
// envelopes.
var payloadTypes = map[string]any{
	"operator_update":          proto.OperatorUpdate{},
	"operator_data_update":     proto.OperatorDataUpdate{},
	"operator_fatigue_update":  proto.OperatorFatigueUpdate{},
	"visibility_sync":          proto.VisibilitySync{},
	"supervisor_update":        proto.SupervisorUpdate{},
	"maintenance_crew_update":  proto.MaintenanceCrewUpdate{},
	"line_status":              proto.LineStatus{},
	"machine_production_state": proto.MachineProductionState{},
	"camera_update":            proto.CameraUpdate{},
	"inventory_update":         proto.InventoryUpdate{},
	"financial_update":         proto.FinancialUpdate{},
	"kpi_update":               proto.KPIUpdate{},
	"conveyor_box_update":      proto.ConveyorBoxUpdate{},
	"box_arrived_warehouse":    proto.BoxArrivedWarehouse{},
	"agent_thought":            proto.ReasoningPayload{},
	"log_history":              proto.LogHistoryPayload{},
	"heartbeat":                proto.Heartbeat{},
}

func buildSchema() map[string]any {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
	}

	envelope := reflector.Reflect(proto.Envelope{})
	envelope.Version = ""
	envelope.Title = "Event Envelope"
	envelope.Description = "Every frame is a typed envelope; data carries the per-type payload."

	definitions := make(map[string]*jsonschema.Schema, len(payloadTypes))
	for eventType, payload := range payloadTypes {
		schema := reflector.Reflect(payload)
		schema.Version = ""
		schema.Title = eventType
		definitions[eventType] = schema
	}

	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2020-12/schema",
		"title":       "Floorsight Dashboard Event Stream",
		"description": "Payload shapes accepted by the dashboard sync engine, keyed by event type.",
		"envelope":    envelope,
		"definitions": definitions,
	}
}
