package web

import (
	"encoding/json"

	"github.com/sweeney/capture-rig/internal/sim"
)

// HistoryJSON is the envelope for the trend endpoint.
type HistoryJSON struct {
	History []sim.HistoryPoint `json:"history"`
}

func formatHistoryJSON(points []sim.HistoryPoint) []byte {
	if points == nil {
		points = []sim.HistoryPoint{}
	}
	data, _ := json.MarshalIndent(HistoryJSON{History: points}, "", "  ")
	return data
}
