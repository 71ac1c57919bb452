package driver

import (
	"encoding/json"
	"fmt"

	"hirindex/internal/diag"
	"hirindex/internal/observ"
	"hirindex/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Crate   string               `json:"crate,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// AppendTimings records the session timings as an info diagnostic whose
// note carries the JSON report.
func (s *Session) AppendTimings() {
	payload := timingPayload{Kind: "pipeline"}
	if s.crate != nil {
		payload.Crate = s.crate.Name
	}
	report := s.Timer.Report()
	payload.TotalMS = report.TotalMS
	payload.Phases = report.Phases

	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if payload.Crate != "" {
		msg = fmt.Sprintf("%s for %s", msg, payload.Crate)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.rep.Report(diag.ObsTimings, diag.SevInfo, source.DummySpan, msg, []diag.Note{
		{Span: source.DummySpan, Msg: string(data)},
	})
}
