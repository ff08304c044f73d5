package driver

import (
	"encoding/json"
	"fmt"
	"io"

	"waspy/internal/observ"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Module  string               `json:"module,omitempty"`
	Path    string               `json:"path,omitempty"`
	Cached  bool                 `json:"cached,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// WriteTimings prints per-module phase timings followed by the totals,
// either as a text table or as NDJSON records.
func WriteTimings(w io.Writer, results []*Result, asJSON bool) error {
	reports := make([]observ.Report, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		reports = append(reports, r.Timing)
		if asJSON {
			if err := writeTimingRecord(w, timingPayload{
				Kind: "module", Module: r.Name, Path: r.Path, Cached: r.Cached,
				TotalMS: r.Timing.TotalMS, Phases: r.Timing.Phases,
			}); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\n%s", r.Name, r.Timing.Summary()); err != nil {
			return err
		}
	}
	total := observ.Sum(reports...)
	if asJSON {
		return writeTimingRecord(w, timingPayload{Kind: "pipeline", TotalMS: total.TotalMS, Phases: total.Phases})
	}
	if len(reports) < 2 {
		return nil
	}
	_, err := fmt.Fprintf(w, "all modules\n%s", total.Summary())
	return err
}

func writeTimingRecord(w io.Writer, p timingPayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
