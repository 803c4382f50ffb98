package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ReportSignal struct {
	Code     string  `json:"code"`
	Stage    string  `json:"stage"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Value    float64 `json:"value,omitempty"`
}

type StageMetric struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
	DurationMS int64              `json:"duration_ms"`
	Counters   map[string]float64 `json:"counters,omitempty"`
	Notes      []string           `json:"notes,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// PageMetric records what happened to one page image.
type PageMetric struct {
	Index      int    `json:"index"`
	Path       string `json:"path,omitempty"`
	Status     string `json:"status"`
	Chars      int    `json:"chars"`
	Attempts   int    `json:"attempts"`
	Cached     bool   `json:"cached"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type ReportSummary struct {
	StageCount        int            `json:"stage_count"`
	PageCount         int            `json:"page_count"`
	RecognizedPages   int            `json:"recognized_pages"`
	FailedPages       int            `json:"failed_pages"`
	CachedPages       int            `json:"cached_pages"`
	FailedStages      int            `json:"failed_stages"`
	Blocks            map[string]int `json:"blocks,omitempty"`
	SignalsBySeverity map[string]int `json:"signals_by_severity"`
}

type Report struct {
	Version     string         `json:"version"`
	RunID       string         `json:"run_id"`
	Mode        string         `json:"mode"`
	GeneratedAt string         `json:"generated_at"`
	Input       string         `json:"input"`
	Output      string         `json:"output,omitempty"`
	Recognizer  string         `json:"recognizer,omitempty"`
	Fallback    bool           `json:"fallback"`
	Stages      []StageMetric  `json:"stages"`
	Pages       []PageMetric   `json:"pages,omitempty"`
	Signals     []ReportSignal `json:"signals,omitempty"`
	Blocks      map[string]int `json:"-"`
	Summary     ReportSummary  `json:"summary"`
}

type StageHandle struct {
	name    string
	started time.Time
}

func NewReport(mode, input string) *Report {
	return &Report{
		Version:     "v1",
		RunID:       uuid.NewString(),
		Mode:        mode,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Input:       input,
		Stages:      []StageMetric{},
		Pages:       []PageMetric{},
		Signals:     []ReportSignal{},
	}
}

func (r *Report) BeginStage(name string) StageHandle {
	return StageHandle{name: strings.TrimSpace(name), started: time.Now().UTC()}
}

func (r *Report) EndStage(h StageHandle, status string, counters map[string]float64, notes []string, err error) {
	if r == nil || strings.TrimSpace(h.name) == "" {
		return
	}
	if strings.TrimSpace(status) == "" {
		status = "ok"
	}
	finished := time.Now().UTC()
	m := StageMetric{
		Name:       h.name,
		Status:     status,
		StartedAt:  h.started.Format(time.RFC3339Nano),
		FinishedAt: finished.Format(time.RFC3339Nano),
		DurationMS: finished.Sub(h.started).Milliseconds(),
		Counters:   cleanCounters(counters),
		Notes:      cleanNotes(notes),
	}
	if err != nil {
		m.Error = err.Error()
		if status == "ok" {
			m.Status = "error"
		}
	}
	r.Stages = append(r.Stages, m)
}

func (r *Report) AddSignal(code, stage, severity, message string, value float64) {
	if r == nil {
		return
	}
	s := ReportSignal{
		Code:     strings.TrimSpace(code),
		Stage:    strings.TrimSpace(stage),
		Severity: strings.ToLower(strings.TrimSpace(severity)),
		Message:  strings.TrimSpace(message),
		Value:    value,
	}
	if s.Code == "" || s.Stage == "" || s.Severity == "" || s.Message == "" {
		return
	}
	r.Signals = append(r.Signals, s)
}

func (r *Report) AddPage(m PageMetric) {
	if r == nil {
		return
	}
	r.Pages = append(r.Pages, m)
}

func (r *Report) Finalize() {
	if r == nil {
		return
	}
	r.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	severityCount := map[string]int{
		"critical": 0,
		"warning":  0,
		"info":     0,
	}
	sort.Slice(r.Signals, func(i, j int) bool {
		pi := signalPriority(r.Signals[i].Severity)
		pj := signalPriority(r.Signals[j].Severity)
		if pi == pj {
			if r.Signals[i].Stage == r.Signals[j].Stage {
				return r.Signals[i].Code < r.Signals[j].Code
			}
			return r.Signals[i].Stage < r.Signals[j].Stage
		}
		return pi > pj
	})
	for _, s := range r.Signals {
		severityCount[s.Severity]++
	}

	failed := 0
	for _, st := range r.Stages {
		if st.Status != "ok" {
			failed++
		}
	}

	sort.SliceStable(r.Pages, func(i, j int) bool { return r.Pages[i].Index < r.Pages[j].Index })
	recognized, failedPages, cached := 0, 0, 0
	for _, p := range r.Pages {
		switch p.Status {
		case "ok":
			recognized++
		case "error":
			failedPages++
		}
		if p.Cached {
			cached++
		}
	}

	r.Summary = ReportSummary{
		StageCount:        len(r.Stages),
		PageCount:         len(r.Pages),
		RecognizedPages:   recognized,
		FailedPages:       failedPages,
		CachedPages:       cached,
		FailedStages:      failed,
		Blocks:            r.Blocks,
		SignalsBySeverity: severityCount,
	}
}

func (r *Report) Save(path string) error {
	if r == nil {
		return nil
	}
	r.Finalize()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0644)
}

func cleanCounters(raw map[string]float64) map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		out[key] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cleanNotes(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, n := range raw {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func signalPriority(severity string) int {
	switch severity {
	case "critical":
		return 3
	case "warning":
		return 2
	default:
		return 1
	}
}
