package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/missionhq/missionctl/internal/content"
	"github.com/missionhq/missionctl/internal/logfilter"
	"github.com/missionhq/missionctl/internal/schedule"
	"github.com/missionhq/missionctl/internal/store"
)

func (s *Server) registerAPI(mux *http.ServeMux) {
	// Use case selection
	mux.HandleFunc("GET /api/usecases", s.listUseCases)
	mux.HandleFunc("GET /api/industries", s.listIndustries)
	mux.HandleFunc("POST /api/usecases/{id}/select", s.selectUseCase)
	mux.HandleFunc("GET /api/usecases/{id}/summary", s.getSummary)

	// Deployment
	mux.HandleFunc("POST /api/deploy", s.deploy)
	mux.HandleFunc("POST /api/deploy/stop", s.stopDeploy)
	mux.HandleFunc("GET /api/deployment-log", s.getDeploymentLog)

	// Mission state
	mux.HandleFunc("GET /api/agents", s.listAgents)
	mux.HandleFunc("POST /api/agents/{id}/position", s.moveAgent)
	mux.HandleFunc("GET /api/operations", s.getOperations)
	mux.HandleFunc("GET /api/integration-logs", s.getIntegrationLogs)
	mux.HandleFunc("GET /api/integration-logs/history", s.getIntegrationHistory)

	// Outputs
	mux.HandleFunc("GET /api/reports", s.listReports)
	mux.HandleFunc("GET /api/reports/{usecase}/{id}/download", s.downloadReport)
	mux.HandleFunc("GET /api/reports/archive", s.downloadArchive)
	mux.HandleFunc("GET /api/datasets", s.listDatasets)
	mux.HandleFunc("GET /api/objectives", s.listObjectives)
	mux.HandleFunc("GET /api/decision-process", s.getDecisionProcess)

	// Run history
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.getRun)

	// Replay tasks (kiosk mode)
	mux.HandleFunc("GET /api/replays", s.listReplays)
	mux.HandleFunc("POST /api/replays", s.createReplay)
	mux.HandleFunc("DELETE /api/replays/{id}", s.deleteReplay)

	// System
	mux.HandleFunc("GET /api/status", s.getStatus)
}

func (s *Server) listUseCases(w http.ResponseWriter, r *http.Request) {
	selected := s.state.UseCaseID()
	cases := s.registry.Catalog().UseCases()
	out := make([]map[string]any, 0, len(cases))
	for _, uc := range cases {
		out = append(out, map[string]any{
			"id":       uc.ID,
			"name":     uc.Name,
			"industry": uc.Industry,
			"active":   uc.Active,
			"headline": uc.Summary.Headline,
			"agents":   len(uc.Agents),
			"selected": uc.ID == selected,
		})
	}
	jsonResponse(w, out)
}

func (s *Server) listIndustries(w http.ResponseWriter, r *http.Request) {
	byIndustry := make(map[string][]string)
	for _, uc := range s.registry.Catalog().UseCases() {
		if !uc.Active {
			continue
		}
		byIndustry[uc.Industry] = append(byIndustry[uc.Industry], uc.ID)
	}

	industries := make([]string, 0, len(byIndustry))
	for name := range byIndustry {
		industries = append(industries, name)
	}
	sort.Strings(industries)

	out := make([]map[string]any, 0, len(industries))
	for _, name := range industries {
		out = append(out, map[string]any{
			"name":      name,
			"use_cases": byIndustry[name],
		})
	}
	jsonResponse(w, out)
}

func (s *Server) selectUseCase(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.engine.Running() {
		jsonError(w, "deployment in progress", http.StatusConflict)
		return
	}
	if err := s.registry.Select(id); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	jsonResponse(w, map[string]string{"status": "ok", "selected": id})
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	uc := s.registry.Catalog().Get(r.PathValue("id"))
	if uc == nil {
		jsonError(w, "unknown use case", http.StatusNotFound)
		return
	}
	jsonResponse(w, map[string]any{
		"headline":    uc.Summary.Headline,
		"pain_points": uc.Summary.PainPoints,
		"roi":         uc.Summary.ROI,
		"case_study":  uc.Summary.CaseStudy,
	})
}

func (s *Server) deploy(w http.ResponseWriter, r *http.Request) {
	run, err := s.engine.StartRun("manual")
	if err != nil {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	jsonResponse(w, run)
}

func (s *Server) stopDeploy(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Stop(); err != nil {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	jsonResponse(w, map[string]string{"status": "stopped"})
}

func (s *Server) getDeploymentLog(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.state.DeploymentLog())
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.state.Agents())
}

func (s *Server) moveAgent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !s.state.MoveAgent(r.PathValue("id"), body.X, body.Y) {
		jsonError(w, "unknown agent", http.StatusNotFound)
		return
	}
	jsonResponse(w, map[string]string{"status": "ok"})
}

func (s *Server) getOperations(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.state.Operations())
}

// getIntegrationLogs filters the live in-memory log. Selectors default to
// "all"; they combine with AND.
func (s *Server) getIntegrationLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries := logfilter.Apply(s.state.IntegrationLog(), logfilter.Criteria{
		Agent:    q.Get("agent"),
		Workflow: q.Get("workflow"),
		Type:     q.Get("event_type"),
	})
	jsonResponse(w, entries)
}

// getIntegrationHistory reads persisted logs across runs from the store.
func (s *Server) getIntegrationHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	logs, err := s.store.GetIntegrationLogs(q.Get("use_case"), store.LogFilter{
		Agent:    q.Get("agent"),
		Workflow: q.Get("workflow"),
		Type:     q.Get("event_type"),
	}, 0)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, logs)
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	useCaseID := r.URL.Query().Get("use_case")
	if useCaseID == "" {
		useCaseID = s.state.UseCaseID()
	}
	if useCaseID == "" {
		jsonError(w, "no use case selected", http.StatusBadRequest)
		return
	}
	jsonResponse(w, s.reports.List(useCaseID))
}

func (s *Server) downloadReport(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.reports.Download(r.PathValue("usecase"), r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}

func (s *Server) downloadArchive(w http.ResponseWriter, r *http.Request) {
	useCaseID := r.URL.Query().Get("use_case")
	if useCaseID == "" {
		useCaseID = s.state.UseCaseID()
	}
	if useCaseID == "" {
		jsonError(w, "no use case selected", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", useCaseID+"-reports.tar.zst"))
	if err := s.reports.Archive(useCaseID, w); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) listDatasets(w http.ResponseWriter, r *http.Request) {
	useCaseID := r.URL.Query().Get("use_case")
	if useCaseID == "" {
		useCaseID = s.state.UseCaseID()
	}
	datasets := s.registry.Catalog().DatasetsFor(useCaseID)
	if datasets == nil {
		datasets = []content.Dataset{}
	}
	jsonResponse(w, datasets)
}

func (s *Server) listObjectives(w http.ResponseWriter, r *http.Request) {
	useCaseID := r.URL.Query().Get("use_case")
	if useCaseID == "" {
		useCaseID = s.state.UseCaseID()
	}
	jsonResponse(w, s.registry.Catalog().ObjectivesFor(useCaseID))
}

func (s *Server) getDecisionProcess(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.registry.Catalog().Process())
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.URL.Query().Get("use_case"), 0)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	jsonResponse(w, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	jsonResponse(w, run)
}

func (s *Server) listReplays(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListReplayTasks()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		entry := map[string]any{
			"id":          t.ID,
			"use_case_id": t.UseCaseID,
			"name":        t.Name,
			"schedule":    t.Schedule,
			"status":      t.Status,
			"next_run_at": t.NextRunAt,
			"last_run_at": t.LastRunAt,
			"last_status": t.LastStatus,
		}
		if parsed, err := schedule.Parse(t.Schedule); err == nil {
			entry["schedule_label"] = parsed.Describe()
		}
		out = append(out, entry)
	}
	jsonResponse(w, out)
}

func (s *Server) createReplay(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UseCaseID string `json:"use_case_id"`
		Name      string `json:"name"`
		Schedule  string `json:"schedule"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if uc := s.registry.Catalog().Get(body.UseCaseID); uc == nil || !uc.Active {
		jsonError(w, "unknown or inactive use case", http.StatusBadRequest)
		return
	}

	normalized, err := schedule.Normalize(body.Schedule)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	task := &store.ReplayTask{
		ID:        uuid.New().String(),
		UseCaseID: body.UseCaseID,
		Name:      body.Name,
		Schedule:  normalized,
		Status:    "active",
		NextRunAt: schedule.NextRunOf(normalized, time.Now()),
	}
	if task.NextRunAt == nil {
		jsonError(w, "schedule has no future run", http.StatusBadRequest)
		return
	}
	if err := s.store.SaveReplayTask(task); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, task)
}

func (s *Server) deleteReplay(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteReplayTask(r.PathValue("id")); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "deleted"})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	natsConnected := s.nats != nil && s.nats.IsConnected()
	jsonResponse(w, map[string]any{
		"version":        s.version,
		"uptime":         time.Since(s.startedAt).Round(time.Second).String(),
		"use_case":       s.state.UseCaseID(),
		"deployed":       s.state.Deployed(),
		"running":        s.engine.Running(),
		"clients":        s.hub.ClientCount(),
		"nats_connected": natsConnected,
	})
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
