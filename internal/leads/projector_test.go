package leads

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/leadgen/internal/core/domain"
)

func completedJob() *domain.Job {
	now := time.Now().UTC()
	url := "https://kuka.example"
	email := "sales@kuka.example"
	return &domain.Job{
		ID:          "job-1",
		Status:      domain.JobStatusCompleted,
		Request:     domain.LeadRequest{Industry: "robotics", Count: 2, Country: "Germany"},
		CreatedAt:   now,
		CompletedAt: &now,
		Result: &domain.LeadBatch{Companies: []domain.Company{
			{
				CompanyName:      "Kuka",
				WebsiteURL:       &url,
				ContactEmail:     &email,
				NotableCustomers: []string{"BMW", "Audi"},
			},
			{CompanyName: "Festo"},
		}},
	}
}

func TestExportJSON(t *testing.T) {
	data, err := Export(completedJob(), FormatJSON)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var out struct {
		JobID     string           `json:"job_id"`
		Industry  string           `json:"industry"`
		Count     int              `json:"count"`
		Companies []domain.Company `json:"companies"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if out.JobID != "job-1" || out.Industry != "robotics" {
		t.Errorf("metadata = %+v", out)
	}
	if out.Count != 2 || len(out.Companies) != 2 {
		t.Errorf("count = %d, companies = %d, want 2/2", out.Count, len(out.Companies))
	}
}

func TestExportDefaultsToJSON(t *testing.T) {
	data, err := Export(completedJob(), "")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !json.Valid(data) {
		t.Error("default export is not JSON")
	}
}

func TestExportCSV(t *testing.T) {
	data, err := Export(completedJob(), FormatCSV)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2 companies", len(rows))
	}
	if rows[0][0] != "company_name" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "Kuka" || rows[2][0] != "Festo" {
		t.Errorf("company rows = %v, %v", rows[1], rows[2])
	}
	if !strings.Contains(strings.Join(rows[1], ","), "BMW; Audi") {
		t.Error("notable customers not joined into one cell")
	}
}

func TestExportNonTerminal(t *testing.T) {
	for _, status := range []domain.JobStatus{domain.JobStatusQueued, domain.JobStatusProcessing} {
		job := completedJob()
		job.Status = status
		if _, err := Export(job, FormatJSON); !errors.Is(err, ErrJobNotTerminal) {
			t.Errorf("Export(%s) = %v, want ErrJobNotTerminal", status, err)
		}
	}
}

func TestExportFailedJob(t *testing.T) {
	job := completedJob()
	job.Status = domain.JobStatusFailed
	job.Result = nil
	job.Error = "permanent error: http 401"

	_, err := Export(job, FormatJSON)
	if err == nil || errors.Is(err, ErrJobNotTerminal) {
		t.Errorf("Export(failed) = %v, want job error", err)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	if _, err := Export(completedJob(), "xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
