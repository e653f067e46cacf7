package leads

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vietddude/leadgen/internal/core/domain"
)

// ErrJobNotTerminal is returned when export is requested for a job that
// has not finished yet. Exports never expose partial results.
var ErrJobNotTerminal = errors.New("job has not reached a terminal state")

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// jsonExport is the flat JSON export envelope.
type jsonExport struct {
	JobID       string           `json:"job_id"`
	Industry    string           `json:"industry"`
	Country     string           `json:"country"`
	Count       int              `json:"count"`
	GeneratedAt *time.Time       `json:"generated_at,omitempty"`
	Companies   []domain.Company `json:"companies"`
}

// Export projects a completed job into the requested format. Queued and
// processing jobs return ErrJobNotTerminal; failed jobs have nothing to
// export and return their recorded error.
func Export(job *domain.Job, format ExportFormat) ([]byte, error) {
	if !job.Status.Terminal() {
		return nil, ErrJobNotTerminal
	}
	if job.Status == domain.JobStatusFailed {
		return nil, fmt.Errorf("job %s failed: %s", job.ID, job.Error)
	}

	switch format {
	case FormatJSON, "":
		return exportJSON(job)
	case FormatCSV:
		return exportCSV(job)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func exportJSON(job *domain.Job) ([]byte, error) {
	out := jsonExport{
		JobID:       job.ID,
		Industry:    job.Request.Industry,
		Country:     job.Request.Country,
		GeneratedAt: job.CompletedAt,
	}
	if job.Result != nil {
		out.Companies = job.Result.Companies
	}
	out.Count = len(out.Companies)
	return json.MarshalIndent(out, "", "  ")
}

var csvHeader = []string{
	"company_name", "website_url", "company_size", "headquarters_location",
	"revenue_market_cap", "key_products_services", "target_market",
	"number_of_users", "notable_customers", "linkedin", "twitter",
	"contact_email", "additional_emails", "recent_news_insights",
	"decision_maker_roles",
}

func exportCSV(job *domain.Job) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	if job.Result != nil {
		for _, c := range job.Result.Companies {
			social := c.SocialMedia
			if c.SocialMediaScraped != nil {
				social = c.SocialMediaScraped
			}
			row := []string{
				c.CompanyName,
				deref(c.WebsiteURL),
				deref(c.CompanySize),
				deref(c.HeadquartersLocation),
				deref(c.RevenueMarketCap),
				deref(c.KeyProductsServices),
				deref(c.TargetMarket),
				deref(c.NumberOfUsers),
				strings.Join(c.NotableCustomers, "; "),
				socialLink(social, func(s *domain.SocialMedia) *string { return s.LinkedIn }),
				socialLink(social, func(s *domain.SocialMedia) *string { return s.Twitter }),
				deref(c.ContactEmail),
				strings.Join(c.AdditionalEmails, "; "),
				deref(c.RecentNewsInsights),
				strings.Join(c.DecisionMakerRoles, "; "),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func socialLink(s *domain.SocialMedia, pick func(*domain.SocialMedia) *string) string {
	if s == nil {
		return ""
	}
	return deref(pick(s))
}
