package domain

import (
	"fmt"
	"strings"
)

const (
	MinLeadCount = 1
	MaxLeadCount = 50
)

// LeadRequest holds the parameters of a generation request.
// Immutable once attached to a Job.
type LeadRequest struct {
	Industry       string `json:"industry"`
	Count          int    `json:"number"`
	Country        string `json:"country"`
	EnableScraping bool   `json:"enable_web_scraping"`
}

// Validate rejects out-of-bounds requests before any job is created.
func (r LeadRequest) Validate() error {
	if strings.TrimSpace(r.Industry) == "" {
		return &ValidationError{Field: "industry", Message: "must not be empty"}
	}
	if strings.TrimSpace(r.Country) == "" {
		return &ValidationError{Field: "country", Message: "must not be empty"}
	}
	if r.Count < MinLeadCount || r.Count > MaxLeadCount {
		return &ValidationError{
			Field:   "number",
			Message: fmt.Sprintf("must be between %d and %d", MinLeadCount, MaxLeadCount),
		}
	}
	return nil
}

// LeadBatch is the payload produced by the generation provider.
type LeadBatch struct {
	Companies []Company `json:"companies"`
}

// Company is a single generated lead. Fields the model could not source
// are null rather than placeholder strings.
type Company struct {
	CompanyName          string       `json:"company_name"`
	WebsiteURL           *string      `json:"website_url,omitempty"`
	CompanySize          *string      `json:"company_size,omitempty"`
	HeadquartersLocation *string      `json:"headquarters_location,omitempty"`
	RevenueMarketCap     *string      `json:"revenue_market_cap,omitempty"`
	KeyProductsServices  *string      `json:"key_products_services,omitempty"`
	TargetMarket         *string      `json:"target_market,omitempty"`
	NumberOfUsers        *string      `json:"number_of_users,omitempty"`
	NotableCustomers     []string     `json:"notable_customers,omitempty"`
	SocialMedia          *SocialMedia `json:"social_media,omitempty"`
	SocialMediaScraped   *SocialMedia `json:"social_media_scraped,omitempty"`
	ContactEmail         *string      `json:"contact_email,omitempty"`
	AdditionalEmails     []string     `json:"additional_emails,omitempty"`
	RecentNewsInsights   *string      `json:"recent_news_insights,omitempty"`
	DecisionMakerRoles   []string     `json:"decision_maker_roles,omitempty"`
}

// SocialMedia holds per-platform profile URLs.
type SocialMedia struct {
	LinkedIn  *string `json:"linkedin,omitempty"`
	Twitter   *string `json:"twitter,omitempty"`
	Facebook  *string `json:"facebook,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	YouTube   *string `json:"youtube,omitempty"`
}
