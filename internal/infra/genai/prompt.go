package genai

import (
	"fmt"

	"github.com/vietddude/leadgen/internal/core/domain"
)

// buildPrompt renders the lead-generation prompt. The model is told to
// answer with bare JSON matching domain.LeadBatch; stripCodeFences
// covers the cases where it wraps the payload anyway.
func buildPrompt(req domain.LeadRequest) string {
	return fmt.Sprintf(`You are a professional lead generation expert. Generate a comprehensive list of %d companies in the %s industry that are based in or operate in %s.

**IMPORTANT: You must return your response as a valid JSON object only. Do not include any markdown formatting, code blocks, or additional text outside the JSON.**

Return a JSON object with this structure:
{
    "companies": [
        {
            "company_name": "Official company name",
            "website_url": "Official website link",
            "company_size": "Number of employees (approximate range)",
            "headquarters_location": "City and Country",
            "revenue_market_cap": "Annual revenue or market capitalization",
            "key_products_services": "Main offerings relevant to the industry",
            "target_market": "Primary customer segments they serve",
            "number_of_users": "Total number of users/members/customers/subscribers",
            "notable_customers": ["Customer 1", "Customer 2"] or null,
            "social_media": {
                "linkedin": "LinkedIn company page URL",
                "twitter": "Twitter/X profile URL",
                "facebook": "Facebook page URL",
                "instagram": "Instagram profile URL",
                "youtube": "YouTube channel URL"
            },
            "contact_email": "General contact email",
            "recent_news_insights": "Recent developments, partnerships, or notable information",
            "decision_maker_roles": ["CEO", "CFO", "VP of Sales"]
        }
    ]
}

Focus on providing accurate, up-to-date information that would be valuable for business development and lead generation purposes.

**CRITICAL: If any information is not publicly available or cannot be found, set that field to null (not the string "Not publicly available", but the JSON null value).**

For "number_of_users", use the most recent publicly available data with approximate numbers if exact figures aren't available (e.g., "50 million members"). If not available, set to null.

For "social_media", provide the official URLs for each platform. Set individual platforms to null if not found.

Remember: Return ONLY the JSON object, no additional text or formatting.`, req.Count, req.Industry, req.Country)
}
