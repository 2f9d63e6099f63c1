package casestudy

import "destinpq/internal/domain"

// Fallback returns the hardcoded case studies served when every other
// strategy fails. Each call returns a fresh copy.
func Fallback() []domain.CaseStudy {
	return []domain.CaseStudy{
		{
			Title:       "AI-Powered Financial Forecasting",
			Client:      "Global Investment Firm",
			Description: "Developed a sophisticated machine learning model that increased prediction accuracy by 35% for a leading investment firm, saving them millions in potential losses.",
			Image:       "/case-studies/finance.jpg",
			Results:     []string{"35% higher forecast accuracy", "Saved $2.4M annually", "95% client satisfaction"},
			Date:        "2023-08",
			Category:    "Finance",
		},
		{
			Title:       "Smart Manufacturing Optimization",
			Client:      "Manufacturing Corp",
			Description: "Implemented AI systems that reduced waste and increased production efficiency for a major manufacturing company. The system optimizes resource allocation in real-time.",
			Image:       "/case-studies/manufacturing.jpg",
			Results:     []string{"28% reduction in waste", "19% efficiency increase", "ROI in 4 months"},
			Date:        "2023-06",
			Category:    "Manufacturing",
		},
		{
			Title:       "Predictive Healthcare Analytics",
			Client:      "Regional Hospital Network",
			Description: "Created a predictive analytics platform that helps doctors identify at-risk patients before symptoms worsen, enabling early intervention and improved patient outcomes.",
			Image:       "/case-studies/healthcare.jpg",
			Results:     []string{"Early diagnosis improved by 42%", "15% reduction in hospital readmissions", "$3.2M annual savings"},
			Date:        "2023-04",
			Category:    "Healthcare",
		},
	}
}
