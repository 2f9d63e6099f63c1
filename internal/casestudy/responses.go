package casestudy

import "destinpq/internal/domain"

// DirectResponse is the body of GET /api/case-studies/direct.
type DirectResponse struct {
	Success    bool     `json:"success"`
	CSVData    string   `json:"csvData,omitempty"`
	DataLength int      `json:"dataLength,omitempty"`
	Preview    string   `json:"preview,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	Error      string   `json:"error,omitempty"`
	Message    string   `json:"message"`
}

// CSVAttempt describes the debug endpoint's own CSV export fetch.
type CSVAttempt struct {
	Success     bool    `json:"success"`
	Error       *string `json:"error"`
	DataPreview *string `json:"dataPreview"`
	DataLength  int     `json:"dataLength"`
}

// DebugResponse is the body of GET /api/case-studies/debug.
type DebugResponse struct {
	Success    bool               `json:"success"`
	Count      int                `json:"count"`
	Data       []domain.CaseStudy `json:"data"`
	CSVAttempt CSVAttempt         `json:"csvAttempt"`
	Error      string             `json:"error,omitempty"`
	Message    string             `json:"message"`
}

// SheetsAltResponse is the body of GET /api/google-sheets-alt.
type SheetsAltResponse struct {
	Success       bool               `json:"success"`
	Method        string             `json:"method,omitempty"`
	Data          []domain.CaseStudy `json:"data"`
	RawDataSample string             `json:"rawDataSample,omitempty"`
	Status        int                `json:"status,omitempty"`
	StatusText    string             `json:"statusText,omitempty"`
	ResponseText  string             `json:"responseText,omitempty"`
	Error         string             `json:"error,omitempty"`
	Message       string             `json:"message,omitempty"`
}

// Truncate returns at most n bytes of s, cut on a rune boundary.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
