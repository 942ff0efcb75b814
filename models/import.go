package models

// ImportRecord is one normalized user entry destined for batch creation.
type ImportRecord struct {
	Username      string  `json:"username"`
	Email         *string `json:"email"`
	AssignedNodes int     `json:"assigned_nodes"`
	ImportStatus  string  `json:"import_status,omitempty"`
	Status        string  `json:"status,omitempty"`
}

func (r ImportRecord) EmailValue() string {
	if r.Email == nil {
		return ""
	}
	return *r.Email
}

// ValidationError describes one failing field of one spreadsheet row. Row is 1-based.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type FailedRecord struct {
	Data  ImportRecord `json:"data"`
	Error string       `json:"error"`
	Code  int          `json:"code,omitempty"`
}

type ImportSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type ImportResult struct {
	Success []ImportRecord `json:"success"`
	Failed  []FailedRecord `json:"failed"`
	Summary ImportSummary  `json:"summary"`
}
