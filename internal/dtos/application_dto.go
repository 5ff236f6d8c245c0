package dtos

type ApplyRequest struct {
	JobID              string `json:"jobId"`
	CoverLetter        string `json:"coverLetter"`
	ResumeURL          string `json:"resumeUrl"`
	ResumeFileID       string `json:"resumeFileId"`
	ResumeOriginalName string `json:"resumeOriginalName"`
}

type DecisionRequest struct {
	Action   string `json:"action"` // accept | reject
	Feedback string `json:"feedback"`
}

type UploadResumeResponse struct {
	FileID       string `json:"fileId"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
}

type InternshipRequest struct {
	CompanyName string `json:"companyName"`
	Role        string `json:"role"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

type ValidateInternshipRequest struct {
	Action string `json:"action"` // validate | anything else rejects
}
