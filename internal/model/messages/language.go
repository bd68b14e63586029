package messages

// ChangeLanguageRequest is the body of POST /api/change-language.
type ChangeLanguageRequest struct {
	LanguageCode string `json:"language_code"`
}

// ChangeLanguageResponse is the reply of /api/change-language.
type ChangeLanguageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

const StatusSuccess = "success"

func (r ChangeLanguageResponse) OK() bool { return r.Status == StatusSuccess }
