package models

type DesignRequest struct {
	Font       string `json:"font" example:"Courier"`
	TextColor  string `json:"textColor" example:"#112233"`
	BgColor    string `json:"bgColor" example:"#FFFFFF"`
	HeaderText string `json:"headerText,omitempty"`
	FooterText string `json:"footerText,omitempty"`
	// Logo is a data URI, an http(s) URL or a path under the asset root.
	Logo string `json:"logo,omitempty"`
	// QRCode prints a QR code with the holder's ID, name and class. On unless
	// set to false.
	QRCode *bool `json:"qrCode,omitempty"`
}

type GenerateRequest struct {
	// UploadID is the id returned by the upload call.
	UploadID string `json:"uploadId,omitempty"`
	// FilePath is accepted as an alias of UploadID for older clients.
	FilePath string        `json:"filePath,omitempty"`
	Design   DesignRequest `json:"design"`
	// SelectedIDs restricts generation to rows whose ID is listed.
	SelectedIDs []string `json:"selectedIds,omitempty"`
}

// Reference returns the dataset reference the client sent.
func (r GenerateRequest) Reference() string {
	if r.UploadID != "" {
		return r.UploadID
	}
	return r.FilePath
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
