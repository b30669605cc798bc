package model

// AppSettings is the process-wide application configuration singleton
// held by the mail store. It is replaced wholesale by an explicit update
// and is independent of user and email state.
type AppSettings struct {
	// AppName is the display name shown in the header.
	AppName string `json:"app_name"`

	// LogoURL is an image reference for the logo. Empty selects the
	// built-in default.
	LogoURL string `json:"logo_url"`
}
