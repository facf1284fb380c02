package models

// EnhanceForm holds the non-file multipart fields of an enhance request,
// read from the POST body only.
type EnhanceForm struct {
	APIKey     string
	Model      string
	Creativity string
}
