package models

import "strings"

// ClientMetadata is the request context attached to stored records.
type ClientMetadata struct {
	UserAgent *string
	Referrer  *string
	Source    string
}

// NewClientMetadata maps blank header values to nil so they are stored as null.
func NewClientMetadata(userAgent, referrer, source string) ClientMetadata {
	return ClientMetadata{
		UserAgent: optionalString(userAgent),
		Referrer:  optionalString(referrer),
		Source:    source,
	}
}

func optionalString(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
