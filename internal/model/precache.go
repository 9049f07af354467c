package model

// PrecacheEntry is one asset of the precache manifest
type PrecacheEntry struct {
	URL      string `json:"url"`
	Revision string `json:"revision,omitempty"`
}
