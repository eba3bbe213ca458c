package core

// Note is one append-only annotation attached to a vessel by MMSI. Notes
// are never edited or deleted, only added.
type Note struct {
	ID   uint   `json:"id"`
	MMSI string `json:"mmsi"`
	Date string `json:"date"`
	Text string `json:"text"`
}
