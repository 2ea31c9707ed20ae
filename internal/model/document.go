package model

// Status tracks how far a document made it through the ingestion pipeline.
// Every value except StatusUploaded is terminal for a single upload attempt;
// the reconcile job is the only path out of StatusIndexFailed.
type Status string

const (
	StatusUploaded      Status = "uploaded"
	StatusParsingFailed Status = "parsing_failed"
	StatusNoContent     Status = "no_content"
	StatusDBSaveFailed  Status = "db_save_failed"
	StatusIndexFailed   Status = "es_index_failed"
	StatusProcessed     Status = "processed"
	StatusFailed        Status = "failed_unhandled_error"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUploaded, StatusParsingFailed, StatusNoContent,
		StatusDBSaveFailed, StatusIndexFailed, StatusProcessed, StatusFailed:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s.Valid() && s != StatusUploaded
}

type Document struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	Filename   string `json:"filename"`
	StorageKey string `json:"storage_key"`
	Status     Status `json:"status"`
	Ctime      int64  `json:"ctime"`
}
