package domain

// CommitResult is the outcome of a successful sink commit.
type CommitResult struct {
	RowsWritten  int  `json:"rowsWritten"`
	TableCreated bool `json:"tableCreated"`
}
