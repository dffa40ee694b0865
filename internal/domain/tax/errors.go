package tax

// ErrAlreadyFinalized indicates a finalize call on a report that is no longer a draft
type ErrAlreadyFinalized struct {
	ReportID string
	Status   ReportStatus
}

func (e ErrAlreadyFinalized) Error() string {
	return "report " + e.ReportID + " is already " + string(e.Status)
}

// Is implements the errors.Is interface for ErrAlreadyFinalized
func (e ErrAlreadyFinalized) Is(target error) bool {
	t, ok := target.(ErrAlreadyFinalized)
	if !ok {
		return false
	}
	return t.ReportID == "" || t.ReportID == e.ReportID
}

// ErrReportNotFound indicates missing tax report
type ErrReportNotFound struct {
	ID string
}

func (e ErrReportNotFound) Error() string {
	return "tax report not found: " + e.ID
}

// Is implements the errors.Is interface for ErrReportNotFound
func (e ErrReportNotFound) Is(target error) bool {
	t, ok := target.(ErrReportNotFound)
	if !ok {
		return false
	}
	return t.ID == "" || t.ID == e.ID
}
