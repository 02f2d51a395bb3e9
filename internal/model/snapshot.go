package model

// Snapshot is a point-in-time count of queue items per state
type Snapshot struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Add counts one item in the given state
func (s *Snapshot) Add(state State) {
	s.Total++
	switch state {
	case StatePending:
		s.Pending++
	case StateProcessing:
		s.Processing++
	case StateCompleted:
		s.Completed++
	case StateFailed:
		s.Failed++
	}
}

// Summary is the aggregate result of one batch run. Remaining counts items
// left pending because the run was stopped between items.
type Summary struct {
	Completed int  `json:"completed"`
	Failed    int  `json:"failed"`
	Total     int  `json:"total"`
	Remaining int  `json:"remaining"`
	Stopped   bool `json:"stopped"`
}

// Consistent reports whether every item of the run is accounted for
func (s Summary) Consistent() bool {
	return s.Completed+s.Failed+s.Remaining == s.Total
}
