package app

// HeartRatePoint is one point of the intraday heart rate chart.
type HeartRatePoint struct {
	Time string `json:"time"`
	BPM  int    `json:"bpm"`
}

// StepsPoint is one bar of the weekly steps chart.
type StepsPoint struct {
	Day   string `json:"day"`
	Steps int    `json:"steps"`
}

// Trends is the performance charts view model.
type Trends struct {
	HeartRate []HeartRatePoint `json:"heartRate"`
	Steps     []StepsPoint     `json:"steps"`
}

// TrendsService serves the performance charts. The series are fixed until
// garments report history.
type TrendsService struct{}

// NewTrendsService creates a TrendsService.
func NewTrendsService() *TrendsService { return &TrendsService{} }

// Get returns the chart series for userID.
func (s *TrendsService) Get(userID string) Trends {
	_ = userID
	return Trends{
		HeartRate: []HeartRatePoint{
			{"6AM", 65}, {"9AM", 72}, {"12PM", 78}, {"3PM", 75}, {"6PM", 82}, {"9PM", 68},
		},
		Steps: []StepsPoint{
			{"Mon", 8234}, {"Tue", 9876}, {"Wed", 7543}, {"Thu", 10234},
			{"Fri", 8765}, {"Sat", 12456}, {"Sun", 6789},
		},
	}
}
