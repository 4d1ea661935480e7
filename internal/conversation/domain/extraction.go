package domain

// Extraction is one turn's worth of candidate facts pulled out of a
// user message. Empty fields mean "nothing observed this turn", never
// "erase what we had".
type Extraction struct {
	Name          string   `json:"name"`
	Company       string   `json:"company"`
	Email         string   `json:"email"`
	Budget        string   `json:"budget"`
	Location      string   `json:"location"`
	Industry      string   `json:"industry"`
	PainPoints    []string `json:"pain_points"`
	Needs         string   `json:"needs"`
	Channel       string   `json:"channel"`
	Timeline      string   `json:"timeline"`
	Notes         string   `json:"notes"`
	DecisionMaker bool     `json:"decision_maker"`
}

// IsEmpty reports whether the extraction carries no usable signal.
func (e Extraction) IsEmpty() bool {
	return e.Name == "" && e.Company == "" && e.Email == "" &&
		e.Budget == "" && e.Location == "" && e.Industry == "" &&
		len(e.PainPoints) == 0 && e.Needs == "" && e.Channel == "" &&
		e.Timeline == "" && e.Notes == "" && !e.DecisionMaker
}
