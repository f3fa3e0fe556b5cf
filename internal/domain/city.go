package domain

// City is a named geographic point from the reference catalog. Port/ramp
// regions are bid origins; inland locations are delivery destinations.
type City struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	State    string `json:"state,omitempty" yaml:"state,omitempty"`
	Country  string `json:"country,omitempty" yaml:"country,omitempty"`
	IsPort   bool   `json:"isPort" yaml:"-"`
	IsInland bool   `json:"isInland" yaml:"-"`
}

// Label renders "Name, ST" for exports and log lines.
func (c City) Label() string {
	if c.State == "" {
		return c.Name
	}
	return c.Name + ", " + c.State
}
