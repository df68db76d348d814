package model

// AccessPoint is a single radio transmitter placed in the building.
// APs are created by the caller before an evaluation and must not be
// mutated while one is in flight.
type AccessPoint struct {
	ID         string  `json:"id" yaml:"id"`
	Position   Point   `json:"position" yaml:"position"`
	TxPowerDBm float64 `json:"tx_power_dbm" yaml:"tx_power_dbm"`
	Channel    int     `json:"channel" yaml:"channel"`

	// Directional antennas radiate within BeamWidthDeg centred on
	// BeamDirectionDeg (degrees, counter-clockwise from +X). Points outside
	// the beam take a fixed off-axis penalty.
	Directional      bool    `json:"directional,omitempty" yaml:"directional,omitempty"`
	BeamDirectionDeg float64 `json:"beam_direction_deg,omitempty" yaml:"beam_direction_deg,omitempty"`
	BeamWidthDeg     float64 `json:"beam_width_deg,omitempty" yaml:"beam_width_deg,omitempty"`
}
