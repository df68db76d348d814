package model

// Material is an attenuating building material with a fixed loss in dB.
type Material struct {
	Name          string  `json:"name" yaml:"name"`
	AttenuationDB float64 `json:"attenuation_db" yaml:"attenuation_db"`
}

// Obstacle is a rectangular region of a single material. Obstacles may
// overlap; their losses add up.
type Obstacle struct {
	Bounds   Rect     `json:"bounds" yaml:"bounds"`
	Material Material `json:"material" yaml:"material"`
}
