package domain

// Process-scoped user profile. Home must be set before resolution;
// WorkStart/WorkEnd are local wall-clock "HH:MM" strings.
type Settings struct {
	Home        *Coordinates
	HomeAddress string
	HomeName    string
	Timezone    string
	WorkStart   string
	WorkEnd     string
}

// HomeCoords returns the home coordinate or ErrHomeNotSet.
func (s Settings) HomeCoords() (Coordinates, error) {
	if s.Home == nil || s.Home.IsZero() {
		return Coordinates{}, ErrHomeNotSet
	}
	return *s.Home, nil
}
