package domain

// ─── Settings ───────────────────────────────────────────────────────────────
// Settings is the one piece of runtime-mutable configuration: the daily
// creation window. It is loaded once at startup, merged over defaults, and
// re-persisted immediately whenever the window is changed.

// CreationWindow is a daily local time-of-day interval, "HH:MM" bounds.
// If End <= Start the window crosses midnight.
type CreationWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Settings holds the persisted user settings.
type Settings struct {
	CreationWindow CreationWindow `json:"creation_window"`
}

// DefaultSettings returns the hardcoded defaults used when no settings file
// exists or when a load fails.
func DefaultSettings() Settings {
	return Settings{
		CreationWindow: CreationWindow{Start: "11:00", End: "12:00"},
	}
}

// Merged returns s with any missing fields filled from the defaults.
func (s Settings) Merged() Settings {
	def := DefaultSettings()
	if s.CreationWindow.Start == "" {
		s.CreationWindow.Start = def.CreationWindow.Start
	}
	if s.CreationWindow.End == "" {
		s.CreationWindow.End = def.CreationWindow.End
	}
	return s
}
