package apimodel

// StateMessage describes what the front panel currently shows.
type StateMessage struct {
	State           string `json:"state"`
	ActiveView      string `json:"active_view"`
	Menu            string `json:"menu,omitempty"`
	Option          string `json:"option,omitempty"`
	Brightness      int    `json:"brightness"`
	BrightnessAuto  bool   `json:"brightness_auto"`
	TemperatureUnit string `json:"temperature_unit"`
}
