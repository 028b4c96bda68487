package dto

type SettingsPayload struct {
	HomeLat     *float64 `json:"home_lat"`
	HomeLon     *float64 `json:"home_lon"`
	HomeAddress string   `json:"home_address"`
	HomeName    string   `json:"home_name"`
	Timezone    string   `json:"timezone"`
	WorkStart   string   `json:"work_start"`
	WorkEnd     string   `json:"work_end"`
}
