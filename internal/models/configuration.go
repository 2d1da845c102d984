package models

// Configuration is the slowly-varying installer and user configuration block.
// Fields keep the wire key names; nil means the firmware does not expose the key.
type Configuration struct {
	ReportURL      *string `json:"report_url,omitempty"`
	DownloadURL    *string `json:"download_url,omitempty"`
	BoilerID       *string `json:"boiler_id,omitempty"`
	BoilerDetType  *int    `json:"boiler_det_type,omitempty"`
	InstallerID    *string `json:"installer_id,omitempty"`
	SupportContact *string `json:"support_contact,omitempty"`

	Language       *int     `json:"language,omitempty"`
	PressureUnit   *int     `json:"pressure_unit,omitempty"`
	TempUnit       *int     `json:"temp_unit,omitempty"`
	TimeFormat     *int     `json:"time_format,omitempty"`
	TimeZone       *int     `json:"time_zone,omitempty"`
	DispBrightness *int     `json:"disp_brightness,omitempty"`
	PrivacyMode    *int     `json:"privacy_mode,omitempty"`
	SummerEcoMode  *int     `json:"summer_eco_mode,omitempty"`
	SummerEcoTemp  *float64 `json:"summer_eco_temp,omitempty"`
	ShowerTimeMode *int     `json:"shower_time_mode,omitempty"`
	ComfortSetting *int     `json:"comfort_settings,omitempty"`

	RoomTempOffs *float64 `json:"room_temp_offs,omitempty"`
	OutsTempOffs *float64 `json:"outs_temp_offs,omitempty"`

	CHTempMax      *float64 `json:"ch_temp_max,omitempty"`
	CHVacationTemp *float64 `json:"ch_vacation_temp,omitempty"`
	StartVacation  *int64   `json:"start_vacation,omitempty"`
	CHMaxSet       *float64 `json:"ch_max_set,omitempty"`
	CHMinSet       *float64 `json:"ch_min_set,omitempty"`
	DHWMaxSet      *float64 `json:"dhw_max_set,omitempty"`
	DHWMinSet      *float64 `json:"dhw_min_set,omitempty"`

	WDKFactor     *float64 `json:"wd_k_factor,omitempty"`
	WDExponent    *float64 `json:"wd_exponent,omitempty"`
	WDControlTemp *float64 `json:"wd_control_temp,omitempty"`
	WDTempOffs    *float64 `json:"wd_temp_offs,omitempty"`
	ClimateZone   *float64 `json:"climate_zone,omitempty"`
	WDRTempsInfl  *int     `json:"wdr_temps_influence,omitempty"`
	Mu            *float64 `json:"mu,omitempty"`

	DHWLegionDay     *int `json:"dhw_legion_day,omitempty"`
	DHWLegionTime    *int `json:"dhw_legion_time,omitempty"`
	DHWLegionEnabled *int `json:"dhw_legion_enabled,omitempty"`
	DHWBoilerCap     *int `json:"dhw_boiler_cap,omitempty"`

	CHBuildingSize *int `json:"ch_building_size,omitempty"`
	CHHeatingType  *int `json:"ch_heating_type,omitempty"`
	CHIsolation    *int `json:"ch_isolation,omitempty"`

	CHModeVacation *int64 `json:"ch_mode_vacation,omitempty"` // seconds
	CHModeExtend   *int64 `json:"ch_mode_extend,omitempty"`   // seconds
	MaxPreheat     *int64 `json:"max_preheat,omitempty"`      // minutes

	FrostProtEnabled  *int     `json:"frost_prot_enabled,omitempty"`
	FrostProtTempOuts *float64 `json:"frost_prot_temp_outs,omitempty"`
	FrostProtTempRoom *float64 `json:"frost_prot_temp_room,omitempty"`
}
