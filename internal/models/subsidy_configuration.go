package models

// SubsidyRequestConfiguration describes whether an enterprise runs the request workflow and which channel it targets.
type SubsidyRequestConfiguration struct {
	EnterpriseID    string          `json:"enterprise_id"`
	RequestsEnabled bool            `json:"requests_enabled"`
	SubsidyType     *SubsidyChannel `json:"subsidy_type"`
}

// ConfigurationState tracks the configuration store lifecycle.
type ConfigurationState string

const (
	ConfigurationStateUninitialized ConfigurationState = "uninitialized"
	ConfigurationStateLoading       ConfigurationState = "loading"
	ConfigurationStateCreating      ConfigurationState = "creating"
	ConfigurationStatePresent       ConfigurationState = "present"
)

// SubsidyConfigurationPatch is a partial configuration update. Nil fields are left untouched.
type SubsidyConfigurationPatch struct {
	RequestsEnabled  *bool
	SubsidyType      *SubsidyChannel
	ClearSubsidyType bool
}
