package models

type FlagKey string

const (
	FlagShowProjectsButton   FlagKey = "showProjectsButton"
	FlagShowAboutMeButton    FlagKey = "showAboutMeButton"
	FlagShowExpertiseButton  FlagKey = "showExpertiseButton"
	FlagShowCpuArchitecture  FlagKey = "showCpuArchitecture"
	FlagShowDockNavigation   FlagKey = "showDockNavigation"
	FlagShowButtonNavigation FlagKey = "showButtonNavigation"
	FlagShowProjectSlider    FlagKey = "showProjectSlider"
)

// FlagKeys is the closed set of feature flag identifiers.
var FlagKeys = []FlagKey{
	FlagShowProjectsButton,
	FlagShowAboutMeButton,
	FlagShowExpertiseButton,
	FlagShowCpuArchitecture,
	FlagShowDockNavigation,
	FlagShowButtonNavigation,
	FlagShowProjectSlider,
}

func IsFlagKey(key string) bool {
	for _, k := range FlagKeys {
		if string(k) == key {
			return true
		}
	}
	return false
}

type FeatureFlag struct {
	Key         FlagKey `json:"key"`
	Value       bool    `json:"value"`
	Description *string `json:"description,omitempty"`
}
