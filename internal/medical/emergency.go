package medical

import "strings"

const emergencyResponse = `**EMERGENCY ALERT**

Based on your description, this may be a medical emergency that requires immediate attention.

**IMMEDIATE ACTION REQUIRED:**
- Call emergency services (911 in US, your local emergency number elsewhere) NOW
- Do not delay seeking immediate medical care
- If possible, have someone drive you to the nearest emergency room
- Do not rely on this app for emergency medical situations

**This is not a substitute for emergency medical care.**

Emergency symptoms require immediate professional medical evaluation and treatment.`

const immediateActionEmergency = "CALL_EMERGENCY_SERVICES"

// DetectEmergency reports whether the raw query contains any emergency keyword,
// case-insensitively. Pure function: the keyword list comes from configuration.
func DetectEmergency(query string, keywords []string) bool {
	lower := strings.ToLower(query)
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
