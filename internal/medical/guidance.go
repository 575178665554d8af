package medical

// SymptomGuidance is the fixed triage guidance attached to symptom responses.
type SymptomGuidance struct {
	WhenToSeekImmediateCare []string `json:"when_to_seek_immediate_care"`
	WhenToContactProvider   []string `json:"when_to_contact_provider"`
	GeneralCareTips         []string `json:"general_care_tips"`
}

// DrugGuidance is the fixed safety guidance attached to drug-interaction responses.
type DrugGuidance struct {
	ImportantReminders    []string `json:"important_reminders"`
	WhenToContactProvider []string `json:"when_to_contact_provider"`
}

func symptomGuidance() *SymptomGuidance {
	return &SymptomGuidance{
		WhenToSeekImmediateCare: []string{
			"Severe chest pain or pressure",
			"Difficulty breathing or shortness of breath",
			"Signs of stroke (sudden weakness, speech problems)",
			"Severe allergic reactions",
			"High fever with severe symptoms",
			"Severe bleeding or injuries",
		},
		WhenToContactProvider: []string{
			"Symptoms that worsen or don't improve",
			"New symptoms that concern you",
			"Fever that persists or is very high",
			"Pain that interferes with daily activities",
		},
		GeneralCareTips: []string{
			"Rest and stay hydrated",
			"Monitor symptoms and track changes",
			"Follow any medication instructions carefully",
			"Seek medical advice if uncertain",
		},
	}
}

func drugGuidance() *DrugGuidance {
	return &DrugGuidance{
		ImportantReminders: []string{
			"Always consult your healthcare provider before starting, stopping, or changing medications",
			"Inform all healthcare providers about all medications you take",
			"Read medication labels and follow instructions carefully",
			"Be aware of potential side effects and interactions",
			"Store medications safely and securely",
		},
		WhenToContactProvider: []string{
			"Before combining medications",
			"If you experience side effects",
			"Before taking over-the-counter medications with prescriptions",
			"If you have questions about your medications",
		},
	}
}
