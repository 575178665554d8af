package sqlite

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/medassist/backend/internal/storage/models"
	"github.com/medassist/backend/pkg/logger"
)

var seedConditions = []models.Condition{
	{
		ID:          "common_cold",
		Name:        "Common Cold",
		Description: "Viral infection of the upper respiratory tract",
		Severity:    models.SeverityMild,
		Symptoms:    "runny nose, sore throat, cough, sneezing, mild fatigue",
		Causes:      "rhinovirus, coronavirus and other respiratory viruses",
		Treatments:  "rest, fluids, over-the-counter symptom relief",
	},
	{
		ID:          "influenza",
		Name:        "Influenza",
		Description: "Viral infection affecting the respiratory system",
		Severity:    models.SeverityModerate,
		Symptoms:    "fever, body aches, chills, cough, fatigue",
		Causes:      "influenza A and B viruses",
		Treatments:  "rest, fluids, antiviral medication when prescribed early",
	},
	{
		ID:          "hypertension",
		Name:        "High Blood Pressure",
		Description: "Condition where blood pressure is consistently elevated",
		Severity:    models.SeveritySerious,
		Symptoms:    "often none, sometimes headache, shortness of breath, nosebleeds",
		Causes:      "genetics, diet, inactivity, chronic kidney disease",
		Treatments:  "lifestyle changes, prescribed antihypertensive medication",
	},
	{
		ID:          "diabetes_t2",
		Name:        "Type 2 Diabetes",
		Description: "Metabolic disorder characterized by high blood sugar",
		Severity:    models.SeveritySerious,
		Symptoms:    "increased thirst, frequent urination, fatigue, blurred vision",
		Causes:      "insulin resistance, genetics, obesity",
		Treatments:  "diet, exercise, metformin and other prescribed medication",
	},
	{
		ID:          "headache_tension",
		Name:        "Tension Headache",
		Description: "Most common type of headache, a dull ache with band-like pressure",
		Severity:    models.SeverityMild,
		Symptoms:    "headache, pressure around forehead, neck stiffness, tired eyes",
		Causes:      "stress, poor posture, eye strain, dehydration",
		Treatments:  "rest, hydration, over-the-counter pain relief, stress management",
	},
}

var seedInteractions = []models.DrugInteraction{
	{
		DrugA:         "aspirin",
		DrugB:         "ibuprofen",
		Type:          "moderate",
		Description:   "Ibuprofen can interfere with the antiplatelet effect of low-dose aspirin and both increase bleeding risk",
		SeverityScore: 5,
	},
	{
		DrugA:         "lisinopril",
		DrugB:         "ibuprofen",
		Type:          "moderate",
		Description:   "NSAIDs can reduce the blood-pressure-lowering effect of ACE inhibitors and affect kidney function",
		SeverityScore: 6,
	},
	{
		DrugA:         "simvastatin",
		DrugB:         "amlodipine",
		Type:          "moderate",
		Description:   "Amlodipine raises simvastatin levels; dose limits apply to reduce the risk of muscle injury",
		SeverityScore: 5,
	},
	{
		DrugA:         "levothyroxine",
		DrugB:         "omeprazole",
		Type:          "minor",
		Description:   "Acid suppression can reduce levothyroxine absorption; separate dosing times",
		SeverityScore: 3,
	},
}

var seedTerms = []models.Term{
	{
		Term:          "hypertension",
		Definition:    "Blood pressure that is consistently higher than normal",
		Category:      "conditions",
		Pronunciation: "hahy-per-TEN-shun",
	},
	{
		Term:          "tachycardia",
		Definition:    "A heart rate that is faster than normal, typically over 100 beats per minute at rest",
		Category:      "symptoms",
		Pronunciation: "tak-ih-KAHR-dee-uh",
	},
	{
		Term:          "analgesic",
		Definition:    "A medication used to relieve pain",
		Category:      "treatments",
		Pronunciation: "an-l-JEE-zik",
	},
	{
		Term:          "edema",
		Definition:    "Swelling caused by excess fluid trapped in body tissues",
		Category:      "symptoms",
		Pronunciation: "ih-DEE-muh",
	},
	{
		Term:          "prognosis",
		Definition:    "The likely course and outcome of a disease",
		Category:      "general",
		Pronunciation: "prog-NOH-sis",
	},
}

// Seed populates the reference tables when the condition table is empty.
// Safe to call on every startup.
func (c *Client) Seed() error {
	var count int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM medical_conditions").Scan(&count); err != nil {
		return fmt.Errorf("failed to check seed state: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().Unix()

	for _, cond := range seedConditions {
		_, err := c.db.Exec(
			`INSERT OR IGNORE INTO medical_conditions (id, name, description, severity, symptoms, causes, treatments, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cond.ID, cond.Name, cond.Description, cond.Severity, cond.Symptoms, cond.Causes, cond.Treatments, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to seed condition %s: %w", cond.ID, err)
		}
	}

	for _, di := range seedInteractions {
		_, err := c.db.Exec(
			`INSERT INTO drug_interactions (drug_a, drug_b, interaction_type, description, severity_score, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			di.DrugA, di.DrugB, di.Type, di.Description, di.SeverityScore, now,
		)
		if err != nil {
			return fmt.Errorf("failed to seed interaction %s/%s: %w", di.DrugA, di.DrugB, err)
		}
	}

	for _, term := range seedTerms {
		_, err := c.db.Exec(
			`INSERT OR IGNORE INTO medical_terms (term, definition, category, pronunciation, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			term.Term, term.Definition, term.Category, term.Pronunciation, now,
		)
		if err != nil {
			return fmt.Errorf("failed to seed term %s: %w", term.Term, err)
		}
	}

	logger.Info("Reference data seeded",
		zap.Int("conditions", len(seedConditions)),
		zap.Int("interactions", len(seedInteractions)),
		zap.Int("terms", len(seedTerms)),
	)

	return nil
}
