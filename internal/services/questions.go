package services

// riskQuestions is the canonical WHO/ADA-style question bank. Order and point
// values are fixed: stored scores are only comparable across releases if the
// bank never changes. The maximum attainable score is 23.
var riskQuestions = []Question{
	{
		ID:          "age",
		Prompt:      "How old are you?",
		Explanation: "Diabetes risk increases with age, particularly after 45.",
		Options: []Option{
			{Value: 0, Text: "Under 45 years"},
			{Value: 2, Text: "45-54 years"},
			{Value: 3, Text: "55-64 years"},
			{Value: 4, Text: "65 years or older"},
		},
	},
	{
		ID:          "gender",
		Prompt:      "What is your gender?",
		Explanation: "Men are at a slightly higher risk of developing type 2 diabetes.",
		Options: []Option{
			{Value: 0, Text: "Female"},
			{Value: 1, Text: "Male"},
		},
	},
	{
		ID:          "family_history",
		Prompt:      "Has anyone in your family been diagnosed with diabetes?",
		Explanation: "Family history is one of the strongest predictors of diabetes risk.",
		Options: []Option{
			{Value: 0, Text: "No family history of diabetes"},
			{Value: 3, Text: "Grandparent, aunt, uncle, or first cousin with diabetes"},
			{Value: 5, Text: "Parent, brother, sister, or own child with diabetes"},
		},
	},
	{
		ID:          "blood_pressure",
		Prompt:      "Have you ever been diagnosed with high blood pressure?",
		Explanation: "High blood pressure often occurs alongside insulin resistance.",
		Options: []Option{
			{Value: 0, Text: "No"},
			{Value: 2, Text: "Yes, or I take blood pressure medication"},
		},
	},
	{
		ID:          "physical_activity",
		Prompt:      "Are you physically active?",
		Explanation: "Regular activity helps your body use insulin effectively.",
		Note:        "Count at least 30 minutes of moderate activity most days of the week.",
		Options: []Option{
			{Value: 0, Text: "Yes, I am physically active"},
			{Value: 2, Text: "No, I am not regularly active"},
		},
	},
	{
		ID:          "bmi",
		Prompt:      "What is your body mass index (BMI) category?",
		Explanation: "Excess body weight is a major modifiable risk factor.",
		Note:        "BMI = weight in kilograms divided by height in metres squared.",
		Options: []Option{
			{Value: 0, Text: "Normal weight (BMI under 25)"},
			{Value: 1, Text: "Overweight (BMI 25 to 30)"},
			{Value: 2, Text: "Obese (BMI 30 to 35)"},
			{Value: 3, Text: "Severely obese (BMI over 35)"},
		},
	},
	{
		ID:          "gestational_diabetes",
		Prompt:      "Have you ever been diagnosed with gestational diabetes?",
		Explanation: "Gestational diabetes increases the risk of type 2 diabetes later in life.",
		Options: []Option{
			{Value: 0, Text: "No, or not applicable"},
			{Value: 1, Text: "Yes"},
		},
	},
	{
		ID:          "prediabetes",
		Prompt:      "Have you ever been told you have prediabetes or borderline blood sugar?",
		Explanation: "Prediabetes means blood sugar is already elevated above the normal range.",
		Options: []Option{
			{Value: 0, Text: "No"},
			{Value: 5, Text: "Yes"},
		},
	},
}

// RiskQuestions returns the ordered question bank. The returned slice is a
// copy; the underlying questions are shared read-only data.
func RiskQuestions() []Question {
	out := make([]Question, len(riskQuestions))
	copy(out, riskQuestions)
	return out
}

// QuestionByID looks a question up in the bank.
func QuestionByID(id string) (Question, bool) {
	for _, q := range riskQuestions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
